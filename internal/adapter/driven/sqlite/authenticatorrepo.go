package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ericfisherdev/guardlink/internal/domain/model"
	"github.com/ericfisherdev/guardlink/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AuthenticatorStore = (*AuthenticatorRepo)(nil)

// AuthenticatorRepo is the SQLite implementation of the AuthenticatorStore
// port interface. The serialized credential is encrypted with AES-256-GCM
// before write and decrypted after read; the revocation code and shared
// secrets never touch disk in plaintext.
type AuthenticatorRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when persistence is disabled.
}

// NewAuthenticatorRepo creates a new AuthenticatorRepo. key must be 32 bytes
// for AES-256-GCM, or nil to disable persistence (all operations will return
// driven.ErrEncryptionKeyNotSet).
func NewAuthenticatorRepo(db *DB, key []byte) *AuthenticatorRepo {
	return &AuthenticatorRepo{db: db, key: key}
}

// Save stores or replaces the credential for the given account. Partially
// enrolled credentials are rejected: a serialized credential missing its
// device identifier or fully-enrolled flag is permanently unusable.
func (r *AuthenticatorRepo) Save(ctx context.Context, steamID uint64, auth *model.Authenticator) error {
	if auth == nil || !auth.FullyEnrolled || auth.DeviceID == "" {
		return driven.ErrNotFullyEnrolled
	}

	payload, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("serialize authenticator for %d: %w", steamID, err)
	}

	encrypted, err := r.encrypt(payload)
	if err != nil {
		return err
	}

	const query = `INSERT OR REPLACE INTO authenticators (steam_id, account_name, payload, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(ctx, query, steamID, auth.AccountName, encrypted); err != nil {
		return fmt.Errorf("save authenticator for %d: %w", steamID, err)
	}
	return nil
}

// Get retrieves the credential for the given account.
// Returns (nil, nil) if no credential is stored for that account.
func (r *AuthenticatorRepo) Get(ctx context.Context, steamID uint64) (*model.Authenticator, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT payload FROM authenticators WHERE steam_id = ?`
	var encrypted string
	err := r.db.Reader.QueryRowContext(ctx, query, steamID).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get authenticator for %d: %w", steamID, err)
	}

	return r.decode(steamID, encrypted)
}

// List returns all stored credentials with their storage metadata.
func (r *AuthenticatorRepo) List(ctx context.Context) ([]model.StoredAuthenticator, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT steam_id, account_name, payload, updated_at FROM authenticators ORDER BY account_name`
	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list authenticators: %w", err)
	}
	defer rows.Close()

	var stored []model.StoredAuthenticator
	for rows.Next() {
		var entry model.StoredAuthenticator
		var encrypted, updatedAt string
		if err := rows.Scan(&entry.SteamID, &entry.AccountName, &encrypted, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan authenticator: %w", err)
		}

		auth, err := r.decode(entry.SteamID, encrypted)
		if err != nil {
			return nil, err
		}
		entry.Authenticator = *auth

		entry.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at for %d: %w", entry.SteamID, err)
		}

		stored = append(stored, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate authenticators: %w", err)
	}

	return stored, nil
}

// Delete removes the credential for the given account.
func (r *AuthenticatorRepo) Delete(ctx context.Context, steamID uint64) error {
	const query = `DELETE FROM authenticators WHERE steam_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, steamID); err != nil {
		return fmt.Errorf("delete authenticator for %d: %w", steamID, err)
	}
	return nil
}

// decode decrypts and deserializes one stored credential.
func (r *AuthenticatorRepo) decode(steamID uint64, encrypted string) (*model.Authenticator, error) {
	payload, err := r.decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt authenticator for %d: %w", steamID, err)
	}

	var auth model.Authenticator
	if err := json.Unmarshal(payload, &auth); err != nil {
		return nil, fmt.Errorf("deserialize authenticator for %d: %w", steamID, err)
	}
	return &auth, nil
}

// encrypt encrypts the payload using AES-256-GCM and returns a base64-encoded
// string containing the nonce (12 bytes) prepended to the ciphertext.
func (r *AuthenticatorRepo) encrypt(plaintext []byte) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *AuthenticatorRepo) decrypt(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("gcm.Open: %w", err)
	}

	return plaintext, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
