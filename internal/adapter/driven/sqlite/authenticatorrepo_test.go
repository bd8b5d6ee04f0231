package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/guardlink/internal/domain/model"
	"github.com/ericfisherdev/guardlink/internal/domain/port/driven"
)

var testKey = []byte("0123456789abcdef0123456789abcdef") // 32 bytes for AES-256.

func enrolledAuthenticator(account string) *model.Authenticator {
	return &model.Authenticator{
		SharedSecret:   "c2VjcmV0",
		SerialNumber:   "6181262547",
		RevocationCode: "R12345",
		AccountName:    account,
		ServerTime:     1700000000,
		DeviceID:       "android:7f1d2e00-0000-4000-8000-000000000000",
		FullyEnrolled:  true,
	}
}

func TestAuthenticatorRepo_SaveAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthenticatorRepo(db, testKey)
	ctx := context.Background()

	want := enrolledAuthenticator("someuser")
	require.NoError(t, repo.Save(ctx, 76561198012345678, want))

	got, err := repo.Get(ctx, 76561198012345678)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *want, *got)

	// Payloads are encrypted at rest; the shared secret must not appear in
	// the stored column.
	var payload string
	err = db.Reader.QueryRowContext(ctx, `SELECT payload FROM authenticators WHERE steam_id = ?`, 76561198012345678).Scan(&payload)
	require.NoError(t, err)
	assert.NotContains(t, payload, want.SharedSecret)
	assert.NotContains(t, payload, want.RevocationCode)
}

func TestAuthenticatorRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthenticatorRepo(db, testKey)

	got, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAuthenticatorRepo_SaveReplaces(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthenticatorRepo(db, testKey)
	ctx := context.Background()

	first := enrolledAuthenticator("someuser")
	require.NoError(t, repo.Save(ctx, 42, first))

	second := enrolledAuthenticator("someuser")
	second.RevocationCode = "R99999"
	require.NoError(t, repo.Save(ctx, 42, second))

	got, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "R99999", got.RevocationCode)
}

func TestAuthenticatorRepo_RejectsPartialCredential(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthenticatorRepo(db, testKey)
	ctx := context.Background()

	tests := []struct {
		name string
		auth *model.Authenticator
	}{
		{name: "nil credential", auth: nil},
		{
			name: "not fully enrolled",
			auth: func() *model.Authenticator {
				a := enrolledAuthenticator("someuser")
				a.FullyEnrolled = false
				return a
			}(),
		},
		{
			name: "missing device identifier",
			auth: func() *model.Authenticator {
				a := enrolledAuthenticator("someuser")
				a.DeviceID = ""
				return a
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Save(ctx, 42, tt.auth)
			assert.ErrorIs(t, err, driven.ErrNotFullyEnrolled)
		})
	}
}

func TestAuthenticatorRepo_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthenticatorRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, 2, enrolledAuthenticator("bravo")))
	require.NoError(t, repo.Save(ctx, 1, enrolledAuthenticator("alpha")))

	stored, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "alpha", stored[0].AccountName)
	assert.Equal(t, "bravo", stored[1].AccountName)
	assert.Equal(t, uint64(1), stored[0].SteamID)
	assert.False(t, stored[0].UpdatedAt.IsZero())
}

func TestAuthenticatorRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthenticatorRepo(db, testKey)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, 42, enrolledAuthenticator("someuser")))
	require.NoError(t, repo.Delete(ctx, 42))

	got, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting a missing row is not an error.
	assert.NoError(t, repo.Delete(ctx, 42))
}

func TestAuthenticatorRepo_NoEncryptionKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuthenticatorRepo(db, nil)
	ctx := context.Background()

	err := repo.Save(ctx, 42, enrolledAuthenticator("someuser"))
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.Get(ctx, 42)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)

	_, err = repo.List(ctx)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
}

func TestAuthenticatorRepo_WrongKeyFailsDecryption(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	writer := NewAuthenticatorRepo(db, testKey)
	require.NoError(t, writer.Save(ctx, 42, enrolledAuthenticator("someuser")))

	otherKey := []byte("ffffffffffffffffffffffffffffffff")
	reader := NewAuthenticatorRepo(db, otherKey)
	_, err := reader.Get(ctx, 42)
	assert.Error(t, err)
}
