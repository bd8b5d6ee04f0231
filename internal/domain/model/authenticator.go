// Package model holds the domain types for mobile authenticator enrollment.
package model

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// codePeriod is the width of an activation-code time window in seconds.
const codePeriod = 30

// codeAlphabet is the character set activation codes are drawn from. The
// remote service expects exactly this 26-character set; digits and letters
// that are easy to confuse (0, O, 1, I, ...) are absent.
var codeAlphabet = []byte("23456789BCDFGHJKMNPQRTVWXY")

// Authenticator is the credential bundle issued by the remote service when an
// authenticator is registered, or decoded from a replacement token during a
// device transfer. All fields except DeviceID and FullyEnrolled come from the
// wire; those two are stamped by the enrollment coordinator, each at most
// once, and never reverted.
type Authenticator struct {
	SharedSecret   string `json:"shared_secret"`
	SerialNumber   string `json:"serial_number"`
	RevocationCode string `json:"revocation_code"`
	URI            string `json:"uri"`
	ServerTime     int64  `json:"server_time,string"`
	AccountName    string `json:"account_name"`
	TokenGID       string `json:"token_gid"`
	IdentitySecret string `json:"identity_secret"`
	Secret1        string `json:"secret_1"`
	Status         int    `json:"status"`

	DeviceID      string `json:"device_id"`
	FullyEnrolled bool   `json:"fully_enrolled"`
}

// GenerateCode derives the 5-character activation code for the given unix
// time from the shared secret: HMAC-SHA1 over the big-endian 30-second
// counter, dynamically truncated, then expressed in the code alphabet.
func (a *Authenticator) GenerateCode(unixTime int64) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(a.SharedSecret)
	if err != nil {
		return "", fmt.Errorf("decode shared secret: %w", err)
	}
	if len(secret) == 0 {
		return "", errors.New("shared secret is empty")
	}

	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], uint64(unixTime/codePeriod))

	mac := hmac.New(sha1.New, secret)
	mac.Write(counter[:])
	sum := mac.Sum(nil)

	start := sum[len(sum)-1] & 0x0F
	slice := binary.BigEndian.Uint32(sum[start:start+4]) & 0x7FFFFFFF

	code := make([]byte, 5)
	for i := range code {
		code[i] = codeAlphabet[slice%uint32(len(codeAlphabet))]
		slice /= uint32(len(codeAlphabet))
	}
	return string(code), nil
}

// ErrMalformedToken is returned by ParseReplacementToken when the token is
// not valid base64, not valid JSON, or lacks the credential's secret material.
var ErrMalformedToken = errors.New("malformed replacement token")

// ParseReplacementToken decodes the base64-wrapped credential blob the remote
// service returns when an authenticator is moved to a new device. The caller
// still has to stamp the device identifier and fully-enrolled flag.
func ParseReplacementToken(token string) (*Authenticator, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	var auth Authenticator
	if err := json.Unmarshal(raw, &auth); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if auth.SharedSecret == "" || auth.RevocationCode == "" {
		return nil, fmt.Errorf("%w: missing secret material", ErrMalformedToken)
	}
	return &auth, nil
}

// StoredAuthenticator is a persisted credential together with its storage metadata.
type StoredAuthenticator struct {
	SteamID       uint64
	AccountName   string
	Authenticator Authenticator
	UpdatedAt     time.Time
}
