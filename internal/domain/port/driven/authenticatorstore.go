package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/guardlink/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by AuthenticatorStore operations when
// GUARDLINK_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set GUARDLINK_SECRET_KEY")

// ErrNotFullyEnrolled is returned by Save when the credential's device
// identifier or fully-enrolled flag is unset. A partially populated
// credential is permanently unusable once serialized, so the store refuses it.
var ErrNotFullyEnrolled = errors.New("refusing to store a partially enrolled authenticator")

// AuthenticatorStore defines the driven port for encrypted credential
// persistence. Persistence is the caller's responsibility, not the
// coordinator's; the composition root uses this port after a successful
// enrollment. The adapter layer handles encryption; this interface operates
// on plaintext credentials at the domain boundary.
type AuthenticatorStore interface {
	// Save stores or replaces the credential for the given account.
	// Returns ErrNotFullyEnrolled for partially populated credentials and
	// ErrEncryptionKeyNotSet when the adapter has no encryption key.
	Save(ctx context.Context, steamID uint64, auth *model.Authenticator) error

	// Get retrieves the credential for the given account.
	// Returns (nil, nil) if no credential is stored for that account.
	Get(ctx context.Context, steamID uint64) (*model.Authenticator, error)

	// List returns all stored credentials with their storage metadata.
	List(ctx context.Context) ([]model.StoredAuthenticator, error)

	// Delete removes the credential for the given account.
	Delete(ctx context.Context, steamID uint64) error
}
