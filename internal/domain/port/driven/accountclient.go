// Package driven defines the outbound port interfaces of the domain.
package driven

import (
	"context"

	"github.com/ericfisherdev/guardlink/internal/domain/model"
)

// AccountClient defines the driven port for talking to the remote account
// service on behalf of an authenticated session. Every transport failure
// (timeout, DNS, non-2xx, malformed body) surfaces as a non-nil error; the
// application layer folds all of them into its general-failure results.
type AccountClient interface {
	// Phone management (community endpoints)

	// HasPhoneNumber reports whether the account has a phone number attached.
	HasPhoneNumber(ctx context.Context) (bool, error)
	// AddPhoneNumber asks the remote service to attach the given number.
	// Success triggers a confirmation email to the account owner.
	AddPhoneNumber(ctx context.Context, number string) error
	// IsEmailConfirmed reports whether the phone-add confirmation email has
	// been acted on.
	IsEmailConfirmed(ctx context.Context) (bool, error)
	// CheckSMSCode reports whether the given SMS code verifies the pending
	// phone registration.
	CheckSMSCode(ctx context.Context, code string) (bool, error)

	// Two-factor service endpoints

	// AddAuthenticator registers a new authenticator bound to deviceID.
	AddAuthenticator(ctx context.Context, deviceID string) (*model.RegistrationResponse, error)
	// FinalizeAuthenticator submits an SMS activation code together with a
	// time-based authenticator code and the timestamp it was generated for.
	FinalizeAuthenticator(ctx context.Context, activationCode, authenticatorCode string, authenticatorTime int64) (*model.ActivationResponse, error)
	// QueryServerTime returns the remote service's clock as unix seconds.
	QueryServerTime(ctx context.Context) (int64, error)

	// Transfer/reset endpoints

	// GetResetOptions returns which recovery paths the account may use.
	GetResetOptions(ctx context.Context) (*model.ResetOptions, error)
	// StartAuthenticatorReset asks the remote service to send the reset SMS.
	StartAuthenticatorReset(ctx context.Context) error
	// FinishAuthenticatorReset submits the reset SMS code and returns the
	// base64-encoded replacement token embedding the new credential.
	FinishAuthenticatorReset(ctx context.Context, smsCode string) (string, error)
}
