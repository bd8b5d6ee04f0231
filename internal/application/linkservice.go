package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/guardlink/internal/domain/model"
	"github.com/ericfisherdev/guardlink/internal/domain/port/driven"
)

// Protocol-tuning constants. Both values are part of the remote service's
// expectations; changing them breaks conformance.
const (
	// maxActivationAttempts caps the activation loop. Activation codes are
	// time-windowed, so a stale first code is resubmitted with a fresh one;
	// the remote tolerates at most this many submissions per finalization.
	maxActivationAttempts = 31

	// smsRecheckDelay is how long to wait before the single fallback
	// phone-attachment re-check when SMS verification reports not-yet-confirmed.
	smsRecheckDelay = 3500 * time.Millisecond
)

// LinkService drives one authenticator linking session: either a new
// enrollment (AddAuthenticator / FinalizeAddAuthenticator) or a transfer of
// an existing authenticator to this device (MoveAuthenticator /
// FinalizeMoveAuthenticator). It holds session-scoped mutable state and must
// be driven sequentially by one logical caller; concurrent method calls on
// the same instance are not supported.
//
// The device identifier is generated once at construction and reused across
// every retry within the session. Regenerating it mid-flow would desynchronize
// the remote registration.
type LinkService struct {
	client driven.AccountClient
	clock  *ClockSync

	deviceID    string
	phoneNumber string // Number to register, empty when the account already has one.

	emailConfirmationSent bool
	credential            *model.Authenticator

	// recheckDelay equals smsRecheckDelay in production; tests shorten it.
	recheckDelay time.Duration
}

// NewLinkService creates a coordinator for one linking session. phoneNumber
// is the number to attach when the account has none; pass "" when the account
// already has a verified phone.
func NewLinkService(client driven.AccountClient, clock *ClockSync, phoneNumber string) *LinkService {
	return &LinkService{
		client:       client,
		clock:        clock,
		deviceID:     "android:" + uuid.NewString(),
		phoneNumber:  phoneNumber,
		recheckDelay: smsRecheckDelay,
	}
}

// DeviceID returns the session's device identifier.
func (s *LinkService) DeviceID() string {
	return s.deviceID
}

// Authenticator returns the session's output credential, or nil until the
// credential is fully populated (device identifier stamped and fully-enrolled
// flag set). A partially populated credential is never observable here.
func (s *LinkService) Authenticator() *model.Authenticator {
	if s.credential == nil || !s.credential.FullyEnrolled || s.credential.DeviceID == "" {
		return nil
	}
	return s.credential
}

// AddAuthenticator runs the enrollment initiation step. Depending on the
// account's phone state it may terminate early asking the caller to supply or
// remove a phone number, or to confirm the phone-add email out of band and
// call again. On LinkAwaitingFinalization the credential is held by the
// session and an SMS code is on its way.
func (s *LinkService) AddAuthenticator(ctx context.Context) model.LinkResult {
	hasPhone, err := s.client.HasPhoneNumber(ctx)
	if err != nil {
		slog.Error("phone presence check failed", "error", err)
		return model.LinkGeneralFailure
	}

	switch {
	case hasPhone && s.phoneNumber != "":
		return model.LinkMustRemovePhoneNumber
	case !hasPhone && s.phoneNumber == "":
		return model.LinkMustProvidePhoneNumber
	case !hasPhone && !s.emailConfirmationSent:
		if err := s.client.AddPhoneNumber(ctx, s.phoneNumber); err != nil {
			slog.Error("phone-add request failed", "error", err)
			return model.LinkGeneralFailure
		}
		s.emailConfirmationSent = true
		return model.LinkMustConfirmEmail
	case !hasPhone:
		confirmed, err := s.client.IsEmailConfirmed(ctx)
		if err != nil {
			slog.Error("email confirmation check failed", "error", err)
			return model.LinkGeneralFailure
		}
		if !confirmed {
			return model.LinkGeneralFailure
		}
	}

	resp, err := s.client.AddAuthenticator(ctx, s.deviceID)
	if err != nil {
		slog.Error("authenticator registration failed", "error", err)
		return model.LinkGeneralFailure
	}

	switch resp.Status {
	case model.RemoteStatusOK:
		resp.Authenticator.DeviceID = s.deviceID
		s.credential = resp.Authenticator
		slog.Info("authenticator registered", "serial_number", resp.Authenticator.SerialNumber)
		return model.LinkAwaitingFinalization
	case model.RemoteStatusAuthenticatorPresent:
		return model.LinkAuthenticatorPresent
	default:
		slog.Error("authenticator registration rejected", "status", resp.Status)
		return model.LinkGeneralFailure
	}
}

// FinalizeAddAuthenticator activates the credential registered by
// AddAuthenticator with the SMS code the account owner received. When a phone
// number was registered this session the SMS code is verified first, with a
// single delayed phone-attachment re-check as fallback. Activation then runs
// a bounded loop submitting freshly generated time-based codes; stale-code
// rejections and want_more responses share the same attempt budget.
func (s *LinkService) FinalizeAddAuthenticator(ctx context.Context, smsCode string) model.FinalizeResult {
	if s.credential == nil {
		slog.Error("finalize called before a credential was registered")
		return model.FinalizeGeneralFailure
	}

	if s.phoneNumber != "" {
		ok, err := s.client.CheckSMSCode(ctx, smsCode)
		if err != nil {
			slog.Error("sms code check failed", "error", err)
			return model.FinalizeGeneralFailure
		}
		if !ok {
			// The verification endpoint lags the SMS round trip; give the
			// remote one chance to catch up before rejecting the code.
			if err := sleepCtx(ctx, s.recheckDelay); err != nil {
				return model.FinalizeGeneralFailure
			}
			attached, err := s.client.HasPhoneNumber(ctx)
			if err != nil || !attached {
				return model.FinalizeBadSMSCode
			}
		}
	}

	for attempt := 0; attempt < maxActivationAttempts; attempt++ {
		authTime := s.clock.Now(ctx)
		code, err := s.credential.GenerateCode(authTime)
		if err != nil {
			slog.Error("code generation failed", "error", err)
			return model.FinalizeGeneralFailure
		}

		resp, err := s.client.FinalizeAuthenticator(ctx, smsCode, code, authTime)
		if err != nil {
			slog.Error("activation request failed", "attempt", attempt, "error", err)
			return model.FinalizeGeneralFailure
		}

		switch {
		case resp.Status == model.RemoteStatusBadSMSCode:
			return model.FinalizeBadSMSCode
		case resp.Status == model.RemoteStatusBadActivationCode:
			slog.Debug("activation code rejected as stale", "attempt", attempt)
			continue
		case !resp.Success:
			slog.Error("activation rejected", "status", resp.Status)
			return model.FinalizeGeneralFailure
		case resp.WantMore:
			slog.Debug("remote requested another activation code", "attempt", attempt)
			continue
		default:
			s.credential.FullyEnrolled = true
			slog.Info("authenticator activated", "attempts", attempt+1)
			return model.FinalizeSuccess
		}
	}

	return model.FinalizeUnableToGenerateCorrectCodes
}

// sleepCtx waits for d or until ctx is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
