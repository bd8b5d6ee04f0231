package application

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/guardlink/internal/domain/model"
)

// MoveAuthenticator initiates transferring an existing authenticator to this
// device. The remote must allow SMS-based recovery; on success it sends a
// reset code to the account's registered phone and the caller proceeds with
// FinalizeMoveAuthenticator.
func (s *LinkService) MoveAuthenticator(ctx context.Context) model.LinkResult {
	opts, err := s.client.GetResetOptions(ctx)
	if err != nil {
		slog.Error("reset options query failed", "error", err)
		return model.LinkGeneralFailure
	}
	if !opts.SMSAllowed {
		slog.Error("sms-based authenticator reset not permitted for account")
		return model.LinkGeneralFailure
	}

	if err := s.client.StartAuthenticatorReset(ctx); err != nil {
		slog.Error("reset initiation failed", "error", err)
		return model.LinkGeneralFailure
	}

	slog.Info("authenticator reset initiated", "sms_last_digits", opts.LastDigits)
	return model.LinkAwaitingFinalization
}

// FinalizeMoveAuthenticator completes the transfer with the reset SMS code.
// The remote returns a replacement token embedding the new credential; the
// decoded credential is stamped with this session's device identifier and
// becomes the session's output.
func (s *LinkService) FinalizeMoveAuthenticator(ctx context.Context, smsCode string) model.FinalizeResult {
	token, err := s.client.FinishAuthenticatorReset(ctx, smsCode)
	if err != nil {
		slog.Error("reset finalization failed", "error", err)
		return model.FinalizeGeneralFailure
	}

	auth, err := model.ParseReplacementToken(token)
	if err != nil {
		slog.Error("replacement token rejected", "error", err)
		return model.FinalizeGeneralFailure
	}

	auth.DeviceID = s.deviceID
	auth.FullyEnrolled = true
	s.credential = auth

	slog.Info("authenticator transferred", "serial_number", auth.SerialNumber)
	return model.FinalizeSuccess
}
