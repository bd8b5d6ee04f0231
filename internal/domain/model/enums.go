package model

// LinkResult represents the outcome of an enrollment or transfer initiation step.
type LinkResult string

const (
	// LinkMustProvidePhoneNumber means the account has no phone attached and
	// the caller supplied none; the remote service needs one for SMS delivery.
	LinkMustProvidePhoneNumber LinkResult = "must_provide_phone_number"
	// LinkMustRemovePhoneNumber means the account already has a phone attached
	// and the caller asked to register a different one.
	LinkMustRemovePhoneNumber LinkResult = "must_remove_phone_number"
	// LinkMustConfirmEmail means a phone-add request was submitted and the
	// account owner must click the confirmation link sent by email before the
	// initiation step is called again.
	LinkMustConfirmEmail LinkResult = "must_confirm_email"
	// LinkAwaitingFinalization means the step succeeded and an SMS code is on
	// its way; the caller must run the matching finalization step next.
	LinkAwaitingFinalization LinkResult = "awaiting_finalization"
	// LinkAuthenticatorPresent means the account already has an authenticator linked.
	LinkAuthenticatorPresent LinkResult = "authenticator_present"
	// LinkGeneralFailure covers transport failures and unexpected remote statuses.
	LinkGeneralFailure LinkResult = "general_failure"
)

// FinalizeResult represents the outcome of a finalization step.
type FinalizeResult string

const (
	FinalizeSuccess FinalizeResult = "success"
	// FinalizeBadSMSCode means the remote service rejected the SMS code.
	FinalizeBadSMSCode FinalizeResult = "bad_sms_code"
	// FinalizeUnableToGenerateCorrectCodes means every permitted activation
	// attempt produced a code the remote service rejected as stale.
	FinalizeUnableToGenerateCorrectCodes FinalizeResult = "unable_to_generate_correct_codes"
	FinalizeGeneralFailure               FinalizeResult = "general_failure"
)
