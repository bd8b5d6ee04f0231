package model

// Remote status codes shared by the registration and activation endpoints.
const (
	// RemoteStatusOK is returned when a registration or activation request succeeded.
	RemoteStatusOK = 1
	// RemoteStatusAuthenticatorPresent is returned by the registration
	// endpoint when the account already has an authenticator linked.
	RemoteStatusAuthenticatorPresent = 29
	// RemoteStatusBadActivationCode is returned by the activation endpoint
	// when the submitted time-based code did not match the current window.
	RemoteStatusBadActivationCode = 88
	// RemoteStatusBadSMSCode is returned by the activation endpoint when the
	// SMS code is wrong.
	RemoteStatusBadSMSCode = 89
)

// RegistrationResponse is the decoded reply to an authenticator registration request.
type RegistrationResponse struct {
	Status        int
	Authenticator *Authenticator
}

// ActivationResponse is the decoded reply to an activation-code submission.
type ActivationResponse struct {
	Status     int
	ServerTime int64
	WantMore   bool // The remote asks for a code from the next time window.
	Success    bool
}

// ResetOptions describes which authenticator recovery paths the account may use.
type ResetOptions struct {
	SMSAllowed bool
	LastDigits string // Last digits of the phone number codes are sent to.
}
