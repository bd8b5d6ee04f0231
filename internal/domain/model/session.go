package model

// Session carries the authenticated-session credentials the caller obtained
// from its login flow. They are opaque to this package; the HTTP adapter
// turns them into cookies and form fields.
type Session struct {
	SteamID     uint64
	AccessToken string
	SessionID   string // Web session identifier used by community endpoints.
}
