package session

type Status string

const (
	StatusAnonymous        Status = "ANONYMOUS"
	StatusAuthenticating   Status = "AUTHENTICATING"
	StatusSignedIn         Status = "SIGNED_IN"
	StatusReauthenticating Status = "REAUTHENTICATING"
)

// StatusOf derives the display status of a snapshot. A pending request wins over
// the signed-in state so views can show progress during a re-login.
func StatusOf(s Session) Status {
	switch {
	case s.Pending && s.SignedIn():
		return StatusReauthenticating
	case s.Pending:
		return StatusAuthenticating
	case s.SignedIn():
		return StatusSignedIn
	default:
		return StatusAnonymous
	}
}
