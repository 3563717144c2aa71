package domain

// Session is the descriptor the authentication provider attaches to a
// request. The core reads identity and display name but performs no
// verification of its own.
type Session struct {
	Identity    string
	DisplayName string
}

// IsAuthenticated returns true if the session carries an identity.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Identity != ""
}
