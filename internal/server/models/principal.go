package models

// Principal is the authenticated identity attached to a request once the
// gate has accepted its token.
type Principal struct {
	Subject string
	TokenID string
	User    *User
}
