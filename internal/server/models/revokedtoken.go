package models

import "time"

// RevokedToken is a revocation record: the token with TokenID, issued for
// Subject, was logged out at RevokedAt. Records are created once and only
// ever deleted.
type RevokedToken struct {
	TokenID   string
	Subject   string
	RevokedAt time.Time
}

// StaleAt is the instant after which the reaper may drop the record, given
// the configured token validity.
func (r RevokedToken) StaleAt(validity time.Duration) time.Time {
	return r.RevokedAt.Add(validity)
}
