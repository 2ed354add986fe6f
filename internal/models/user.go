package models

// User is the record returned by the remote identity lookup. Only the fields
// the login flow needs are carried.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Active   bool   `json:"active"`
}

// AttemptState classifies a user's failed-login standing after an attempt is
// recorded.
type AttemptState int

const (
	// AttemptStateClear means the counter is below the warn threshold.
	AttemptStateClear AttemptState = iota
	// AttemptStateWarning means the counter reached the warn threshold but
	// not the block threshold.
	AttemptStateWarning
	// AttemptStateBlocked means the block threshold was reached within the
	// timeout window and the account has been deactivated.
	AttemptStateBlocked
)

func (s AttemptState) String() string {
	switch s {
	case AttemptStateWarning:
		return "warning"
	case AttemptStateBlocked:
		return "blocked"
	default:
		return "clear"
	}
}
