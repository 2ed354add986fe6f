package models

import "time"

// Credential is a user's stored password material. The password itself is
// never persisted, only the salted hash.
type Credential struct {
	ID        string    `json:"id"`
	Tenant    string    `json:"-"`
	UserID    string    `json:"userId"`
	Salt      string    `json:"salt"`
	Hash      string    `json:"hash"`
	CreatedAt time.Time `json:"createdDate"`
}

// CredentialHistory is a retired salt/hash pair kept for reuse checks.
type CredentialHistory struct {
	ID     string    `json:"id"`
	Tenant string    `json:"-"`
	UserID string    `json:"userId"`
	Salt   string    `json:"salt"`
	Hash   string    `json:"hash"`
	Date   time.Time `json:"date"`
}

// LoginAttempts is the per-user failed-login counter. One row per
// (tenant, user).
type LoginAttempts struct {
	ID           string    `json:"id"`
	Tenant       string    `json:"-"`
	UserID       string    `json:"userId"`
	AttemptCount int       `json:"attemptCount"`
	LastAttempt  time.Time `json:"lastAttempt"`
}

// PasswordAction is a single-use ticket authorizing one password creation
// or reset.
type PasswordAction struct {
	ID             string    `json:"id"`
	Tenant         string    `json:"-"`
	UserID         string    `json:"userId"`
	ExpirationTime time.Time `json:"expirationTime"`
}

// Expired reports whether the action's expiration time has passed.
func (a *PasswordAction) Expired(now time.Time) bool {
	return now.After(a.ExpirationTime)
}
