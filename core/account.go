package core

import "time"

// ActionUserSignup is the audit action recorded when an account is first created.
const ActionUserSignup = "user_signup"

// Account represents a linked Tesla account
type Account struct {
	ID             string // Lowercased email, immutable once created
	Email          string // Email as reported by Tesla
	FullName       string // Display name from the Tesla profile
	RefreshToken   string // Long-lived Tesla refresh credential
	TokenExpiresAt int64  // Epoch seconds when the Tesla access token expires
	CreatedAt      int64  // Epoch seconds when the account was created
	UpdatedAt      int64  // Epoch seconds of the last credential update
}

// Profile represents the identity resolved from the Tesla profile endpoint
type Profile struct {
	Email    string
	FullName string
}

// TokenBundle represents the response of a token grant.
// ExpiresIn is relative to the moment the provider answered, so callers
// must convert it to an absolute timestamp right away.
type TokenBundle struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// ExpiresAt converts the relative lifetime to epoch seconds anchored at now.
func (b TokenBundle) ExpiresAt(now time.Time) int64 {
	return now.Unix() + b.ExpiresIn
}

// Session represents an authenticated frontend session
type Session struct {
	Identity  string    // Account ID (lowercased email)
	Email     string    // Email claim embedded in the token
	IssuedAt  time.Time // When the session was created
	ExpiresAt time.Time // When the session expires
}

// AuditEvent represents an append-only audit record
type AuditEvent struct {
	ID        string
	UserID    string
	Action    string
	Details   string
	Timestamp int64
}

// Vehicle represents an entry of the Tesla vehicle list
type Vehicle struct {
	ID          int64  `json:"id"`
	VehicleID   int64  `json:"vehicle_id"`
	VIN         string `json:"vin"`
	DisplayName string `json:"display_name"`
	State       string `json:"state"`
}
