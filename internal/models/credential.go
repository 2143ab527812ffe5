// internal/models/credential.go
package models

import "time"

// Credential carries platform login data for a single batch run. It is
// held in memory only: never persisted, never written to logs.
type Credential struct {
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Platform Platform `json:"platform"`
}

// Identity returns the limiter/ledger key component for this credential.
// The password is deliberately excluded.
func (c Credential) Identity() string {
	return string(c.Platform) + ":" + c.Email
}

// CredentialStatus is the validation state machine's state set.
//
//	unvalidated -> valid | invalid
//	invalid     -> reset_pending -> resolved | abandoned
type CredentialStatus string

const (
	CredentialUnvalidated  CredentialStatus = "unvalidated"
	CredentialValid        CredentialStatus = "valid"
	CredentialInvalid      CredentialStatus = "invalid"
	CredentialResetPending CredentialStatus = "reset_pending"
	CredentialResolved     CredentialStatus = "resolved"
	CredentialAbandoned    CredentialStatus = "abandoned"
)

// Usable reports whether a batch may proceed with this status.
func (s CredentialStatus) Usable() bool {
	return s == CredentialValid || s == CredentialResolved
}

// CredentialState is the outcome of a validation or reset attempt.
// ResetToken is opaque to callers and single use.
type CredentialState struct {
	Status      CredentialStatus `json:"status"`
	ResetToken  string           `json:"resetToken,omitempty"`
	TokenExpiry time.Time        `json:"tokenExpiry,omitempty"`
	Detail      string           `json:"detail,omitempty"`
}
