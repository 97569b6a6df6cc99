package models

import "time"

// MutationRecord is one row of the mutation audit trail.
type MutationRecord struct {
	ID         int       `json:"id"`
	Resource   string    `json:"resource"`
	Action     string    `json:"action"`
	Key        string    `json:"key"`
	Outcome    Outcome   `json:"outcome"`
	Message    string    `json:"message,omitempty"`
	Credential string    `json:"credential,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)
