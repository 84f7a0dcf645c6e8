// Package archive keeps the durable record of sanctioned loans. Session
// state is ephemeral by design; once a sanction letter is generated the
// application's final terms are written here before the session closes.
package archive

import (
	"context"
	"time"
)

// Record is the final terms of a sanctioned application.
type Record struct {
	SessionID    string    `json:"session_id"`
	Applicant    string    `json:"applicant"`
	PAN          string    `json:"pan"`
	LoanAmount   float64   `json:"loan_amount"`
	TenureMonths int       `json:"tenure_months"`
	InterestRate float64   `json:"interest_rate"`
	EMI          int64     `json:"emi"`
	RiskScore    float64   `json:"risk_score"`
	SanctionedAt time.Time `json:"sanctioned_at"`
	Letter       string    `json:"letter"`
}

// Store persists sanctioned applications.
type Store interface {
	// Save upserts the record for its session.
	Save(ctx context.Context, record *Record) error
	// Get returns sentinel.ErrNotFound when no record exists for the session.
	Get(ctx context.Context, sessionID string) (*Record, error)
}
