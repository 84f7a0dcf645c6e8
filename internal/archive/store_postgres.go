package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"credgen/pkg/platform/sentinel"
)

// Schema creates the sanctioned-loans table. Applied at startup; the
// statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS sanctioned_loans (
    session_id    TEXT PRIMARY KEY,
    applicant     TEXT NOT NULL,
    pan           TEXT NOT NULL,
    loan_amount   DOUBLE PRECISION NOT NULL,
    tenure_months INTEGER NOT NULL,
    interest_rate DOUBLE PRECISION NOT NULL,
    emi           BIGINT NOT NULL,
    risk_score    DOUBLE PRECISION NOT NULL,
    sanctioned_at TIMESTAMPTZ NOT NULL,
    letter        TEXT NOT NULL
)`

// PostgresStore persists sanctioned applications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed archive.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects to dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping archive database: %w", err)
	}
	store := NewPostgres(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema applies the table definition.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure archive schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Save(ctx context.Context, record *Record) error {
	const query = `
INSERT INTO sanctioned_loans (
    session_id, applicant, pan, loan_amount, tenure_months,
    interest_rate, emi, risk_score, sanctioned_at, letter
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (session_id) DO UPDATE SET
    applicant     = EXCLUDED.applicant,
    pan           = EXCLUDED.pan,
    loan_amount   = EXCLUDED.loan_amount,
    tenure_months = EXCLUDED.tenure_months,
    interest_rate = EXCLUDED.interest_rate,
    emi           = EXCLUDED.emi,
    risk_score    = EXCLUDED.risk_score,
    sanctioned_at = EXCLUDED.sanctioned_at,
    letter        = EXCLUDED.letter`

	_, err := s.db.ExecContext(ctx, query,
		record.SessionID, record.Applicant, record.PAN, record.LoanAmount,
		record.TenureMonths, record.InterestRate, record.EMI,
		record.RiskScore, record.SanctionedAt, record.Letter)
	if err != nil {
		return fmt.Errorf("save sanctioned loan: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	const query = `
SELECT session_id, applicant, pan, loan_amount, tenure_months,
       interest_rate, emi, risk_score, sanctioned_at, letter
FROM sanctioned_loans
WHERE session_id = $1`

	var record Record
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&record.SessionID, &record.Applicant, &record.PAN,
		&record.LoanAmount, &record.TenureMonths, &record.InterestRate,
		&record.EMI, &record.RiskScore, &record.SanctionedAt, &record.Letter)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sanctioned loan: %w", err)
	}
	return &record, nil
}
