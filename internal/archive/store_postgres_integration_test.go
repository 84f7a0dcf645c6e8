//go:build integration

package archive_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credgen/internal/archive"
	"credgen/pkg/platform/sentinel"
	"credgen/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *archive.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = archive.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "sanctioned_loans"))
}

func (s *PostgresStoreSuite) TestSaveAndGet() {
	ctx := context.Background()
	record := &archive.Record{
		SessionID:    "sess-pg",
		Applicant:    "Priya Sharma",
		PAN:          "ABCDE1234F",
		LoanAmount:   1_000_000,
		TenureMonths: 60,
		InterestRate: 12.0,
		EMI:          22_244,
		RiskScore:    0.42,
		SanctionedAt: time.Now().UTC().Truncate(time.Microsecond),
		Letter:       "sanction letter text",
	}

	s.Require().NoError(s.store.Save(ctx, record))

	got, err := s.store.Get(ctx, "sess-pg")
	s.Require().NoError(err)
	s.Equal(record.Applicant, got.Applicant)
	s.Equal(record.EMI, got.EMI)
	s.True(record.SanctionedAt.Equal(got.SanctionedAt))
}

func (s *PostgresStoreSuite) TestUpsertOnConflict() {
	ctx := context.Background()
	record := &archive.Record{
		SessionID:    "sess-upsert",
		Applicant:    "Priya Sharma",
		PAN:          "ABCDE1234F",
		LoanAmount:   500_000,
		TenureMonths: 36,
		InterestRate: 12.0,
		EMI:          16_607,
		SanctionedAt: time.Now().UTC(),
		Letter:       "v1",
	}
	s.Require().NoError(s.store.Save(ctx, record))

	record.InterestRate = 11.5
	record.Letter = "v2"
	s.Require().NoError(s.store.Save(ctx, record))

	got, err := s.store.Get(ctx, "sess-upsert")
	s.Require().NoError(err)
	s.Equal(11.5, got.InterestRate)
	s.Equal("v2", got.Letter)
}

func (s *PostgresStoreSuite) TestMissIsNotFound() {
	_, err := s.store.Get(context.Background(), "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
