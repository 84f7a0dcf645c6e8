package archive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credgen/pkg/platform/sentinel"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record := &Record{
		SessionID:    "sess-1",
		Applicant:    "Priya Sharma",
		PAN:          "ABCDE1234F",
		LoanAmount:   500_000,
		TenureMonths: 36,
		InterestRate: 12.0,
		EMI:          16_607,
		RiskScore:    0.42,
		SanctionedAt: time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		Letter:       "sanction letter text",
	}

	t.Run("miss is not found", func(t *testing.T) {
		_, err := store.Get(ctx, "sess-1")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save and reload", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, record))

		got, err := store.Get(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, record, got)
	})

	t.Run("save is an upsert", func(t *testing.T) {
		updated := *record
		updated.InterestRate = 11.5
		require.NoError(t, store.Save(ctx, &updated))

		got, err := store.Get(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, 11.5, got.InterestRate)
	})
}
