package docs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderLetter(t *testing.T) {
	renderer := NewRenderer()

	text, err := renderer.Render(Letter{
		Applicant:    "Priya Sharma",
		LoanAmount:   1_000_000,
		InterestRate: 11.5,
		TenureMonths: 60,
		EMI:          21_993,
		Date:         time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Contains(t, text, "CREDGEN SANCTION LETTER")
	assert.Contains(t, text, "Date: March 15, 2026")
	assert.Contains(t, text, "Applicant: Priya Sharma")
	assert.Contains(t, text, "Loan Amount Sanctioned: ₹1,000,000")
	assert.Contains(t, text, "Final Interest Rate: 11.50%")
	assert.Contains(t, text, "Monthly Installment: ₹21,993")
	assert.Contains(t, text, "APPROVED FOR DISBURSEMENT")
}
