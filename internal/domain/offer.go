package domain

// OfferType is the authoritative signal the orchestrator uses to pick the
// next stage. The message text is presentation only.
type OfferType string

const (
	OfferApproved            OfferType = "approved"
	OfferNegotiated          OfferType = "negotiated"
	OfferRejectedAlternative OfferType = "rejected_alternative"
	OfferRejectedFinal       OfferType = "rejected_final"
)

// Offer is the structured output of the sales engine.
type Offer struct {
	Type         OfferType `json:"type"`
	Message      string    `json:"message"`
	Rate         float64   `json:"rate"`
	Principal    float64   `json:"principal"`
	TenureMonths int       `json:"tenure_months"`
	// EMI is the equated monthly installment in whole rupees. Zero for
	// terminal declines, where no installment exists.
	EMI int64 `json:"emi"`
}

// FraudFlag grades a fraud signal.
type FraudFlag string

const (
	FraudFlagLow    FraudFlag = "LOW"
	FraudFlagMedium FraudFlag = "MEDIUM"
	FraudFlagHigh   FraudFlag = "HIGH"
)

// Worse returns the more severe of two flags.
func (f FraudFlag) Worse(other FraudFlag) FraudFlag {
	if severity(other) > severity(f) {
		return other
	}
	return f
}

func severity(f FraudFlag) int {
	switch f {
	case FraudFlagHigh:
		return 2
	case FraudFlagMedium:
		return 1
	default:
		return 0
	}
}

// FraudResult is the composite output of the fraud engine. Scores are
// integrity scores in [0,1]: 1 means the signal checked out, 0 means it
// failed outright.
type FraudResult struct {
	Components FraudComponents `json:"components"`
	// Composite is the mean of the three component scores.
	Composite float64   `json:"composite"`
	Flag      FraudFlag `json:"flag"`
}

// FraudComponents breaks the composite down per signal.
type FraudComponents struct {
	Name   float64 `json:"name"`
	Age    float64 `json:"age"`
	Income float64 `json:"income"`
}

// RiskResult is the contract of the underwriting engine. A hard-gate
// rejection carries the sentinel risk score 1.0 and a nil InterestRate so
// callers can distinguish "never reached the model" from "model said no".
type RiskResult struct {
	Approved     bool     `json:"approved"`
	RiskScore    float64  `json:"risk_score"`
	InterestRate *float64 `json:"interest_rate"`
	Reason       string   `json:"reason"`
}

// HardGateRiskScore is the sentinel recorded when a policy gate rejects the
// application before any model scoring.
const HardGateRiskScore = 1.0
