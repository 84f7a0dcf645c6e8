// Package sales builds loan offers: approvals, negotiated concessions and
// rejection counseling with a reduced alternative amount. The engine never
// decides approval itself; it prices and packages whatever underwriting
// already decided.
package sales

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"

	"credgen/internal/domain"
	"credgen/internal/fields"
	"credgen/internal/platform/config"
)

// Engine prices offers according to the sales policy.
type Engine struct {
	policy config.SalesPolicy
	logger *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an offer engine with the given sales policy.
func New(policy config.SalesPolicy, opts ...Option) *Engine {
	e := &Engine{
		policy: policy,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GenerateOffer builds the offer for the application's current decision
// state. negotiate requests a rate concession on an approved application.
//
// Side effect: on negotiation the adjusted rate is written back into
// state.InterestRate so the concession survives across calls. The decrement
// always applies to the currently stored rate and is floored at the base
// rate, so repeated negotiation converges to the floor instead of
// compounding. No other state field is touched.
func (e *Engine) GenerateOffer(state *domain.ApplicationState, negotiate bool) domain.Offer {
	principal, _ := state.Number(fields.LoanAmount)
	tenure := e.policy.DefaultTenureMonths
	if t, ok := state.Number(fields.TenureMonths); ok && t > 0 {
		tenure = int(t)
	}
	name := applicantName(state)

	approved := state.ApprovalStatus != nil && *state.ApprovalStatus
	var risk float64
	if state.RiskScore != nil {
		risk = *state.RiskScore
	}

	if !approved {
		return e.counselRejection(name, principal, risk, tenure)
	}

	rate := e.CalculateInterest(risk)
	if state.InterestRate != nil {
		rate = *state.InterestRate
	}

	offerType := domain.OfferApproved
	if negotiate {
		rate = math.Max(e.policy.BaseRate, rate-e.policy.NegotiationDecrement)
		state.InterestRate = &rate
		offerType = domain.OfferNegotiated
		e.logger.Info("rate negotiated",
			slog.String("session_id", state.ID),
			slog.Float64("rate", rate))
	}

	emi := EMI(principal, rate, tenure)
	offer := domain.Offer{
		Type:         offerType,
		Rate:         rate,
		Principal:    principal,
		TenureMonths: tenure,
		EMI:          emi,
	}
	offer.Message = e.renderMessage(offer, name, principal)
	return offer
}

// counselRejection produces the reduced alternative offer, or a terminal
// decline when even the reduced amount falls below the lending minimum.
func (e *Engine) counselRejection(name string, principal, risk float64, tenure int) domain.Offer {
	alternative := math.Floor(principal * e.policy.AlternativeFactor)
	rate := e.CalculateInterest(risk)

	if alternative < e.policy.MinLoanAmount {
		offer := domain.Offer{
			Type:         domain.OfferRejectedFinal,
			Rate:         rate,
			Principal:    principal,
			TenureMonths: tenure,
		}
		offer.Message = e.renderMessage(offer, name, principal)
		return offer
	}

	offer := domain.Offer{
		Type:         domain.OfferRejectedAlternative,
		Rate:         rate,
		Principal:    alternative,
		TenureMonths: tenure,
		EMI:          EMI(alternative, rate, tenure),
	}
	offer.Message = e.renderMessage(offer, name, principal)
	return offer
}

// CalculateInterest maps a risk score to an annual rate through the policy's
// price tiers, capped at the policy maximum.
func (e *Engine) CalculateInterest(risk float64) float64 {
	var rate float64
	switch {
	case risk <= e.policy.LowRiskTier:
		rate = e.policy.BaseRate
	case risk <= e.policy.MediumRiskTier:
		rate = e.policy.BaseRate + e.policy.MediumTierMarkup
	case risk <= e.policy.HighRiskTier:
		rate = e.policy.BaseRate + e.policy.HighTierMarkup
	default:
		rate = e.policy.MaxRate
	}
	return math.Min(rate, e.policy.MaxRate)
}

// EMI computes the equated monthly installment for an amortizing loan,
// rounded to whole rupees. A zero rate degenerates to straight division.
func EMI(principal, annualRate float64, tenureMonths int) int64 {
	if tenureMonths <= 0 || principal <= 0 {
		return 0
	}
	p := decimal.NewFromFloat(principal)
	n := decimal.NewFromInt(int64(tenureMonths))
	if annualRate == 0 {
		return p.Div(n).Round(0).IntPart()
	}
	// r is the monthly rate; EMI = P*r*(1+r)^n / ((1+r)^n - 1).
	r := decimal.NewFromFloat(annualRate).Div(decimal.NewFromInt(1200))
	growth := decimal.NewFromInt(1).Add(r).Pow(n)
	emi := p.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
	return emi.Round(0).IntPart()
}

func (e *Engine) renderMessage(offer domain.Offer, name string, requested float64) string {
	years := offer.TenureMonths / 12
	switch offer.Type {
	case domain.OfferApproved:
		return fmt.Sprintf(
			"Congratulations, %s! Your loan for %s is pre-approved. We are happy to offer you an interest rate of %.2f%% per annum for a tenure of %d years. Your estimated EMI is %s. Do you accept this offer to proceed to KYC?",
			name, domain.FormatRupees(offer.Principal), offer.Rate, years, domain.FormatRupees(float64(offer.EMI)))
	case domain.OfferNegotiated:
		return fmt.Sprintf(
			"Great news! We have applied a policy discount. Your revised rate is %.2f%% for a %d year tenure, which is the lowest we can offer you. Accept this revised offer now?",
			offer.Rate, years)
	case domain.OfferRejectedAlternative:
		return fmt.Sprintf(
			"Hello %s. While we couldn't approve your request for %s, we can offer an alternative of %s at %.2f%% per annum. Would you like to proceed with this lower amount?",
			name, domain.FormatRupees(requested), domain.FormatRupees(offer.Principal), offer.Rate)
	case domain.OfferRejectedFinal:
		return "We sincerely apologize, but based on your current financial profile and credit policy, we are unable to offer you a loan at this time, even with a reduced amount. Thank you for considering CredGen."
	}
	return "We are unable to calculate an offer right now. Please try again later."
}

func applicantName(state *domain.ApplicationState) string {
	if name, ok := state.Text(fields.Name); ok && name != "" {
		return name
	}
	return "Applicant"
}
