// Package underwriting decides approval and pricing. Hard policy gates run
// first and short-circuit before any model scoring; only fully gated-through
// applications reach the risk model, and a model outage degrades to the
// documented heuristic rather than surfacing an error.
package underwriting

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"credgen/internal/domain"
	"credgen/internal/fields"
	"credgen/internal/platform/config"
)

// Engine applies policy gates, risk scoring, and pricing.
type Engine struct {
	policy   config.UnderwritingPolicy
	model    RiskModel
	fallback RiskModel
	logger   *slog.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithModel selects the primary risk model. The heuristic fallback remains
// in place for runtime failures.
func WithModel(model RiskModel) Option {
	return func(e *Engine) {
		e.model = model
	}
}

// New constructs an underwriting engine. Without WithModel the heuristic
// scorer is the primary model, which is the development default.
func New(policy config.UnderwritingPolicy, opts ...Option) *Engine {
	e := &Engine{
		policy:   policy,
		model:    HeuristicModel{},
		fallback: HeuristicModel{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs the full underwriting pipeline over the collected entities.
// The returned result always carries a risk score: the hard-gate sentinel
// (1.0) when a gate rejected, or the model's score otherwise.
func (e *Engine) Evaluate(ctx context.Context, entities map[string]domain.Value) domain.RiskResult {
	age := numberOr(entities, fields.Age, 0)
	income := numberOr(entities, fields.Income, 0)
	loanAmount := numberOr(entities, fields.LoanAmount, 0)

	// Phase 1: hard gates, in policy order, each short-circuiting.
	if age < float64(e.policy.MinAge) || age > float64(e.policy.MaxAge) {
		return e.hardReject(fmt.Sprintf("age outside policy range %d-%d", e.policy.MinAge, e.policy.MaxAge))
	}
	if income < e.policy.MinIncome {
		return e.hardReject(fmt.Sprintf("income below policy minimum of %.0f", e.policy.MinIncome))
	}
	if loanAmount < e.policy.MinLoanAmount || loanAmount > e.policy.MaxLoanAmount {
		return e.hardReject(fmt.Sprintf("loan amount outside policy range %.0f-%.0f", e.policy.MinLoanAmount, e.policy.MaxLoanAmount))
	}

	// Phase 2: model scoring on the canonicalized feature vector.
	riskScore := e.score(ctx, buildFeatures(entities))

	// Phase 3: scored-rejection threshold.
	if riskScore > e.policy.RejectThreshold {
		return domain.RiskResult{
			Approved:  false,
			RiskScore: round3(riskScore),
			Reason: fmt.Sprintf("risk score %.2f exceeds policy threshold %.2f",
				riskScore, e.policy.RejectThreshold),
		}
	}

	// Phase 4: approval and pricing.
	rate := e.price(riskScore)
	return domain.RiskResult{
		Approved:     true,
		RiskScore:    round3(riskScore),
		InterestRate: &rate,
		Reason:       "approved within policy and risk threshold",
	}
}

// score invokes the primary model, degrading to the fallback heuristic on
// failure. A model outage is an operational event, not a user-facing error.
func (e *Engine) score(ctx context.Context, features FeatureVector) float64 {
	score, err := e.model.Predict(ctx, features)
	if err == nil {
		return score
	}

	e.logger.ErrorContext(ctx, "risk model failed, using heuristic fallback", "error", err)

	score, err = e.fallback.Predict(ctx, features)
	if err != nil {
		// The heuristic cannot fail, but never let scoring hang the
		// pipeline regardless.
		e.logger.ErrorContext(ctx, "fallback scorer failed", "error", err)
		return 0.5
	}
	return score
}

// price maps risk linearly from the base rate to the cap, rounded to two
// decimals and clamped.
func (e *Engine) price(riskScore float64) float64 {
	rate := e.policy.BaseRate + riskScore*(e.policy.MaxRate-e.policy.BaseRate)
	if rate > e.policy.MaxRate {
		rate = e.policy.MaxRate
	}
	return math.Round(rate*100) / 100
}

func (e *Engine) hardReject(reason string) domain.RiskResult {
	return domain.RiskResult{
		Approved:  false,
		RiskScore: domain.HardGateRiskScore,
		Reason:    "hard rejected: " + reason,
	}
}

func numberOr(entities map[string]domain.Value, field string, fallback float64) float64 {
	v, ok := entities[field]
	if !ok || v.Kind != domain.KindNumber {
		return fallback
	}
	return v.Number
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
