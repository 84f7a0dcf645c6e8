package underwriting

import (
	"context"

	dErrors "credgen/pkg/domain-errors"
	"credgen/pkg/platform/sentinel"
)

// RiskModel estimates the probability of default for a canonical feature
// vector. Implementations must be pure with respect to their inputs.
type RiskModel interface {
	Predict(ctx context.Context, features FeatureVector) (float64, error)
}

// HeuristicModel is the documented fallback scorer used when no trained
// model is wired in, or when the primary model fails at runtime. Higher
// income and credit score lower the risk; the output is clamped to
// [0.05, 0.95] so the heuristic never expresses certainty.
type HeuristicModel struct{}

// Predict scores risk from income and credit score alone.
func (HeuristicModel) Predict(_ context.Context, features FeatureVector) (float64, error) {
	risk := 0.95 - (features.AnnualIncome/1_000_000)*0.1 - ((features.CreditScore - 600) / 300 * 0.2)
	if risk < 0.05 {
		risk = 0.05
	}
	if risk > 0.95 {
		risk = 0.95
	}
	return risk, nil
}

// UnavailableModel always fails. It stands in for a remote model endpoint
// that is down, letting tests and wiring force the fallback path
// deterministically.
type UnavailableModel struct{}

// Predict always reports the collaborator as unavailable.
func (UnavailableModel) Predict(context.Context, FeatureVector) (float64, error) {
	return 0, dErrors.Wrap(sentinel.ErrUnavailable, dErrors.CodeUnavailable, "risk model unavailable")
}
