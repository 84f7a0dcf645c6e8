package underwriting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"credgen/internal/domain"
	"credgen/internal/fields"
	"credgen/internal/platform/config"
)

// countingModel records invocations so gate short-circuiting is observable.
type countingModel struct {
	calls int
	score float64
	err   error
}

func (m *countingModel) Predict(context.Context, FeatureVector) (float64, error) {
	m.calls++
	return m.score, m.err
}

type EngineSuite struct {
	suite.Suite
	policy config.UnderwritingPolicy
}

func (s *EngineSuite) SetupTest() {
	s.policy = config.DefaultPolicy().Underwriting
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func entitiesFor(age, income, amount float64) map[string]domain.Value {
	return map[string]domain.Value{
		fields.Age:          domain.NumberValue(age),
		fields.Income:       domain.NumberValue(income),
		fields.LoanAmount:   domain.NumberValue(amount),
		fields.TenureMonths: domain.NumberValue(36),
	}
}

func (s *EngineSuite) TestHardGates() {
	s.Run("age gate rejects without scoring", func() {
		model := &countingModel{score: 0.1}
		e := New(s.policy, WithModel(model))

		result := e.Evaluate(context.Background(), entitiesFor(70, 500_000, 500_000))

		s.False(result.Approved)
		s.Equal(domain.HardGateRiskScore, result.RiskScore)
		s.Nil(result.InterestRate)
		s.Contains(result.Reason, "21-60", "reason must reference the configured bounds")
		s.Zero(model.calls, "model must never run when a gate fails")
	})

	s.Run("income gate", func() {
		model := &countingModel{score: 0.1}
		e := New(s.policy, WithModel(model))

		result := e.Evaluate(context.Background(), entitiesFor(30, 100_000, 500_000))

		s.False(result.Approved)
		s.Equal(domain.HardGateRiskScore, result.RiskScore)
		s.Contains(result.Reason, "income below policy minimum")
		s.Zero(model.calls)
	})

	s.Run("loan amount gate on both bounds", func() {
		model := &countingModel{score: 0.1}
		e := New(s.policy, WithModel(model))

		low := e.Evaluate(context.Background(), entitiesFor(30, 500_000, 10_000))
		high := e.Evaluate(context.Background(), entitiesFor(30, 500_000, 5_000_000))

		s.False(low.Approved)
		s.False(high.Approved)
		s.Zero(model.calls)
	})

	s.Run("missing entities fail the first matching gate", func() {
		model := &countingModel{score: 0.1}
		e := New(s.policy, WithModel(model))

		result := e.Evaluate(context.Background(), map[string]domain.Value{})

		s.False(result.Approved)
		s.Equal(domain.HardGateRiskScore, result.RiskScore)
		s.Zero(model.calls)
	})
}

func (s *EngineSuite) TestScoredDecisions() {
	s.Run("score above threshold rejects with both numbers in reason", func() {
		e := New(s.policy, WithModel(&countingModel{score: 0.9}))

		result := e.Evaluate(context.Background(), entitiesFor(30, 500_000, 500_000))

		s.False(result.Approved)
		s.InDelta(0.9, result.RiskScore, 1e-9)
		s.Nil(result.InterestRate)
		s.Contains(result.Reason, "0.90")
		s.Contains(result.Reason, "0.80")
	})

	s.Run("scored rejection is distinguishable from a gate rejection", func() {
		e := New(s.policy, WithModel(&countingModel{score: 0.9}))

		scored := e.Evaluate(context.Background(), entitiesFor(30, 500_000, 500_000))
		gated := e.Evaluate(context.Background(), entitiesFor(70, 500_000, 500_000))

		s.Less(scored.RiskScore, gated.RiskScore)
		s.Equal(domain.HardGateRiskScore, gated.RiskScore)
	})

	s.Run("approval prices within the band", func() {
		e := New(s.policy, WithModel(&countingModel{score: 0.5}))

		result := e.Evaluate(context.Background(), entitiesFor(30, 500_000, 500_000))

		s.True(result.Approved)
		require.NotNil(s.T(), result.InterestRate)
		// base 9.5 + 0.5*(18-9.5) = 13.75
		s.InDelta(13.75, *result.InterestRate, 1e-9)
	})

	s.Run("zero risk prices at the base rate", func() {
		e := New(s.policy, WithModel(&countingModel{score: 0}))

		result := e.Evaluate(context.Background(), entitiesFor(30, 500_000, 500_000))

		require.NotNil(s.T(), result.InterestRate)
		s.InDelta(s.policy.BaseRate, *result.InterestRate, 1e-9)
	})
}

func (s *EngineSuite) TestModelFallback() {
	s.Run("primary outage degrades to the heuristic", func() {
		e := New(s.policy, WithModel(UnavailableModel{}))

		result := e.Evaluate(context.Background(), entitiesFor(30, 1_200_000, 500_000))

		// The heuristic scores this high-income applicant below the reject
		// threshold, so the outage is invisible to the caller.
		// 0.95 - 1.2*0.1 - (100/300)*0.2 = 0.763
		s.True(result.Approved)
		s.NotNil(result.InterestRate)
		s.InDelta(0.763, result.RiskScore, 1e-3)
	})

	s.Run("heuristic output matches its documented formula", func() {
		var m HeuristicModel
		score, err := m.Predict(context.Background(), FeatureVector{
			AnnualIncome: 500_000,
			CreditScore:  700,
		})
		require.NoError(s.T(), err)
		// 0.95 - 0.5*0.1 - (100/300)*0.2
		s.InDelta(0.95-0.05-0.0666667, score, 1e-4)
	})

	s.Run("heuristic clamps to its certainty bounds", func() {
		var m HeuristicModel
		low, _ := m.Predict(context.Background(), FeatureVector{AnnualIncome: 10_000_000, CreditScore: 900})
		high, _ := m.Predict(context.Background(), FeatureVector{AnnualIncome: 0, CreditScore: 0})
		s.Equal(0.05, low)
		s.Equal(0.95, high)
	})
}

func TestBuildFeatures(t *testing.T) {
	t.Run("defaults fill omitted attributes", func(t *testing.T) {
		fv := buildFeatures(map[string]domain.Value{})
		assert.Equal(t, 35.0, fv.Age)
		assert.Equal(t, 700.0, fv.CreditScore)
		assert.Equal(t, "salaried", fv.EmploymentType)
	})

	t.Run("collected values override defaults and refresh ratios", func(t *testing.T) {
		fv := buildFeatures(map[string]domain.Value{
			fields.Age:          domain.NumberValue(42),
			fields.Income:       domain.NumberValue(1_200_000),
			fields.LoanAmount:   domain.NumberValue(600_000),
			fields.TenureMonths: domain.NumberValue(60),
			fields.Purpose:      domain.TextValue("home renovation"),
		})
		assert.Equal(t, 42.0, fv.Age)
		assert.Equal(t, 100_000.0, fv.MonthlyIncome)
		assert.Equal(t, "home renovation", fv.LoanPurpose)
		assert.InDelta(t, 0.5, fv.LoanToIncomeRatio, 1e-9)
		assert.InDelta(t, 10_000.0, fv.EstimatedMonthlyEMI, 1e-9)
		assert.InDelta(t, 0.1, fv.EMIToIncomeRatio, 1e-9)
	})
}
