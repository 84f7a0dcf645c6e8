package underwriting

import (
	"credgen/internal/domain"
	"credgen/internal/fields"
)

// FeatureVector is the canonical, fully-populated record handed to the risk
// model. Every attribute the conversation did not collect is filled with a
// documented statistical default so the model always receives a complete
// record.
type FeatureVector struct {
	Age                  float64 `json:"age"`
	YearsEmployed        float64 `json:"years_employed"`
	AnnualIncome         float64 `json:"annual_income"`
	MonthlyIncome        float64 `json:"monthly_income"`
	ExistingLoanBalance  float64 `json:"existing_loan_balance"`
	ExistingEMIMonthly   float64 `json:"existing_emi_monthly"`
	CreditScore          float64 `json:"credit_score"`
	RequestedLoanAmount  float64 `json:"requested_loan_amount"`
	RequestedLoanTenure  float64 `json:"requested_loan_tenure"`
	DebtToIncomeRatio    float64 `json:"debt_to_income_ratio"`
	LoanToIncomeRatio    float64 `json:"loan_to_income_ratio"`
	EstimatedMonthlyEMI  float64 `json:"estimated_monthly_emi"`
	EMIToIncomeRatio     float64 `json:"emi_to_income_ratio"`
	EmploymentType       string  `json:"employment_type"`
	LoanPurpose          string  `json:"loan_purpose"`
}

// Population-median defaults for omitted attributes.
var featureDefaults = FeatureVector{
	Age:                 35,
	YearsEmployed:       5,
	AnnualIncome:        500_000,
	MonthlyIncome:       41_666,
	ExistingLoanBalance: 0,
	ExistingEMIMonthly:  0,
	CreditScore:         700,
	RequestedLoanAmount: 500_000,
	RequestedLoanTenure: 36,
	DebtToIncomeRatio:   0.3,
	LoanToIncomeRatio:   0.2,
	EstimatedMonthlyEMI: 15_000,
	EMIToIncomeRatio:    0.3,
	EmploymentType:      "salaried",
	LoanPurpose:         "personal",
}

// buildFeatures canonicalizes conversational entities into the model's
// feature vector, overriding defaults only with collected values.
func buildFeatures(entities map[string]domain.Value) FeatureVector {
	fv := featureDefaults

	get := func(field string) (float64, bool) {
		v, ok := entities[field]
		if !ok || v.Kind != domain.KindNumber {
			return 0, false
		}
		return v.Number, true
	}

	if age, ok := get(fields.Age); ok {
		fv.Age = age
	}
	if income, ok := get(fields.Income); ok {
		fv.AnnualIncome = income
		fv.MonthlyIncome = income / 12
	}
	if amount, ok := get(fields.LoanAmount); ok {
		fv.RequestedLoanAmount = amount
	}
	if tenure, ok := get(fields.TenureMonths); ok {
		fv.RequestedLoanTenure = tenure
	}
	if v, ok := entities[fields.EmploymentType]; ok && v.Kind == domain.KindText && v.Text != "" {
		fv.EmploymentType = v.Text
	}
	if v, ok := entities[fields.Purpose]; ok && v.Kind == domain.KindText && v.Text != "" {
		fv.LoanPurpose = v.Text
	}

	// Derived ratios are recomputed whenever their inputs were collected.
	if fv.MonthlyIncome > 0 {
		fv.LoanToIncomeRatio = fv.RequestedLoanAmount / fv.AnnualIncome
		if fv.RequestedLoanTenure > 0 {
			fv.EstimatedMonthlyEMI = fv.RequestedLoanAmount / fv.RequestedLoanTenure
			fv.EMIToIncomeRatio = fv.EstimatedMonthlyEMI / fv.MonthlyIncome
		}
	}

	return fv
}
