// Package fields is the static application schema: which applicant fields the
// conversation must collect, which KYC fields follow offer acceptance, and
// the range/format validators each one must pass before it enters session
// state.
package fields

import "regexp"

// Application field names. Entity maps are keyed by these.
const (
	Name           = "name"
	LoanAmount     = "loan_amount"
	TenureMonths   = "tenure"
	Age            = "age"
	Income         = "income"
	EmploymentType = "employment_type"
	Purpose        = "purpose"
	DateOfBirth    = "dob"

	PAN     = "pan"
	Aadhaar = "aadhaar"
	Address = "address"
	Pincode = "pincode"
)

// Required lists the fields the collecting stage must fill before
// underwriting may run.
var Required = []string{Name, LoanAmount, TenureMonths, Age, Income, EmploymentType, Purpose}

// KYC lists the identity fields collected after offer acceptance.
var KYC = []string{PAN, Aadhaar, Address, Pincode}

// Collection bounds. Values outside these ranges are rejected at extraction
// time and never reach session state.
const (
	MinLoanAmount = 10_000.0
	MaxLoanAmount = 10_000_000.0
	MinAge        = 18
	MaxAge        = 100
	MinTenure     = 6
	MaxTenure     = 360
)

var (
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	aadhaarPattern = regexp.MustCompile(`^[0-9]{12}$`)
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

// ValidAmount reports whether a loan amount is within collectable range.
func ValidAmount(amount float64) bool {
	return amount >= MinLoanAmount && amount <= MaxLoanAmount
}

// ValidAge reports whether an age is plausibly that of an applicant.
func ValidAge(age int) bool {
	return age >= MinAge && age <= MaxAge
}

// ValidTenure reports whether a tenure in months is collectable.
func ValidTenure(months int) bool {
	return months >= MinTenure && months <= MaxTenure
}

// ValidPAN reports whether s matches the PAN format.
func ValidPAN(s string) bool {
	return panPattern.MatchString(s)
}

// ValidAadhaar reports whether s is a 12-digit Aadhaar number.
func ValidAadhaar(s string) bool {
	return aadhaarPattern.MatchString(s)
}

// ValidPincode reports whether s is a 6-digit postal code.
func ValidPincode(s string) bool {
	return pincodePattern.MatchString(s)
}
