package domain

// Intent is the discrete conversational intent resolved from one user
// message.
type Intent string

const (
	IntentGreeting        Intent = "greeting"
	IntentLoanApplication Intent = "loan_application"
	IntentProvideInfo     Intent = "provide_info"
	IntentRateInquiry     Intent = "rate_inquiry"
	IntentNegotiateTerms  Intent = "negotiate_terms"
	IntentAcceptOffer     Intent = "accept_offer"
	IntentRejectOffer     Intent = "reject_offer"
	IntentHelpGeneral     Intent = "help_general"
	IntentExit            Intent = "exit"
	IntentUnclear         Intent = "unclear"
)

// Intents lists every resolvable intent, in a stable order for metrics and
// exhaustive table tests.
var Intents = []Intent{
	IntentGreeting,
	IntentLoanApplication,
	IntentProvideInfo,
	IntentRateInquiry,
	IntentNegotiateTerms,
	IntentAcceptOffer,
	IntentRejectOffer,
	IntentHelpGeneral,
	IntentExit,
	IntentUnclear,
}

// String returns the string representation of the intent.
func (i Intent) String() string {
	return string(i)
}
