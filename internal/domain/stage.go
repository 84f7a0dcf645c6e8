package domain

// Stage is a discrete point in the loan-application conversation lifecycle.
// Transitions are owned by the conversation state machine; nothing else may
// move a session between stages.
type Stage string

const (
	StageGreeting            Stage = "greeting"
	StageCollecting          Stage = "collecting"
	StageUnderwriting        Stage = "underwriting"
	StageOffer               Stage = "offer"
	StageRejectionCounseling Stage = "rejection_counseling"
	StageKYC                 Stage = "kyc"
	StageFraudCheck          Stage = "fraud_check"
	StageDocumentation       Stage = "documentation"
	StageClosed              Stage = "closed"
)

var validStages = map[Stage]bool{
	StageGreeting:            true,
	StageCollecting:          true,
	StageUnderwriting:        true,
	StageOffer:               true,
	StageRejectionCounseling: true,
	StageKYC:                 true,
	StageFraudCheck:          true,
	StageDocumentation:       true,
	StageClosed:              true,
}

// IsValid checks if the stage is one of the defined enum values.
func (s Stage) IsValid() bool {
	return validStages[s]
}

// IsTerminal reports whether the stage has no outgoing transitions. A reset
// creates a fresh session rather than transitioning out of a terminal stage.
func (s Stage) IsTerminal() bool {
	return s == StageClosed
}

// String returns the string representation of the stage.
func (s Stage) String() string {
	return string(s)
}

// Worker names the downstream decision engine the caller must invoke next.
type Worker string

const (
	WorkerNone          Worker = "none"
	WorkerUnderwriting  Worker = "underwriting"
	WorkerSales         Worker = "sales"
	WorkerFraud         Worker = "fraud"
	WorkerDocumentation Worker = "documentation"
)
