// Package conversation orchestrates the loan-application dialogue: it owns
// session state, applies the stage machine, and invokes the decision engines
// at the right moments.
package conversation

import (
	"credgen/internal/domain"
)

// Next returns the stage after one conversational step. It is a pure
// function of the (updated) state and the resolved intent.
//
// Condition edges are evaluated before intent edges: once the collected
// fields are complete the conversation advances regardless of how the
// completing message was classified.
func Next(state *domain.ApplicationState, it domain.Intent) domain.Stage {
	stage := state.Stage
	if stage == domain.StageClosed {
		return domain.StageClosed
	}

	// Condition edges.
	switch stage {
	case domain.StageCollecting:
		if state.FieldsComplete() {
			return domain.StageUnderwriting
		}
	case domain.StageKYC:
		if state.KYCComplete() && state.OfferAccepted {
			return domain.StageFraudCheck
		}
	}

	// An explicit goodbye ends the conversation from any live stage.
	if it == domain.IntentExit {
		return domain.StageClosed
	}

	// Intent edges.
	switch stage {
	case domain.StageGreeting:
		if it == domain.IntentLoanApplication || it == domain.IntentProvideInfo {
			return domain.StageCollecting
		}
	case domain.StageOffer:
		switch it {
		case domain.IntentAcceptOffer:
			return domain.StageKYC
		case domain.IntentRejectOffer:
			return domain.StageClosed
		case domain.IntentNegotiateTerms:
			return domain.StageOffer
		}
	case domain.StageRejectionCounseling:
		if it == domain.IntentLoanApplication || it == domain.IntentNegotiateTerms {
			return domain.StageCollecting
		}
		if it == domain.IntentRejectOffer {
			return domain.StageClosed
		}
	}

	return stage
}

// NextAfterRisk maps the underwriting callback onto the stage machine.
func NextAfterRisk(approved bool) domain.Stage {
	if approved {
		return domain.StageOffer
	}
	return domain.StageRejectionCounseling
}

// NextAfterFraud maps the fraud-check callback onto the stage machine.
func NextAfterFraud(passed bool) domain.Stage {
	if passed {
		return domain.StageDocumentation
	}
	return domain.StageClosed
}

// NextAfterOffer maps the sales engine's structured offer type onto the
// stage machine. The offer type is the authoritative signal, never the
// message text.
func NextAfterOffer(offerType domain.OfferType) domain.Stage {
	if offerType == domain.OfferRejectedFinal {
		return domain.StageClosed
	}
	// Approved, negotiated and reduced-alternative offers all await the
	// applicant's decision.
	return domain.StageOffer
}

// RouteWorker names the engine a caller must invoke next for the given
// position in the conversation. Pure so that transport code can answer
// "what do I call now" without re-deriving stage-machine internals.
func RouteWorker(stage domain.Stage, it domain.Intent) domain.Worker {
	switch stage {
	case domain.StageUnderwriting:
		return domain.WorkerUnderwriting
	case domain.StageRejectionCounseling:
		return domain.WorkerSales
	case domain.StageOffer:
		if it == domain.IntentRateInquiry || it == domain.IntentNegotiateTerms {
			return domain.WorkerSales
		}
	case domain.StageFraudCheck:
		return domain.WorkerFraud
	case domain.StageDocumentation:
		return domain.WorkerDocumentation
	}
	return domain.WorkerNone
}
