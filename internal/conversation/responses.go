package conversation

import (
	"fmt"
	"strings"

	"credgen/internal/domain"
)

const (
	greetingMessage = "Hello! I am CredGen, your personal loan agent. How can I help you start your application today?"

	helpMessage = "I can guide you through the loan application, offer generation, and documentation. Just tell me what you need, or start by asking for a loan!"

	closedMessage = "Thank you for considering CredGen. The conversation is now closed."

	documentationMessage = "All set! Please proceed with the final documentation step to generate your Sanction Letter."

	underwritingMessage = "Great! We have all the basic details. Please wait while we run the Underwriting check. This will only take a moment."

	kycCompleteMessage = "Thank you. All KYC details are collected. Proceeding to final documentation."

	fraudCheckMessage = "Thank you. All KYC details are collected. Running a quick verification check now."

	fallbackMessage = "I'm sorry, I didn't quite catch that. Could you please rephrase or tell me more about your loan requirements?"
)

// respond produces the conversational text for the post-transition state.
// Stage-specific prompts win over intent-level replies; the fallback covers
// everything else.
func (s *Service) respond(state *domain.ApplicationState, it domain.Intent) string {
	switch state.Stage {
	case domain.StageClosed:
		return closedMessage

	case domain.StageDocumentation:
		return documentationMessage

	case domain.StageUnderwriting:
		return underwritingMessage

	case domain.StageOffer, domain.StageRejectionCounseling:
		// The engine's rendered message carries the live terms. The chat
		// path only echoes it; the terms themselves come from the offer
		// callback.
		if state.CurrentOffer != nil {
			return state.CurrentOffer.Message
		}
		return "Your application has been assessed. Please request your offer to see the terms."

	case domain.StageCollecting:
		if it == domain.IntentLoanApplication || len(state.Entities) > 0 {
			missing := state.MissingFields()
			if len(missing) == 0 {
				return underwritingMessage
			}
			return fmt.Sprintf("To proceed with your application, I still need the following details: %s.", titleList(missing))
		}

	case domain.StageKYC:
		missing := state.MissingKYCFields()
		if len(missing) == 0 {
			return kycCompleteMessage
		}
		return fmt.Sprintf("Perfect! You accepted the offer. Now, please provide the remaining KYC details: %s.", upperList(missing))

	case domain.StageFraudCheck:
		return fraudCheckMessage
	}

	switch it {
	case domain.IntentGreeting:
		return greetingMessage
	case domain.IntentHelpGeneral:
		return helpMessage
	}
	return fallbackMessage
}

// titleList renders field names as a comma-joined Title Case list for
// prompts, mapping snake_case names to spaced words.
func titleList(fieldNames []string) string {
	out := make([]string, len(fieldNames))
	for i, f := range fieldNames {
		words := strings.Split(strings.ReplaceAll(f, "_", " "), " ")
		for j, w := range words {
			if w != "" {
				words[j] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		out[i] = strings.Join(words, " ")
	}
	return strings.Join(out, ", ")
}

func upperList(fieldNames []string) string {
	out := make([]string, len(fieldNames))
	for i, f := range fieldNames {
		out[i] = strings.ToUpper(strings.ReplaceAll(f, "_", " "))
	}
	return strings.Join(out, ", ")
}
