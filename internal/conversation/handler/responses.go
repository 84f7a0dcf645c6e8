package handler

import (
	"credgen/internal/conversation"
	"credgen/internal/domain"
)

// ChatResponse is the HTTP response for POST /chat and POST /reset. Action
// tells the client which worker endpoint to call next; it is empty when the
// conversation simply continues.
type ChatResponse struct {
	SessionID     string   `json:"session_id"`
	Message       string   `json:"message"`
	Stage         string   `json:"stage"`
	Intent        string   `json:"intent"`
	Confidence    float64  `json:"confidence"`
	Action        string   `json:"action,omitempty"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// UnderwriteResponse is the HTTP response for POST /underwrite.
type UnderwriteResponse struct {
	Approved     bool     `json:"approved"`
	RiskScore    float64  `json:"risk_score"`
	InterestRate *float64 `json:"interest_rate,omitempty"`
	Reason       string   `json:"reason"`
	Stage        string   `json:"stage"`
}

// SalesResponse is the HTTP response for POST /sales.
type SalesResponse struct {
	Type         string  `json:"type"`
	Message      string  `json:"message"`
	Rate         float64 `json:"rate"`
	Principal    float64 `json:"principal"`
	TenureMonths int     `json:"tenure_months"`
	EMI          int64   `json:"emi"`
	Stage        string  `json:"stage"`
}

// FraudResponse is the HTTP response for POST /fraud-check.
type FraudResponse struct {
	Passed     bool                   `json:"passed"`
	Flag       string                 `json:"flag"`
	Composite  float64                `json:"composite"`
	Components domain.FraudComponents `json:"components"`
	Stage      string                 `json:"stage"`
}

// LetterResponse is the HTTP response for POST /generate-letter.
type LetterResponse struct {
	Message string `json:"message"`
	Letter  string `json:"letter"`
	Action  string `json:"action"`
	Stage   string `json:"stage"`
}

// actionFor maps the routed worker to the client's follow-up call.
func actionFor(worker domain.Worker) string {
	switch worker {
	case domain.WorkerUnderwriting:
		return "call_underwriting_api"
	case domain.WorkerSales:
		return "call_sales_api"
	case domain.WorkerFraud:
		return "call_fraud_api"
	case domain.WorkerDocumentation:
		return "call_documentation_api"
	default:
		return ""
	}
}

// FromReply converts an orchestrator reply to an HTTP response.
func FromReply(reply *conversation.Reply) *ChatResponse {
	return &ChatResponse{
		SessionID:     reply.SessionID,
		Message:       reply.Message,
		Stage:         string(reply.Stage),
		Intent:        string(reply.Intent),
		Confidence:    reply.Confidence,
		Action:        actionFor(reply.Worker),
		MissingFields: reply.Missing,
	}
}
