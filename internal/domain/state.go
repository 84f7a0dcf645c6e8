package domain

import (
	"time"

	"credgen/internal/fields"
)

// ApplicationState is the per-session conversational state. It is owned
// exclusively by the conversation orchestrator: every mutation happens inside
// the orchestrator's per-session critical section, and engine results are
// committed atomically per engine call.
type ApplicationState struct {
	ID      string `json:"id"`
	Stage   Stage  `json:"stage"`
	// Entities maps field names to extracted values. Absent keys are
	// explicitly unset; missing-field sets are derived, never stored.
	Entities map[string]Value `json:"entities"`

	RiskScore      *float64 `json:"risk_score,omitempty"`
	ApprovalStatus *bool    `json:"approval_status,omitempty"`
	InterestRate   *float64 `json:"interest_rate,omitempty"`

	OfferAccepted bool         `json:"offer_accepted"`
	CurrentOffer  *Offer       `json:"current_offer,omitempty"`
	FraudResult   *FraudResult `json:"fraud_result,omitempty"`
	LastIntent    Intent       `json:"last_intent,omitempty"`

	// History is a diagnostic interaction log. Decision logic never reads it.
	History []Interaction `json:"history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Interaction is one logged exchange.
type Interaction struct {
	At         time.Time `json:"at"`
	Text       string    `json:"text"`
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Stage      Stage     `json:"stage"`
}

// NewApplicationState creates a fresh session at the greeting stage with all
// fields unset.
func NewApplicationState(id string, now time.Time) *ApplicationState {
	return &ApplicationState{
		ID:        id,
		Stage:     StageGreeting,
		Entities:  make(map[string]Value),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyEntities merges extracted values into state. Unset values are ignored
// so extraction can hand over a sparse map without clearing prior answers.
func (s *ApplicationState) ApplyEntities(entities map[string]Value) {
	for key, value := range entities {
		if value.IsSet() {
			s.Entities[key] = value
		}
	}
}

// MissingFields derives the required application fields not yet collected.
func (s *ApplicationState) MissingFields() []string {
	return s.missing(fields.Required)
}

// MissingKYCFields derives the KYC fields not yet collected.
func (s *ApplicationState) MissingKYCFields() []string {
	return s.missing(fields.KYC)
}

func (s *ApplicationState) missing(required []string) []string {
	var out []string
	for _, f := range required {
		if v, ok := s.Entities[f]; !ok || !v.IsSet() {
			out = append(out, f)
		}
	}
	return out
}

// FieldsComplete reports whether every required application field is present.
func (s *ApplicationState) FieldsComplete() bool {
	return len(s.MissingFields()) == 0
}

// KYCComplete reports whether every KYC field is present.
func (s *ApplicationState) KYCComplete() bool {
	return len(s.MissingKYCFields()) == 0
}

// Number returns a numeric entity, or 0 with ok=false when absent.
func (s *ApplicationState) Number(field string) (float64, bool) {
	v, ok := s.Entities[field]
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Number, true
}

// Text returns a text entity, or "" with ok=false when absent.
func (s *ApplicationState) Text(field string) (string, bool) {
	v, ok := s.Entities[field]
	if !ok || v.Kind != KindText || v.Text == "" {
		return "", false
	}
	return v.Text, true
}

// Clone deep-copies the state so an engine call can be prepared off to the
// side and committed only on success.
func (s *ApplicationState) Clone() *ApplicationState {
	out := *s
	out.Entities = make(map[string]Value, len(s.Entities))
	for k, v := range s.Entities {
		out.Entities[k] = v
	}
	if s.RiskScore != nil {
		v := *s.RiskScore
		out.RiskScore = &v
	}
	if s.ApprovalStatus != nil {
		v := *s.ApprovalStatus
		out.ApprovalStatus = &v
	}
	if s.InterestRate != nil {
		v := *s.InterestRate
		out.InterestRate = &v
	}
	if s.CurrentOffer != nil {
		v := *s.CurrentOffer
		out.CurrentOffer = &v
	}
	if s.FraudResult != nil {
		v := *s.FraudResult
		out.FraudResult = &v
	}
	out.History = make([]Interaction, len(s.History))
	copy(out.History, s.History)
	return &out
}

// Record appends one interaction to the diagnostic history.
func (s *ApplicationState) Record(at time.Time, text string, intent Intent, confidence float64) {
	s.History = append(s.History, Interaction{
		At:         at,
		Text:       text,
		Intent:     intent,
		Confidence: confidence,
		Stage:      s.Stage,
	})
}
