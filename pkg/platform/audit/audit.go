// Package audit emits the loan pipeline's decision trail: stage changes,
// underwriting and fraud decisions, offers, and letter generation. Events
// are transport-agnostic; sinks fan out behind the Publisher interface.
package audit

import (
	"context"
	"sync"
	"time"
)

// EventType names an auditable action.
type EventType string

const (
	EventSessionStarted       EventType = "session_started"
	EventStageChanged         EventType = "stage_changed"
	EventUnderwritingDecision EventType = "underwriting_decision"
	EventOfferGenerated       EventType = "offer_generated"
	EventFraudDecision        EventType = "fraud_decision"
	EventLetterGenerated      EventType = "letter_generated"
	EventSessionReset         EventType = "session_reset"
	EventSessionClosed        EventType = "session_closed"
)

// Event is one entry in the decision trail. Detail carries event-specific
// fields (scores, offer type, rejection reason) as flat strings so every
// sink can index them without a schema.
type Event struct {
	Type      EventType         `json:"type"`
	SessionID string            `json:"session_id"`
	Stage     string            `json:"stage"`
	RequestID string            `json:"request_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Detail    map[string]string `json:"detail,omitempty"`
}

// Publisher delivers audit events. Publishing is best-effort from the
// caller's perspective: the loan pipeline never fails a user operation
// because the audit sink is down.
type Publisher interface {
	Publish(ctx context.Context, event Event)
	Close()
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) {}
func (NoopPublisher) Close()                         {}

// MemoryPublisher collects events in memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryPublisher creates an empty in-memory publisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *MemoryPublisher) Close() {}

// Events returns a snapshot of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
