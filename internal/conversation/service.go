package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"credgen/internal/archive"
	"credgen/internal/conversation/metrics"
	"credgen/internal/docs"
	"credgen/internal/domain"
	"credgen/internal/extraction"
	"credgen/internal/fields"
	"credgen/internal/fraud"
	"credgen/internal/intent"
	"credgen/internal/platform/config"
	"credgen/internal/sales"
	"credgen/internal/session"
	"credgen/internal/underwriting"
	dErrors "credgen/pkg/domain-errors"
	"credgen/pkg/platform/audit"
	"credgen/pkg/platform/sentinel"
	"credgen/pkg/requestcontext"
)

// Engines bundles the decision collaborators the orchestrator drives.
type Engines struct {
	Resolver     *intent.Resolver
	Extractor    *extraction.Extractor
	Underwriting *underwriting.Engine
	Sales        *sales.Engine
	Fraud        *fraud.Engine
	Letters      *docs.Renderer
}

// Reply is what one conversational step hands back to the transport layer.
// Worker tells the caller which engine endpoint to invoke next; Stage and
// Intent expose the machine's position for clients that render progress.
type Reply struct {
	SessionID  string        `json:"session_id"`
	Message    string        `json:"message"`
	Stage      domain.Stage  `json:"stage"`
	Intent     domain.Intent `json:"intent"`
	Confidence float64       `json:"confidence"`
	Worker     domain.Worker `json:"worker"`
	Missing    []string      `json:"missing_fields,omitempty"`
}

// UnderwritingOutcome is the result of the underwriting callback.
type UnderwritingOutcome struct {
	Result domain.RiskResult `json:"result"`
	Stage  domain.Stage      `json:"stage"`
}

// SalesOutcome is the result of the offer callback.
type SalesOutcome struct {
	Offer domain.Offer `json:"offer"`
	Stage domain.Stage `json:"stage"`
}

// FraudOutcome is the result of the fraud-check callback.
type FraudOutcome struct {
	Result domain.FraudResult `json:"result"`
	Passed bool               `json:"passed"`
	Stage  domain.Stage       `json:"stage"`
}

// LetterOutcome is the result of generating the sanction letter.
type LetterOutcome struct {
	Letter string       `json:"letter"`
	Stage  domain.Stage `json:"stage"`
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithArchive sets the sanctioned-loan archive.
func WithArchive(store archive.Store) Option {
	return func(s *Service) {
		s.archive = store
	}
}

// WithAuditPublisher sets the audit sink.
func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service owns per-session application state. Every operation serializes on
// the session's lock, mutates a clone, and commits it with a single Put, so
// concurrent requests against one session observe whole steps, never
// half-applied ones.
type Service struct {
	store   session.Store
	locks   *session.Locks
	engines Engines
	policy  config.Policy

	archive archive.Store
	audit   audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// New creates the orchestrator.
func New(store session.Store, locks *session.Locks, engines Engines, policy config.Policy, opts ...Option) *Service {
	s := &Service{
		store:   store,
		locks:   locks,
		engines: engines,
		policy:  policy,
		archive: archive.NewMemoryStore(),
		audit:   audit.NoopPublisher{},
		logger:  slog.Default(),
		tracer:  otel.Tracer("credgen/conversation"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle processes one chat message. It is the only operation that silently
// initializes a session for an unknown ID.
func (s *Service) Handle(ctx context.Context, sessionID, text string) (*Reply, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "conversation.Handle",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	state, err := s.store.Get(ctx, sessionID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		state = domain.NewApplicationState(sessionID, s.now())
		s.publish(ctx, audit.EventSessionStarted, state, nil)
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load session")
	}

	it, confidence := s.engines.Resolver.Resolve(ctx, text, state.Stage)
	span.SetAttributes(attribute.String("intent", string(it)))

	next := state.Clone()
	next.ApplyEntities(s.engines.Extractor.Extract(text))
	next.LastIntent = it
	next.Record(s.now(), text, it, confidence)

	if next.Stage == domain.StageOffer && it == domain.IntentAcceptOffer {
		next.OfferAccepted = true
	}

	from := next.Stage
	next.Stage = Next(next, it)
	s.noteTransition(ctx, next, from)

	reply := &Reply{
		SessionID:  sessionID,
		Message:    s.respond(next, it),
		Stage:      next.Stage,
		Intent:     it,
		Confidence: confidence,
		Worker:     RouteWorker(next.Stage, it),
	}
	if next.Stage == domain.StageCollecting {
		reply.Missing = next.MissingFields()
	}
	if next.Stage == domain.StageKYC {
		reply.Missing = next.MissingKYCFields()
	}

	next.UpdatedAt = s.now()
	if err := s.store.Put(ctx, next); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "commit session")
	}

	if s.metrics != nil {
		s.metrics.IncIntent(string(it))
		s.metrics.ObserveHandle(start)
	}
	s.logger.Info("message handled",
		slog.String("session_id", sessionID),
		slog.String("intent", string(it)),
		slog.String("stage", string(next.Stage)))

	return reply, nil
}

// RunUnderwriting executes the risk decision for a session sitting at the
// underwriting stage and commits score, approval and rate atomically.
func (s *Service) RunUnderwriting(ctx context.Context, sessionID string) (*UnderwritingOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.RunUnderwriting",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Stage != domain.StageUnderwriting {
		return nil, dErrors.Newf(dErrors.CodePreconditionFailed,
			"underwriting requires the underwriting stage, session is at %s", state.Stage)
	}

	result := s.engines.Underwriting.Evaluate(ctx, state.Entities)

	next := state.Clone()
	next.RiskScore = &result.RiskScore
	next.ApprovalStatus = &result.Approved
	next.InterestRate = result.InterestRate
	from := next.Stage
	next.Stage = NextAfterRisk(result.Approved)
	s.noteTransition(ctx, next, from)

	next.UpdatedAt = s.now()
	if err := s.store.Put(ctx, next); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "commit session")
	}

	outcome := "approved"
	if !result.Approved {
		outcome = "rejected"
	}
	if s.metrics != nil {
		s.metrics.IncUnderwriting(outcome)
	}
	s.publish(ctx, audit.EventUnderwritingDecision, next, map[string]string{
		"outcome":    outcome,
		"risk_score": strconv.FormatFloat(result.RiskScore, 'f', 3, 64),
		"reason":     result.Reason,
	})

	return &UnderwritingOutcome{Result: result, Stage: next.Stage}, nil
}

// RunSales produces the current offer, negotiated concession, or rejection
// counseling, depending on the stored decision state. The structured offer
// type drives the next stage.
func (s *Service) RunSales(ctx context.Context, sessionID string, negotiate bool) (*SalesOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.RunSales",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Stage != domain.StageOffer && state.Stage != domain.StageRejectionCounseling {
		return nil, dErrors.Newf(dErrors.CodePreconditionFailed,
			"offers require the offer or rejection_counseling stage, session is at %s", state.Stage)
	}
	if state.ApprovalStatus == nil {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, "no underwriting decision on record")
	}

	next := state.Clone()
	offer := s.engines.Sales.GenerateOffer(next, negotiate)
	next.CurrentOffer = &offer
	from := next.Stage
	next.Stage = NextAfterOffer(offer.Type)
	s.noteTransition(ctx, next, from)

	next.UpdatedAt = s.now()
	if err := s.store.Put(ctx, next); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "commit session")
	}

	if s.metrics != nil {
		s.metrics.IncOffer(string(offer.Type))
	}
	s.publish(ctx, audit.EventOfferGenerated, next, map[string]string{
		"type": string(offer.Type),
		"rate": strconv.FormatFloat(offer.Rate, 'f', 2, 64),
		"emi":  strconv.FormatInt(offer.EMI, 10),
	})

	return &SalesOutcome{Offer: offer, Stage: next.Stage}, nil
}

// RunFraudCheck verifies the collected identity after KYC. A composite
// integrity score below the policy minimum, or any HIGH component flag,
// terminates the application.
func (s *Service) RunFraudCheck(ctx context.Context, sessionID string) (*FraudOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.RunFraudCheck",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Stage != domain.StageFraudCheck {
		return nil, dErrors.Newf(dErrors.CodePreconditionFailed,
			"fraud check requires the fraud_check stage, session is at %s", state.Stage)
	}

	result := s.engines.Fraud.Evaluate(fraudInput(state))
	passed := result.Composite >= s.policy.Fraud.MinScore && result.Flag != domain.FraudFlagHigh

	next := state.Clone()
	next.FraudResult = &result
	from := next.Stage
	next.Stage = NextAfterFraud(passed)
	s.noteTransition(ctx, next, from)

	next.UpdatedAt = s.now()
	if err := s.store.Put(ctx, next); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "commit session")
	}

	if s.metrics != nil {
		s.metrics.IncFraud(string(result.Flag))
	}
	s.publish(ctx, audit.EventFraudDecision, next, map[string]string{
		"passed":    strconv.FormatBool(passed),
		"flag":      string(result.Flag),
		"composite": strconv.FormatFloat(result.Composite, 'f', 3, 64),
	})

	return &FraudOutcome{Result: result, Passed: passed, Stage: next.Stage}, nil
}

// GenerateLetter renders the sanction letter, archives the final terms, and
// closes the session. Preconditions: documentation stage and an accepted
// offer; on failure the state is untouched.
func (s *Service) GenerateLetter(ctx context.Context, sessionID string) (*LetterOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.GenerateLetter",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Stage != domain.StageDocumentation {
		return nil, dErrors.Newf(dErrors.CodePreconditionFailed,
			"letter generation requires the documentation stage, session is at %s", state.Stage)
	}
	if !state.OfferAccepted || state.CurrentOffer == nil {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, "no accepted offer on record")
	}

	offer := state.CurrentOffer
	applicant, _ := state.Text(fields.Name)
	letter, err := s.engines.Letters.Render(docs.Letter{
		Applicant:    applicant,
		LoanAmount:   offer.Principal,
		InterestRate: offer.Rate,
		TenureMonths: offer.TenureMonths,
		EMI:          offer.EMI,
		Date:         s.now(),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "render letter")
	}

	pan, _ := state.Text(fields.PAN)
	var risk float64
	if state.RiskScore != nil {
		risk = *state.RiskScore
	}
	record := &archive.Record{
		SessionID:    sessionID,
		Applicant:    applicant,
		PAN:          pan,
		LoanAmount:   offer.Principal,
		TenureMonths: offer.TenureMonths,
		InterestRate: offer.Rate,
		EMI:          offer.EMI,
		RiskScore:    risk,
		SanctionedAt: s.now(),
		Letter:       letter,
	}
	if err := s.archive.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "archive sanctioned loan")
	}

	next := state.Clone()
	from := next.Stage
	next.Stage = domain.StageClosed
	s.noteTransition(ctx, next, from)

	next.UpdatedAt = s.now()
	if err := s.store.Put(ctx, next); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "commit session")
	}

	if s.metrics != nil {
		s.metrics.IncLetter()
	}
	s.publish(ctx, audit.EventLetterGenerated, next, map[string]string{
		"applicant": applicant,
		"emi":       strconv.FormatInt(offer.EMI, 10),
	})

	return &LetterOutcome{Letter: letter, Stage: next.Stage}, nil
}

// Reset discards the session and starts a fresh one under the same ID.
func (s *Service) Reset(ctx context.Context, sessionID string) (*Reply, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.Reset",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "delete session")
	}

	state := domain.NewApplicationState(sessionID, s.now())
	if err := s.store.Put(ctx, state); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "commit session")
	}
	s.publish(ctx, audit.EventSessionReset, state, nil)

	return &Reply{
		SessionID: sessionID,
		Message:   greetingMessage,
		Stage:     state.Stage,
		Intent:    domain.IntentGreeting,
		Worker:    domain.WorkerNone,
	}, nil
}

// State returns the current application state, for diagnostics.
func (s *Service) State(ctx context.Context, sessionID string) (*domain.ApplicationState, error) {
	return s.load(ctx, sessionID)
}

// load fetches a session and maps a miss to the domain not-found error.
// State-mutating callbacks never silently create sessions.
func (s *Service) load(ctx context.Context, sessionID string) (*domain.ApplicationState, error) {
	state, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "load session")
	}
	return state, nil
}

func (s *Service) noteTransition(ctx context.Context, state *domain.ApplicationState, from domain.Stage) {
	if state.Stage == from {
		return
	}
	if s.metrics != nil {
		s.metrics.IncTransition(string(from), string(state.Stage))
	}
	s.publish(ctx, audit.EventStageChanged, state, map[string]string{
		"from": string(from),
	})
	if state.Stage == domain.StageClosed {
		s.publish(ctx, audit.EventSessionClosed, state, nil)
	}
}

func (s *Service) publish(ctx context.Context, eventType audit.EventType, state *domain.ApplicationState, detail map[string]string) {
	s.audit.Publish(ctx, audit.Event{
		Type:      eventType,
		SessionID: state.ID,
		Stage:     string(state.Stage),
		RequestID: requestcontext.RequestID(ctx),
		Timestamp: s.now(),
		Detail:    detail,
	})
}

func fraudInput(state *domain.ApplicationState) fraud.Input {
	var names []string
	if name, ok := state.Text(fields.Name); ok && name != "" {
		names = append(names, name)
	}

	dob, _ := state.Text(fields.DateOfBirth)

	var income *float64
	if v, ok := state.Number(fields.Income); ok {
		income = &v
	}

	return fraud.Input{
		Names:          names,
		DateOfBirth:    dob,
		DeclaredIncome: income,
	}
}
