package conversation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credgen/internal/archive"
	"credgen/internal/conversation"
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
)

type ServiceSuite struct {
	suite.Suite

	ctx     context.Context
	clock   time.Time
	store   *session.MemoryStore
	archive *archive.MemoryStore
	audit   *audit.MemoryPublisher
	svc     *conversation.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return s.clock }

	policy := config.DefaultPolicy()
	extractor := extraction.New()

	s.store = session.NewMemoryStore(30*time.Minute, session.WithClock(now))
	s.archive = archive.NewMemoryStore()
	s.audit = audit.NewMemoryPublisher()

	s.svc = conversation.New(s.store, session.NewLocks(), conversation.Engines{
		Resolver:     intent.NewResolver(intent.NewLexicalScorer(), extractor, policy.Intent.ConfidenceThreshold),
		Extractor:    extractor,
		Underwriting: underwriting.New(policy.Underwriting),
		Sales:        sales.New(policy.Sales),
		Fraud:        fraud.New(fraud.WithClock(now)),
		Letters:      docs.NewRenderer(),
	}, policy,
		conversation.WithClock(now),
		conversation.WithArchive(s.archive),
		conversation.WithAuditPublisher(s.audit),
	)
}

// seed installs a session in a known position, bypassing the chat path.
func (s *ServiceSuite) seed(id string, stage domain.Stage, mutate func(*domain.ApplicationState)) {
	state := domain.NewApplicationState(id, s.clock)
	state.Stage = stage
	if mutate != nil {
		mutate(state)
	}
	s.Require().NoError(s.store.Put(s.ctx, state))
}

func (s *ServiceSuite) say(id, text string) *conversation.Reply {
	reply, err := s.svc.Handle(s.ctx, id, text)
	s.Require().NoError(err)
	return reply
}

func (s *ServiceSuite) TestFullApprovedApplication() {
	const id = "sess-approved"

	reply := s.say(id, "hello")
	s.Equal(domain.StageGreeting, reply.Stage)
	s.Equal(domain.IntentGreeting, reply.Intent)
	s.Contains(reply.Message, "CredGen")

	reply = s.say(id, "I want to apply for a loan")
	s.Equal(domain.StageCollecting, reply.Stage)
	s.Equal(domain.IntentLoanApplication, reply.Intent)
	s.Len(reply.Missing, len(fields.Required))

	s.say(id, "my name is priya sharma")
	s.say(id, "I am 30 years old")
	s.say(id, "born on 10-05-1995")
	s.say(id, "I need a loan of Rs 500000")
	s.say(id, "over 60 months")
	s.say(id, "my income is 1200000 per annum")
	s.say(id, "I am salaried")

	reply = s.say(id, "the loan is for my daughter's education")
	s.Equal(domain.StageUnderwriting, reply.Stage)
	s.Equal(domain.WorkerUnderwriting, reply.Worker)
	s.Contains(reply.Message, "Underwriting")
	s.Empty(reply.Missing)

	uw, err := s.svc.RunUnderwriting(s.ctx, id)
	s.Require().NoError(err)
	s.True(uw.Result.Approved)
	s.InDelta(0.763, uw.Result.RiskScore, 1e-3)
	s.Require().NotNil(uw.Result.InterestRate)
	s.InDelta(15.99, *uw.Result.InterestRate, 1e-9)
	s.Equal(domain.StageOffer, uw.Stage)

	sale, err := s.svc.RunSales(s.ctx, id, false)
	s.Require().NoError(err)
	s.Equal(domain.OfferApproved, sale.Offer.Type)
	s.InDelta(15.99, sale.Offer.Rate, 1e-9)
	s.Equal(500000.0, sale.Offer.Principal)
	s.Equal(60, sale.Offer.TenureMonths)
	s.Positive(sale.Offer.EMI)
	s.Equal(domain.StageOffer, sale.Stage)

	reply = s.say(id, "yes, I accept the offer")
	s.Equal(domain.StageKYC, reply.Stage)
	s.Equal(domain.IntentAcceptOffer, reply.Intent)
	s.Len(reply.Missing, len(fields.KYC))

	s.say(id, "my pan is abcde1234f")
	s.say(id, "aadhaar 1234 5678 9012")

	reply = s.say(id, "my address: 12 MG Road, Bengaluru 560001.")
	s.Equal(domain.StageFraudCheck, reply.Stage)
	s.Equal(domain.WorkerFraud, reply.Worker)

	fc, err := s.svc.RunFraudCheck(s.ctx, id)
	s.Require().NoError(err)
	s.True(fc.Passed)
	s.Equal(domain.FraudFlagLow, fc.Result.Flag)
	s.Equal(domain.StageDocumentation, fc.Stage)

	letter, err := s.svc.GenerateLetter(s.ctx, id)
	s.Require().NoError(err)
	s.Contains(letter.Letter, "Priya Sharma")
	s.Contains(letter.Letter, "₹500,000")
	s.Equal(domain.StageClosed, letter.Stage)

	record, err := s.archive.Get(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("Priya Sharma", record.Applicant)
	s.Equal("ABCDE1234F", record.PAN)
	s.Equal(sale.Offer.EMI, record.EMI)

	reply = s.say(id, "hello again")
	s.Equal(domain.StageClosed, reply.Stage)
	s.Contains(reply.Message, "closed")

	types := make([]audit.EventType, 0)
	for _, ev := range s.audit.Events() {
		types = append(types, ev.Type)
	}
	s.Contains(types, audit.EventSessionStarted)
	s.Contains(types, audit.EventUnderwritingDecision)
	s.Contains(types, audit.EventOfferGenerated)
	s.Contains(types, audit.EventFraudDecision)
	s.Contains(types, audit.EventLetterGenerated)
	s.Contains(types, audit.EventSessionClosed)
}

func (s *ServiceSuite) TestHardRejectionAndCounseling() {
	const id = "sess-rejected"
	s.seed(id, domain.StageUnderwriting, func(state *domain.ApplicationState) {
		state.Entities[fields.Age] = domain.NumberValue(19)
		state.Entities[fields.Income] = domain.NumberValue(800_000)
		state.Entities[fields.LoanAmount] = domain.NumberValue(500_000)
	})

	uw, err := s.svc.RunUnderwriting(s.ctx, id)
	s.Require().NoError(err)
	s.False(uw.Result.Approved)
	s.Equal(domain.HardGateRiskScore, uw.Result.RiskScore)
	s.Equal(domain.StageRejectionCounseling, uw.Stage)

	sale, err := s.svc.RunSales(s.ctx, id, false)
	s.Require().NoError(err)
	s.Equal(domain.OfferRejectedAlternative, sale.Offer.Type)
	s.Equal(300000.0, sale.Offer.Principal)
	s.Equal(domain.StageOffer, sale.Stage)

	reply := s.say(id, "no thanks, not interested")
	s.Equal(domain.IntentRejectOffer, reply.Intent)
	s.Equal(domain.StageClosed, reply.Stage)
}

func (s *ServiceSuite) TestNegotiationLowersStoredRate() {
	const id = "sess-negotiate"
	approved := true
	rate := 12.0
	risk := 0.3
	s.seed(id, domain.StageOffer, func(state *domain.ApplicationState) {
		state.ApprovalStatus = &approved
		state.InterestRate = &rate
		state.RiskScore = &risk
		state.Entities[fields.LoanAmount] = domain.NumberValue(1_000_000)
		state.Entities[fields.TenureMonths] = domain.NumberValue(60)
		state.Entities[fields.Name] = domain.TextValue("Priya Sharma")
	})

	sale, err := s.svc.RunSales(s.ctx, id, true)
	s.Require().NoError(err)
	s.Equal(domain.OfferNegotiated, sale.Offer.Type)
	s.InDelta(11.5, sale.Offer.Rate, 1e-9)
	s.Equal(domain.StageOffer, sale.Stage)

	state, err := s.svc.State(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(state.InterestRate)
	s.InDelta(11.5, *state.InterestRate, 1e-9)
}

func (s *ServiceSuite) TestCallbackPreconditions() {
	const id = "sess-early"
	s.seed(id, domain.StageGreeting, nil)

	_, err := s.svc.RunUnderwriting(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

	_, err = s.svc.RunSales(s.ctx, id, false)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

	_, err = s.svc.RunFraudCheck(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

	_, err = s.svc.GenerateLetter(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func (s *ServiceSuite) TestLetterRequiresAcceptedOffer() {
	const id = "sess-no-accept"
	s.seed(id, domain.StageDocumentation, nil)

	_, err := s.svc.GenerateLetter(s.ctx, id)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

	state, err := s.svc.State(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(domain.StageDocumentation, state.Stage)
}

func (s *ServiceSuite) TestCallbacksRejectUnknownSession() {
	_, err := s.svc.RunUnderwriting(s.ctx, "no-such-session")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.svc.RunSales(s.ctx, "no-such-session", false)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.svc.GenerateLetter(s.ctx, "no-such-session")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestResetStartsFresh() {
	const id = "sess-reset"
	s.seed(id, domain.StageKYC, func(state *domain.ApplicationState) {
		state.OfferAccepted = true
		state.Entities[fields.Name] = domain.TextValue("Priya Sharma")
	})

	reply, err := s.svc.Reset(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(domain.StageGreeting, reply.Stage)
	s.Contains(reply.Message, "CredGen")

	state, err := s.svc.State(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(domain.StageGreeting, state.Stage)
	s.False(state.OfferAccepted)
	s.Empty(state.Entities)
}

func (s *ServiceSuite) TestFraudFailureClosesSession() {
	const id = "sess-fraud"
	// No DOB and no income on record: both signals worst-case.
	s.seed(id, domain.StageFraudCheck, func(state *domain.ApplicationState) {
		state.OfferAccepted = true
		state.Entities[fields.Name] = domain.TextValue("Priya Sharma")
	})

	fc, err := s.svc.RunFraudCheck(s.ctx, id)
	s.Require().NoError(err)
	s.False(fc.Passed)
	s.Equal(domain.FraudFlagHigh, fc.Result.Flag)
	s.Equal(domain.StageClosed, fc.Stage)
}
