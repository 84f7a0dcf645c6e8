// Package handler is the thin HTTP layer over the conversation orchestrator.
// Handlers decode, validate, call the service, and translate errors; no
// business logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"credgen/internal/conversation"
	dErrors "credgen/pkg/domain-errors"
	"credgen/pkg/platform/httputil"
	"credgen/pkg/requestcontext"
)

// sessionHeader carries the conversation identity between requests.
const sessionHeader = "X-Session-ID"

// Service defines the orchestrator operations the transport exposes.
type Service interface {
	Handle(ctx context.Context, sessionID, text string) (*conversation.Reply, error)
	RunUnderwriting(ctx context.Context, sessionID string) (*conversation.UnderwritingOutcome, error)
	RunSales(ctx context.Context, sessionID string, negotiate bool) (*conversation.SalesOutcome, error)
	RunFraudCheck(ctx context.Context, sessionID string) (*conversation.FraudOutcome, error)
	GenerateLetter(ctx context.Context, sessionID string) (*conversation.LetterOutcome, error)
	Reset(ctx context.Context, sessionID string) (*conversation.Reply, error)
}

// Handler wires conversation endpoints to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a conversation handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts conversation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/chat", h.HandleChat)
	r.Post("/underwrite", h.HandleUnderwrite)
	r.Post("/sales", h.HandleSales)
	r.Post("/fraud-check", h.HandleFraudCheck)
	r.Post("/generate-letter", h.HandleGenerateLetter)
	r.Post("/reset", h.HandleReset)
	r.Get("/healthz", h.HandleHealthz)
}

// HandleChat handles POST /chat requests. A missing session header starts a
// fresh session under a generated id; the id is echoed in the response so the
// client can carry it forward.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	sessionID, err := h.sessionID(r, true)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ChatRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	reply, err := h.service.Handle(requestcontext.WithSessionID(ctx, sessionID), sessionID, req.Message)
	if err != nil {
		h.logger.ErrorContext(ctx, "chat handling failed",
			"request_id", requestID,
			"session_id", sessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "chat handled",
		"request_id", requestID,
		"session_id", sessionID,
		"intent", reply.Intent,
		"stage", reply.Stage,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	w.Header().Set(sessionHeader, sessionID)
	httputil.WriteJSON(w, http.StatusOK, FromReply(reply))
}

// HandleUnderwrite handles POST /underwrite requests.
func (h *Handler) HandleUnderwrite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sessionID, err := h.sessionID(r, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := h.service.RunUnderwriting(requestcontext.WithSessionID(ctx, sessionID), sessionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "underwriting failed",
			"request_id", requestID,
			"session_id", sessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &UnderwriteResponse{
		Approved:     outcome.Result.Approved,
		RiskScore:    outcome.Result.RiskScore,
		InterestRate: outcome.Result.InterestRate,
		Reason:       outcome.Result.Reason,
		Stage:        string(outcome.Stage),
	})
}

// HandleSales handles POST /sales requests. The body is optional; without it
// a plain offer is generated, with {"negotiate": true} the engine concedes
// the configured decrement.
func (h *Handler) HandleSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sessionID, err := h.sessionID(r, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req SalesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	outcome, err := h.service.RunSales(requestcontext.WithSessionID(ctx, sessionID), sessionID, req.Negotiate)
	if err != nil {
		h.logger.ErrorContext(ctx, "offer generation failed",
			"request_id", requestID,
			"session_id", sessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &SalesResponse{
		Type:         string(outcome.Offer.Type),
		Message:      outcome.Offer.Message,
		Rate:         outcome.Offer.Rate,
		Principal:    outcome.Offer.Principal,
		TenureMonths: outcome.Offer.TenureMonths,
		EMI:          outcome.Offer.EMI,
		Stage:        string(outcome.Stage),
	})
}

// HandleFraudCheck handles POST /fraud-check requests.
func (h *Handler) HandleFraudCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sessionID, err := h.sessionID(r, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := h.service.RunFraudCheck(requestcontext.WithSessionID(ctx, sessionID), sessionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "fraud check failed",
			"request_id", requestID,
			"session_id", sessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &FraudResponse{
		Passed:     outcome.Passed,
		Flag:       string(outcome.Result.Flag),
		Composite:  outcome.Result.Composite,
		Components: outcome.Result.Components,
		Stage:      string(outcome.Stage),
	})
}

// HandleGenerateLetter handles POST /generate-letter requests.
func (h *Handler) HandleGenerateLetter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sessionID, err := h.sessionID(r, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := h.service.GenerateLetter(requestcontext.WithSessionID(ctx, sessionID), sessionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "letter generation failed",
			"request_id", requestID,
			"session_id", sessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &LetterResponse{
		Message: "Sanction Letter is ready for download!",
		Letter:  outcome.Letter,
		Action:  "download_letter",
		Stage:   string(outcome.Stage),
	})
}

// HandleReset handles POST /reset requests.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sessionID, err := h.sessionID(r, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reply, err := h.service.Reset(requestcontext.WithSessionID(ctx, sessionID), sessionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "session reset failed",
			"request_id", requestID,
			"session_id", sessionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromReply(reply))
}

// HandleHealthz handles GET /healthz requests.
func (h *Handler) HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionID extracts and validates the session header. Only the chat
// endpoint may generate a fresh id; worker callbacks act on existing
// sessions and must name one.
func (h *Handler) sessionID(r *http.Request, generate bool) (string, error) {
	id := strings.TrimSpace(r.Header.Get(sessionHeader))
	if id == "" {
		if generate {
			return uuid.NewString(), nil
		}
		return "", dErrors.New(dErrors.CodeValidation, "X-Session-ID header is required")
	}
	if !govalidator.StringLength(id, "1", "128") {
		return "", dErrors.New(dErrors.CodeValidation, "X-Session-ID must be at most 128 characters")
	}
	return id, nil
}
