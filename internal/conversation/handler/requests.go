package handler

import (
	"strings"

	"github.com/asaskevich/govalidator"

	dErrors "credgen/pkg/domain-errors"
)

// ChatRequest is the HTTP request body for POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ChatRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.Message = strings.TrimSpace(r.Message)
	if r.Message == "" {
		return dErrors.New(dErrors.CodeValidation, "message is required")
	}
	if !govalidator.StringLength(r.Message, "1", "2000") {
		return dErrors.New(dErrors.CodeValidation, "message must be at most 2000 characters")
	}
	return nil
}

// SalesRequest is the optional HTTP request body for POST /sales.
type SalesRequest struct {
	Negotiate bool `json:"negotiate"`
}
