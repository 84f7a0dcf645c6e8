package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborators return
// these (optionally wrapped) so services can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: session or record does not exist in the store
// - ErrExpired: session passed its idle TTL
// - ErrUnavailable: collaborator (risk model, intent scorer, broker) down
// - ErrConflict: write raced against a concurrent mutation
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
	ErrConflict    = errors.New("conflict")
)
