// Package services defines the business logic for clients, extraction,
// and follow-ups. This file centralizes common service-level error values
// so that they can be consistently returned by service methods and checked
// by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-crm-backend/internal/match"
)

// Client-related errors.
var (
	// ErrClientNotFound indicates that the requested client does not exist
	// or is not visible.
	ErrClientNotFound = errors.New("client not found")

	// ErrInvalidName is returned when a client name is empty or exceeds
	// the maximum length after trimming.
	ErrInvalidName = errors.New("client name must be 1-100 characters")
)

// Interaction and extraction errors.
var (
	// ErrInteractionNotFound indicates that the requested interaction does
	// not exist.
	ErrInteractionNotFound = errors.New("interaction not found")

	// ErrEmptyConversation is returned when a conversation payload is empty
	// after trimming.
	ErrEmptyConversation = errors.New("conversation is empty")

	// ErrConversationTooShort is returned when a conversation is too short
	// to extract anything meaningful from.
	ErrConversationTooShort = errors.New("conversation too short")
)

// Follow-up errors.
var (
	// ErrFollowUpNotFound indicates that no follow-up has been generated
	// for the requested interaction.
	ErrFollowUpNotFound = errors.New("follow-up not found")

	// ErrFollowUpExists is returned when a follow-up already exists for the
	// interaction; each interaction gets at most one.
	ErrFollowUpExists = errors.New("follow-up already exists for this interaction")

	// ErrFollowUpTooShort is returned when a generated draft is too short
	// to be worth storing.
	ErrFollowUpTooShort = errors.New("generated follow-up too short")
)

// DuplicateConflictError is returned by ClientService.Create when the
// candidate record scores at or above the duplicate threshold against
// existing clients and the caller did not force the creation. Matches are
// ordered by score descending.
type DuplicateConflictError struct {
	Matches []match.Match
}

// Error implements the error interface.
func (e *DuplicateConflictError) Error() string {
	return fmt.Sprintf("%d potential duplicate client(s) found", len(e.Matches))
}

// ExtractionError is returned when the model output still fails validation
// after the single strict retry. RawOutput carries the final model text for
// diagnostics; Reason is the underlying parse or schema error.
type ExtractionError struct {
	RawOutput string
	Reason    error
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed after retry: %v", e.Reason)
}

// Unwrap exposes the underlying validation error for errors.As checks.
func (e *ExtractionError) Unwrap() error { return e.Reason }
