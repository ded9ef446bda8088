package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrVocabulary marks payloads carrying values outside the approved vocabularies.
	ErrVocabulary = errors.New("vocabulary violation")
	// ErrConflict marks optimistic-concurrency conflicts on versioned records.
	ErrConflict = errors.New("version conflict")
	// ErrFollowUpCapReached marks follow-up requests past the daily cap.
	ErrFollowUpCapReached = errors.New("follow-up cap reached")
	// ErrSuperseded marks classification results for events that are no longer the latest submission.
	ErrSuperseded = errors.New("event superseded by a newer submission")
)
