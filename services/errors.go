package services

import "errors"

// Sentinel errors returned by the checklist lifecycle. Controllers translate
// these into HTTP statuses; wrap with fmt.Errorf("...: %w", err) when adding
// context so errors.Is still matches.
var (
	// ErrNotFound covers scans, submissions, responses and evidence that do
	// not exist or belong to another firm. Cross-firm rows are reported as
	// missing, never as forbidden, so ids cannot be probed.
	ErrNotFound = errors.New("record not found")

	// ErrLocked is returned for any mutation against a completed submission.
	ErrLocked = errors.New("submission is locked")

	// ErrInvalidStatus is returned when a response status outside the
	// accepted enum reaches the service boundary.
	ErrInvalidStatus = errors.New("invalid response status")

	// ErrIncomplete is returned by Complete when the require-full-completion
	// policy is active and the submission still has pending responses.
	ErrIncomplete = errors.New("submission has unanswered responses")
)
