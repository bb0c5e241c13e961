package services

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to status codes with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Error pairs a kind with the message shown to the client.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func validation(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }
func notFound(msg string) error   { return &Error{Kind: ErrNotFound, Message: msg} }
func conflict(msg string) error   { return &Error{Kind: ErrConflict, Message: msg} }

// storeError wraps anything the repositories return that has no kind.
func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}

const (
	msgUserIDRequired     = "userId is required"
	msgCompletionFields   = "userId and score are required"
	msgUserExists         = "User already exists"
	msgUserNotFound       = "User not found"
	msgChallengeNotFound  = "Challenge not found"
	msgChallengeCompleted = "Challenge already completed"
	msgNegativeScore      = "score must not be negative"
	msgInvalidDifficulty  = "difficulty must be one of easy, medium, hard"
	msgUserIDTooLong      = "userId must be at most 100 characters"
)
