package interview

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when a résumé is neither a PDF nor a DOCX document.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrExtraction is returned when a document yields no usable text.
	ErrExtraction = errors.New("text extraction failed")
	// ErrGeneration covers every failure of a generator collaborator, including empty or unparsable output.
	ErrGeneration = errors.New("generation failed")
	// ErrEmptyAnswer is returned for blank answers and for feedback requests without an answer.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrIncompleteFeedback is returned when a summary is requested before every question has feedback.
	ErrIncompleteFeedback = errors.New("feedback is incomplete")
	// ErrInvalidIndex is returned when a question index is out of range.
	ErrInvalidIndex = errors.New("invalid question index")
	// ErrInvalidTransition is returned when the session has not reached the stage a transition requires.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrAnswerLocked is returned when re-answering a question that already has feedback.
	ErrAnswerLocked = errors.New("answer is locked by feedback")
	// ErrInvalidCategory is returned for the placeholder or an unknown interview category.
	ErrInvalidCategory = errors.New("invalid interview category")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrUnsupportedFormat, "unsupported_format"},
	{ErrExtraction, "extraction_error"},
	{ErrGeneration, "generation_error"},
	{ErrEmptyAnswer, "empty_answer"},
	{ErrIncompleteFeedback, "incomplete_feedback"},
	{ErrInvalidIndex, "invalid_index"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrAnswerLocked, "answer_locked"},
	{ErrInvalidCategory, "invalid_category"},
}

// Kind returns a stable name for the failure class of err.
// A nil error is "ok"; anything outside the taxonomy is "internal".
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}

// generationError wraps a collaborator failure so it matches ErrGeneration while keeping the cause.
func generationError(op string, err error) error {
	if errors.Is(err, ErrGeneration) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out: %w", ErrGeneration, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrGeneration, op, err)
}
