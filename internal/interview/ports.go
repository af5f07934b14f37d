package interview

import (
	"context"
	"time"
)

// TextExtractor converts a résumé document into plain text.
// Implementations return errors wrapping ErrUnsupportedFormat or ErrExtraction.
type TextExtractor interface {
	ExtractText(ctx context.Context, doc Document) (string, error)
}

// QuestionGenerator produces free text expected to hold a numbered list of questions.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, resumeText string, category Category) (string, error)
}

// FeedbackGenerator evaluates one answer to one question.
type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, question, answer string) (string, error)
}

// SummaryGenerator aggregates every feedback text, joined in question order by a blank line.
type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, feedback string) (string, error)
}

// Recorder observes the outcome of every transition.
type Recorder interface {
	ObserveTransition(transition string, elapsed time.Duration, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTransition(string, time.Duration, error) {}
