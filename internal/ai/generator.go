package ai

import (
	"context"

	"github.com/spigell/mock-interview/internal/interview"
)

// ProviderGemini is the only supported provider.
const ProviderGemini = "gemini"

// Generator turns a system instruction and a user message into free text.
type Generator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// Interviewer bundles every generator collaborator the interview controller needs.
type Interviewer interface {
	interview.QuestionGenerator
	interview.FeedbackGenerator
	interview.SummaryGenerator
}
