package gemini

import (
	"context"
	"embed"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/mock-interview/internal/ai"
	"github.com/spigell/mock-interview/internal/interview"
	"github.com/spigell/mock-interview/internal/utils"
)

const (
	defaultMaxLogLength  = 200
	defaultQuestionCount = 5

	systemQuestions = "You are a professional mock interviewer."
	systemFeedback  = "You are an expert interviewer."
	systemSummary   = "You are a professional interview evaluator."
)

var (
	_ ai.Generator   = (*Generator)(nil)
	_ ai.Interviewer = (*Interviewer)(nil)
)

//go:embed prompts/*.md
var prompts embed.FS

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Interviewer implements the question, feedback and summary collaborators on top of a content generator.
type Interviewer struct {
	generator     contentGenerator
	logger        *zap.Logger
	questionCount int
	maxLogLen     int
}

// NewInterviewer creates an Interviewer asking for questionCount questions per set.
func NewInterviewer(generator contentGenerator, logger *zap.Logger, questionCount, maxLogLength int) *Interviewer {
	if questionCount <= 0 {
		questionCount = defaultQuestionCount
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Interviewer{
		generator:     generator,
		logger:        logger,
		questionCount: questionCount,
		maxLogLen:     maxLogLength,
	}
}

// GenerateQuestions asks for a numbered list of questions tailored to the résumé and category.
func (i *Interviewer) GenerateQuestions(ctx context.Context, resumeText string, category interview.Category) (string, error) {
	prompt, err := render("questions.md", map[string]string{
		"RESUME":   strings.TrimSpace(resumeText),
		"CATEGORY": category.String(),
		"COUNT":    strconv.Itoa(i.questionCount),
	})
	if err != nil {
		return "", err
	}

	return i.generate(ctx, "questions", systemQuestions, prompt)
}

// GenerateFeedback evaluates one answer. The response is passed through verbatim.
func (i *Interviewer) GenerateFeedback(ctx context.Context, question, answer string) (string, error) {
	prompt, err := render("feedback.md", map[string]string{
		"QUESTION": question,
		"ANSWER":   answer,
	})
	if err != nil {
		return "", err
	}

	return i.generate(ctx, "feedback", systemFeedback, prompt)
}

// GenerateSummary summarizes the combined feedback of a whole session.
func (i *Interviewer) GenerateSummary(ctx context.Context, feedback string) (string, error) {
	prompt, err := render("summary.md", map[string]string{
		"FEEDBACK": feedback,
	})
	if err != nil {
		return "", err
	}

	return i.generate(ctx, "summary", systemSummary, prompt)
}

func (i *Interviewer) generate(ctx context.Context, kind, system, prompt string) (string, error) {
	i.logger.Debug("gemini generate content request",
		zap.String("kind", kind),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, i.maxLogLen)),
	)

	raw, err := i.generator.GenerateContent(ctx, system, prompt)
	if err != nil {
		return "", err
	}

	i.logger.Debug("gemini generate content response",
		zap.String("kind", kind),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, i.maxLogLen)),
	)

	return raw, nil
}

func render(name string, values map[string]string) (string, error) {
	template, err := prompts.ReadFile("prompts/" + name)
	if err != nil {
		return "", fmt.Errorf("read prompt template %s: %w", name, err)
	}

	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}

	return strings.NewReplacer(pairs...).Replace(string(template)), nil
}
