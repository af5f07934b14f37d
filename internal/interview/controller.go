package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/mock-interview/internal/logger"
)

// Transition names used in logs and metrics.
const (
	TransitionLoadResume        = "load_resume"
	TransitionSelectCategory    = "select_category"
	TransitionGenerateQuestions = "generate_questions"
	TransitionSubmitAnswer      = "submit_answer"
	TransitionRequestFeedback   = "request_feedback"
	TransitionRequestSummary    = "request_summary"
)

// Deps aggregates the collaborators a Controller dispatches to.
type Deps struct {
	Extractor TextExtractor
	Questions QuestionGenerator
	Feedback  FeedbackGenerator
	Summary   SummaryGenerator

	Logger   *zap.Logger
	Recorder Recorder
	// Timeout bounds every collaborator call. Zero disables it.
	Timeout time.Duration
}

// Controller validates and applies every session transition.
// It holds no session state of its own; the presentation layer owns the *Session
// and hands it into each call.
type Controller struct {
	extractor TextExtractor
	questions QuestionGenerator
	feedback  FeedbackGenerator
	summary   SummaryGenerator

	logger   *zap.Logger
	recorder Recorder
	timeout  time.Duration
}

// NewController builds a Controller from its collaborators.
func NewController(deps Deps) (*Controller, error) {
	switch {
	case deps.Extractor == nil:
		return nil, errors.New("text extractor is required")
	case deps.Questions == nil:
		return nil, errors.New("question generator is required")
	case deps.Feedback == nil:
		return nil, errors.New("feedback generator is required")
	case deps.Summary == nil:
		return nil, errors.New("summary generator is required")
	}

	log := logger.WithFields(deps.Logger)

	var recorder Recorder = nopRecorder{}
	if deps.Recorder != nil {
		recorder = deps.Recorder
	}

	return &Controller{
		extractor: deps.Extractor,
		questions: deps.Questions,
		feedback:  deps.Feedback,
		summary:   deps.Summary,
		logger:    log,
		recorder:  recorder,
		timeout:   deps.Timeout,
	}, nil
}

// LoadResume extracts the document text and starts a brand-new session.
func (c *Controller) LoadResume(ctx context.Context, doc Document) (session *Session, err error) {
	start := time.Now()
	defer func() { c.observe(TransitionLoadResume, session, start, err) }()

	if doc.Format() == FormatUnknown {
		return nil, fmt.Errorf("%w: %q (expected .pdf or .docx)", ErrUnsupportedFormat, doc.Name)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	text, err := c.extractor.ExtractText(callCtx, doc)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrExtraction) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrExtraction, doc.Name, err)
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s contains no usable text", ErrExtraction, doc.Name)
	}

	return newSession(doc.Name, text), nil
}

// SelectCategory sets the interview category. Questions already generated are kept;
// the category applies to the next generation.
func (c *Controller) SelectCategory(s *Session, category Category) (err error) {
	start := time.Now()
	defer func() { c.observe(TransitionSelectCategory, s, start, err) }()

	unlock, err := lock(s)
	if err != nil {
		return err
	}
	defer unlock()

	if !category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if s.stage < StageResumeLoaded {
		return invalidTransition(TransitionSelectCategory, s.stage)
	}

	s.category = category
	if s.stage < StageCategorySelected {
		s.stage = StageCategorySelected
	}

	return nil
}

// GenerateQuestions asks the QuestionGenerator for a fresh question set and replaces
// the current one wholesale, discarding every answer, feedback and summary.
// On failure the session is left untouched.
func (c *Controller) GenerateQuestions(ctx context.Context, s *Session) (err error) {
	start := time.Now()
	defer func() { c.observe(TransitionGenerateQuestions, s, start, err) }()

	unlock, err := lock(s)
	if err != nil {
		return err
	}
	defer unlock()

	if s.stage < StageCategorySelected || !s.category.Valid() {
		return invalidTransition(TransitionGenerateQuestions, s.stage)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	raw, err := c.questions.GenerateQuestions(callCtx, s.resumeText, s.category)
	if err != nil {
		return generationError("generate questions", err)
	}

	parsed := ParseQuestions(raw)
	if len(parsed) == 0 {
		return fmt.Errorf("%w: generator output contains no numbered questions", ErrGeneration)
	}

	questions := make([]*Question, 0, len(parsed))
	for _, text := range parsed {
		questions = append(questions, &Question{text: text})
	}

	s.questions = questions
	s.questionCategory = s.category
	s.summary = ""
	s.stage = StageQuestionsReady

	return nil
}

// SubmitAnswer stores the trimmed answer for question index.
// An answer may be replaced until feedback exists for it.
func (c *Controller) SubmitAnswer(s *Session, index int, answer string) (err error) {
	start := time.Now()
	defer func() { c.observe(TransitionSubmitAnswer, s, start, err) }()

	unlock, err := lock(s)
	if err != nil {
		return err
	}
	defer unlock()

	q, err := s.question(index)
	if err != nil {
		return err
	}
	if q.hasFeedback() {
		return fmt.Errorf("%w: question %d", ErrAnswerLocked, index+1)
	}

	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return fmt.Errorf("%w: question %d", ErrEmptyAnswer, index+1)
	}

	q.answer = trimmed
	s.refreshStage()

	return nil
}

// RequestFeedback evaluates the answer to question index. Feedback is immutable once set:
// a repeated request returns the stored text without calling the generator.
func (c *Controller) RequestFeedback(ctx context.Context, s *Session, index int) (feedback string, err error) {
	start := time.Now()
	defer func() { c.observe(TransitionRequestFeedback, s, start, err) }()

	unlock, err := lock(s)
	if err != nil {
		return "", err
	}
	defer unlock()

	q, err := s.question(index)
	if err != nil {
		return "", err
	}
	if q.hasFeedback() {
		return q.feedback, nil
	}
	if !q.answered() {
		return "", fmt.Errorf("%w: question %d has no answer yet", ErrEmptyAnswer, index+1)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	feedback, err = c.feedback.GenerateFeedback(callCtx, q.text, q.answer)
	if err != nil {
		return "", generationError("generate feedback", err)
	}
	if strings.TrimSpace(feedback) == "" {
		return "", fmt.Errorf("%w: empty feedback for question %d", ErrGeneration, index+1)
	}

	q.feedback = feedback
	s.refreshStage()

	return feedback, nil
}

// RequestSummary aggregates every feedback text, in question order, into an overall summary.
func (c *Controller) RequestSummary(ctx context.Context, s *Session) (summary string, err error) {
	start := time.Now()
	defer func() { c.observe(TransitionRequestSummary, s, start, err) }()

	unlock, err := lock(s)
	if err != nil {
		return "", err
	}
	defer unlock()

	if len(s.questions) == 0 {
		return "", fmt.Errorf("%w: no questions generated", ErrIncompleteFeedback)
	}

	feedback := make([]string, 0, len(s.questions))
	var missing []string
	for i, q := range s.questions {
		if !q.hasFeedback() {
			missing = append(missing, fmt.Sprint(i+1))
			continue
		}
		feedback = append(feedback, q.feedback)
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: questions %s lack feedback", ErrIncompleteFeedback, strings.Join(missing, ", "))
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	summary, err = c.summary.GenerateSummary(callCtx, strings.Join(feedback, "\n\n"))
	if err != nil {
		return "", generationError("generate summary", err)
	}
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("%w: empty summary", ErrGeneration)
	}

	s.summary = summary
	s.refreshStage()

	return summary, nil
}

func (c *Controller) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// observe runs after the session lock is released.
func (c *Controller) observe(transition string, s *Session, start time.Time, err error) {
	elapsed := time.Since(start)
	c.recorder.ObserveTransition(transition, elapsed, err)

	fields := append([]zap.Field{
		zap.String("transition", transition),
		zap.Duration("elapsed", elapsed),
	}, logger.SessionFields(s.ID(), -1)...)

	if err != nil {
		c.logger.Warn("transition rejected", append(fields, zap.String("kind", Kind(err)), zap.Error(err))...)
		return
	}

	c.logger.Info("transition applied", append(fields, zap.Stringer("stage", s.Stage()))...)
}

func lock(s *Session) (func(), error) {
	if s == nil {
		return nil, fmt.Errorf("%w: no session, load a résumé first", ErrInvalidTransition)
	}
	s.mu.Lock()
	return s.mu.Unlock, nil
}

func invalidTransition(transition string, stage Stage) error {
	return fmt.Errorf("%w: %s is not allowed at stage %s", ErrInvalidTransition, transition, stage)
}

func invalidIndex(index, count int) error {
	return fmt.Errorf("%w: %d (have %d questions)", ErrInvalidIndex, index, count)
}
