package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) ExtractText(_ context.Context, _ Document) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakeGenerator struct {
	mu sync.Mutex

	questions    []string
	questionsErr error

	feedbackErr error
	feedback    func(question, answer string) string

	summary     string
	summaryErr  error
	lastSummary string

	questionCalls int
	feedbackCalls int
	summaryCalls  int
	lastCategory  Category
}

func (f *fakeGenerator) GenerateQuestions(_ context.Context, _ string, category Category) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questionCalls++
	f.lastCategory = category
	if f.questionsErr != nil {
		return "", f.questionsErr
	}
	if len(f.questions) == 0 {
		return "", errors.New("no scripted response")
	}
	raw := f.questions[0]
	if len(f.questions) > 1 {
		f.questions = f.questions[1:]
	}
	return raw, nil
}

func (f *fakeGenerator) GenerateFeedback(_ context.Context, question, answer string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedbackCalls++
	if f.feedbackErr != nil {
		return "", f.feedbackErr
	}
	if f.feedback != nil {
		return f.feedback(question, answer), nil
	}
	return "feedback for " + answer, nil
}

func (f *fakeGenerator) GenerateSummary(_ context.Context, feedback string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls++
	f.lastSummary = feedback
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return f.summary, nil
}

type transitionRecord struct {
	transition string
	kind       string
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []transitionRecord
}

func (r *fakeRecorder) ObserveTransition(transition string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, transitionRecord{transition: transition, kind: Kind(err)})
}

const scenarioQuestions = "1. Tell me about a distributed system you built.\n2. How do you handle cache invalidation?\nIrrelevant line\n3. Describe a difficult debugging session."

func newTestController(t *testing.T, extractor *fakeExtractor, gen *fakeGenerator) *Controller {
	t.Helper()

	ctrl, err := NewController(Deps{
		Extractor: extractor,
		Questions: gen,
		Feedback:  gen,
		Summary:   gen,
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return ctrl
}

// readySession returns a session with a generated question set.
func readySession(t *testing.T, ctrl *Controller) *Session {
	t.Helper()

	s, err := ctrl.LoadResume(context.Background(), Document{Name: "cv.pdf", Data: []byte("%PDF")})
	if err != nil {
		t.Fatalf("load resume: %v", err)
	}
	if err := ctrl.SelectCategory(s, CategoryTechnical); err != nil {
		t.Fatalf("select category: %v", err)
	}
	if err := ctrl.GenerateQuestions(context.Background(), s); err != nil {
		t.Fatalf("generate questions: %v", err)
	}
	return s
}

func TestNewControllerRequiresCollaborators(t *testing.T) {
	if _, err := NewController(Deps{}); err == nil {
		t.Fatal("expected error for missing collaborators")
	}
}

func TestEndToEndScenario(t *testing.T) {
	extractor := &fakeExtractor{text: "Experienced backend engineer..."}
	gen := &fakeGenerator{questions: []string{scenarioQuestions}}
	ctrl := newTestController(t, extractor, gen)
	ctx := context.Background()

	s, err := ctrl.LoadResume(ctx, Document{Name: "resume.docx", Data: []byte("PK")})
	if err != nil {
		t.Fatalf("load resume: %v", err)
	}
	if extractor.calls != 1 {
		t.Fatalf("expected extractor to be called once, got %d", extractor.calls)
	}
	snap := s.Snapshot()
	if snap.ResumeText != "Experienced backend engineer..." {
		t.Fatalf("unexpected resume text: %q", snap.ResumeText)
	}
	if snap.Stage != StageResumeLoaded {
		t.Fatalf("expected ResumeLoaded, got %s", snap.Stage)
	}

	if err := ctrl.SelectCategory(s, CategoryTechnical); err != nil {
		t.Fatalf("select category: %v", err)
	}
	if err := ctrl.GenerateQuestions(ctx, s); err != nil {
		t.Fatalf("generate questions: %v", err)
	}
	if gen.lastCategory != CategoryTechnical {
		t.Fatalf("expected Technical category to be sent, got %q", gen.lastCategory)
	}

	snap = s.Snapshot()
	if len(snap.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d: %+v", len(snap.Questions), snap.Questions)
	}
	if snap.Stage != StageQuestionsReady {
		t.Fatalf("expected QuestionsReady, got %s", snap.Stage)
	}

	if err := ctrl.SubmitAnswer(s, 1, "  Write-through with TTLs.  "); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	snap = s.Snapshot()
	if snap.Questions[1].Answer != "Write-through with TTLs." {
		t.Fatalf("expected trimmed answer, got %q", snap.Questions[1].Answer)
	}
	if snap.Stage != StageAnswering {
		t.Fatalf("expected Answering, got %s", snap.Stage)
	}

	gen.feedback = func(_, _ string) string { return "- Score: 7/10" }
	feedback, err := ctrl.RequestFeedback(ctx, s, 1)
	if err != nil {
		t.Fatalf("request feedback: %v", err)
	}
	if feedback != "- Score: 7/10" || s.Snapshot().Questions[1].Feedback != "- Score: 7/10" {
		t.Fatalf("unexpected feedback: %q", feedback)
	}

	if _, err := ctrl.RequestSummary(ctx, s); !errors.Is(err, ErrIncompleteFeedback) {
		t.Fatalf("expected ErrIncompleteFeedback, got %v", err)
	}
	if gen.summaryCalls != 0 {
		t.Fatalf("summary generator must not be called, got %d calls", gen.summaryCalls)
	}
}

func TestLoadResumeFailures(t *testing.T) {
	t.Run("unsupported format", func(t *testing.T) {
		extractor := &fakeExtractor{text: "text"}
		ctrl := newTestController(t, extractor, &fakeGenerator{})

		s, err := ctrl.LoadResume(context.Background(), Document{Name: "cv.txt", Data: []byte("hello")})
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
		}
		if s != nil {
			t.Fatal("expected no session")
		}
		if extractor.calls != 0 {
			t.Fatalf("extractor must not be called, got %d", extractor.calls)
		}
	})

	t.Run("blank text", func(t *testing.T) {
		ctrl := newTestController(t, &fakeExtractor{text: " \n\t "}, &fakeGenerator{})

		if _, err := ctrl.LoadResume(context.Background(), Document{Name: "cv.pdf"}); !errors.Is(err, ErrExtraction) {
			t.Fatalf("expected ErrExtraction, got %v", err)
		}
	})

	t.Run("unclassified extractor error", func(t *testing.T) {
		cause := errors.New("corrupt xref table")
		ctrl := newTestController(t, &fakeExtractor{err: cause}, &fakeGenerator{})

		_, err := ctrl.LoadResume(context.Background(), Document{Name: "cv.PDF"})
		if !errors.Is(err, ErrExtraction) || !errors.Is(err, cause) {
			t.Fatalf("expected ErrExtraction wrapping the cause, got %v", err)
		}
	})

	t.Run("classified extractor error passes through", func(t *testing.T) {
		ctrl := newTestController(t, &fakeExtractor{err: fmt.Errorf("%w: zip", ErrUnsupportedFormat)}, &fakeGenerator{})

		_, err := ctrl.LoadResume(context.Background(), Document{Name: "cv.docx"})
		if !errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrExtraction) {
			t.Fatalf("expected ErrUnsupportedFormat only, got %v", err)
		}
	})
}

func TestTransitionsRequireStage(t *testing.T) {
	gen := &fakeGenerator{questions: []string{scenarioQuestions}}
	ctrl := newTestController(t, &fakeExtractor{text: "cv"}, gen)
	ctx := context.Background()

	if err := ctrl.SelectCategory(nil, CategoryHR); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for nil session, got %v", err)
	}
	if err := ctrl.SelectCategory(&Session{}, CategoryHR); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for empty session, got %v", err)
	}

	s, err := ctrl.LoadResume(ctx, Document{Name: "cv.pdf"})
	if err != nil {
		t.Fatalf("load resume: %v", err)
	}

	if err := ctrl.GenerateQuestions(ctx, s); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition before category, got %v", err)
	}
	if gen.questionCalls != 0 {
		t.Fatalf("question generator must not be called, got %d", gen.questionCalls)
	}
	if err := ctrl.SelectCategory(s, Category(CategoryPlaceholder)); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if s.Stage() != StageResumeLoaded {
		t.Fatalf("expected stage to stay ResumeLoaded, got %s", s.Stage())
	}
	if err := ctrl.SubmitAnswer(s, 0, "answer"); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex without questions, got %v", err)
	}
	if _, err := ctrl.RequestSummary(ctx, s); !errors.Is(err, ErrIncompleteFeedback) {
		t.Fatalf("expected ErrIncompleteFeedback without questions, got %v", err)
	}
}

func TestGenerateQuestionsFailureKeepsSession(t *testing.T) {
	gen := &fakeGenerator{questions: []string{scenarioQuestions}}
	ctrl := newTestController(t, &fakeExtractor{text: "cv"}, gen)
	ctx := context.Background()
	s := readySession(t, ctrl)

	if err := ctrl.SubmitAnswer(s, 0, "X"); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	before := s.Snapshot()

	gen.questionsErr = errors.New("quota exhausted")
	if err := ctrl.GenerateQuestions(ctx, s); !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}

	gen.questionsErr = nil
	gen.questions = []string{"Sure! I cannot number things today."}
	if err := ctrl.GenerateQuestions(ctx, s); !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration for unparsable output, got %v", err)
	}

	after := s.Snapshot()
	if len(after.Questions) != len(before.Questions) || after.Questions[0].Answer != "X" || after.Stage != before.Stage {
		t.Fatalf("session mutated on failure: before %+v after %+v", before, after)
	}
}

func TestRegenerationClearsAnswersAndFeedback(t *testing.T) {
	gen := &fakeGenerator{questions: []string{scenarioQuestions}}
	ctrl := newTestController(t, &fakeExtractor{text: "cv"}, gen)
	ctx := context.Background()
	s := readySession(t, ctrl)

	if err := ctrl.SubmitAnswer(s, 0, "X"); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	gen.feedback = func(_, _ string) string { return "Y" }
	if _, err := ctrl.RequestFeedback(ctx, s, 0); err != nil {
		t.Fatalf("request feedback: %v", err)
	}

	// The scripted generator repeats the same question text.
	if err := ctrl.GenerateQuestions(ctx, s); err != nil {
		t.Fatalf("regenerate: %v", err)
	}

	snap := s.Snapshot()
	if snap.Stage != StageQuestionsReady {
		t.Fatalf("expected QuestionsReady, got %s", snap.Stage)
	}
	for _, q := range snap.Questions {
		if q.Answered() || q.HasFeedback() {
			t.Fatalf("question %d kept stale state: %+v", q.Index, q)
		}
	}
}

func TestSubmitAnswerRejections(t *testing.T) {
	gen := &fakeGenerator{questions: []string{scenarioQuestions}}
	ctrl := newTestController(t, &fakeExtractor{text: "cv"}, gen)
	s := readySession(t, ctrl)

	if err := ctrl.SubmitAnswer(s, 2, "first"); err != nil {
		t.Fatalf("submit answer: %v", err)
	}

	for _, blank := range []string{"", "   ", "\n\t"} {
		if err := ctrl.SubmitAnswer(s, 2, blank); !errors.Is(err, ErrEmptyAnswer) {
			t.Fatalf("expected ErrEmptyAnswer for %q, got %v", blank, err)
		}
	}
	if got := s.Snapshot().Questions[2].Answer; got != "first" {
		t.Fatalf("blank submission mutated answer: %q", got)
	}

	for _, index := range []int{-1, 3, 100} {
		if err := ctrl.SubmitAnswer(s, index, "x"); !errors.Is(err, ErrInvalidIndex) {
			t.Fatalf("expected ErrInvalidIndex for %d, got %v", index, err)
		}
	}

	if err := ctrl.SubmitAnswer(s, 2, "second"); err != nil {
		t.Fatalf("overwrite before feedback: %v", err)
	}
	if _, err := ctrl.RequestFeedback(context.Background(), s, 2); err != nil {
		t.Fatalf("request feedback: %v", err)
	}
	if err := ctrl.SubmitAnswer(s, 2, "third"); !errors.Is(err, ErrAnswerLocked) {
		t.Fatalf("expected ErrAnswerLocked, got %v", err)
	}
	if got := s.Snapshot().Questions[2].Answer; got != "second" {
		t.Fatalf("locked answer changed: %q", got)
	}
}

func TestRequestFeedback(t *testing.T) {
	gen := &fakeGenerator{questions: []string{scenarioQuestions}}
	ctrl := newTestController(t, &fakeExtractor{text: "cv"}, gen)
	ctx := context.Background()
	s := readySession(t, ctrl)

	if _, err := ctrl.RequestFeedback(ctx, s, 0); !errors.Is(err, ErrEmptyAnswer) {
		t.Fatalf("expected ErrEmptyAnswer before answering, got %v", err)
	}
	if _, err := ctrl.RequestFeedback(ctx, s, 9); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}

	if err := ctrl.SubmitAnswer(s, 0, "answer"); err != nil {
		t.Fatalf("submit answer: %v", err)
	}

	gen.feedbackErr = errors.New("503 unavailable")
	if _, err := ctrl.RequestFeedback(ctx, s, 0); !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if s.Snapshot().Questions[0].HasFeedback() {
		t.Fatal("feedback must stay absent after a failure")
	}

	gen.feedbackErr = nil
	gen.feedback = func(_, _ string) string { return "   " }
	if _, err := ctrl.RequestFeedback(ctx, s, 0); !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration for blank feedback, got %v", err)
	}

	gen.feedback = func(q, a string) string { return "first: " + a }
	first, err := ctrl.RequestFeedback(ctx, s, 0)
	if err != nil {
		t.Fatalf("retry feedback: %v", err)
	}

	calls := gen.feedbackCalls
	gen.feedback = func(q, a string) string { return "second" }
	again, err := ctrl.RequestFeedback(ctx, s, 0)
	if err != nil {
		t.Fatalf("repeat feedback: %v", err)
	}
	if again != first {
		t.Fatalf("expected cached feedback %q, got %q", first, again)
	}
	if gen.feedbackCalls != calls {
		t.Fatalf("repeat request must not call the generator")
	}
}

func TestRequestSummary(t *testing.T) {
	five := "1. One\n2. Two\n3. Three\n4. Four\n5. Five"
	gen := &fakeGenerator{
		questions: []string{five},
		summary:   "- Average Score: 8/10",
		feedback:  func(q, _ string) string { return "feedback " + q[:1] },
	}
	ctrl := newTestController(t, &fakeExtractor{text: "cv"}, gen)
	ctx := context.Background()
	s := readySession(t, ctrl)

	for i := 0; i < 4; i++ {
		if err := ctrl.SubmitAnswer(s, i, fmt.Sprintf("answer %d", i)); err != nil {
			t.Fatalf("submit answer %d: %v", i, err)
		}
		if _, err := ctrl.RequestFeedback(ctx, s, i); err != nil {
			t.Fatalf("feedback %d: %v", i, err)
		}
	}

	_, err := ctrl.RequestSummary(ctx, s)
	if !errors.Is(err, ErrIncompleteFeedback) {
		t.Fatalf("expected ErrIncompleteFeedback with 4/5 feedback, got %v", err)
	}
	if !strings.Contains(err.Error(), "5") {
		t.Fatalf("expected missing question to be named: %v", err)
	}

	if err := ctrl.SubmitAnswer(s, 4, "answer 4"); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if _, err := ctrl.RequestFeedback(ctx, s, 4); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if s.Stage() != StageAllFeedbackReady {
		t.Fatalf("expected AllFeedbackReady, got %s", s.Stage())
	}

	gen.summaryErr = errors.New("boom")
	if _, err := ctrl.RequestSummary(ctx, s); !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if s.Stage() != StageAllFeedbackReady {
		t.Fatalf("failed summary must not advance stage, got %s", s.Stage())
	}

	gen.summaryErr = nil
	summary, err := ctrl.RequestSummary(ctx, s)
	if err != nil {
		t.Fatalf("request summary: %v", err)
	}
	if summary != "- Average Score: 8/10" {
		t.Fatalf("unexpected summary: %q", summary)
	}

	expected := "feedback 1\n\nfeedback 2\n\nfeedback 3\n\nfeedback 4\n\nfeedback 5"
	if gen.lastSummary != expected {
		t.Fatalf("expected combined feedback %q, got %q", expected, gen.lastSummary)
	}

	snap := s.Snapshot()
	if snap.Stage != StageSummaryShown || snap.Summary != summary {
		t.Fatalf("unexpected snapshot after summary: %+v", snap)
	}
}

type blockingGenerator struct {
	fakeGenerator
}

func (b *blockingGenerator) GenerateFeedback(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestTimeoutSurfacesAsGenerationError(t *testing.T) {
	gen := &blockingGenerator{fakeGenerator{questions: []string{scenarioQuestions}}}
	ctrl, err := NewController(Deps{
		Extractor: &fakeExtractor{text: "cv"},
		Questions: gen,
		Feedback:  gen,
		Summary:   gen,
		Timeout:   10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	s := readySession(t, ctrl)
	if err := ctrl.SubmitAnswer(s, 0, "answer"); err != nil {
		t.Fatalf("submit answer: %v", err)
	}

	_, err = ctrl.RequestFeedback(context.Background(), s, 0)
	if !errors.Is(err, ErrGeneration) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timed out ErrGeneration, got %v", err)
	}
}

type countingGenerator struct {
	fakeGenerator
	active  atomic.Int32
	overlap atomic.Bool
}

func (c *countingGenerator) GenerateFeedback(_ context.Context, _, answer string) (string, error) {
	if c.active.Add(1) > 1 {
		c.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
	c.active.Add(-1)
	return "feedback " + answer, nil
}

func TestTransitionsAreSerializedPerSession(t *testing.T) {
	gen := &countingGenerator{fakeGenerator: fakeGenerator{questions: []string{"1. a\n2. b\n3. c\n4. d\n5. e"}}}
	ctrl, err := NewController(Deps{
		Extractor: &fakeExtractor{text: "cv"},
		Questions: gen,
		Feedback:  gen,
		Summary:   gen,
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	s := readySession(t, ctrl)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			if err := ctrl.SubmitAnswer(s, index, fmt.Sprintf("answer %d", index)); err != nil {
				t.Errorf("submit answer %d: %v", index, err)
				return
			}
			if _, err := ctrl.RequestFeedback(context.Background(), s, index); err != nil {
				t.Errorf("feedback %d: %v", index, err)
			}
		}(i)
	}
	wg.Wait()

	if gen.overlap.Load() {
		t.Fatal("generator calls overlapped on a single session")
	}
	if !s.Snapshot().FeedbackComplete() {
		t.Fatal("expected every question to have feedback")
	}
}

func TestTransitionsAreObserved(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	recorder := &fakeRecorder{}
	gen := &fakeGenerator{questions: []string{scenarioQuestions}}

	ctrl, err := NewController(Deps{
		Extractor: &fakeExtractor{text: "cv"},
		Questions: gen,
		Feedback:  gen,
		Summary:   gen,
		Logger:    zap.New(core),
		Recorder:  recorder,
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	s := readySession(t, ctrl)
	_ = ctrl.SubmitAnswer(s, 0, " ")

	expected := []transitionRecord{
		{TransitionLoadResume, "ok"},
		{TransitionSelectCategory, "ok"},
		{TransitionGenerateQuestions, "ok"},
		{TransitionSubmitAnswer, "empty_answer"},
	}
	if len(recorder.records) != len(expected) {
		t.Fatalf("expected %d records, got %+v", len(expected), recorder.records)
	}
	for i, rec := range expected {
		if recorder.records[i] != rec {
			t.Fatalf("record %d: expected %+v, got %+v", i, rec, recorder.records[i])
		}
	}

	rejected := observed.FilterMessage("transition rejected").All()
	if len(rejected) != 1 {
		t.Fatalf("expected one rejected entry, got %d", len(rejected))
	}
	ctx := rejected[0].ContextMap()
	if ctx["kind"] != "empty_answer" || ctx["session_id"] != s.ID() {
		t.Fatalf("unexpected log fields: %+v", ctx)
	}
}

func TestSnapshotOfNilSession(t *testing.T) {
	var s *Session
	snap := s.Snapshot()
	if snap.Stage != StageEmpty || len(snap.Questions) != 0 || snap.FeedbackComplete() {
		t.Fatalf("unexpected nil snapshot: %+v", snap)
	}
}
