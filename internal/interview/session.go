package interview

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Question is one generated interview question, addressed by its position in the set.
// An empty answer or feedback means absent.
type Question struct {
	text     string
	answer   string
	feedback string
}

func (q *Question) answered() bool    { return q.answer != "" }
func (q *Question) hasFeedback() bool { return q.feedback != "" }

// Session is one candidate's interview attempt.
// It is only mutated through Controller transitions, which hold mu for their whole duration,
// including any outstanding generator call.
type Session struct {
	mu sync.Mutex

	id         string
	createdAt  time.Time
	resumeName string
	resumeText string

	category         Category
	questionCategory Category
	questions        []*Question
	summary          string

	stage Stage
}

func newSession(resumeName, resumeText string) *Session {
	return &Session{
		id:         uuid.NewString(),
		createdAt:  time.Now().UTC(),
		resumeName: resumeName,
		resumeText: resumeText,
		stage:      StageResumeLoaded,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Stage returns the current stage; a nil session is Empty.
func (s *Session) Stage() Stage {
	if s == nil {
		return StageEmpty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// refreshStage recomputes the stage from the question set after a mutation.
// Stages below QuestionsReady are set explicitly by their transitions.
func (s *Session) refreshStage() {
	if len(s.questions) == 0 || s.stage < StageQuestionsReady {
		return
	}

	answered, withFeedback := 0, 0
	for _, q := range s.questions {
		if q.answered() {
			answered++
		}
		if q.hasFeedback() {
			withFeedback++
		}
	}

	switch {
	case s.summary != "":
		s.stage = StageSummaryShown
	case withFeedback == len(s.questions):
		s.stage = StageAllFeedbackReady
	case answered > 0:
		s.stage = StageAnswering
	default:
		s.stage = StageQuestionsReady
	}
}

func (s *Session) question(index int) (*Question, error) {
	if index < 0 || index >= len(s.questions) {
		return nil, invalidIndex(index, len(s.questions))
	}
	return s.questions[index], nil
}

// QuestionView is the rendered state of one question.
type QuestionView struct {
	Index    int    `json:"index" yaml:"index"`
	Text     string `json:"text" yaml:"text"`
	Answer   string `json:"answer,omitempty" yaml:"answer,omitempty"`
	Feedback string `json:"feedback,omitempty" yaml:"feedback,omitempty"`
}

// Answered reports whether the candidate has submitted an answer.
func (q QuestionView) Answered() bool { return q.Answer != "" }

// HasFeedback reports whether feedback exists for the answer.
func (q QuestionView) HasFeedback() bool { return q.Feedback != "" }

// Snapshot is an immutable copy of a session for rendering and export.
type Snapshot struct {
	ID               string         `json:"id" yaml:"id"`
	CreatedAt        time.Time      `json:"created_at" yaml:"created_at"`
	ResumeName       string         `json:"resume_name,omitempty" yaml:"resume_name,omitempty"`
	ResumeText       string         `json:"-" yaml:"-"`
	Stage            Stage          `json:"stage" yaml:"stage"`
	Category         Category       `json:"category,omitempty" yaml:"category,omitempty"`
	QuestionCategory Category       `json:"question_category,omitempty" yaml:"question_category,omitempty"`
	Questions        []QuestionView `json:"questions" yaml:"questions"`
	Summary          string         `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Snapshot copies the session state. A nil session yields an Empty snapshot.
func (s *Session) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{Stage: StageEmpty, Questions: []QuestionView{}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]QuestionView, 0, len(s.questions))
	for i, q := range s.questions {
		views = append(views, QuestionView{
			Index:    i,
			Text:     q.text,
			Answer:   q.answer,
			Feedback: q.feedback,
		})
	}

	return Snapshot{
		ID:               s.id,
		CreatedAt:        s.createdAt,
		ResumeName:       s.resumeName,
		ResumeText:       s.resumeText,
		Stage:            s.stage,
		Category:         s.category,
		QuestionCategory: s.questionCategory,
		Questions:        views,
		Summary:          s.summary,
	}
}

// Pending returns the indexes of questions still lacking feedback.
func (s Snapshot) Pending() []int {
	var pending []int
	for _, q := range s.Questions {
		if !q.HasFeedback() {
			pending = append(pending, q.Index)
		}
	}
	return pending
}

// FeedbackComplete reports whether a summary may be requested.
func (s Snapshot) FeedbackComplete() bool {
	return len(s.Questions) > 0 && len(s.Pending()) == 0
}
