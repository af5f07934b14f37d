// Package console drives an interview session from an interactive terminal.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/mock-interview/internal/interview"
	"github.com/spigell/mock-interview/internal/logger"
	"github.com/spigell/mock-interview/internal/report"
)

const (
	ActionUpload    = "Upload résumé"
	ActionCategory  = "Select interview category"
	ActionGenerate  = "Generate questions"
	ActionAnswer    = "Answer a question"
	ActionFeedback  = "Get feedback for a question"
	ActionSummary   = "Show overall performance"
	ActionShow      = "Show session"
	ActionSave      = "Save transcript"
	ActionExit      = "Exit"
	ActionBack      = "back"
	defaultMenuSize = 10
)

// Loader reads a résumé document from a path.
type Loader func(path string) (interview.Document, error)

// Options configures a Console.
type Options struct {
	Controller      *interview.Controller
	Prompter        Prompter
	Loader          Loader
	Out             io.Writer
	Logger          *zap.Logger
	DefaultCategory interview.Category
	TranscriptDir   string
	TranscriptType  report.Format
}

// Console keeps one session across interactions and re-renders it after every transition.
type Console struct {
	controller *interview.Controller
	prompter   Prompter
	load       Loader
	out        io.Writer
	logger     *zap.Logger

	defaultCategory interview.Category
	transcriptDir   string
	transcriptType  report.Format

	session *interview.Session
}

// New validates opts and creates a Console.
func New(opts Options) (*Console, error) {
	if opts.Controller == nil {
		return nil, errors.New("controller is required")
	}
	if opts.Prompter == nil {
		opts.Prompter = TerminalPrompter{Size: defaultMenuSize}
	}
	if opts.Loader == nil {
		return nil, errors.New("document loader is required")
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.TranscriptDir == "" {
		opts.TranscriptDir = "results"
	}
	if opts.TranscriptType == "" {
		opts.TranscriptType = report.FormatYAML
	}

	return &Console{
		controller:      opts.Controller,
		prompter:        opts.Prompter,
		load:            opts.Loader,
		out:             opts.Out,
		logger:          logger.WithFields(opts.Logger),
		defaultCategory: opts.DefaultCategory,
		transcriptDir:   opts.TranscriptDir,
		transcriptType:  opts.TranscriptType,
	}, nil
}

// Session returns the live session, nil before a résumé is loaded.
func (c *Console) Session() *interview.Session {
	return c.session
}

// Preload loads a résumé before the menu loop starts.
func (c *Console) Preload(ctx context.Context, path string) error {
	err := c.upload(ctx, path)
	c.render()
	return err
}

// Run shows the menu until the user exits or aborts input.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		actions := c.actions()
		index, err := c.prompter.Select("What next?", actions, 0)
		if errors.Is(err, ErrAborted) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read menu choice: %w", err)
		}

		action := actions[index]
		if action == ActionExit {
			fmt.Fprintln(c.out, "Good luck with the real interview!")
			return nil
		}

		err = c.handle(ctx, action)
		if errors.Is(err, ErrAborted) {
			continue
		}
		c.warn(err)
		if action != ActionShow {
			c.render()
		}
	}
}

// actions lists the menu entries valid for the current stage.
func (c *Console) actions() []string {
	snap := c.session.Snapshot()
	actions := []string{ActionUpload}

	if snap.Stage >= interview.StageResumeLoaded {
		actions = append(actions, ActionCategory)
	}
	if snap.Stage >= interview.StageCategorySelected {
		actions = append(actions, ActionGenerate)
	}
	if len(snap.Questions) > 0 {
		actions = append(actions, ActionAnswer, ActionFeedback)
	}
	if snap.FeedbackComplete() {
		actions = append(actions, ActionSummary)
	}
	if c.session != nil {
		actions = append(actions, ActionShow, ActionSave)
	}

	return append(actions, ActionExit)
}

func (c *Console) handle(ctx context.Context, action string) error {
	switch action {
	case ActionUpload:
		path, err := c.prompter.Input("Résumé path (PDF or DOCX)", notBlank)
		if err != nil {
			return err
		}
		return c.upload(ctx, path)
	case ActionCategory:
		return c.selectCategory()
	case ActionGenerate:
		fmt.Fprintln(c.out, "Generating interview questions...")
		if err := c.controller.GenerateQuestions(ctx, c.session); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Questions generated successfully!")
		return nil
	case ActionAnswer:
		return c.answer()
	case ActionFeedback:
		return c.feedback(ctx)
	case ActionSummary:
		fmt.Fprintln(c.out, "Summarizing your performance...")
		_, err := c.controller.RequestSummary(ctx, c.session)
		return err
	case ActionShow:
		c.render()
		return nil
	case ActionSave:
		path, err := report.Save(c.transcriptDir, c.session.Snapshot(), c.transcriptType)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Transcript saved to %s\n", path)
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (c *Console) upload(ctx context.Context, path string) error {
	doc, err := c.load(strings.TrimSpace(path))
	if err != nil {
		return err
	}

	session, err := c.controller.LoadResume(ctx, doc)
	if err != nil {
		return err
	}

	c.session = session
	c.logger.Debug("session started", logger.SessionFields(session.ID(), -1)...)
	fmt.Fprintf(c.out, "Loaded %s.\n", doc.Name)

	return nil
}

func (c *Console) selectCategory() error {
	items := []string{interview.CategoryPlaceholder}
	cursor := 0
	for i, category := range interview.Categories() {
		items = append(items, category.String())
		if category == c.defaultCategory {
			cursor = i + 1
		}
	}

	index, err := c.prompter.Select("Select interview type", items, cursor)
	if err != nil {
		return err
	}

	return c.controller.SelectCategory(c.session, interview.Category(items[index]))
}

func (c *Console) answer() error {
	index, err := c.pickQuestion("Which question do you want to answer?")
	if err != nil {
		return err
	}

	answer, err := c.prompter.Input(fmt.Sprintf("Your answer for question %d", index+1), nil)
	if err != nil {
		return err
	}

	return c.controller.SubmitAnswer(c.session, index, answer)
}

func (c *Console) feedback(ctx context.Context) error {
	index, err := c.pickQuestion("Which answer should be evaluated?")
	if err != nil {
		return err
	}

	fmt.Fprintln(c.out, "Analyzing your answer...")
	if _, err := c.controller.RequestFeedback(ctx, c.session, index); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Feedback generated!")

	return nil
}

func (c *Console) pickQuestion(label string) (int, error) {
	snap := c.session.Snapshot()
	items := make([]string, 0, len(snap.Questions)+1)
	for _, q := range snap.Questions {
		items = append(items, questionLabel(q))
	}
	items = append(items, ActionBack)

	index, err := c.prompter.Select(label, items, 0)
	if err != nil {
		return 0, err
	}
	if index >= len(snap.Questions) {
		return 0, ErrAborted
	}

	return index, nil
}

func questionLabel(q interview.QuestionView) string {
	switch {
	case q.HasFeedback():
		return q.Text + " [feedback ready]"
	case q.Answered():
		return q.Text + " [answered]"
	default:
		return q.Text
	}
}

func (c *Console) warn(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(c.out, "Warning (%s): %v\n", interview.Kind(err), err)
}

func (c *Console) render() {
	Render(c.out, c.session.Snapshot())
}

// Render prints a human-readable view of a snapshot.
func Render(out io.Writer, snap interview.Snapshot) {
	fmt.Fprintf(out, "\n=== Stage: %s ===\n", snap.Stage)
	if snap.Stage == interview.StageEmpty {
		fmt.Fprintln(out, "Upload your résumé to begin.")
		return
	}

	fmt.Fprintf(out, "Résumé: %s\n", snap.ResumeName)
	if snap.Category != "" {
		fmt.Fprintf(out, "Interview type: %s\n", snap.Category)
	}
	if snap.QuestionCategory != "" && snap.QuestionCategory != snap.Category {
		fmt.Fprintf(out, "Current questions were generated for: %s\n", snap.QuestionCategory)
	}

	for _, q := range snap.Questions {
		fmt.Fprintf(out, "\n%s\n", q.Text)
		if q.Answered() {
			fmt.Fprintf(out, "  Answer: %s\n", q.Answer)
		}
		if q.HasFeedback() {
			fmt.Fprintf(out, "  Feedback:\n%s\n", indent(q.Feedback, "    "))
		}
	}

	if snap.Summary != "" {
		fmt.Fprintf(out, "\nOverall Performance Summary\n%s\n", indent(snap.Summary, "  "))
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value is required")
	}
	return nil
}
