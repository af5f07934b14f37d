package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spigell/mock-interview/internal/interview"
)

func fixedNow(t *testing.T) time.Time {
	t.Helper()
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	original := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = original })
	return ts
}

func sampleSnapshot() interview.Snapshot {
	return interview.Snapshot{
		ID:               "7f8e1c1e-1111-4444-8888-000000000001",
		CreatedAt:        time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		ResumeName:       "jane.pdf",
		ResumeText:       "private résumé text",
		Stage:            interview.StageAnswering,
		Category:         interview.CategoryTechnical,
		QuestionCategory: interview.CategoryTechnical,
		Questions: []interview.QuestionView{
			{Index: 0, Text: "1. Why Go?", Answer: "Simplicity", Feedback: "- Score: 8/10"},
			{Index: 1, Text: "2. Describe a migration."},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatYAML},
		{in: "YML", want: FormatYAML},
		{in: " json ", want: FormatJSON},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Fatalf("%q: expected ErrUnknownFormat, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%q: expected %q, got %q (%v)", tt.in, tt.want, got, err)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	exported := fixedNow(t)

	data, err := Render(sampleSnapshot(), FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if decoded["stage"] != "Answering" {
		t.Fatalf("expected stage by name, got %v", decoded["stage"])
	}
	if decoded["exported_at"] != exported.Format(time.RFC3339) {
		t.Fatalf("unexpected exported_at %v", decoded["exported_at"])
	}
	if _, ok := decoded["ResumeText"]; ok {
		t.Fatal("resume text must not be exported")
	}
	questions, ok := decoded["questions"].([]any)
	if !ok || len(questions) != 2 {
		t.Fatalf("unexpected questions %v", decoded["questions"])
	}
	second := questions[1].(map[string]any)
	if _, ok := second["answer"]; ok {
		t.Fatal("absent answer must be omitted")
	}
}

func TestRenderYAML(t *testing.T) {
	fixedNow(t)

	data, err := Render(sampleSnapshot(), FormatYAML)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		ID        string `yaml:"id"`
		Stage     string `yaml:"stage"`
		Category  string `yaml:"category"`
		Questions []struct {
			Text     string `yaml:"text"`
			Feedback string `yaml:"feedback"`
		} `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if decoded.ID != sampleSnapshot().ID || decoded.Stage != "Answering" || decoded.Category != "Technical" {
		t.Fatalf("unexpected transcript header: %+v", decoded)
	}
	if len(decoded.Questions) != 2 || decoded.Questions[0].Feedback != "- Score: 8/10" {
		t.Fatalf("unexpected questions: %+v", decoded.Questions)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	if _, err := Render(sampleSnapshot(), Format("toml")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestSave(t *testing.T) {
	fixedNow(t)
	dir := filepath.Join(t.TempDir(), "results")

	path, err := Save(dir, sampleSnapshot(), FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(dir, "interview_"+sampleSnapshot().ID+".json"); path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("transcript not written: %v", err)
	}
}

func TestSaveRequiresSession(t *testing.T) {
	if _, err := Save(t.TempDir(), interview.Snapshot{}, FormatYAML); err == nil {
		t.Fatal("expected error for empty snapshot")
	}
}
