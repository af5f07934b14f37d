// Package report renders interview transcripts.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spigell/mock-interview/internal/interview"
)

// Format is a transcript encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for encodings other than YAML and JSON.
var ErrUnknownFormat = errors.New("unknown transcript format")

// ParseFormat accepts "yaml", "yml" and "json", case-insensitive. Blank means YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json; charset=utf-8"
	}
	return "application/yaml; charset=utf-8"
}

// Transcript is the exported form of a session.
type Transcript struct {
	interview.Snapshot `yaml:",inline"`
	ExportedAt         time.Time `json:"exported_at" yaml:"exported_at"`
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

// Render encodes the snapshot as a transcript.
func Render(snapshot interview.Snapshot, format Format) ([]byte, error) {
	transcript := Transcript{Snapshot: snapshot, ExportedAt: now()}
	if transcript.Questions == nil {
		transcript.Questions = []interview.QuestionView{}
	}

	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(transcript)
		if err != nil {
			return nil, fmt.Errorf("encode yaml transcript: %w", err)
		}
		return data, nil
	case FormatJSON:
		data, err := json.MarshalIndent(transcript, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json transcript: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// Save writes the transcript to dir/interview_<session-id>.<format>, creating dir when needed.
// It returns the written path.
func Save(dir string, snapshot interview.Snapshot, format Format) (string, error) {
	if snapshot.ID == "" {
		return "", errors.New("cannot save a transcript without a session")
	}

	data, err := Render(snapshot, format)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}

	path := filepath.Join(dir, FileName(snapshot.ID, format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}

	return path, nil
}

// FileName is the transcript file name for a session.
func FileName(sessionID string, format Format) string {
	return fmt.Sprintf("interview_%s.%s", sessionID, format)
}
