package interview

import "fmt"

// Stage is the session-level minimum progress reached so far.
// Stages are ordered; a transition precondition "stage >= X" compares them directly.
type Stage int

const (
	StageEmpty Stage = iota
	StageResumeLoaded
	StageCategorySelected
	StageQuestionsReady
	StageAnswering
	StageAllFeedbackReady
	StageSummaryShown
)

var stageNames = map[Stage]string{
	StageEmpty:            "Empty",
	StageResumeLoaded:     "ResumeLoaded",
	StageCategorySelected: "CategorySelected",
	StageQuestionsReady:   "QuestionsReady",
	StageAnswering:        "Answering",
	StageAllFeedbackReady: "AllFeedbackReady",
	StageSummaryShown:     "SummaryShown",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// MarshalText renders the stage by name in JSON and YAML output.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a stage name.
func (s *Stage) UnmarshalText(text []byte) error {
	for stage, name := range stageNames {
		if name == string(text) {
			*s = stage
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", string(text))
}
