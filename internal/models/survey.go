// survey.go
package models

import (
	"fmt"
	"os"

	"facerate-go/internal/timeline"

	"gopkg.in/yaml.v3"
)

// Question is one rating slider shown on every trial.
type Question struct {
	ID       string `yaml:"id"`
	Prompt   string `yaml:"prompt"`
	MinLabel string `yaml:"min_label"`
	MaxLabel string `yaml:"max_label"`
}

// Survey holds the copy of every screen, loaded from survey.yaml.
type Survey struct {
	Title           string            `yaml:"title"`
	Fullscreen      string            `yaml:"fullscreen"`
	Welcome         string            `yaml:"welcome"`
	Instructions    string            `yaml:"instructions"`
	BlockIntros     map[string]string `yaml:"block_intros"`
	ThankYou        string            `yaml:"thank_you"`
	GateInstruction string            `yaml:"gate_instruction"`
	ContinueLabel   string            `yaml:"continue_label"`
	Questions       []Question        `yaml:"questions"`
}

// QuestionCount is the number of sliders every trial must have.
const QuestionCount = 4

// LoadSurvey reads and validates the survey copy file.
func LoadSurvey(path string) (*Survey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read survey file: %w", err)
	}

	var survey Survey
	if err := yaml.Unmarshal(data, &survey); err != nil {
		return nil, fmt.Errorf("failed to unmarshal survey YAML: %w", err)
	}
	if len(survey.Questions) != QuestionCount {
		return nil, fmt.Errorf("survey must declare %d questions, found %d", QuestionCount, len(survey.Questions))
	}
	if survey.ContinueLabel == "" {
		survey.ContinueLabel = "Continue"
	}

	return &survey, nil
}

// Screens maps the survey copy onto the timeline's screen slots.
func (s *Survey) Screens() timeline.Screens {
	return timeline.Screens{
		Fullscreen:   s.Fullscreen,
		Welcome:      s.Welcome,
		Instructions: s.Instructions,
		BlockIntros:  s.BlockIntros,
		ThankYou:     s.ThankYou,
	}
}
