package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is the parsed scenario.yml: a named sequence of request
// replays with expectations on the responses.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step replays one request file. Expectations are optional; an absent
// field is not checked.
type Step struct {
	Name        string `yaml:"name"`
	RequestFile string `yaml:"request_file"`

	ExpectStatus   int      `yaml:"expect_status"`
	ExpectNoUnmet  bool     `yaml:"expect_no_unmet"`
	ExpectMaxScore *float64 `yaml:"expect_max_score"`
}

func loadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	s := &Scenario{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}
	for i := range s.Steps {
		if s.Steps[i].RequestFile == "" {
			return nil, fmt.Errorf("%s: step %d has no request_file", path, i+1)
		}
		if s.Steps[i].ExpectStatus == 0 {
			s.Steps[i].ExpectStatus = 200
		}
	}
	return s, nil
}
