package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	v1 "github.com/taskalign/taskalign/pkg/apis/v1"
)

type driver struct {
	baseDir   string
	serverURL string
	logDir    string
}

// run executes every step in order and returns the number of failures.
// Each response body is written to the log directory for later diffing.
func (d *driver) run(s *Scenario) int {
	client := &http.Client{Timeout: 5 * time.Minute}
	failures := 0
	for i, step := range s.Steps {
		if err := d.runStep(client, i, step); err != nil {
			log.Printf("step %d (%s): FAIL: %v", i+1, step.Name, err)
			failures++
			continue
		}
		log.Printf("step %d (%s): ok", i+1, step.Name)
	}
	return failures
}

func (d *driver) runStep(client *http.Client, i int, step Step) error {
	body, err := os.ReadFile(filepath.Join(d.baseDir, step.RequestFile))
	if err != nil {
		return fmt.Errorf("reading request file: %w", err)
	}

	resp, err := client.Post(d.serverURL+"/schedule", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	transcript := filepath.Join(d.logDir, fmt.Sprintf("step_%02d_response.json", i+1))
	if err := os.WriteFile(transcript, raw, 0o644); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}

	if resp.StatusCode != step.ExpectStatus {
		return fmt.Errorf("status %d, want %d (body: %.200s)", resp.StatusCode, step.ExpectStatus, raw)
	}
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	sched := &v1.ScheduleResponse{}
	if err := json.Unmarshal(raw, sched); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if step.ExpectNoUnmet && len(sched.Unmet) > 0 {
		return fmt.Errorf("unmet demand %v, want none", sched.Unmet)
	}
	if step.ExpectMaxScore != nil && sched.Score > *step.ExpectMaxScore {
		return fmt.Errorf("score %.2f exceeds expected maximum %.2f", sched.Score, *step.ExpectMaxScore)
	}
	return nil
}
