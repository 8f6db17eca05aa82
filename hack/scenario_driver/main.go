// Command scenario_driver replays schedule request fixtures against a
// running server and checks the responses against per-scenario
// expectations. It is a smoke/regression harness for deployments, not a
// unit test: run it against staging after a rollout.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
)

func main() {
	scenarioDir := flag.String("scenario", "", "directory containing scenario.yml and the request files it references")
	serverURL := flag.String("server", "http://localhost:8080", "base URL of the scheduler under test")
	logDir := flag.String("log-dir", "./logs", "directory for response transcripts")
	flag.Parse()

	if *scenarioDir == "" {
		log.Fatal("scenario directory is required, use -scenario")
	}
	absDir, err := filepath.Abs(*scenarioDir)
	if err != nil {
		log.Fatalf("resolving scenario directory: %v", err)
	}
	scenario, err := loadScenario(filepath.Join(absDir, "scenario.yml"))
	if err != nil {
		log.Fatalf("loading scenario: %v", err)
	}
	if err := os.MkdirAll(*logDir, 0o755); err != nil {
		log.Fatalf("creating log directory: %v", err)
	}

	d := &driver{
		baseDir:   absDir,
		serverURL: *serverURL,
		logDir:    *logDir,
	}
	failures := d.run(scenario)
	if failures > 0 {
		log.Fatalf("scenario %q: %d of %d steps failed", scenario.Name, failures, len(scenario.Steps))
	}
	log.Printf("scenario %q: all %d steps passed", scenario.Name, len(scenario.Steps))
}
