// Command evaluate runs the cable health engine over a file of NGA warnings
// and prints the resulting health snapshot and synthesis stats as JSON. With
// -expect it also checks the computed statuses against a fixture and exits
// non-zero on mismatch.
//
// Usage:
//
//	go run ./cmd/evaluate \
//	  -in data/mock/nga_broadcast_warnings.json \
//	  -at 2026-02-16T00:00:00Z \
//	  -expect data/mock/expected_health.json
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/cable-health-service/internal/domain"
)

type result struct {
	Stats    domain.SynthesisStats `json:"stats"`
	Snapshot domain.HealthSnapshot `json:"snapshot"`
}

func main() {
	if code, err := run(os.Args[1:], os.Stdout); err != nil {
		log.Print(err)
		os.Exit(code)
	}
}

func run(args []string, stdout io.Writer) (int, error) {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	in := fs.String("in", "", "path to a warning file (NGA envelope or bare JSON array)")
	at := fs.String("at", "", "evaluation time, RFC3339 (default now)")
	registryPath := fs.String("registry", "", "optional cable registry YAML (default embedded)")
	expectPath := fs.String("expect", "", "optional JSON object of cableId to expected status")
	if err := fs.Parse(args); err != nil {
		return 2, err
	}
	if *in == "" {
		fs.Usage()
		return 2, fmt.Errorf("missing required flag: -in")
	}

	now := time.Now().UTC()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return 2, fmt.Errorf("parse -at: %w", err)
		}
		now = t.UTC()
	}
	domain.SetClock(clockwork.NewFakeClockAt(now))
	defer domain.SetClock(nil)

	var registry *domain.Registry
	if *registryPath != "" {
		data, err := os.ReadFile(*registryPath)
		if err != nil {
			return 1, fmt.Errorf("read registry: %w", err)
		}
		if registry, err = domain.LoadRegistry(data); err != nil {
			return 1, err
		}
	}

	warnings, err := loadWarnings(*in)
	if err != nil {
		return 1, err
	}

	signals, stats := domain.NewSynthesizer(registry, nil).BuildSignals(warnings)
	res := result{Stats: stats, Snapshot: domain.EvaluateHealth(signals)}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return 1, fmt.Errorf("encode result: %w", err)
	}

	if *expectPath == "" {
		return 0, nil
	}
	expected, err := loadExpected(*expectPath)
	if err != nil {
		return 1, err
	}
	if mismatches := compare(expected, res.Snapshot.Cables); len(mismatches) > 0 {
		for i, m := range mismatches {
			fmt.Fprintf(os.Stderr, "  [%d] %s\n", i+1, m)
		}
		return 1, fmt.Errorf("expectation check failed: %d mismatches", len(mismatches))
	}
	fmt.Fprintf(os.Stderr, "expectation check passed: %d cables\n", len(expected))
	return 0, nil
}

// loadWarnings accepts either the NGA API envelope or a bare array of
// warning records.
func loadWarnings(path string) ([]domain.Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read warnings: %w", err)
	}

	var records []domain.RawWarningRecord
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope struct {
			Warnings []domain.RawWarningRecord `json:"broadcast-warn"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
		records = envelope.Warnings
	} else if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}

	warnings := make([]domain.Warning, 0, len(records))
	for _, r := range records {
		warnings = append(warnings, r.Warning())
	}
	return warnings, nil
}

func loadExpected(path string) (map[string]domain.HealthStatus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read expectations: %w", err)
	}
	var expected map[string]domain.HealthStatus
	if err := json.Unmarshal(data, &expected); err != nil {
		return nil, fmt.Errorf("decode expectations: %w", err)
	}
	return expected, nil
}

// compare lists every cable whose status differs from the expectation,
// including cables present on only one side.
func compare(expected map[string]domain.HealthStatus, got domain.HealthMap) []string {
	ids := make([]string, 0, len(expected)+len(got))
	for id := range expected {
		ids = append(ids, id)
	}
	for id := range got {
		if _, ok := expected[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	var mismatches []string
	for _, id := range ids {
		want, wantOK := expected[id]
		h, gotOK := got[id]
		switch {
		case !gotOK:
			mismatches = append(mismatches, fmt.Sprintf("%s: expected %s, cable absent", id, want))
		case !wantOK:
			mismatches = append(mismatches, fmt.Sprintf("%s: unexpected cable with status %s", id, h.Status))
		case h.Status != want:
			mismatches = append(mismatches, fmt.Sprintf("%s: expected %s, got %s (score %.2f)", id, want, h.Status, h.Score))
		}
	}
	return mismatches
}
