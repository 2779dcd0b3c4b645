// Package seed replays a fixed set of clicks against a running qrpulse and
// prints the resulting views.
package seed

import (
	"fmt"
	"os"

	"github.com/qrpulse/qrpulse/internal/core/aggregation"
	"gopkg.in/yaml.v3"
)

// Scenario lists the QR ids to click and the timestamps to click each one at.
type Scenario struct {
	IDs        []string `yaml:"ids"`
	Timestamps []string `yaml:"timestamps"`
}

// DefaultScenario spreads clicks over Jan-Feb 2024 plus two much older ones,
// so every view has both in-window and filtered buckets around 2024-02-22.
func DefaultScenario() Scenario {
	return Scenario{
		IDs: []string{"id1", "id2", "id3"},
		Timestamps: []string{
			"2024-01-25T20:34:06",
			"2024-02-08T20:34:06",
			"2024-02-22T20:34:06",
			"2024-01-31T20:34:06",
			"2024-01-23T20:34:06",
			"2024-01-29T20:34:06",
			"2024-02-21T20:34:06",
			"2024-02-12T20:34:06",
			"2024-02-10T20:34:06",
			"2024-02-17T20:34:06",
			"2024-02-14T20:34:06",
			"2024-02-19T20:34:06",
			"2024-02-09T20:34:06",
			"2024-01-23T20:34:06",
			"2023-02-12T20:34:06",
			"2023-10-22T10:34:06",
			"2024-02-22T04:34:06",
			"2024-02-22T01:34:06",
			"2024-02-22T04:50:06",
			"2024-02-22T03:50:06",
			"2024-02-22T03:22:06",
			"2024-02-22T03:22:06",
			"2024-02-22T03:08:06",
			"2024-02-24T05:08:06",
			"2024-02-24T04:08:06",
			"2024-02-24T05:08:06",
			"2024-02-24T04:08:06",
		},
	}
}

// LoadScenario reads a YAML scenario file.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Scenario{}, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return Scenario{}, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return sc, nil
}

// Validate rejects empty scenarios and timestamps the server would refuse.
func (s Scenario) Validate() error {
	if len(s.IDs) == 0 {
		return fmt.Errorf("at least one id is required")
	}
	for i, id := range s.IDs {
		if id == "" {
			return fmt.Errorf("ids[%d] is empty", i)
		}
	}
	if len(s.Timestamps) == 0 {
		return fmt.Errorf("at least one timestamp is required")
	}
	for i, ts := range s.Timestamps {
		if _, err := aggregation.ParseTimestamp(ts); err != nil {
			return fmt.Errorf("timestamps[%d]: %w", i, err)
		}
	}
	return nil
}
