package config

import (
	"fmt"
	"os"
	"time"
)

// RunIdentity returns this run's identity string: SIMULATION_NAME suffixed
// with the startup time in whole Unix seconds (e.g. "my-run-1700000000").
func (c *Config) RunIdentity(startedAt time.Time) string {
	return fmt.Sprintf("%s-%d", c.Simulation.Name, startedAt.Unix())
}

// WriteRunIdentity persists the run identity to simulation.id in the
// current working directory, matching the original's plain
// open('simulation.id', 'w'). There is no ecosystem library for writing one
// line to one file, so this stays on the standard library.
func (c *Config) WriteRunIdentity(startedAt time.Time) error {
	identity := c.RunIdentity(startedAt)
	if err := os.WriteFile("simulation.id", []byte(identity), 0o644); err != nil {
		return fmt.Errorf("writing simulation.id: %w", err)
	}
	return nil
}
