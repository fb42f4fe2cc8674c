// Package agent holds the BPGT voice-input agent. It is a placeholder
// that acknowledges input without doing any real processing.
package agent

import (
	"context"
	"fmt"
)

// Agent is the local BPGT agent bound to a database path.
type Agent struct {
	dbPath string
}

// New creates an agent for the given database path.
func New(dbPath string) *Agent {
	return &Agent{dbPath: dbPath}
}

// ProcessVoice accepts transcribed voice input and acknowledges it.
func (a *Agent) ProcessVoice(ctx context.Context, text string) (string, error) {
	return fmt.Sprintf("BPGT agent accepted voice input for '%s': %s", a.dbPath, text), nil
}
