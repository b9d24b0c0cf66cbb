package cerebro

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// GenLogger records one generation cycle (prompt, raw model response and
// parse/validate outcome) in a per-cycle file under log/. The raw response
// is the only evidence when parsing goes wrong, so it is written before
// parsing is attempted.
type GenLogger struct {
	file    *os.File
	mu      sync.Mutex
	cycleID string
}

// NewGenLogger creates a logger for one generation cycle.
func NewGenLogger(cycleID, kind string, count int) (*GenLogger, error) {
	if err := os.MkdirAll("log", 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join("log", fmt.Sprintf("%s_%s.log", kind, cycleID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	gl := &GenLogger{file: file, cycleID: cycleID}
	gl.Logf("=== Generation Log ===\n")
	gl.Logf("Cycle ID: %s\n", cycleID)
	gl.Logf("Kind: %s\n", kind)
	gl.Logf("Requested records: %d\n", count)
	gl.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	gl.Logf("======================\n\n")
	return gl, nil
}

// Logf writes a timestamped entry.
func (gl *GenLogger) Logf(format string, args ...any) {
	gl.mu.Lock()
	defer gl.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(gl.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	gl.file.Sync()
}

// LogRequest logs the prompt sent to the chat model.
func (gl *GenLogger) LogRequest(prompt string) {
	gl.Logf("=== REQUEST ===\n")
	gl.Logf("Prompt:\n%s\n", prompt)
	gl.Logf("===============\n\n")
}

// LogResponse logs the raw model response, before any parsing.
func (gl *GenLogger) LogResponse(response string) {
	gl.Logf("=== RESPONSE ===\n")
	gl.Logf("Raw:\n%s\n", response)
	gl.Logf("================\n\n")
}

// LogDiagnostics logs the outcome of the parse/validate pass.
func (gl *GenLogger) LogDiagnostics(d Diagnostics) {
	gl.Logf("Extraction: %s\n", d.ExtractionNote)
	gl.Logf("Candidates: %d, valid: %d, rejected: %d\n", d.Candidates, d.Valid, d.Rejected)
	for _, reason := range d.Reasons {
		gl.Logf("Rejected: %s\n", reason)
	}
}

// LogError logs a failure of the generation call or of extraction.
func (gl *GenLogger) LogError(stage string, err error) {
	gl.Logf("ERROR (%s): %v\n", stage, err)
}

// Close finalizes and closes the log file.
func (gl *GenLogger) Close() error {
	gl.mu.Lock()
	defer gl.mu.Unlock()

	if gl.file != nil {
		timestamp := time.Now().Format("15:04:05.000")
		fmt.Fprintf(gl.file, "[%s] Completed: %s\n", timestamp, time.Now().Format(time.RFC3339))
		return gl.file.Close()
	}
	return nil
}
