// Package probe drives a running server with concurrent reading requests and
// checks every answer against the local computation.
package probe

import (
	"time"

	"github.com/okian/tianji/internal/domain/bazi"
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Requests   int           // Number of birth inputs to submit
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Seed for input generation; 0 picks one
	OutputFile string        // Optional JSON file receiving the generated inputs
	Verbose    bool          // Log every failed request
}

// Stats holds probe statistics.
type Stats struct {
	RunID      string        `json:"run_id"`
	Seed       uint64        `json:"seed"`
	Generated  int           `json:"generated"`
	Submitted  int           `json:"submitted"`
	Matched    int           `json:"matched"`
	Mismatched int           `json:"mismatched"`
	Failed     int           `json:"failed"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
	Mismatches []Mismatch    `json:"mismatches,omitempty"`
}

// Mismatch records an input whose served reading differs from the local one.
type Mismatch struct {
	Input  bazi.BirthInput `json:"input"`
	Field  string          `json:"field"`
	Served string          `json:"served"`
	Local  string          `json:"local"`
}

// maxMismatches caps how many mismatches are kept for the report.
const maxMismatches = 20

// percentageMultiplier converts a ratio to a percentage.
const percentageMultiplier = 100

// Defaults used by the CLI.
const (
	DefaultBaseURL  = "http://localhost:9080"
	DefaultRequests = 200
	DefaultWorkers  = 8
	DefaultTimeout  = 10 * time.Second
)
