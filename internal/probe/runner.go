package probe

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tianji/internal/domain/bazi"
	"github.com/okian/tianji/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// ErrMismatch is returned when the server disagrees with the local reading.
var ErrMismatch = errors.New("served readings differ from local computation")

// Run executes a complete probe against config.BaseURL.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if err := config.normalize(); err != nil {
		return nil, err
	}
	stats := &Stats{
		RunID:     uuid.NewString(),
		Seed:      config.Seed,
		StartTime: time.Now(),
	}
	ctx = logger.WithFields(ctx, logger.String("run_id", stats.RunID))
	log := logger.Get()

	log.Info(ctx, "starting tianji probe",
		logger.String("baseURL", config.BaseURL),
		logger.Int("requests", config.Requests),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Any("seed", config.Seed))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate inputs
	inputs := GenerateInputs(config.Requests, config.Seed)
	stats.Generated = len(inputs)

	// Step 3: Submit and verify concurrently
	if err := submitInputs(ctx, config, inputs, stats); err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}

	// Step 4: Save inputs for replay
	if config.OutputFile != "" {
		if err := saveInputsToFile(config.OutputFile, inputs); err != nil {
			log.Warn(ctx, "failed to save inputs to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.Mismatched > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrMismatch, stats.Mismatched, stats.Submitted)
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d of %d requests failed", stats.Failed, stats.Submitted)
	}
	log.Info(ctx, "probe completed successfully")
	return stats, nil
}

func (c *Config) normalize() error {
	if c.BaseURL == "" {
		return errors.New("base url is required")
	}
	if c.Requests <= 0 {
		return fmt.Errorf("requests must be positive, got %d", c.Requests)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Seed == 0 {
		var b [8]byte
		if _, err := rand.Read(b[:]); err != nil {
			return fmt.Errorf("failed to pick seed: %w", err)
		}
		c.Seed = binary.LittleEndian.Uint64(b[:]) | 1
	}
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := newHTTPClient(config.Timeout).Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// The health endpoint serves Prometheus metrics; any 200 is healthy.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return nil
}

// saveInputsToFile writes the generated inputs as a JSON array.
func saveInputsToFile(filename string, inputs []bazi.BirthInput) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(inputs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode inputs: %w", err)
	}
	return os.WriteFile(filename, data, filePermission)
}

// displayFinalStats logs the run summary.
func displayFinalStats(ctx context.Context, stats *Stats) {
	successRate := 0.0
	if stats.Submitted > 0 {
		successRate = float64(stats.Matched) / float64(stats.Submitted) * percentageMultiplier
	}
	log := logger.Get()
	log.Info(ctx, "probe summary",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("matched", stats.Matched),
		logger.Int("mismatched", stats.Mismatched),
		logger.Int("failed", stats.Failed),
		logger.Float64("match_rate", successRate),
		logger.Duration("duration", stats.Duration))
	for _, m := range stats.Mismatches {
		log.Warn(ctx, "mismatch",
			logger.Any("input", m.Input),
			logger.String("field", m.Field),
			logger.String("served", m.Served),
			logger.String("local", m.Local))
	}
}
