package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tianji/internal/domain/bazi"
	"github.com/okian/tianji/pkg/logger"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// HTTPClient wraps http.Client with a per-request timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// servedReading is the subset of the reading response the probe checks.
type servedReading struct {
	Chart    string `json:"chart"`
	Elements []struct {
		Element bazi.Element `json:"element"`
		Count   int          `json:"count"`
	} `json:"elements"`
	Missing   []bazi.Element `json:"missing"`
	Strong    bazi.Element   `json:"strong"`
	Weak      bazi.Element   `json:"weak"`
	UsefulGod bazi.Element   `json:"useful_god"`
	OutputGod bazi.Element   `json:"output_god"`
}

// fetchReading posts one birth input and decodes the answer.
func fetchReading(ctx context.Context, client *HTTPClient, url string, in bazi.BirthInput) (servedReading, error) {
	var out servedReading
	resp, err := client.Post(ctx, url, in)
	if err != nil {
		return out, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return out, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("failed to decode reading: %w", err)
	}
	return out, nil
}

// submitInputs posts every input with at most config.Workers requests in
// flight and compares each answer with the local reading.
func submitInputs(ctx context.Context, config *Config, inputs []bazi.BirthInput, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "submitting birth inputs",
		logger.Int("requests", len(inputs)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/api/bazi"

	var (
		submitted  int64
		matched    int64
		mismatched int64
		failed     int64
		mu         sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)
	for _, in := range inputs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			atomic.AddInt64(&submitted, 1)
			served, err := fetchReading(gctx, client, url, in)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				if config.Verbose {
					log.Warn(gctx, "request failed", logger.Any("input", in), logger.Error(err))
				}
				return nil
			}
			diffs := compareReading(in, served)
			if len(diffs) == 0 {
				atomic.AddInt64(&matched, 1)
				return nil
			}
			atomic.AddInt64(&mismatched, 1)
			mu.Lock()
			for _, d := range diffs {
				if len(stats.Mismatches) < maxMismatches {
					stats.Mismatches = append(stats.Mismatches, d)
				}
			}
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	stats.Submitted = int(atomic.LoadInt64(&submitted))
	stats.Matched = int(atomic.LoadInt64(&matched))
	stats.Mismatched = int(atomic.LoadInt64(&mismatched))
	stats.Failed = int(atomic.LoadInt64(&failed))
	return err
}
