package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/tianji/pkg/logger"
	"github.com/okian/tianji/pkg/metrics"
)

// maxErrorBody caps how much of a failed upstream body is kept for logs.
const maxErrorBody = 2048

// HTTPOracle calls a chat-completion endpoint speaking the MiniMax request
// format: model, messages, temperature, max_tokens and a bearer key.
type HTTPOracle struct {
	url          string
	apiKey       string
	model        string
	temperature  float64
	maxTokens    int
	historyLimit int
	timeout      time.Duration
	replyPath    string

	breakerFailures uint32
	breakerTimeout  time.Duration

	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	tracer  trace.Tracer
	log     logger.Logger
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// NewHTTP builds an HTTPOracle. The global logger must be initialized unless
// WithLogger is given.
func NewHTTP(opts ...Option) *HTTPOracle {
	o := &HTTPOracle{
		url:             DefaultURL,
		model:           DefaultModel,
		temperature:     DefaultTemperature,
		maxTokens:       DefaultMaxTokens,
		historyLimit:    DefaultHistoryLimit,
		timeout:         DefaultTimeout,
		replyPath:       DefaultReplyPath,
		breakerFailures: defaultBreakerFailures,
		breakerTimeout:  defaultBreakerTimeout,
		client:          &http.Client{},
		tracer:          otel.Tracer("github.com/okian/tianji/internal/adapters/oracle"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Named("oracle")
	}

	failures := o.breakerFailures
	o.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "chat-upstream",
		Timeout: o.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(int(to))
			o.log.Warn(context.Background(), "circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
		// A caller hanging up says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return o
}

// BreakerState reports the current circuit breaker state.
func (o *HTTPOracle) BreakerState() gobreaker.State {
	return o.breaker.State()
}

// Reply implements Oracle. An upstream answer without content at the reply
// path yields FallbackReply; transport, status and breaker failures wrap
// ErrUpstream.
func (o *HTTPOracle) Reply(ctx context.Context, message string, history []Message) (string, error) {
	if message == "" {
		return "", ErrEmptyMessage
	}

	ctx, span := o.tracer.Start(ctx, "HTTPOracle.Reply",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("oracle.model", o.model),
			attribute.Int("oracle.history", len(history)),
		),
	)
	defer span.End()

	req := completionRequest{
		Model:       o.model,
		Messages:    BuildMessages(message, history, o.historyLimit),
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}

	start := time.Now()
	out, err := o.breaker.Execute(func() (interface{}, error) {
		return o.call(ctx, req)
	})
	metrics.RecordChatLatency(float64(time.Since(start).Microseconds()) / 1000)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream call failed")
		o.log.Error(ctx, "chat upstream failed", logger.Error(err))
		return "", err
	}

	reply, _ := out.(string)
	if strings.TrimSpace(reply) == "" {
		span.AddEvent("fallback_reply")
		return FallbackReply, nil
	}
	span.SetAttributes(attribute.Int("oracle.reply_length", len(reply)))
	return reply, nil
}

// call performs one upstream round trip and returns the text found at the
// reply path, or "" when the body carries none.
func (o *HTTPOracle) call(ctx context.Context, req completionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrUpstream, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrUpstream, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		o.log.Warn(ctx, "chat upstream returned error status",
			logger.Int("status", resp.StatusCode),
			logger.String("body", string(detail)),
		)
		return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var doc interface{}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	val, err := jsonpath.Get(o.replyPath, doc)
	if err != nil {
		o.log.Debug(ctx, "reply path not found", logger.String("path", o.replyPath), logger.Error(err))
		return "", nil
	}
	text, _ := val.(string)
	return text, nil
}
