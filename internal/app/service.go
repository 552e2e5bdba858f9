// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"github.com/okian/tianji/internal/adapters/conversation"
	"github.com/okian/tianji/internal/adapters/oracle"
	"github.com/okian/tianji/internal/domain/bazi"
	"github.com/okian/tianji/internal/domain/materials"
	"github.com/okian/tianji/pkg/logger"
	"github.com/okian/tianji/pkg/metrics"
)

// ErrNotStarted is returned by operations invoked before Start.
var ErrNotStarted = errors.New("service not started")

// Chat outcomes as reported to metrics.
const (
	outcomeOK       = "ok"
	outcomeFallback = "fallback"
	outcomeError    = "error"
	outcomeRejected = "rejected"
)

type breakerReporter interface {
	BreakerState() gobreaker.State
}

// Service implements the API dependencies for the fortune service.
type Service struct {
	mu sync.RWMutex

	// Core components
	oracle        oracle.Oracle
	catalog       *materials.Catalog
	conversations conversation.Store

	// Counters
	readings     atomic.Int64
	rejected     atomic.Int64
	chats        atomic.Int64
	chatFailures atomic.Int64

	// State
	started   bool
	startedAt time.Time

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOracle sets the chat oracle. Without one the service answers every
// chat with the fallback reply.
func WithOracle(o oracle.Oracle) Option {
	return func(s *Service) {
		if o != nil {
			s.oracle = o
		}
	}
}

// WithCatalog replaces the embedded materials catalog.
func WithCatalog(c *materials.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithConversations sets the store that remembers chat turns per
// conversation id.
func WithConversations(c conversation.Store) Option {
	return func(s *Service) {
		if c != nil {
			s.conversations = c
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start resolves defaults and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.oracle == nil {
		s.oracle = oracle.StaticOracle{}
	}
	if s.catalog == nil {
		s.catalog = materials.Default()
	}
	if s.conversations == nil {
		s.conversations = conversation.NewInMemoryStore()
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "fortune service started", logger.String("oracle", oracleKind(s.oracle)))

	return nil
}

// Stop marks the service stopped. Calls made afterwards return ErrNotStarted.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.started = false
	s.logger.Info(context.Background(), "fortune service stopped",
		logger.Any("readings", s.readings.Load()),
		logger.Any("chats", s.chats.Load()),
	)
}

func (s *Service) ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// Reading validates in and computes its chart, element balance and gods.
func (s *Service) Reading(ctx context.Context, in bazi.BirthInput) (bazi.Reading, error) {
	if !s.ready() {
		return bazi.Reading{}, ErrNotStarted
	}
	if err := in.Validate(); err != nil {
		s.rejected.Add(1)
		metrics.RecordInvalidInput()
		s.logger.Debug(ctx, "rejected birth input", logger.Error(err))
		return bazi.Reading{}, err
	}

	r := bazi.Compute(in)
	s.readings.Add(1)
	a := r.Assessment
	metrics.RecordReading(a.Strong.String(), a.Weak.String(), a.UsefulGod.String(), a.OutputGod.String())
	s.logger.Debug(ctx, "reading computed",
		logger.String("chart", r.Chart.String()),
		logger.String("useful_god", a.UsefulGod.String()),
	)
	return r, nil
}

// Materials returns the recommendations that strengthen e.
func (s *Service) Materials(ctx context.Context, e bazi.Element) ([]materials.Material, error) {
	if !s.ready() {
		return nil, ErrNotStarted
	}
	items, err := s.catalog.Recommended(e)
	if err != nil {
		return nil, err
	}
	metrics.RecordMaterialsLookup(e.String())
	return items, nil
}

// Chat forwards message and history to the oracle.
func (s *Service) Chat(ctx context.Context, message string, history []oracle.Message) (string, error) {
	if !s.ready() {
		return "", ErrNotStarted
	}
	if message == "" {
		metrics.RecordChatRequest(outcomeRejected)
		return "", oracle.ErrEmptyMessage
	}

	s.chats.Add(1)
	reply, err := s.oracle.Reply(ctx, message, history)
	switch {
	case err != nil:
		s.chatFailures.Add(1)
		metrics.RecordChatRequest(outcomeError)
		return "", err
	case reply == oracle.FallbackReply:
		metrics.RecordChatRequest(outcomeFallback)
	default:
		metrics.RecordChatRequest(outcomeOK)
	}
	return reply, nil
}

// Converse is Chat with server-side memory. When history is empty the turns
// stored under conversationID are used instead, and a successful exchange is
// appended to them. Fallback replies are not remembered.
func (s *Service) Converse(ctx context.Context, conversationID, message string, history []oracle.Message) (string, error) {
	if !s.ready() {
		return "", ErrNotStarted
	}
	if len(history) == 0 && conversationID != "" {
		history = s.conversations.History(ctx, conversationID)
	}

	reply, err := s.Chat(ctx, message, history)
	if err != nil {
		return "", err
	}
	if conversationID != "" && reply != oracle.FallbackReply {
		s.conversations.Append(ctx, conversationID,
			oracle.Message{Role: oracle.RoleUser, Content: message},
			oracle.Message{Role: oracle.RoleAssistant, Content: reply},
		)
	}
	return reply, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"readingsComputed": s.readings.Load(),
		"invalidInputs":    s.rejected.Load(),
		"chatRequests":     s.chats.Load(),
		"chatFailures":     s.chatFailures.Load(),
	}

	if s.started {
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
		stats["oracle"] = oracleKind(s.oracle)
		stats["conversations"] = s.conversations.Size()
		if br, ok := s.oracle.(breakerReporter); ok {
			state := br.BreakerState()
			stats["breakerState"] = state.String()
			metrics.UpdateBreakerState(int(state))
		}
	}

	return stats
}

func oracleKind(o oracle.Oracle) string {
	switch o.(type) {
	case oracle.StaticOracle, *oracle.StaticOracle:
		return "static"
	case *oracle.HTTPOracle:
		return "http"
	default:
		return "custom"
	}
}
