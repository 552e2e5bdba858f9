package oracle

import (
	"net/http"
	"time"

	"github.com/okian/tianji/pkg/logger"
)

// Default upstream settings.
const (
	DefaultURL          = "https://api.minimaxi.com/v1/text/chatcompletion_v2"
	DefaultModel        = "abab6.5s-chat"
	DefaultTemperature  = 0.7
	DefaultMaxTokens    = 1000
	DefaultHistoryLimit = 10
	DefaultTimeout      = 30 * time.Second
	DefaultReplyPath    = "$.choices[0].message.content"

	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 60 * time.Second
)

// Option configures an HTTPOracle.
type Option func(*HTTPOracle)

// WithURL sets the chat-completion endpoint.
func WithURL(u string) Option {
	return func(o *HTTPOracle) {
		if u != "" {
			o.url = u
		}
	}
}

// WithAPIKey sets the bearer token sent upstream.
func WithAPIKey(key string) Option {
	return func(o *HTTPOracle) { o.apiKey = key }
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(o *HTTPOracle) {
		if model != "" {
			o.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *HTTPOracle) {
		if t >= 0 {
			o.temperature = t
		}
	}
}

// WithMaxTokens sets the reply token cap.
func WithMaxTokens(n int) Option {
	return func(o *HTTPOracle) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithHistoryLimit sets how many prior turns are forwarded.
func WithHistoryLimit(n int) Option {
	return func(o *HTTPOracle) {
		if n >= 0 {
			o.historyLimit = n
		}
	}
}

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) Option {
	return func(o *HTTPOracle) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithReplyPath sets the JSONPath locating the reply text in the upstream body.
func WithReplyPath(path string) Option {
	return func(o *HTTPOracle) {
		if path != "" {
			o.replyPath = path
		}
	}
}

// WithBreaker sets consecutive failures before the breaker opens and how long
// it stays open.
func WithBreaker(failures int, openFor time.Duration) Option {
	return func(o *HTTPOracle) {
		if failures > 0 {
			o.breakerFailures = uint32(failures)
		}
		if openFor > 0 {
			o.breakerTimeout = openFor
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *HTTPOracle) {
		if c != nil {
			o.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *HTTPOracle) {
		if l != nil {
			o.log = l
		}
	}
}
