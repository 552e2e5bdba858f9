package conversation

// Option applies a configuration option to the in-memory store.
type Option func(*inMemoryStore)

// WithMaxConversations bounds how many conversations are kept. Values <= 0
// keep every conversation.
func WithMaxConversations(n int) Option {
	return func(s *inMemoryStore) {
		s.maxConversations = n
	}
}

// WithMaxMessages bounds how many messages are kept per conversation.
// Values <= 0 keep the whole history.
func WithMaxMessages(n int) Option {
	return func(s *inMemoryStore) {
		s.maxMessages = n
	}
}
