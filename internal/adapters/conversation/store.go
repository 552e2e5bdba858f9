// Package conversation keeps recent chat turns per conversation id.
package conversation

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/tianji/internal/adapters/oracle"
)

// Store remembers the most recent turns of each conversation.
type Store interface {
	// History returns a copy of the stored turns for id, oldest first.
	History(ctx context.Context, id string) []oracle.Message

	// Append records msgs at the end of id's history, trimming it to the
	// configured number of messages.
	Append(ctx context.Context, id string, msgs ...oracle.Message)

	// Forget drops id.
	Forget(ctx context.Context, id string)

	Size() int64
}

type entry struct {
	id       string
	messages []oracle.Message
}

// inMemoryStore is a bounded map of conversations. When full, the
// conversation touched least recently is evicted.
type inMemoryStore struct {
	mu               sync.Mutex
	byID             map[string]*list.Element
	order            *list.List // front is most recently touched
	maxConversations int        // 0 or negative means unbounded
	maxMessages      int
	size             atomic.Int64
}

// NewInMemoryStore creates a new in-memory conversation store.
func NewInMemoryStore(opts ...Option) Store {
	s := &inMemoryStore{
		maxConversations: 10000,
		maxMessages:      20,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.byID = make(map[string]*list.Element)
	s.order = list.New()
	return s
}

func (s *inMemoryStore) History(_ context.Context, id string) []oracle.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.byID[id]
	if !ok {
		return nil
	}
	s.order.MoveToFront(el)
	msgs := el.Value.(*entry).messages
	out := make([]oracle.Message, len(msgs))
	copy(out, msgs)
	return out
}

func (s *inMemoryStore) Append(_ context.Context, id string, msgs ...oracle.Message) {
	if id == "" || len(msgs) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.byID[id]
	if !ok {
		if s.maxConversations > 0 && len(s.byID) >= s.maxConversations {
			s.evictOldest()
		}
		el = s.order.PushFront(&entry{id: id})
		s.byID[id] = el
		s.size.Add(1)
	} else {
		s.order.MoveToFront(el)
	}

	e := el.Value.(*entry)
	e.messages = append(e.messages, msgs...)
	if s.maxMessages > 0 && len(e.messages) > s.maxMessages {
		// Copy so the trimmed prefix can be collected.
		e.messages = append([]oracle.Message(nil), e.messages[len(e.messages)-s.maxMessages:]...)
	}
}

func (s *inMemoryStore) Forget(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.byID[id]; ok {
		s.remove(el)
	}
}

// evictOldest must be called with s.mu held.
func (s *inMemoryStore) evictOldest() {
	if el := s.order.Back(); el != nil {
		s.remove(el)
	}
}

// remove must be called with s.mu held.
func (s *inMemoryStore) remove(el *list.Element) {
	s.order.Remove(el)
	delete(s.byID, el.Value.(*entry).id)
	s.size.Add(-1)
}

func (s *inMemoryStore) Size() int64 {
	return s.size.Load()
}
