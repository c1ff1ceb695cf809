package verification

import (
	"gatekeeper/domain"
	"sync"
)

const shardCount = 64

// shard is one lock domain; users are spread over shards so unrelated users never contend.
type shard[V any] struct {
	mu    sync.Mutex
	items map[domain.UserID]V
}

type shardedMap[V any] struct {
	shards [shardCount]*shard[V]
}

func newShardedMap[V any]() *shardedMap[V] {
	m := &shardedMap[V]{}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[domain.UserID]V)}
	}
	return m
}

func (m *shardedMap[V]) shardFor(id domain.UserID) *shard[V] {
	return m.shards[uint64(id)%shardCount]
}

// with runs fn inside the critical section of the user's shard.
func (m *shardedMap[V]) with(id domain.UserID, fn func(items map[domain.UserID]V)) {
	s := m.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.items)
}

// each visits every shard in turn, never holding two locks at once.
func (m *shardedMap[V]) each(fn func(items map[domain.UserID]V)) {
	for _, s := range m.shards {
		s.mu.Lock()
		fn(s.items)
		s.mu.Unlock()
	}
}
