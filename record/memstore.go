package record

import (
	"context"
	"sync"

	"github.com/gravitational/trace"
	"github.com/gravitational/vcagent/lib/locktable"
)

// MemStore is an in-memory Store, used by engine tests and as the reference
// implementation of the single-writer-per-id contract.
type MemStore struct {
	locks *locktable.Table
	mu    sync.RWMutex
	items map[string]Item
}

// NewMemStore builds an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		locks: locktable.New(),
		items: make(map[string]Item),
	}
}

func key(typ, id string) string { return typ + "/" + id }

func (s *MemStore) Add(ctx context.Context, typ, id string, env Envelope, tags map[string]string) error {
	k := key(typ, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[k]; ok {
		return trace.AlreadyExists("record %s/%s already exists", typ, id)
	}
	s.items[k] = Item{Type: typ, ID: id, Envelope: env, Tags: cloneTags(tags)}
	return nil
}

func (s *MemStore) Get(ctx context.Context, typ, id string) (Item, error) {
	k := key(typ, id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[k]
	if !ok {
		return Item{}, trace.NotFound("record %s/%s not found", typ, id)
	}
	return item, nil
}

func (s *MemStore) Update(ctx context.Context, typ, id string, env Envelope, tags map[string]string) error {
	k := key(typ, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[k]
	if !ok {
		return trace.NotFound("record %s/%s not found", typ, id)
	}
	item.Envelope = env
	if tags != nil {
		item.Tags = cloneTags(tags)
	}
	s.items[k] = item
	return nil
}

func (s *MemStore) Delete(ctx context.Context, typ, id string) error {
	k := key(typ, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[k]; !ok {
		return trace.NotFound("record %s/%s not found", typ, id)
	}
	delete(s.items, k)
	return nil
}

func (s *MemStore) Search(ctx context.Context, typ string, q Query) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Item
	for _, item := range s.items {
		if item.Type != typ {
			continue
		}
		if Match(q, item.Tags) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *MemStore) WithLock(ctx context.Context, typ, id string, fn func(ctx context.Context) error) error {
	return s.locks.WithLock(key(typ, id), func() error {
		return fn(ctx)
	})
}

func cloneTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
