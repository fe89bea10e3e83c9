package record

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/gravitational/trace"
	"github.com/gravitational/vcagent/lib/locktable"
	"github.com/peterbourgon/diskv/v3"
)

// DiskvStore is a Store backed by peterbourgon/diskv, the same
// flat-file-with-transform-function storage the teacher's tails writer
// also uses (see tails.Service). Tag search is served from an in-memory
// index rebuilt from disk at Open time, since diskv itself has no query
// support beyond key lookup.
type DiskvStore struct {
	d     *diskv.Diskv
	locks *locktable.Table

	mu  sync.RWMutex
	idx map[string]map[string]Item // typ -> id -> Item, kept for Search
}

// OpenDiskvStore opens (creating if absent) a disk-backed store rooted at
// basePath, one flat directory of JSON blobs keyed by "<type>/<id>".
func OpenDiskvStore(basePath string) (*DiskvStore, error) {
	d := diskv.New(diskv.Options{
		BasePath:     basePath,
		Transform:    func(string) []string { return nil },
		CacheSizeMax: 1 << 20,
	})
	s := &DiskvStore{
		d:     d,
		locks: locktable.New(),
		idx:   make(map[string]map[string]Item),
	}
	if err := s.reindex(); err != nil {
		return nil, trace.Wrap(err)
	}
	return s, nil
}

func diskvKey(typ, id string) string {
	return typ + "/" + strings.ReplaceAll(id, "/", "_")
}

func (s *DiskvStore) reindex() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keysCh := s.d.Keys(nil)
	for k := range keysCh {
		raw, err := s.d.Read(k)
		if err != nil {
			continue
		}
		var item Item
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		s.putIndexLocked(item)
	}
	return nil
}

func (s *DiskvStore) putIndexLocked(item Item) {
	byID, ok := s.idx[item.Type]
	if !ok {
		byID = make(map[string]Item)
		s.idx[item.Type] = byID
	}
	byID[item.ID] = item
}

func (s *DiskvStore) delIndexLocked(typ, id string) {
	if byID, ok := s.idx[typ]; ok {
		delete(byID, id)
	}
}

func (s *DiskvStore) writeItem(item Item) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(s.d.Write(diskvKey(item.Type, item.ID), raw))
}

func (s *DiskvStore) Add(ctx context.Context, typ, id string, env Envelope, tags map[string]string) error {
	s.mu.Lock()
	if byID, ok := s.idx[typ]; ok {
		if _, exists := byID[id]; exists {
			s.mu.Unlock()
			return trace.AlreadyExists("record %s/%s already exists", typ, id)
		}
	}
	s.mu.Unlock()

	item := Item{Type: typ, ID: id, Envelope: env, Tags: cloneTags(tags)}
	if err := s.writeItem(item); err != nil {
		return trace.Wrap(err)
	}
	s.mu.Lock()
	s.putIndexLocked(item)
	s.mu.Unlock()
	return nil
}

func (s *DiskvStore) Get(ctx context.Context, typ, id string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID, ok := s.idx[typ]
	if !ok {
		return Item{}, trace.NotFound("record %s/%s not found", typ, id)
	}
	item, ok := byID[id]
	if !ok {
		return Item{}, trace.NotFound("record %s/%s not found", typ, id)
	}
	return item, nil
}

func (s *DiskvStore) Update(ctx context.Context, typ, id string, env Envelope, tags map[string]string) error {
	s.mu.Lock()
	byID, ok := s.idx[typ]
	if !ok {
		s.mu.Unlock()
		return trace.NotFound("record %s/%s not found", typ, id)
	}
	item, ok := byID[id]
	if !ok {
		s.mu.Unlock()
		return trace.NotFound("record %s/%s not found", typ, id)
	}
	item.Envelope = env
	if tags != nil {
		item.Tags = cloneTags(tags)
	}
	s.mu.Unlock()

	if err := s.writeItem(item); err != nil {
		return trace.Wrap(err)
	}
	s.mu.Lock()
	s.putIndexLocked(item)
	s.mu.Unlock()
	return nil
}

func (s *DiskvStore) Delete(ctx context.Context, typ, id string) error {
	s.mu.Lock()
	byID, ok := s.idx[typ]
	if !ok {
		s.mu.Unlock()
		return trace.NotFound("record %s/%s not found", typ, id)
	}
	if _, ok := byID[id]; !ok {
		s.mu.Unlock()
		return trace.NotFound("record %s/%s not found", typ, id)
	}
	s.delIndexLocked(typ, id)
	s.mu.Unlock()
	return trace.Wrap(s.d.Erase(diskvKey(typ, id)))
}

func (s *DiskvStore) Search(ctx context.Context, typ string, q Query) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Item
	for _, item := range s.idx[typ] {
		if Match(q, item.Tags) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *DiskvStore) WithLock(ctx context.Context, typ, id string, fn func(ctx context.Context) error) error {
	return s.locks.WithLock(diskvKey(typ, id), func() error {
		return fn(ctx)
	})
}
