// Package record defines the RecordStore contract the core depends on for
// typed, tag-searchable persistence, and the version-tagged envelope every
// persisted entity is wrapped in.
package record

import (
	"context"
	"encoding/json"

	"github.com/gravitational/trace"
)

// Envelope is the outer {version, data} wrapper every persisted entity
// round-trips through. Older record shapes (e.g. a Credential predating
// rev_reg_id/witness) decode into the current Go struct by leaving new
// fields at their zero value; callers default those explicitly rather than
// relying on json.Unmarshal alone, matching the documented versioning rule.
type Envelope struct {
	Version string          `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// Wrap serializes v into an Envelope tagged with version.
func Wrap(version string, v interface{}) (Envelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Envelope{}, trace.Wrap(err)
	}
	return Envelope{Version: version, Data: data}, nil
}

// Unwrap decodes the Envelope's Data into v.
func (e Envelope) Unwrap(v interface{}) error {
	if len(e.Data) == 0 {
		return trace.BadParameter("empty envelope data")
	}
	return trace.Wrap(json.Unmarshal(e.Data, v))
}

// Item is a single stored record: its serialized envelope plus the tags it
// is indexed under for Search.
type Item struct {
	Type string
	ID   string
	Envelope
	Tags map[string]string
}

// Store is the external collaborator the core depends on for persistence.
// Implementations must serialize concurrent writes to the same (type, id)
// pair; the core relies on that for its single-writer invariants.
type Store interface {
	// Add inserts a new record. Fails with an AlreadyExists-coded error if
	// (typ, id) already exists.
	Add(ctx context.Context, typ, id string, env Envelope, tags map[string]string) error
	// Get fetches a record. Fails with a NotFound-coded error if absent.
	Get(ctx context.Context, typ, id string) (Item, error)
	// Update overwrites an existing record's envelope and, if tags is
	// non-nil, replaces its tag set. Fails NotFound if absent.
	Update(ctx context.Context, typ, id string, env Envelope, tags map[string]string) error
	// Delete removes a record and its tags. Fails NotFound if absent.
	Delete(ctx context.Context, typ, id string) error
	// Search returns every item of typ whose tags satisfy q, in unspecified
	// order.
	Search(ctx context.Context, typ string, q Query) ([]Item, error)
	// WithLock runs fn while holding the per-(typ,id) write lock, giving
	// callers a way to make a read-modify-write sequence atomic.
	WithLock(ctx context.Context, typ, id string, fn func(ctx context.Context) error) error
}
