package ledger

import (
	"context"
	"sync"

	"github.com/gravitational/trace"
	"github.com/gravitational/vcagent/lib/errcode"
)

// FakeClient is an in-memory Client used by engine tests in place of a
// real DID ledger transport.
type FakeClient struct {
	mu       sync.RWMutex
	entries  map[string][]byte
	version  string
	requirePayment map[string]bool
}

// NewFakeClient builds an empty FakeClient advertising protocolVersion.
func NewFakeClient(protocolVersion string) *FakeClient {
	return &FakeClient{
		entries:        make(map[string][]byte),
		version:        protocolVersion,
		requirePayment: make(map[string]bool),
	}
}

// RequirePayment marks id as requiring a non-empty PaymentAddress on
// Publish, exercising the NoPaymentInformation branch in tests.
func (c *FakeClient) RequirePayment(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requirePayment[id] = true
}

func (c *FakeClient) Publish(ctx context.Context, id string, txn Txn, addr PaymentAddress) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.requirePayment[id] && addr == "" {
		return errcode.NoPaymentInformation()
	}
	c.entries[id] = append([]byte(nil), txn...)
	return nil
}

func (c *FakeClient) Fetch(ctx context.Context, id string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.entries[id]
	if !ok {
		return nil, errcode.Ledger(trace.NotFound("ledger entry %q not found", id))
	}
	return data, nil
}

func (c *FakeClient) ProtocolVersion(ctx context.Context) (string, error) {
	return c.version, nil
}
