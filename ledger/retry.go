package ledger

import (
	"context"
	"time"

	"github.com/gravitational/trace"
	"github.com/gravitational/vcagent/lib/backoff"
	"github.com/gravitational/vcagent/lib/errcode"
)

// RetryingClient wraps a Client, retrying Publish/Fetch against transient
// transport failures with a decorrelated-jitter backoff, matching the
// reconnect shape lib/backoff already provides for other transports.
type RetryingClient struct {
	inner      Client
	maxRetries int
	newBackoff func() backoff.Backoff
}

// NewRetryingClient wraps inner with up to maxRetries retries (maxRetries+1
// attempts in all), using a fresh Decorr(base, cap) backoff per call.
func NewRetryingClient(inner Client, maxRetries int, base, cap time.Duration) *RetryingClient {
	return &RetryingClient{
		inner:      inner,
		maxRetries: maxRetries,
		newBackoff: func() backoff.Backoff { return backoff.Decorr(base, cap) },
	}
}

func (c *RetryingClient) Publish(ctx context.Context, id string, txn Txn, addr PaymentAddress) error {
	b := c.newBackoff()
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err = c.inner.Publish(ctx, id, txn, addr)
		if err == nil {
			return nil
		}
		if !isRetryable(err) || attempt == c.maxRetries {
			return errcode.Ledger(err)
		}
		if werr := b.Do(ctx); werr != nil {
			return errcode.Ledger(werr)
		}
	}
	return errcode.Ledger(err)
}

func (c *RetryingClient) Fetch(ctx context.Context, id string) ([]byte, error) {
	b := c.newBackoff()
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var data []byte
		data, err = c.inner.Fetch(ctx, id)
		if err == nil {
			return data, nil
		}
		if !isRetryable(err) || attempt == c.maxRetries {
			return nil, errcode.Ledger(err)
		}
		if werr := b.Do(ctx); werr != nil {
			return nil, errcode.Ledger(werr)
		}
	}
	return nil, errcode.Ledger(err)
}

func (c *RetryingClient) ProtocolVersion(ctx context.Context) (string, error) {
	v, err := c.inner.ProtocolVersion(ctx)
	return v, errcode.Ledger(err)
}

func isRetryable(err error) bool {
	return trace.IsConnectionProblem(err) || trace.IsEOF(err)
}
