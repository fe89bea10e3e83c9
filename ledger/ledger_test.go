package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/gravitational/trace"
)

func TestFakeClientPublishFetchRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewFakeClient("1.2.3")

	if _, err := c.Fetch(ctx, "missing"); err == nil {
		t.Fatal("expected error fetching an unpublished id")
	}

	if err := c.Publish(ctx, "schema-1", Txn(`{"attr_names":["name"]}`), ""); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	data, err := c.Fetch(ctx, "schema-1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != `{"attr_names":["name"]}` {
		t.Fatalf("unexpected fetched data: %s", data)
	}

	v, err := c.ProtocolVersion(ctx)
	if err != nil || v != "1.2.3" {
		t.Fatalf("ProtocolVersion: %q, %v", v, err)
	}
}

func TestFakeClientRequirePayment(t *testing.T) {
	ctx := context.Background()
	c := NewFakeClient("1.0.0")
	c.RequirePayment("paid-schema")

	if err := c.Publish(ctx, "paid-schema", Txn("x"), ""); err == nil {
		t.Fatal("expected a payment-required error")
	}
	if err := c.Publish(ctx, "paid-schema", Txn("x"), "addr-1"); err != nil {
		t.Fatalf("Publish with payment address: %v", err)
	}
}

type flakyClient struct {
	inner     Client
	failUntil int
	attempts  int
}

func (f *flakyClient) Publish(ctx context.Context, id string, txn Txn, addr PaymentAddress) error {
	f.attempts++
	if f.attempts <= f.failUntil {
		return trace.ConnectionProblem(nil, "simulated transient failure")
	}
	return f.inner.Publish(ctx, id, txn, addr)
}

func (f *flakyClient) Fetch(ctx context.Context, id string) ([]byte, error) {
	f.attempts++
	if f.attempts <= f.failUntil {
		return nil, trace.ConnectionProblem(nil, "simulated transient failure")
	}
	return f.inner.Fetch(ctx, id)
}

func (f *flakyClient) ProtocolVersion(ctx context.Context) (string, error) {
	return f.inner.ProtocolVersion(ctx)
}

func TestRetryingClientRetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeClient("1.0.0")
	flaky := &flakyClient{inner: fake, failUntil: 2}
	retrying := NewRetryingClient(flaky, 5, time.Millisecond, 10*time.Millisecond)

	if err := retrying.Publish(ctx, "schema-1", Txn("data"), ""); err != nil {
		t.Fatalf("Publish should succeed after retries: %v", err)
	}
	data, err := fake.Fetch(ctx, "schema-1")
	if err != nil || string(data) != "data" {
		t.Fatalf("expected the underlying publish to have gone through: %q, %v", data, err)
	}
}

func TestRetryingClientGivesUpAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	fake := NewFakeClient("1.0.0")
	flaky := &flakyClient{inner: fake, failUntil: 100}
	retrying := NewRetryingClient(flaky, 2, time.Millisecond, 10*time.Millisecond)

	if err := retrying.Publish(ctx, "schema-1", Txn("data"), ""); err == nil {
		t.Fatal("expected Publish to give up after exhausting retries")
	}
}
