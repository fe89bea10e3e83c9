package ledgerwatch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/ledger"
	"github.com/gravitational/vcagent/lib/job"
)

func mustTxn(t *testing.T, delta crypto.RevocationDelta) ledger.Txn {
	t.Helper()
	data, err := json.Marshal(delta)
	if err != nil {
		t.Fatalf("marshal delta: %v", err)
	}
	return data
}

func TestWatcherEmitsOnChange(t *testing.T) {
	fake := ledger.NewFakeClient("1.4")
	fake.Publish(context.Background(), "rev-reg-1", mustTxn(t, crypto.RevocationDelta{Issued: []uint32{1}}), "")

	seen := make(chan crypto.RevocationDelta, 4)
	w := New(fake, []string{"rev-reg-1"}, Config{Interval: 10 * time.Millisecond}, func(ctx context.Context, revRegID string, delta crypto.RevocationDelta) error {
		seen <- delta
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	process := job.NewProcess(ctx)
	process.Spawn(job.FuncJob(w.DoJob))

	select {
	case delta := <-seen:
		if len(delta.Issued) != 1 || delta.Issued[0] != 1 {
			t.Fatalf("unexpected delta: %+v", delta)
		}
	case <-time.After(400 * time.Millisecond):
		t.Fatal("timed out waiting for first delta")
	}

	fake.Publish(context.Background(), "rev-reg-1", mustTxn(t, crypto.RevocationDelta{Issued: []uint32{1, 2}}), "")

	select {
	case delta := <-seen:
		if len(delta.Issued) != 2 {
			t.Fatalf("expected updated delta, got %+v", delta)
		}
	case <-time.After(400 * time.Millisecond):
		t.Fatal("timed out waiting for updated delta")
	}
}

func TestWatcherSkipsUnchanged(t *testing.T) {
	fake := ledger.NewFakeClient("1.4")
	fake.Publish(context.Background(), "rev-reg-2", mustTxn(t, crypto.RevocationDelta{Issued: []uint32{7}}), "")

	seen := make(chan crypto.RevocationDelta, 8)
	w := New(fake, []string{"rev-reg-2"}, Config{Interval: 10 * time.Millisecond}, func(ctx context.Context, revRegID string, delta crypto.RevocationDelta) error {
		seen <- delta
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	process := job.NewProcess(ctx)
	process.Spawn(job.FuncJob(w.DoJob))

	<-time.After(150 * time.Millisecond)
	close(seen)
	count := 0
	for range seen {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one emission for an unchanged registry, got %d", count)
	}
}
