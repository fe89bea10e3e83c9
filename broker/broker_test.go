package broker

import (
	"context"
	"crypto/rand"
	"testing"

	"golang.org/x/crypto/nacl/box"

	"github.com/gravitational/vcagent/envelope"
	"github.com/gravitational/vcagent/messages"
	"github.com/gravitational/vcagent/model"
	"github.com/gravitational/vcagent/record"
)

type fakeTransport struct {
	delivered [][]byte
	endpoint  string
}

func (t *fakeTransport) Deliver(ctx context.Context, endpoint string, packed []byte) error {
	t.endpoint = endpoint
	t.delivered = append(t.delivered, packed)
	return nil
}

func genKeypair(t *testing.T) (pub, priv []byte) {
	t.Helper()
	pk, sk, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pk[:], sk[:]
}

func TestSendRecordsOutboxEntry(t *testing.T) {
	store := record.NewMemStore()
	transport := &fakeTransport{}
	b := New(store, envelope.New(envelope.V1), transport)

	myVK, myPriv := genKeypair(t)
	theirVK, _ := genKeypair(t)

	ctx := context.Background()
	conn := model.PairwiseConnection{ConnectionID: "conn-1", MyVK: string(myVK), TheirVK: string(theirVK), Endpoint: "https://example.test/inbox"}
	if err := b.CreatePairwiseConnection(ctx, conn); err != nil {
		t.Fatalf("CreatePairwiseConnection: %v", err)
	}

	msg := messages.NewCreateKey("req-1", "did:sov:abc", "verkeyabc")
	uid, err := b.Send(ctx, "conn-1", msg, myPriv, SendOptions{})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if uid == "" {
		t.Fatal("expected non-empty uid")
	}
	if transport.endpoint != conn.Endpoint {
		t.Fatalf("delivered to wrong endpoint: %q", transport.endpoint)
	}

	msgs, err := b.GetMessages(ctx, GetFilter{ConnectionID: "conn-1"})
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].UID != uid {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if msgs[0].Status != model.MessageSent {
		t.Fatalf("expected Sent status, got %v", msgs[0].Status)
	}
}

func TestUpdateStatusRejectsBackwardTransition(t *testing.T) {
	store := record.NewMemStore()
	transport := &fakeTransport{}
	b := New(store, envelope.New(envelope.V1), transport)
	ctx := context.Background()

	myVK, myPriv := genKeypair(t)
	theirVK, _ := genKeypair(t)
	conn := model.PairwiseConnection{ConnectionID: "conn-2", MyVK: string(myVK), TheirVK: string(theirVK), Endpoint: "https://example.test/inbox"}
	if err := b.CreatePairwiseConnection(ctx, conn); err != nil {
		t.Fatalf("CreatePairwiseConnection: %v", err)
	}
	uid, err := b.Send(ctx, "conn-2", messages.NewGetMessages("req-2", nil, nil), myPriv, SendOptions{})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if failed, err := b.UpdateStatus(ctx, []string{uid}, model.MessageAccepted); err != nil || len(failed) != 0 {
		t.Fatalf("expected Sent->Accepted to succeed, failed=%v err=%v", failed, err)
	}
	failed, err := b.UpdateStatus(ctx, []string{uid}, model.MessageCreated)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if len(failed) != 1 || failed[0].UID != uid {
		t.Fatalf("expected backward transition to be rejected, got %+v", failed)
	}
}

func TestUpdateStatusByConnections(t *testing.T) {
	store := record.NewMemStore()
	transport := &fakeTransport{}
	b := New(store, envelope.New(envelope.V1), transport)
	ctx := context.Background()

	myVK, myPriv := genKeypair(t)
	theirVK, _ := genKeypair(t)
	conn := model.PairwiseConnection{ConnectionID: "conn-3", MyVK: string(myVK), TheirVK: string(theirVK), Endpoint: "https://example.test/inbox"}
	if err := b.CreatePairwiseConnection(ctx, conn); err != nil {
		t.Fatalf("CreatePairwiseConnection: %v", err)
	}
	uid, err := b.Send(ctx, "conn-3", messages.NewGetMessages("req-3", nil, nil), myPriv, SendOptions{})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	failed, err := b.UpdateStatusByConnections(ctx, []ConnectionUIDs{{ConnectionID: "conn-3", UIDs: []string{uid}}}, model.MessageReceived)
	if err != nil || len(failed) != 0 {
		t.Fatalf("UpdateStatusByConnections: failed=%v err=%v", failed, err)
	}
}
