// Package broker implements MessageBroker: the minimal outbox with
// status semantics that sits between A2AEnvelope and the three engines
// (spec §4.7).
package broker

import (
	"context"

	"github.com/google/uuid"
	"github.com/gravitational/trace"

	"github.com/gravitational/vcagent/envelope"
	"github.com/gravitational/vcagent/model"
	"github.com/gravitational/vcagent/record"
)

// Broker is the MessageBroker. It depends on record.Store for durable
// outbox/connection bookkeeping, an envelope.Codec for wire packing, and a
// Transport for delivery — never on issuer/holder/verifier engines.
type Broker struct {
	store     record.Store
	codec     envelope.Codec
	transport Transport
}

// New builds a Broker.
func New(store record.Store, codec envelope.Codec, transport Transport) *Broker {
	return &Broker{store: store, codec: codec, transport: transport}
}

// CreatePairwiseConnection persists a new Pairwise bookkeeping record
// (spec §9 supplemented feature), modeled as a plain CRUD struct with no
// onboarding protocol logic.
func (b *Broker) CreatePairwiseConnection(ctx context.Context, conn model.PairwiseConnection) error {
	if conn.ConnectionID == "" {
		conn.ConnectionID = uuid.NewString()
	}
	if conn.Status == "" {
		conn.Status = model.ConnectionNotConnected
	}
	env, err := record.Wrap(model.CurrentVersion, conn)
	if err != nil {
		return trace.Wrap(err)
	}
	tags := map[string]string{"their_did": conn.TheirDID, "status": string(conn.Status)}
	return b.store.Add(ctx, model.TypePairwiseConnection, conn.ConnectionID, env, tags)
}

func (b *Broker) loadConnection(ctx context.Context, connectionID string) (model.PairwiseConnection, error) {
	item, err := b.store.Get(ctx, model.TypePairwiseConnection, connectionID)
	if err != nil {
		return model.PairwiseConnection{}, trace.Wrap(err)
	}
	var conn model.PairwiseConnection
	if err := item.Unwrap(&conn); err != nil {
		return model.PairwiseConnection{}, trace.Wrap(err)
	}
	return conn, nil
}

func (b *Broker) saveConnection(ctx context.Context, conn model.PairwiseConnection) error {
	env, err := record.Wrap(model.CurrentVersion, conn)
	if err != nil {
		return trace.Wrap(err)
	}
	return b.store.Update(ctx, model.TypePairwiseConnection, conn.ConnectionID, env, nil)
}

func mustWrap(v interface{}) record.Envelope {
	env, err := record.Wrap(model.CurrentVersion, v)
	if err != nil {
		panic(err)
	}
	return env
}

func messageTags(m model.MessageRecord) map[string]string {
	tags := map[string]string{
		"uid":           m.UID,
		"connection_id": m.ConnectionID,
		"status":        string(m.Status),
		"type":          m.Type,
	}
	if m.RefMsgID != "" {
		tags["ref_msg_id"] = m.RefMsgID
	}
	return tags
}
