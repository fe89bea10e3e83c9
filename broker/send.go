package broker

import (
	"context"

	"github.com/google/uuid"
	"github.com/gravitational/trace"

	"github.com/gravitational/vcagent/messages"
	"github.com/gravitational/vcagent/model"
)

// SendOptions carries delivery mode for a Send call.
type SendOptions struct {
	// Anonymous, if true, packs the envelope via anoncrypt instead of
	// authcrypt.
	Anonymous bool
}

// Send implements MessageBroker.send: encrypt msg through the configured
// envelope.Codec, deliver it over Transport, and record the outbound
// message under a freshly minted uid. Callers that are replying to a
// request set msg's own ~thread.thid before calling Send (spec §4.7:
// "every reply MUST include thread.thid copied from the request").
func (b *Broker) Send(ctx context.Context, connectionID string, msg messages.Message, myPriv []byte, opts SendOptions) (uid string, err error) {
	conn, err := b.loadConnection(ctx, connectionID)
	if err != nil {
		return "", trace.Wrap(err)
	}

	body, err := messages.Encode(msg)
	if err != nil {
		return "", trace.Wrap(err)
	}

	var packed []byte
	if opts.Anonymous {
		packed, err = b.codec.PrepareAnon([]byte(conn.TheirVK), [][]byte{body})
	} else {
		packed, err = b.codec.PrepareAuth(myPriv, []byte(conn.MyVK), []byte(conn.TheirVK), [][]byte{body})
	}
	if err != nil {
		return "", trace.Wrap(err)
	}

	if err := b.transport.Deliver(ctx, conn.Endpoint, packed); err != nil {
		return "", trace.Wrap(err)
	}

	conn.SenderOrder++
	if err := b.saveConnection(ctx, conn); err != nil {
		return "", trace.Wrap(err)
	}

	uid = uuid.NewString()
	rec := model.MessageRecord{
		UID:          uid,
		ConnectionID: connectionID,
		Type:         msg.TypeDescriptor().Name,
		Status:       model.MessageSent,
		Payload:      body,
		SenderOrder:  conn.SenderOrder,
	}
	if err := b.store.Add(ctx, model.TypeMessage, uid, mustWrap(rec), messageTags(rec)); err != nil {
		return "", trace.Wrap(err)
	}
	return uid, nil
}
