package broker

import (
	"context"

	"github.com/gravitational/trace"

	"github.com/gravitational/vcagent/model"
	"github.com/gravitational/vcagent/record"
)

// GetFilter selects which outbox/inbox entries GetMessages returns.
type GetFilter struct {
	ConnectionID string
	UIDs         []string
	StatusCodes  []model.MessageStatus
	// FollowRefs, when true, additionally resolves each matched message's
	// RefMsgID to the message it replies to (spec §4.7: "for 'ref'
	// messages, the broker follows ref_msg_id to locate the reply").
	FollowRefs bool
}

// GetMessages implements MessageBroker.get_messages.
func (b *Broker) GetMessages(ctx context.Context, filter GetFilter) ([]model.MessageRecord, error) {
	q := filter.query()
	items, err := b.store.Search(ctx, model.TypeMessage, q)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	out := make([]model.MessageRecord, 0, len(items))
	for _, item := range items {
		var rec model.MessageRecord
		if err := item.Unwrap(&rec); err != nil {
			return nil, trace.Wrap(err)
		}
		out = append(out, rec)
	}

	if !filter.FollowRefs {
		return out, nil
	}
	for i, rec := range out {
		if rec.RefMsgID == "" {
			continue
		}
		ref, err := b.store.Get(ctx, model.TypeMessage, rec.RefMsgID)
		if err != nil {
			continue // dangling ref_msg_id: leave Payload as the original message's
		}
		var refRec model.MessageRecord
		if err := ref.Unwrap(&refRec); err != nil {
			continue
		}
		out[i].Payload = refRec.Payload
	}
	return out, nil
}

func (f GetFilter) query() record.Query {
	var clauses []record.Query
	if f.ConnectionID != "" {
		clauses = append(clauses, record.Eq{Key: "connection_id", Value: f.ConnectionID})
	}
	if len(f.UIDs) > 0 {
		clauses = append(clauses, record.In{Key: "uid", Values: f.UIDs})
	}
	if len(f.StatusCodes) > 0 {
		values := make([]string, len(f.StatusCodes))
		for i, s := range f.StatusCodes {
			values[i] = string(s)
		}
		clauses = append(clauses, record.In{Key: "status", Values: values})
	}
	switch len(clauses) {
	case 0:
		return record.All
	case 1:
		return clauses[0]
	default:
		return record.And(clauses)
	}
}
