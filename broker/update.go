package broker

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"github.com/gravitational/vcagent/model"
)

// FailedUID reports a single uid that update_status could not transition,
// alongside a human-readable reason (spec §4.7: "on failure, returns the
// failing uids with a status_msg").
type FailedUID struct {
	UID       string
	StatusMsg string
}

// ConnectionUIDs pairs a connection with the uids to transition under it,
// the shape update_status_by_connections batches over.
type ConnectionUIDs struct {
	ConnectionID string
	UIDs         []string
}

// UpdateStatus implements MessageBroker.update_status: each uid's
// transition is atomic (guarded by the store's per-id write lock via
// WithLock), and a uid whose current status cannot legally reach newStatus
// is reported as failed rather than aborting the whole batch.
func (b *Broker) UpdateStatus(ctx context.Context, uids []string, newStatus model.MessageStatus) ([]FailedUID, error) {
	var failed []FailedUID
	var errs *multierror.Error

	for _, uid := range uids {
		err := b.store.WithLock(ctx, model.TypeMessage, uid, func(ctx context.Context) error {
			item, err := b.store.Get(ctx, model.TypeMessage, uid)
			if err != nil {
				return err
			}
			var rec model.MessageRecord
			if err := item.Unwrap(&rec); err != nil {
				return err
			}
			if !validTransition(rec.Status, newStatus) {
				failed = append(failed, FailedUID{UID: uid, StatusMsg: "invalid transition " + string(rec.Status) + " -> " + string(newStatus)})
				return nil
			}
			rec.Status = newStatus
			return b.store.Update(ctx, model.TypeMessage, uid, mustWrap(rec), messageTags(rec))
		})
		if err != nil {
			failed = append(failed, FailedUID{UID: uid, StatusMsg: err.Error()})
			errs = multierror.Append(errs, err)
		}
	}
	return failed, errs.ErrorOrNil()
}

// UpdateStatusByConnections implements
// MessageBroker.update_status_by_connections: batches UpdateStatus across
// several connections' uid sets.
func (b *Broker) UpdateStatusByConnections(ctx context.Context, batches []ConnectionUIDs, newStatus model.MessageStatus) ([]FailedUID, error) {
	var failed []FailedUID
	var errs *multierror.Error
	for _, batch := range batches {
		f, err := b.UpdateStatus(ctx, batch.UIDs, newStatus)
		failed = append(failed, f...)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return failed, errs.ErrorOrNil()
}

// MarkReviewed flips a message's orthogonal Reviewed acknowledgement bit
// without touching its Created→...→Rejected status.
func (b *Broker) MarkReviewed(ctx context.Context, uid string) error {
	return b.store.WithLock(ctx, model.TypeMessage, uid, func(ctx context.Context) error {
		item, err := b.store.Get(ctx, model.TypeMessage, uid)
		if err != nil {
			return err
		}
		var rec model.MessageRecord
		if err := item.Unwrap(&rec); err != nil {
			return err
		}
		rec.Reviewed = true
		return b.store.Update(ctx, model.TypeMessage, uid, mustWrap(rec), messageTags(rec))
	})
}

// validTransition enforces the Created→Sent→Received→Accepted/Rejected
// chain (spec §4.7); Reviewed is orthogonal and handled by MarkReviewed.
func validTransition(from, to model.MessageStatus) bool {
	order := map[model.MessageStatus]int{
		model.MessageCreated:  0,
		model.MessageSent:     1,
		model.MessageReceived: 2,
		model.MessageAccepted: 3,
		model.MessageRejected: 3,
	}
	fromRank, fromOK := order[from]
	toRank, toOK := order[to]
	if !fromOK || !toOK {
		return false
	}
	if from == model.MessageAccepted || from == model.MessageRejected {
		return false
	}
	return toRank >= fromRank
}
