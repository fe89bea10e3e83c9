package holder

import (
	"context"

	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/lib/errcode"
	"github.com/gravitational/vcagent/model"
)

// CreateRevocationState implements operation 8.
func (e *Engine) CreateRevocationState(ctx context.Context, revRegID string, revRegDef model.RevocationRegistryDefinition, delta crypto.RevocationDelta, timestamp uint64, credRevID uint32) (model.RevocationState, error) {
	reader, err := e.tails.OpenReader(revRegDef.TailsHash, 32)
	if err != nil {
		return model.RevocationState{}, errcode.TailsMismatch("tails for %q: %v", revRegID, err)
	}
	w, err := e.crypto.WitnessNew(credRevID, revRegDef.Config.MaxCredNum, revRegDef.Config.IssuanceType == model.IssuanceByDefault, delta, tailsAccessorFor(reader))
	if err != nil {
		return model.RevocationState{}, errcode.Crypto(err)
	}
	state := model.RevocationState{RevRegID: revRegID, Timestamp: timestamp, Witness: w.Accum}
	return state, nil
}

// UpdateRevocationState implements operation 9. H-3: timestamp must be
// monotonically non-decreasing.
func (e *Engine) UpdateRevocationState(ctx context.Context, state model.RevocationState, revRegDef model.RevocationRegistryDefinition, delta crypto.RevocationDelta, newTimestamp uint64, credRevID uint32) (model.RevocationState, error) {
	if newTimestamp < state.Timestamp {
		return model.RevocationState{}, errcode.InvalidStructure("revocation state timestamp must not move backward: %d < %d", newTimestamp, state.Timestamp)
	}
	reader, err := e.tails.OpenReader(revRegDef.TailsHash, 32)
	if err != nil {
		return model.RevocationState{}, errcode.TailsMismatch("tails for %q: %v", state.RevRegID, err)
	}
	w := crypto.Witness{Index: credRevID, Accum: state.Witness, Timestamp: state.Timestamp}
	updated, err := e.crypto.WitnessUpdate(w, revRegDef.Config.MaxCredNum, delta, tailsAccessorFor(reader))
	if err != nil {
		return model.RevocationState{}, errcode.Crypto(err)
	}
	state.Witness = updated.Accum
	state.Timestamp = newTimestamp
	return state, nil
}

// DeleteCredential implements operation 10.
func (e *Engine) DeleteCredential(ctx context.Context, credID string) error {
	if err := e.store.Delete(ctx, model.TypeCredential, credID); err != nil {
		return errcode.NotFound("credential %q not found: %v", credID, err)
	}
	return nil
}
