package issuer

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/lib/errcode"
	"github.com/gravitational/vcagent/lib/idset"
	"github.com/gravitational/vcagent/model"
)

// RevokeCredential implements operation 8.
func (e *Engine) RevokeCredential(ctx context.Context, revRegID, credRevocID string) ([]byte, error) {
	return e.toggleRevocation(ctx, revRegID, credRevocID, true)
}

// RecoverCredential implements operation 9 (the dual of RevokeCredential).
func (e *Engine) RecoverCredential(ctx context.Context, revRegID, credRevocID string) ([]byte, error) {
	return e.toggleRevocation(ctx, revRegID, credRevocID, false)
}

func (e *Engine) toggleRevocation(ctx context.Context, revRegID, credRevocID string, revoking bool) ([]byte, error) {
	idx, err := strconv.ParseUint(credRevocID, 10, 32)
	if err != nil {
		return nil, errcode.InvalidStructure("invalid cred_revoc_id %q: %v", credRevocID, err)
	}
	index := uint32(idx)

	var deltaData []byte
	lockErr := e.store.WithLock(ctx, model.TypeRevocationRegistry, revRegID, func(ctx context.Context) error {
		defItem, err := e.store.Get(ctx, model.TypeRevocationRegistryDefinition, revRegID)
		if err != nil {
			return errcode.NotFound("revocation registry def %q not found: %v", revRegID, err)
		}
		var def model.RevocationRegistryDefinition
		if err := defItem.Unwrap(&def); err != nil {
			return errcode.InvalidStructure("decode rev reg def: %v", err)
		}

		regItem, err := e.store.Get(ctx, model.TypeRevocationRegistry, revRegID)
		if err != nil {
			return errcode.NotFound("revocation registry %q not found: %v", revRegID, err)
		}
		var reg model.RevocationRegistry
		if err := regItem.Unwrap(&reg); err != nil {
			return errcode.InvalidStructure("decode rev reg: %v", err)
		}

		infoItem, err := e.store.Get(ctx, model.TypeRevocationRegistryInfo, revRegID)
		if err != nil {
			return errcode.NotFound("revocation registry info %q not found: %v", revRegID, err)
		}
		var info model.RevocationRegistryInfo
		if err := infoItem.Unwrap(&info); err != nil {
			return errcode.InvalidStructure("decode rev reg info: %v", err)
		}

		used := idset.New(info.UsedIDs...)
		onDemand := def.Config.IssuanceType == model.IssuanceOnDemand

		// For on_demand, revoke requires the index IS in used_ids;
		// for by_default, revoke requires the index is NOT in used_ids
		// (it was default-issued and not yet revoked). recover is the dual.
		var want bool
		if revoking {
			want = onDemand // on_demand: must already be used (issued); by_default: must NOT be used (revoked)
		} else {
			want = !onDemand
		}
		present := used.Contains(index)
		if present != want {
			return errcode.InvalidUserRevocId("cred_revoc_id %d is not valid to %s for registry %q issuance_type=%s", index, action(revoking), revRegID, def.Config.IssuanceType)
		}

		reg_ := crypto.RevocationRegistryPublic{Accum: reg.Accum}
		var delta crypto.RevocationDelta
		if revoking {
			delta, err = e.crypto.Revoke(&reg_, def.Config.MaxCredNum, index, nil)
		} else {
			delta, err = e.crypto.Recover(&reg_, def.Config.MaxCredNum, index, nil)
		}
		if err != nil {
			return errcode.Crypto(err)
		}

		if onDemand == revoking {
			used.Del(index)
		} else {
			used.Add(index)
		}
		info.UsedIDs = used.ToSlice()
		reg.Accum = reg_.Accum

		if err := e.store.Update(ctx, model.TypeRevocationRegistry, revRegID, mustWrap(reg), nil); err != nil {
			return errcode.Ledger(err)
		}
		if err := e.store.Update(ctx, model.TypeRevocationRegistryInfo, revRegID, mustWrap(info), nil); err != nil {
			return errcode.Ledger(err)
		}

		deltaData, err = json.Marshal(delta)
		return err
	})
	if lockErr != nil {
		return nil, lockErr
	}
	return deltaData, nil
}

// MergeRevocationRegistryDeltas implements operation 10.
func (e *Engine) MergeRevocationRegistryDeltas(a, b crypto.RevocationDelta) (crypto.RevocationDelta, error) {
	merged, err := e.crypto.MergeDelta(a, b)
	if err != nil {
		return crypto.RevocationDelta{}, errcode.Crypto(err)
	}
	return merged, nil
}

func action(revoking bool) string {
	if revoking {
		return "revoke"
	}
	return "recover"
}

