package holder

import (
	"context"

	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/lib/errcode"
	"github.com/gravitational/vcagent/model"
)

// RequestedCredentials maps each proof-request ref to the credential
// (and, for revealed attrs, whether to reveal it) the caller chose to
// present — the "requested" argument of spec §4.4.7.
type RequestedCredentials struct {
	Attrs      map[string]RequestedCredential
	Predicates map[string]RequestedCredential
}

type RequestedCredential struct {
	CredID   string
	Revealed bool
}

// RevocationStates is keyed rev_reg_id -> timestamp -> state, exactly the
// shape spec §4.4.7 documents the caller supplying.
type RevocationStates map[string]map[uint64]model.RevocationState

// CreateProof implements operation 7.
func (e *Engine) CreateProof(ctx context.Context, req crypto.ProofRequest, requested RequestedCredentials, masterSecretName string, revStates RevocationStates) (crypto.Proof, error) {
	ms, err := e.loadMasterSecret(ctx, masterSecretName)
	if err != nil {
		return nil, err
	}

	presented := crypto.PresentedCredentials{
		Attrs:      map[string]crypto.PresentedCredential{},
		Predicates: map[string]crypto.PresentedCredential{},
	}

	for ref, rc := range requested.Attrs {
		info := req.RequestedAttributes[ref]
		pc, err := e.resolvePresented(ctx, rc, info.NonRevoked, revStates)
		if err != nil {
			return nil, err
		}
		pc.Revealed = rc.Revealed
		presented.Attrs[ref] = pc
	}
	for ref, rc := range requested.Predicates {
		info := req.RequestedPredicates[ref]
		pc, err := e.resolvePresented(ctx, rc, info.NonRevoked, revStates)
		if err != nil {
			return nil, err
		}
		presented.Predicates[ref] = pc
	}

	proof, err := e.crypto.CreateProof(req, presented, ms)
	if err != nil {
		return nil, errcode.Crypto(err)
	}
	return proof, nil
}

func (e *Engine) resolvePresented(ctx context.Context, rc RequestedCredential, nonRevoked *crypto.NonRevokedInterval, revStates RevocationStates) (crypto.PresentedCredential, error) {
	item, err := e.store.Get(ctx, model.TypeCredential, rc.CredID)
	if err != nil {
		return crypto.PresentedCredential{}, errcode.NotFound("credential %q not found: %v", rc.CredID, err)
	}
	var cred model.Credential
	if err := item.Unwrap(&cred); err != nil {
		return crypto.PresentedCredential{}, errcode.InvalidStructure("decode credential: %v", err)
	}

	values := make(crypto.CredentialValues, len(cred.Values))
	for k, v := range cred.Values {
		values[k] = crypto.AttrEncoding{Raw: v.Raw, Encoded: v.Encoded}
	}

	pc := crypto.PresentedCredential{CredID: rc.CredID, Values: values}

	if nonRevoked == nil || cred.RevRegID == nil {
		pc.NonRevoked = true
		return pc, nil
	}

	byTS, ok := revStates[*cred.RevRegID]
	if !ok {
		return crypto.PresentedCredential{}, errcode.InvalidStructure("no revocation state supplied for rev_reg_id %q", *cred.RevRegID)
	}
	// When the interval has a `to` bound, the supplied state whose
	// timestamp equals it is used. Without a `to` bound, whichever supplied
	// state map iteration yields first is used; `from` is not checked.
	var timestamp uint64
	var state model.RevocationState
	found := false
	for ts, st := range byTS {
		if nonRevoked.To != nil && ts != *nonRevoked.To {
			continue
		}
		timestamp, state, found = ts, st, true
		break
	}
	if !found {
		return crypto.PresentedCredential{}, errcode.InvalidStructure("no revocation state at requested timestamp for rev_reg_id %q", *cred.RevRegID)
	}
	pc.Timestamp = timestamp
	pc.Witness = &crypto.Witness{Accum: state.Witness, Timestamp: timestamp}
	pc.NonRevoked = true
	return pc, nil
}
