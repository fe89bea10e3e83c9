// Package holder implements HolderEngine: master-secret management,
// credential-request blinding, credential processing/storage, proof
// construction, and revocation witness updates (spec §4.4).
package holder

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/gravitational/trace"
	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/lib"
	"github.com/gravitational/vcagent/lib/errcode"
	"github.com/gravitational/vcagent/model"
	"github.com/gravitational/vcagent/record"
	"github.com/gravitational/vcagent/tails"
)

// State is a credential's position in the per-credential state machine
// documented in spec §4.4 (None -> OfferReceived -> RequestSent -> Accepted).
type State int

const (
	StateNone State = iota
	StateOfferReceived
	StateRequestSent
	StateAccepted
)

// Engine is the HolderEngine. It depends only on crypto.Provider,
// record.Store, ledger.Client (via the caller resolving public artifacts),
// and tails.Service — never on issuer or verifier.
type Engine struct {
	crypto crypto.Provider
	store  record.Store
	tails  *tails.Service

	searchMu   sync.Mutex
	searches   map[SearchHandle]*credentialSearch
	nextSearch SearchHandle
}

// New builds an Engine.
func New(cp crypto.Provider, store record.Store, ts *tails.Service) *Engine {
	return &Engine{
		crypto:   cp,
		store:    store,
		tails:    ts,
		searches: make(map[SearchHandle]*credentialSearch),
	}
}

// CreateMasterSecret implements operation 1. An empty name defaults to a
// fresh UUID.
func (e *Engine) CreateMasterSecret(ctx context.Context, name string) (string, error) {
	if name == "" {
		name = uuid.NewString()
	}
	if _, err := e.store.Get(ctx, model.TypeMasterSecret, name); err == nil {
		return "", errcode.AlreadyExists("master secret %q already exists", name)
	}
	value, err := e.crypto.NewMasterSecret()
	if err != nil {
		return "", errcode.Crypto(err)
	}
	env, err := record.Wrap(model.CurrentVersion, model.MasterSecret{Name: name, Value: value})
	if err != nil {
		return "", errcode.InvalidStructure("marshal master secret: %v", err)
	}
	if err := e.store.Add(ctx, model.TypeMasterSecret, name, env, nil); err != nil {
		if trace.IsAlreadyExists(err) {
			return "", errcode.AlreadyExists("master secret %q already exists", name)
		}
		return "", errcode.Ledger(err)
	}
	return name, nil
}

func (e *Engine) loadMasterSecret(ctx context.Context, name string) (crypto.MasterSecret, error) {
	item, err := e.store.Get(ctx, model.TypeMasterSecret, name)
	if err != nil {
		return nil, errcode.NotFound("master secret %q not found: %v", name, err)
	}
	var ms model.MasterSecret
	if err := item.Unwrap(&ms); err != nil {
		return nil, errcode.InvalidStructure("decode master secret: %v", err)
	}
	return ms.Value, nil
}

// CreateCredentialRequest implements operation 2.
func (e *Engine) CreateCredentialRequest(ctx context.Context, proverDID string, offer model.CredentialOffer, cd model.CredentialDefinition, masterSecretName string) (model.CredentialRequest, model.CredentialRequestMetadata, error) {
	if !lib.IsValidDID(proverDID) {
		return model.CredentialRequest{}, model.CredentialRequestMetadata{}, errcode.InvalidStructure("prover_did %q is not a valid DID", proverDID)
	}
	ms, err := e.loadMasterSecret(ctx, masterSecretName)
	if err != nil {
		return model.CredentialRequest{}, model.CredentialRequestMetadata{}, err
	}

	pub := crypto.CredentialDefinitionPublic{AttrNames: cd.AttrNames, SupportRevocation: cd.Config.SupportRevocation, PublicKey: cd.PublicKey}
	blinded, blindingData, corr, err := e.crypto.NewCredentialRequest(pub, ms, offer.Nonce)
	if err != nil {
		return model.CredentialRequest{}, model.CredentialRequestMetadata{}, errcode.Crypto(err)
	}

	req := model.CredentialRequest{
		ProverDID: proverDID, CredDefID: offer.CredDefID,
		BlindedMS: blinded, BlindedMSCorrectnessProof: corr, Nonce: offer.Nonce,
	}
	meta := model.CredentialRequestMetadata{
		MasterSecretBlindingData: blindingData,
		Nonce:                    offer.Nonce,
		MasterSecretName:         masterSecretName,
	}
	return req, meta, nil
}
