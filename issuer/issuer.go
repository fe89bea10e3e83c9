// Package issuer implements IssuerEngine: cred-def and revocation-registry
// creation, credential signing, and revoke/recover (spec §4.3).
package issuer

import (
	"context"
	"encoding/json"

	"github.com/gravitational/trace"
	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/ledger"
	"github.com/gravitational/vcagent/lib/errcode"
	"github.com/gravitational/vcagent/model"
	"github.com/gravitational/vcagent/record"
	"github.com/gravitational/vcagent/tails"
)

// Engine is the IssuerEngine. It depends only on the crypto.Provider,
// record.Store, ledger.Client, and tails.Service interfaces, never on the
// holder or verifier engines.
type Engine struct {
	crypto crypto.Provider
	store  record.Store
	ledger ledger.Client
	tails  *tails.Service
}

// New builds an Engine.
func New(cp crypto.Provider, store record.Store, lc ledger.Client, ts *tails.Service) *Engine {
	return &Engine{crypto: cp, store: store, ledger: lc, tails: ts}
}

// CreateSchema is a pure operation: it computes the canonical id and
// returns the schema JSON without touching the wallet.
func (e *Engine) CreateSchema(issuerDID, name, version string, attrs []string) (schemaID string, schemaJSON []byte, err error) {
	if len(attrs) == 0 {
		return "", nil, errcode.InvalidStructure("schema attr_names must not be empty")
	}
	seen := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		if _, dup := seen[a]; dup {
			return "", nil, errcode.InvalidStructure("schema attr_names must be unique, duplicate %q", a)
		}
		seen[a] = struct{}{}
	}
	id := SchemaID(issuerDID, name, version)
	schema := model.Schema{ID: id, IssuerDID: issuerDID, Name: name, Version: version, AttrNames: attrs}
	data, err := json.Marshal(schema)
	if err != nil {
		return "", nil, errcode.InvalidStructure("marshal schema: %v", err)
	}
	return id, data, nil
}

// CreateAndStoreCredentialDefinition implements operation 2.
func (e *Engine) CreateAndStoreCredentialDefinition(ctx context.Context, issuerDID string, schema model.Schema, tag string, cfg model.CredentialDefinitionConfig) (credDefID string, credDefJSON []byte, err error) {
	schemaRef, err := reconcileSchemaRef(issuerDID, schema.ID)
	if err != nil {
		return "", nil, err
	}
	id := CredDefID(issuerDID, schemaRef, tag)

	if existing, getErr := e.store.Get(ctx, model.TypeCredentialDefinition, id); getErr == nil {
		var cd model.CredentialDefinition
		if err := existing.Unwrap(&cd); err != nil {
			return "", nil, errcode.InvalidStructure("decode existing cred-def: %v", err)
		}
		data, _ := json.Marshal(cd)
		return id, data, nil
	}

	pub, priv, corr, err := e.crypto.NewCredentialDefinition(schema.AttrNames, crypto.CredentialDefinitionConfig{SupportRevocation: cfg.SupportRevocation})
	if err != nil {
		return "", nil, errcode.Crypto(err)
	}

	cd := model.CredentialDefinition{
		ID: id, SchemaID: schemaRef, Tag: tag, Config: cfg,
		PublicKey: pub.PublicKey, AttrNames: pub.AttrNames,
	}
	if err := e.persist(ctx, model.TypeCredentialDefinition, id, cd, nil); err != nil {
		return "", nil, err
	}
	if err := e.persist(ctx, model.TypeCredentialDefinitionPrivateKey, id, model.CredentialDefinitionPrivateKey{SecretKey: priv.SecretKey}, nil); err != nil {
		return "", nil, err
	}
	if err := e.persist(ctx, model.TypeCredentialDefinitionCorrectnessProof, id, model.CredentialDefinitionCorrectnessProof{Proof: corr}, nil); err != nil {
		return "", nil, err
	}
	// Best-effort: persist the referenced schema too.
	_ = e.persist(ctx, model.TypeSchema, schema.ID, schema, nil)

	data, err := json.Marshal(cd)
	if err != nil {
		return "", nil, errcode.InvalidStructure("marshal cred-def: %v", err)
	}
	return id, data, nil
}

// RotateCredentialDefinitionStart implements operation 3: produce a
// temporary cred-def under the same id. Idempotent: a repeat call returns
// the already-pending temporary.
func (e *Engine) RotateCredentialDefinitionStart(ctx context.Context, id string, schemaAttrs []string, cfg model.CredentialDefinitionConfig) ([]byte, error) {
	if existing, err := e.store.Get(ctx, model.TypeTemporaryCredentialDefinition, id); err == nil {
		var cd model.CredentialDefinition
		if err := existing.Unwrap(&cd); err != nil {
			return nil, errcode.InvalidStructure("decode pending temporary cred-def: %v", err)
		}
		return json.Marshal(cd)
	}

	current, err := e.store.Get(ctx, model.TypeCredentialDefinition, id)
	if err != nil {
		return nil, errcode.NotFound("cred-def %q not found: %v", id, err)
	}
	var cur model.CredentialDefinition
	if err := current.Unwrap(&cur); err != nil {
		return nil, errcode.InvalidStructure("decode cred-def: %v", err)
	}

	pub, priv, corr, err := e.crypto.NewCredentialDefinition(schemaAttrs, crypto.CredentialDefinitionConfig{SupportRevocation: cfg.SupportRevocation})
	if err != nil {
		return nil, errcode.Crypto(err)
	}
	temp := model.CredentialDefinition{ID: id, SchemaID: cur.SchemaID, Tag: cur.Tag, Config: cfg, PublicKey: pub.PublicKey, AttrNames: pub.AttrNames}
	if err := e.persist(ctx, model.TypeTemporaryCredentialDefinition, id, temp, nil); err != nil {
		return nil, err
	}
	if err := e.persist(ctx, model.TypeCredentialDefinitionPrivateKey+":pending", id, model.CredentialDefinitionPrivateKey{SecretKey: priv.SecretKey}, nil); err != nil {
		return nil, err
	}
	if err := e.persist(ctx, model.TypeCredentialDefinitionCorrectnessProof+":pending", id, model.CredentialDefinitionCorrectnessProof{Proof: corr}, nil); err != nil {
		return nil, err
	}
	return json.Marshal(temp)
}

// RotateCredentialDefinitionApply implements operation 4.
func (e *Engine) RotateCredentialDefinitionApply(ctx context.Context, id string) error {
	return e.store.WithLock(ctx, model.TypeCredentialDefinition, id, func(ctx context.Context) error {
		temp, err := e.store.Get(ctx, model.TypeTemporaryCredentialDefinition, id)
		if err != nil {
			return errcode.NotFound("no pending rotation for cred-def %q", id)
		}
		var cd model.CredentialDefinition
		if err := temp.Unwrap(&cd); err != nil {
			return errcode.InvalidStructure("decode pending temporary cred-def: %v", err)
		}

		pendingPriv, err := e.store.Get(ctx, model.TypeCredentialDefinitionPrivateKey+":pending", id)
		if err != nil {
			return errcode.NotFound("pending private key missing for cred-def %q", id)
		}
		pendingCorr, err := e.store.Get(ctx, model.TypeCredentialDefinitionCorrectnessProof+":pending", id)
		if err != nil {
			return errcode.NotFound("pending correctness proof missing for cred-def %q", id)
		}

		if err := e.store.Update(ctx, model.TypeCredentialDefinition, id, mustWrap(cd), nil); err != nil {
			return errcode.Ledger(err)
		}
		if err := e.store.Update(ctx, model.TypeCredentialDefinitionPrivateKey, id, pendingPriv.Envelope, nil); err != nil {
			return errcode.Ledger(err)
		}
		if err := e.store.Update(ctx, model.TypeCredentialDefinitionCorrectnessProof, id, pendingCorr.Envelope, nil); err != nil {
			return errcode.Ledger(err)
		}

		_ = e.store.Delete(ctx, model.TypeTemporaryCredentialDefinition, id)
		_ = e.store.Delete(ctx, model.TypeCredentialDefinitionPrivateKey+":pending", id)
		_ = e.store.Delete(ctx, model.TypeCredentialDefinitionCorrectnessProof+":pending", id)
		return nil
	})
}

// CreateAndStoreRevocationRegistry implements operation 5.
func (e *Engine) CreateAndStoreRevocationRegistry(ctx context.Context, issuerDID, credDefID, tag string, cfg model.RevocationRegistryConfig) (revRegID string, defJSON, regJSON []byte, err error) {
	if cfg.MaxCredNum == 0 {
		cfg.MaxCredNum = model.DefaultRevocationRegistryConfig().MaxCredNum
	}
	if cfg.IssuanceType == "" {
		cfg.IssuanceType = model.IssuanceOnDemand
	}

	cdItem, err := e.store.Get(ctx, model.TypeCredentialDefinition, credDefID)
	if err != nil {
		return "", nil, nil, errcode.NotFound("cred-def %q not found: %v", credDefID, err)
	}
	var cd model.CredentialDefinition
	if err := cdItem.Unwrap(&cd); err != nil {
		return "", nil, nil, errcode.InvalidStructure("decode cred-def: %v", err)
	}

	id := RevRegDefID(issuerDID, credDefID, tag)
	pub := crypto.CredentialDefinitionPublic{AttrNames: cd.AttrNames, SupportRevocation: true, PublicKey: cd.PublicKey}
	_, regPub, regPriv, gen, err := e.crypto.NewRevocationRegistry(pub, cfg.MaxCredNum, cfg.IssuanceType == model.IssuanceByDefault)
	if err != nil {
		return "", nil, nil, errcode.Crypto(err)
	}

	_, hash, err := e.tails.StoreFromGenerator(gen)
	if err != nil {
		return "", nil, nil, errcode.Transport(err)
	}

	def := model.RevocationRegistryDefinition{ID: id, CredDefID: credDefID, Tag: tag, Config: cfg, TailsHash: hash, TailsLoc: hash}
	reg := model.RevocationRegistry{ID: id, Accum: regPub.Accum}
	info := model.RevocationRegistryInfo{ID: id, CurrID: 0, UsedIDs: nil}

	if err := e.persist(ctx, model.TypeRevocationRegistryDefinition, id, def, nil); err != nil {
		return "", nil, nil, err
	}
	if err := e.persist(ctx, model.TypeRevocationRegistry, id, reg, nil); err != nil {
		return "", nil, nil, err
	}
	if err := e.persist(ctx, model.TypeRevocationRegistryDefinitionPrivate, id, model.RevocationRegistryDefinitionPrivate{SecretKey: regPriv}, nil); err != nil {
		return "", nil, nil, err
	}
	if err := e.persist(ctx, model.TypeRevocationRegistryInfo, id, info, nil); err != nil {
		return "", nil, nil, err
	}

	defJSON, _ = json.Marshal(def)
	regJSON, _ = json.Marshal(reg)
	return id, defJSON, regJSON, nil
}

// CreateCredentialOffer implements operation 6.
func (e *Engine) CreateCredentialOffer(ctx context.Context, credDefID string) ([]byte, error) {
	cdItem, err := e.store.Get(ctx, model.TypeCredentialDefinition, credDefID)
	if err != nil {
		return nil, errcode.NotFound("cred-def %q not found: %v", credDefID, err)
	}
	var cd model.CredentialDefinition
	if err := cdItem.Unwrap(&cd); err != nil {
		return nil, errcode.InvalidStructure("decode cred-def: %v", err)
	}
	corrItem, err := e.store.Get(ctx, model.TypeCredentialDefinitionCorrectnessProof, credDefID)
	if err != nil {
		return nil, errcode.NotFound("correctness proof for %q not found: %v", credDefID, err)
	}
	var corr model.CredentialDefinitionCorrectnessProof
	if err := corrItem.Unwrap(&corr); err != nil {
		return nil, errcode.InvalidStructure("decode correctness proof: %v", err)
	}

	nonce, err := e.crypto.Nonce()
	if err != nil {
		return nil, errcode.Crypto(err)
	}

	offer := model.CredentialOffer{SchemaID: cd.SchemaID, CredDefID: credDefID, KeyCorrectnessProof: corr.Proof, Nonce: nonce}
	return json.Marshal(offer)
}

func mustWrap(v interface{}) record.Envelope {
	env, err := record.Wrap(model.CurrentVersion, v)
	if err != nil {
		panic(err) // v is always one of our own structs; marshal cannot fail.
	}
	return env
}

func (e *Engine) persist(ctx context.Context, typ, id string, v interface{}, tags map[string]string) error {
	env, err := record.Wrap(model.CurrentVersion, v)
	if err != nil {
		return errcode.InvalidStructure("marshal %s/%s: %v", typ, id, err)
	}
	if err := e.store.Add(ctx, typ, id, env, tags); err != nil {
		if trace.IsAlreadyExists(err) {
			return errcode.AlreadyExists("%s %q already exists", typ, id)
		}
		return errcode.Ledger(err)
	}
	return nil
}
