package issuer

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/lib/errcode"
	"github.com/gravitational/vcagent/model"
	"github.com/gravitational/vcagent/tails"
)

// NewCredential implements operation 7. revRegID is empty when the
// cred-def does not support revocation.
func (e *Engine) NewCredential(ctx context.Context, offer model.CredentialOffer, request model.CredentialRequest, values map[string]crypto.AttrEncoding, revRegID string) (credJSON []byte, credRevID string, deltaJSON []byte, err error) {
	cdItem, err := e.store.Get(ctx, model.TypeCredentialDefinition, offer.CredDefID)
	if err != nil {
		return nil, "", nil, errcode.NotFound("cred-def %q not found: %v", offer.CredDefID, err)
	}
	var cd model.CredentialDefinition
	if err := cdItem.Unwrap(&cd); err != nil {
		return nil, "", nil, errcode.InvalidStructure("decode cred-def: %v", err)
	}
	privItem, err := e.store.Get(ctx, model.TypeCredentialDefinitionPrivateKey, offer.CredDefID)
	if err != nil {
		return nil, "", nil, errcode.NotFound("cred-def private key %q not found: %v", offer.CredDefID, err)
	}
	var priv model.CredentialDefinitionPrivateKey
	if err := privItem.Unwrap(&priv); err != nil {
		return nil, "", nil, errcode.InvalidStructure("decode cred-def private key: %v", err)
	}

	pub := crypto.CredentialDefinitionPublic{AttrNames: cd.AttrNames, SupportRevocation: cd.Config.SupportRevocation, PublicKey: cd.PublicKey}
	cryptoPriv := crypto.CredentialDefinitionPrivate{SecretKey: priv.SecretKey}
	cvalues := crypto.CredentialValues(values)

	if revRegID == "" {
		sig, corr, _, err := e.crypto.NewCredential(pub, cryptoPriv, offer.Nonce, request.BlindedMS, cvalues, nil, nil, nil, nil)
		if err != nil {
			return nil, "", nil, errcode.Crypto(err)
		}
		cred := buildCredential(offer, request, values, sig, corr, nil, nil)
		data, _ := json.Marshal(cred)
		return data, "", nil, nil
	}

	var (
		credData  []byte
		revID     string
		deltaData []byte
		opErr     error
	)
	lockErr := e.store.WithLock(ctx, model.TypeRevocationRegistry, revRegID, func(ctx context.Context) error {
		defItem, err := e.store.Get(ctx, model.TypeRevocationRegistryDefinition, revRegID)
		if err != nil {
			opErr = errcode.NotFound("revocation registry def %q not found: %v", revRegID, err)
			return opErr
		}
		var def model.RevocationRegistryDefinition
		if err := defItem.Unwrap(&def); err != nil {
			opErr = errcode.InvalidStructure("decode rev reg def: %v", err)
			return opErr
		}

		regItem, err := e.store.Get(ctx, model.TypeRevocationRegistry, revRegID)
		if err != nil {
			opErr = errcode.NotFound("revocation registry %q not found: %v", revRegID, err)
			return opErr
		}
		var reg model.RevocationRegistry
		if err := regItem.Unwrap(&reg); err != nil {
			opErr = errcode.InvalidStructure("decode rev reg: %v", err)
			return opErr
		}

		infoItem, err := e.store.Get(ctx, model.TypeRevocationRegistryInfo, revRegID)
		if err != nil {
			opErr = errcode.NotFound("revocation registry info %q not found: %v", revRegID, err)
			return opErr
		}
		var info model.RevocationRegistryInfo
		if err := infoItem.Unwrap(&info); err != nil {
			opErr = errcode.InvalidStructure("decode rev reg info: %v", err)
			return opErr
		}

		nextID := info.CurrID + 1
		if nextID > def.Config.MaxCredNum {
			// I-4: failure must not advance curr_id.
			opErr = errcode.RevocationRegistryFull("revocation registry %q is full (max_cred_num=%d)", revRegID, def.Config.MaxCredNum)
			return opErr
		}

		reader, err := e.tails.OpenReader(def.TailsHash, 32)
		if err != nil {
			opErr = errcode.TailsMismatch("tails for %q: %v", revRegID, err)
			return opErr
		}

		regPub := &crypto.RevocationRegistryPublic{Accum: reg.Accum}
		sig, corr, delta, err := e.crypto.NewCredential(pub, cryptoPriv, offer.Nonce, request.BlindedMS, cvalues, &nextID, regPub, nil, tailsAccessor{reader})
		if err != nil {
			opErr = errcode.Crypto(err)
			return opErr
		}

		info.CurrID = nextID
		if def.Config.IssuanceType == model.IssuanceOnDemand {
			info.UsedIDs = append(info.UsedIDs, nextID)
		}
		reg.Accum = regPub.Accum

		if err := e.store.Update(ctx, model.TypeRevocationRegistry, revRegID, mustWrap(reg), nil); err != nil {
			opErr = errcode.Ledger(err)
			return opErr
		}
		if err := e.store.Update(ctx, model.TypeRevocationRegistryInfo, revRegID, mustWrap(info), nil); err != nil {
			opErr = errcode.Ledger(err)
			return opErr
		}

		revID = strconv.FormatUint(uint64(nextID), 10)
		revRegIDCopy := revRegID
		cred := buildCredential(offer, request, values, sig, corr, &revRegIDCopy, &revID)
		credData, _ = json.Marshal(cred)
		if delta != nil {
			deltaData, _ = json.Marshal(delta)
		}
		return nil
	})
	if lockErr != nil {
		return nil, "", nil, lockErr
	}
	return credData, revID, deltaData, nil
}

func buildCredential(offer model.CredentialOffer, request model.CredentialRequest, values map[string]crypto.AttrEncoding, sig crypto.CredentialSignature, corr crypto.SignatureCorrectnessProof, revRegID, credRevID *string) model.Credential {
	vals := make(map[string]model.AttrValue, len(values))
	for k, v := range values {
		vals[k] = model.AttrValue{Raw: v.Raw, Encoded: v.Encoded}
	}
	return model.Credential{
		SchemaID:         offer.SchemaID,
		CredDefID:        offer.CredDefID,
		RevRegID:         revRegID,
		CredRevID:        credRevID,
		Values:           vals,
		Signature:        sig,
		CorrectnessProof: corr,
	}
}

type tailsAccessor struct{ a *tails.Accessor }

func (t tailsAccessor) Read(index uint32) ([]byte, error) { return t.a.Read(index) }
