package holder

import (
	"context"

	"github.com/google/uuid"
	"github.com/gravitational/trace"
	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/lib/errcode"
	"github.com/gravitational/vcagent/lib/stringset"
	"github.com/gravitational/vcagent/model"
	"github.com/gravitational/vcagent/record"
)

// StoreCredential implements operation 3. An empty credID generates a
// fresh UUID. H-2: ProcessCredential must fail (and this must return an
// error) before any record is written if signature verification fails.
func (e *Engine) StoreCredential(ctx context.Context, credID string, meta model.CredentialRequestMetadata, cred model.Credential, cd model.CredentialDefinition) (string, error) {
	ms, err := e.loadMasterSecret(ctx, meta.MasterSecretName)
	if err != nil {
		return "", err
	}

	pub := crypto.CredentialDefinitionPublic{AttrNames: cd.AttrNames, SupportRevocation: cd.Config.SupportRevocation, PublicKey: cd.PublicKey}
	if err := e.crypto.ProcessCredential(cred.Signature, cred.CorrectnessProof, meta.MasterSecretBlindingData, ms, pub, meta.Nonce); err != nil {
		return "", errcode.Crypto(err)
	}

	if credID == "" {
		credID = uuid.NewString()
	}
	cred.ID = credID
	// rev_reg/witness are recomputed from deltas on demand; never persisted.

	policy, err := e.loadTagPolicy(ctx, cred.CredDefID)
	if err != nil {
		return "", err
	}
	tags := tagsForCredential(cred, policy)

	env, err := record.Wrap(model.CurrentVersion, cred)
	if err != nil {
		return "", errcode.InvalidStructure("marshal credential: %v", err)
	}
	if err := e.store.Add(ctx, model.TypeCredential, credID, env, tags); err != nil {
		if trace.IsAlreadyExists(err) {
			return "", errcode.AlreadyExists("credential %q already exists", credID)
		}
		return "", errcode.Ledger(err)
	}
	return credID, nil
}

func (e *Engine) loadTagPolicy(ctx context.Context, credDefID string) (*model.CredentialAttrTagPolicy, error) {
	item, err := e.store.Get(ctx, model.TypeCredentialAttrTagPolicy, credDefID)
	if err != nil {
		return nil, nil
	}
	var policy model.CredentialAttrTagPolicy
	if err := item.Unwrap(&policy); err != nil {
		return nil, errcode.InvalidStructure("decode tag policy: %v", err)
	}
	return &policy, nil
}

// tagsForCredential builds the searchable tag set for a credential: by
// default both raw and CL-encoded values of every attribute, narrowed to
// policy.Attrs when a policy is set.
func tagsForCredential(cred model.Credential, policy *model.CredentialAttrTagPolicy) map[string]string {
	tags := map[string]string{
		"schema_id":   cred.SchemaID,
		"cred_def_id": cred.CredDefID,
	}
	if cred.RevRegID != nil {
		tags["rev_reg_id"] = *cred.RevRegID
	}
	var allow stringset.StringSet
	if policy != nil && policy.Attrs != nil {
		allow = stringset.New(policy.Attrs...)
	}
	for name, v := range cred.Values {
		if allow != nil && !allow.Contains(name) {
			continue
		}
		tags["attr::"+name+"::raw"] = v.Raw
		tags["attr::"+name+"::marker"] = "1"
		tags["attr::"+name+"::encoded"] = v.Encoded
	}
	return tags
}

// SetCredentialAttrTagPolicy implements operation 4.
func (e *Engine) SetCredentialAttrTagPolicy(ctx context.Context, credDefID string, policy *model.CredentialAttrTagPolicy, retroactive bool) error {
	if policy == nil {
		_ = e.store.Delete(ctx, model.TypeCredentialAttrTagPolicy, credDefID)
	} else {
		env, err := record.Wrap(model.CurrentVersion, *policy)
		if err != nil {
			return errcode.InvalidStructure("marshal tag policy: %v", err)
		}
		if getErr := e.store.Update(ctx, model.TypeCredentialAttrTagPolicy, credDefID, env, nil); getErr != nil {
			if err := e.store.Add(ctx, model.TypeCredentialAttrTagPolicy, credDefID, env, nil); err != nil {
				return errcode.Ledger(err)
			}
		}
	}

	if !retroactive {
		return nil
	}

	items, err := e.store.Search(ctx, model.TypeCredential, record.Eq{Key: "cred_def_id", Value: credDefID})
	if err != nil {
		return errcode.Ledger(err)
	}
	for _, item := range items {
		var cred model.Credential
		if err := item.Unwrap(&cred); err != nil {
			continue
		}
		tags := tagsForCredential(cred, policy)
		if err := e.store.Update(ctx, model.TypeCredential, item.ID, item.Envelope, tags); err != nil {
			return errcode.Ledger(err)
		}
	}
	return nil
}
