package issuer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/crypto/clcrypto"
	"github.com/gravitational/vcagent/ledger"
	"github.com/gravitational/vcagent/lib/errcode"
	"github.com/gravitational/vcagent/model"
	"github.com/gravitational/vcagent/record"
	"github.com/gravitational/vcagent/tails"
)

const testIssuerDID = "did:example:issuer"

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(clcrypto.New(), record.NewMemStore(), ledger.NewFakeClient("1.0.0"), tails.New(t.TempDir()))
}

// requestCredential mimics the holder-side half of operations 1-2 using the
// crypto.Provider directly, so issuer tests can exercise NewCredential
// without depending on the holder package.
func requestCredential(t *testing.T, cp crypto.Provider, offer model.CredentialOffer, pub crypto.CredentialDefinitionPublic) (model.CredentialRequest, crypto.MasterSecret, crypto.MasterSecretBlindingData) {
	t.Helper()
	ms, err := cp.NewMasterSecret()
	if err != nil {
		t.Fatalf("NewMasterSecret: %v", err)
	}
	blinded, blindingData, _, err := cp.NewCredentialRequest(pub, ms, offer.Nonce)
	if err != nil {
		t.Fatalf("NewCredentialRequest: %v", err)
	}
	req := model.CredentialRequest{
		ProverDID: "did:example:holder",
		CredDefID: offer.CredDefID,
		BlindedMS: blinded,
		Nonce:     offer.Nonce,
	}
	return req, ms, blindingData
}

func TestCreateSchemaRejectsEmptyAndDuplicateAttrs(t *testing.T) {
	e := newTestEngine(t)
	if _, _, err := e.CreateSchema(testIssuerDID, "license", "1.0", nil); err == nil {
		t.Fatal("expected an error for an empty attr_names list")
	}
	if _, _, err := e.CreateSchema(testIssuerDID, "license", "1.0", []string{"name", "name"}); err == nil {
		t.Fatal("expected an error for duplicate attr_names")
	}
}

func TestCreateAndStoreCredentialDefinitionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	schemaID, schemaJSON, err := e.CreateSchema(testIssuerDID, "license", "1.0", []string{"name", "age"})
	if err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	var schema model.Schema
	mustUnmarshal(t, schemaJSON, &schema)
	if schema.ID != schemaID {
		t.Fatalf("schema id mismatch: %q vs %q", schema.ID, schemaID)
	}

	id1, data1, err := e.CreateAndStoreCredentialDefinition(ctx, testIssuerDID, schema, "default", model.CredentialDefinitionConfig{})
	if err != nil {
		t.Fatalf("CreateAndStoreCredentialDefinition: %v", err)
	}
	id2, data2, err := e.CreateAndStoreCredentialDefinition(ctx, testIssuerDID, schema, "default", model.CredentialDefinitionConfig{})
	if err != nil {
		t.Fatalf("repeat CreateAndStoreCredentialDefinition: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected a stable cred-def id, got %q vs %q", id1, id2)
	}
	if string(data1) != string(data2) {
		t.Fatal("expected a repeat call to return the already-stored cred-def unchanged")
	}
}

func TestIssueCredentialWithoutRevocation(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	cp := e.crypto

	_, schemaJSON, err := e.CreateSchema(testIssuerDID, "license", "1.0", []string{"name", "age"})
	if err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	var schema model.Schema
	mustUnmarshal(t, schemaJSON, &schema)

	credDefID, _, err := e.CreateAndStoreCredentialDefinition(ctx, testIssuerDID, schema, "default", model.CredentialDefinitionConfig{})
	if err != nil {
		t.Fatalf("CreateAndStoreCredentialDefinition: %v", err)
	}

	offerJSON, err := e.CreateCredentialOffer(ctx, credDefID)
	if err != nil {
		t.Fatalf("CreateCredentialOffer: %v", err)
	}
	var offer model.CredentialOffer
	mustUnmarshal(t, offerJSON, &offer)

	cdItem, err := e.store.Get(ctx, model.TypeCredentialDefinition, credDefID)
	if err != nil {
		t.Fatalf("load cred-def: %v", err)
	}
	var cd model.CredentialDefinition
	if err := cdItem.Unwrap(&cd); err != nil {
		t.Fatalf("unwrap cred-def: %v", err)
	}
	pub := crypto.CredentialDefinitionPublic{AttrNames: cd.AttrNames, SupportRevocation: cd.Config.SupportRevocation, PublicKey: cd.PublicKey}

	req, ms, blindingData := requestCredential(t, cp, offer, pub)

	values := map[string]crypto.AttrEncoding{
		"name": {Raw: "alice", Encoded: "1"},
		"age":  {Raw: "30", Encoded: "2"},
	}
	credJSON, credRevID, deltaJSON, err := e.NewCredential(ctx, offer, req, values, "")
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}
	if credRevID != "" || deltaJSON != nil {
		t.Fatalf("expected no revocation bookkeeping for a non-revocable cred-def, got credRevID=%q delta=%s", credRevID, deltaJSON)
	}

	var cred model.Credential
	mustUnmarshal(t, credJSON, &cred)
	if cred.Values["name"].Raw != "alice" {
		t.Fatalf("unexpected issued credential values: %+v", cred.Values)
	}

	meta := crypto.MasterSecretBlindingData(blindingData)
	if err := cp.ProcessCredential(cred.Signature, cred.CorrectnessProof, meta, ms, pub, offer.Nonce); err != nil {
		t.Fatalf("holder-side ProcessCredential should accept the issued credential: %v", err)
	}
}

func TestIssueRevokeRecoverCredential(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, schemaJSON, _ := e.CreateSchema(testIssuerDID, "badge", "1.0", []string{"level"})
	var schema model.Schema
	mustUnmarshal(t, schemaJSON, &schema)

	credDefID, _, err := e.CreateAndStoreCredentialDefinition(ctx, testIssuerDID, schema, "default", model.CredentialDefinitionConfig{SupportRevocation: true})
	if err != nil {
		t.Fatalf("CreateAndStoreCredentialDefinition: %v", err)
	}

	revRegID, _, _, err := e.CreateAndStoreRevocationRegistry(ctx, testIssuerDID, credDefID, "default", model.RevocationRegistryConfig{MaxCredNum: 2, IssuanceType: model.IssuanceOnDemand})
	if err != nil {
		t.Fatalf("CreateAndStoreRevocationRegistry: %v", err)
	}

	offerJSON, err := e.CreateCredentialOffer(ctx, credDefID)
	if err != nil {
		t.Fatalf("CreateCredentialOffer: %v", err)
	}
	var offer model.CredentialOffer
	mustUnmarshal(t, offerJSON, &offer)

	cdItem, _ := e.store.Get(ctx, model.TypeCredentialDefinition, credDefID)
	var cd model.CredentialDefinition
	cdItem.Unwrap(&cd)
	pub := crypto.CredentialDefinitionPublic{AttrNames: cd.AttrNames, SupportRevocation: true, PublicKey: cd.PublicKey}
	req, _, _ := requestCredential(t, e.crypto, offer, pub)

	values := map[string]crypto.AttrEncoding{"level": {Raw: "gold", Encoded: "9"}}
	_, credRevID, deltaJSON, err := e.NewCredential(ctx, offer, req, values, revRegID)
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}
	if credRevID != "1" {
		t.Fatalf("expected the first issued index to be 1, got %q", credRevID)
	}
	if len(deltaJSON) == 0 {
		t.Fatal("expected a non-empty revocation delta for a revocation-enabled issuance")
	}

	if _, err := e.RevokeCredential(ctx, revRegID, credRevID); err != nil {
		t.Fatalf("RevokeCredential: %v", err)
	}
	// Revoking the same index twice is invalid: it is no longer in used_ids.
	if _, err := e.RevokeCredential(ctx, revRegID, credRevID); err == nil {
		t.Fatal("expected revoking an already-revoked index to fail")
	}

	if _, err := e.RecoverCredential(ctx, revRegID, credRevID); err != nil {
		t.Fatalf("RecoverCredential: %v", err)
	}
}

func TestRevocationRegistryFullRejectsIssuanceBeyondMax(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, schemaJSON, _ := e.CreateSchema(testIssuerDID, "badge", "1.0", []string{"level"})
	var schema model.Schema
	mustUnmarshal(t, schemaJSON, &schema)
	credDefID, _, err := e.CreateAndStoreCredentialDefinition(ctx, testIssuerDID, schema, "default", model.CredentialDefinitionConfig{SupportRevocation: true})
	if err != nil {
		t.Fatalf("CreateAndStoreCredentialDefinition: %v", err)
	}
	revRegID, _, _, err := e.CreateAndStoreRevocationRegistry(ctx, testIssuerDID, credDefID, "default", model.RevocationRegistryConfig{MaxCredNum: 1, IssuanceType: model.IssuanceOnDemand})
	if err != nil {
		t.Fatalf("CreateAndStoreRevocationRegistry: %v", err)
	}

	offerJSON, _ := e.CreateCredentialOffer(ctx, credDefID)
	var offer model.CredentialOffer
	mustUnmarshal(t, offerJSON, &offer)
	cdItem, _ := e.store.Get(ctx, model.TypeCredentialDefinition, credDefID)
	var cd model.CredentialDefinition
	cdItem.Unwrap(&cd)
	pub := crypto.CredentialDefinitionPublic{AttrNames: cd.AttrNames, SupportRevocation: true, PublicKey: cd.PublicKey}
	values := map[string]crypto.AttrEncoding{"level": {Raw: "gold", Encoded: "9"}}

	req1, _, _ := requestCredential(t, e.crypto, offer, pub)
	if _, _, _, err := e.NewCredential(ctx, offer, req1, values, revRegID); err != nil {
		t.Fatalf("first NewCredential: %v", err)
	}

	req2, _, _ := requestCredential(t, e.crypto, offer, pub)
	if _, _, _, err := e.NewCredential(ctx, offer, req2, values, revRegID); !errcode.Is(err, errcode.CodeRevocationRegistryFull) {
		t.Fatalf("expected CodeRevocationRegistryFull once max_cred_num is exhausted, got %v", err)
	}
}

func TestRotateCredentialDefinitionStartApply(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	_, schemaJSON, _ := e.CreateSchema(testIssuerDID, "badge", "1.0", []string{"level"})
	var schema model.Schema
	mustUnmarshal(t, schemaJSON, &schema)
	credDefID, origData, err := e.CreateAndStoreCredentialDefinition(ctx, testIssuerDID, schema, "default", model.CredentialDefinitionConfig{})
	if err != nil {
		t.Fatalf("CreateAndStoreCredentialDefinition: %v", err)
	}

	tempJSON, err := e.RotateCredentialDefinitionStart(ctx, credDefID, schema.AttrNames, model.CredentialDefinitionConfig{})
	if err != nil {
		t.Fatalf("RotateCredentialDefinitionStart: %v", err)
	}
	// Idempotent: a second call returns the same pending temporary.
	tempJSON2, err := e.RotateCredentialDefinitionStart(ctx, credDefID, schema.AttrNames, model.CredentialDefinitionConfig{})
	if err != nil {
		t.Fatalf("repeat RotateCredentialDefinitionStart: %v", err)
	}
	if string(tempJSON) != string(tempJSON2) {
		t.Fatal("expected RotateCredentialDefinitionStart to be idempotent while a rotation is pending")
	}

	if err := e.RotateCredentialDefinitionApply(ctx, credDefID); err != nil {
		t.Fatalf("RotateCredentialDefinitionApply: %v", err)
	}

	item, err := e.store.Get(ctx, model.TypeCredentialDefinition, credDefID)
	if err != nil {
		t.Fatalf("Get rotated cred-def: %v", err)
	}
	var rotated model.CredentialDefinition
	item.Unwrap(&rotated)
	if string(rotated.PublicKey) == "" {
		t.Fatal("expected a public key on the rotated cred-def")
	}
	var orig model.CredentialDefinition
	mustUnmarshal(t, origData, &orig)
	if string(rotated.PublicKey) == string(orig.PublicKey) {
		t.Fatal("expected rotation to install a new public key")
	}

	// Applying again with nothing pending must fail.
	if err := e.RotateCredentialDefinitionApply(ctx, credDefID); !errcode.Is(err, errcode.CodeNotFound) {
		t.Fatalf("expected NotFound applying a rotation with nothing pending, got %v", err)
	}
}

func mustUnmarshal(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
}
