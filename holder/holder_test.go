package holder

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/crypto/clcrypto"
	"github.com/gravitational/vcagent/issuer"
	"github.com/gravitational/vcagent/ledger"
	"github.com/gravitational/vcagent/lib/errcode"
	"github.com/gravitational/vcagent/model"
	"github.com/gravitational/vcagent/record"
	"github.com/gravitational/vcagent/tails"
)

const (
	testIssuerDID = "did:example:issuer"
	testHolderDID = "did:example:holder"
)

// testRig wires a real issuer.Engine and holder.Engine against a shared
// crypto.Provider, tails.Service and record.Store pair, so the holder
// tests below exercise the same issue -> request -> store -> prove path a
// real agent pair would.
type testRig struct {
	cp           crypto.Provider
	issuerEngine *issuer.Engine
	holderEngine *Engine
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	cp := clcrypto.New()
	ts := tails.New(t.TempDir())
	issuerStore := record.NewMemStore()
	holderStore := record.NewMemStore()
	return &testRig{
		cp:           cp,
		issuerEngine: issuer.New(cp, issuerStore, ledger.NewFakeClient("1.0.0"), ts),
		holderEngine: New(cp, holderStore, ts),
	}
}

// issueAndStoreCredential runs a full non-revocation issuance and stores
// the result in the holder engine, returning the stored credential id and
// the cred-def used, for tests to build proof requests against. attrs
// maps attribute name to its raw value; the CL-commitment encoding is a
// small fixed numeric placeholder since encodeValue is clcrypto-private.
func (rig *testRig) issueAndStoreCredential(t *testing.T, ctx context.Context, attrs map[string]string) (credID string, cd model.CredentialDefinition) {
	t.Helper()

	values := make(map[string]crypto.AttrEncoding, len(attrs))
	i := 1
	for k, v := range attrs {
		values[k] = crypto.AttrEncoding{Raw: v, Encoded: strconv.Itoa(i)}
		i++
	}

	_, schemaJSON, err := rig.issuerEngine.CreateSchema(testIssuerDID, "license", "1.0", keysOf(attrs))
	if err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	var schema model.Schema
	json.Unmarshal(schemaJSON, &schema)

	credDefID, cdJSON, err := rig.issuerEngine.CreateAndStoreCredentialDefinition(ctx, testIssuerDID, schema, "default", model.CredentialDefinitionConfig{})
	if err != nil {
		t.Fatalf("CreateAndStoreCredentialDefinition: %v", err)
	}
	json.Unmarshal(cdJSON, &cd)

	msName, err := rig.holderEngine.CreateMasterSecret(ctx, "")
	if err != nil {
		t.Fatalf("CreateMasterSecret: %v", err)
	}

	offerJSON, err := rig.issuerEngine.CreateCredentialOffer(ctx, credDefID)
	if err != nil {
		t.Fatalf("CreateCredentialOffer: %v", err)
	}
	var offer model.CredentialOffer
	json.Unmarshal(offerJSON, &offer)

	req, meta, err := rig.holderEngine.CreateCredentialRequest(ctx, testHolderDID, offer, cd, msName)
	if err != nil {
		t.Fatalf("CreateCredentialRequest: %v", err)
	}

	credJSON, _, _, err := rig.issuerEngine.NewCredential(ctx, offer, req, values, "")
	if err != nil {
		t.Fatalf("issuer.NewCredential: %v", err)
	}
	var cred model.Credential
	json.Unmarshal(credJSON, &cred)

	credID, err = rig.holderEngine.StoreCredential(ctx, "", meta, cred, cd)
	if err != nil {
		t.Fatalf("StoreCredential: %v", err)
	}
	return credID, cd
}

func keysOf(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestCreateMasterSecretRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	if _, err := rig.holderEngine.CreateMasterSecret(ctx, "primary"); err != nil {
		t.Fatalf("CreateMasterSecret: %v", err)
	}
	if _, err := rig.holderEngine.CreateMasterSecret(ctx, "primary"); !errcode.Is(err, errcode.CodeAlreadyExists) {
		t.Fatalf("expected AlreadyExists for a duplicate master secret name, got %v", err)
	}
}

func TestCreateCredentialRequestRejectsInvalidDID(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	msName, _ := rig.holderEngine.CreateMasterSecret(ctx, "")
	offer := model.CredentialOffer{Nonce: []byte("x")}
	cd := model.CredentialDefinition{}
	if _, _, err := rig.holderEngine.CreateCredentialRequest(ctx, "not-a-did", offer, cd, msName); !errcode.Is(err, errcode.CodeInvalidStructure) {
		t.Fatalf("expected InvalidStructure for a malformed prover DID, got %v", err)
	}
}

func TestIssueRequestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	credID, _ := rig.issueAndStoreCredential(t, ctx, map[string]string{"name": "alice", "age": "30"})

	item, err := rig.holderEngine.store.Get(ctx, model.TypeCredential, credID)
	if err != nil {
		t.Fatalf("stored credential not found: %v", err)
	}
	var cred model.Credential
	if err := item.Unwrap(&cred); err != nil {
		t.Fatalf("Unwrap: %v", err)
	}
	if cred.Values["name"].Raw != "alice" {
		t.Fatalf("unexpected stored credential values: %+v", cred.Values)
	}
}

func TestStoreCredentialRejectsBadCorrectnessProofWithoutWriting(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)

	_, schemaJSON, _ := rig.issuerEngine.CreateSchema(testIssuerDID, "license", "1.0", []string{"name"})
	var schema model.Schema
	json.Unmarshal(schemaJSON, &schema)
	credDefID, cdJSON, err := rig.issuerEngine.CreateAndStoreCredentialDefinition(ctx, testIssuerDID, schema, "default", model.CredentialDefinitionConfig{})
	if err != nil {
		t.Fatalf("CreateAndStoreCredentialDefinition: %v", err)
	}
	var cd model.CredentialDefinition
	json.Unmarshal(cdJSON, &cd)

	msName, _ := rig.holderEngine.CreateMasterSecret(ctx, "")
	offerJSON, _ := rig.issuerEngine.CreateCredentialOffer(ctx, credDefID)
	var offer model.CredentialOffer
	json.Unmarshal(offerJSON, &offer)

	req, meta, err := rig.holderEngine.CreateCredentialRequest(ctx, testHolderDID, offer, cd, msName)
	if err != nil {
		t.Fatalf("CreateCredentialRequest: %v", err)
	}
	values := map[string]crypto.AttrEncoding{"name": {Raw: "alice", Encoded: "1"}}
	credJSON, _, _, err := rig.issuerEngine.NewCredential(ctx, offer, req, values, "")
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}
	var cred model.Credential
	json.Unmarshal(credJSON, &cred)
	cred.CorrectnessProof[0] ^= 0xFF // corrupt the issuer's correctness proof

	if _, err := rig.holderEngine.StoreCredential(ctx, "", meta, cred, cd); !errcode.Is(err, errcode.CodeCrypto) {
		t.Fatalf("expected a crypto error for a corrupted correctness proof, got %v", err)
	}
	items, err := rig.holderEngine.store.Search(ctx, model.TypeCredential, record.All)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no credential to be persisted after a failed ProcessCredential, got %d", len(items))
	}
}

func TestCreateProofRevealsRequestedAttribute(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	credID, _ := rig.issueAndStoreCredential(t, ctx, map[string]string{"name": "alice", "age": "30"})

	nonce, err := rig.cp.Nonce()
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	proofReq := crypto.ProofRequest{
		Nonce: nonce,
		RequestedAttributes: map[string]crypto.AttributeInfo{
			"name_ref": {Name: "name"},
		},
	}
	requested := RequestedCredentials{
		Attrs: map[string]RequestedCredential{
			"name_ref": {CredID: credID, Revealed: true},
		},
	}

	items, err := rig.holderEngine.store.Search(ctx, model.TypeMasterSecret, record.All)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected exactly one master secret, got %d, %v", len(items), err)
	}
	msName := items[0].ID

	proof, err := rig.holderEngine.CreateProof(ctx, proofReq, requested, msName, nil)
	if err != nil {
		t.Fatalf("CreateProof: %v", err)
	}
	if len(proof) == 0 {
		t.Fatal("expected a non-empty proof")
	}
	if !bytes.Contains(proof, []byte(`"alice"`)) {
		t.Fatalf("expected the revealed name to appear in the proof, got %s", proof)
	}
}

func TestSetCredentialAttrTagPolicyRetroactiveRetagsExistingCredentials(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	_, cd := rig.issueAndStoreCredential(t, ctx, map[string]string{"name": "alice", "age": "30"})

	policy := &model.CredentialAttrTagPolicy{CredDefID: cd.ID, Attrs: []string{"name"}}
	if err := rig.holderEngine.SetCredentialAttrTagPolicy(ctx, cd.ID, policy, true); err != nil {
		t.Fatalf("SetCredentialAttrTagPolicy: %v", err)
	}

	items, err := rig.holderEngine.store.Search(ctx, model.TypeCredential, record.Eq{Key: "attr::age::marker", Value: "1"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 0 {
		t.Fatal("expected the retroactive policy to have stripped the age tag")
	}
	items, err = rig.holderEngine.store.Search(ctx, model.TypeCredential, record.Eq{Key: "attr::name::marker", Value: "1"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 1 {
		t.Fatal("expected the name tag to remain after retagging")
	}
}

func TestDeleteCredentialRemovesRecord(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	credID, _ := rig.issueAndStoreCredential(t, ctx, map[string]string{"name": "alice"})

	if err := rig.holderEngine.DeleteCredential(ctx, credID); err != nil {
		t.Fatalf("DeleteCredential: %v", err)
	}
	if _, err := rig.holderEngine.store.Get(ctx, model.TypeCredential, credID); err == nil {
		t.Fatal("expected the credential to be gone after DeleteCredential")
	}
}
