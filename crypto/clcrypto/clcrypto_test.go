package clcrypto

import (
	"testing"

	"github.com/gravitational/vcagent/crypto"
)

func TestNonceLengths(t *testing.T) {
	p := New()
	nonce, err := p.Nonce()
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	if len(nonce) != 32 {
		t.Fatalf("expected a 256-bit nonce, got %d bytes", len(nonce))
	}
	legacy, err := p.NonceLegacy()
	if err != nil {
		t.Fatalf("NonceLegacy: %v", err)
	}
	if len(legacy) != 10 {
		t.Fatalf("expected an 80-bit legacy nonce, got %d bytes", len(legacy))
	}
}

func TestNewCredentialDefinitionRejectsEmptyAttrs(t *testing.T) {
	p := New()
	if _, _, _, err := p.NewCredentialDefinition(nil, crypto.CredentialDefinitionConfig{}); err == nil {
		t.Fatal("expected an error for an empty attr_names list")
	}
}

func TestCredentialDefinitionCorrectnessProofVerifies(t *testing.T) {
	p := New()
	pub, _, corr, err := p.NewCredentialDefinition([]string{"name", "age"}, crypto.CredentialDefinitionConfig{})
	if err != nil {
		t.Fatalf("NewCredentialDefinition: %v", err)
	}
	X, err := p.unmarshalPublicKey(pub)
	if err != nil {
		t.Fatalf("unmarshalPublicKey: %v", err)
	}
	if err := p.verifyKnowledge(corr, X); err != nil {
		t.Fatalf("key correctness proof should verify: %v", err)
	}
}

// issueCredential is the shared scaffolding for the non-revocation
// issue -> process -> prove -> verify round trip below.
func issueCredential(t *testing.T, p *Provider, values crypto.CredentialValues) (crypto.ProofRequest, crypto.Proof) {
	t.Helper()

	pub, priv, _, err := p.NewCredentialDefinition([]string{"name", "age"}, crypto.CredentialDefinitionConfig{})
	if err != nil {
		t.Fatalf("NewCredentialDefinition: %v", err)
	}

	ms, err := p.NewMasterSecret()
	if err != nil {
		t.Fatalf("NewMasterSecret: %v", err)
	}
	offerNonce, err := p.Nonce()
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	blinded, blindingData, _, err := p.NewCredentialRequest(pub, ms, offerNonce)
	if err != nil {
		t.Fatalf("NewCredentialRequest: %v", err)
	}

	sig, corr, delta, err := p.NewCredential(pub, priv, offerNonce, blinded, values, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}
	if delta != nil {
		t.Fatal("expected no revocation delta for a non-revocable cred-def")
	}

	if err := p.ProcessCredential(sig, corr, blindingData, ms, pub, offerNonce); err != nil {
		t.Fatalf("ProcessCredential: %v", err)
	}

	reqNonce, err := p.Nonce()
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	req := crypto.ProofRequest{
		Nonce: reqNonce,
		RequestedAttributes: map[string]crypto.AttributeInfo{
			"name_ref": {Name: "name"},
		},
		RequestedPredicates: map[string]crypto.PredicateInfo{
			"age_ref": {Name: "age", PType: ">=", PValue: 18},
		},
	}
	presented := crypto.PresentedCredentials{
		Attrs: map[string]crypto.PresentedCredential{
			"name_ref": {CredID: "cred-1", Revealed: true, Values: values, NonRevoked: true},
		},
		Predicates: map[string]crypto.PresentedCredential{
			"age_ref": {CredID: "cred-1", Values: values, NonRevoked: true},
		},
	}
	proof, err := p.CreateProof(req, presented, ms)
	if err != nil {
		t.Fatalf("CreateProof: %v", err)
	}
	return req, proof
}

func TestIssueProcessProveVerifyRoundTrip(t *testing.T) {
	p := New()
	values := crypto.CredentialValues{
		"name": {Raw: "alice", Encoded: encodeValue("alice")},
		"age":  {Raw: "21", Encoded: encodeValue("21")},
	}
	req, proof := issueCredential(t, p, values)

	ok, err := p.VerifyProof(req, proof)
	if err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}
	if !ok {
		t.Fatal("expected a freshly issued credential's proof to verify")
	}
}

func TestVerifyProofFailsOnUnsatisfiedPredicate(t *testing.T) {
	p := New()
	values := crypto.CredentialValues{
		"name": {Raw: "bob", Encoded: encodeValue("bob")},
		"age":  {Raw: "12", Encoded: encodeValue("12")},
	}
	req, proof := issueCredential(t, p, values)

	ok, err := p.VerifyProof(req, proof)
	if err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}
	if ok {
		t.Fatal("expected a proof with an unsatisfied predicate (age>=18) to fail verification")
	}
}

func TestVerifyProofRejectsMismatchedNonce(t *testing.T) {
	p := New()
	values := crypto.CredentialValues{
		"name": {Raw: "alice", Encoded: encodeValue("alice")},
		"age":  {Raw: "21", Encoded: encodeValue("21")},
	}
	req, proof := issueCredential(t, p, values)

	otherNonce, err := p.Nonce()
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	req.Nonce = otherNonce
	if _, err := p.VerifyProof(req, proof); err == nil {
		t.Fatal("expected a nonce mismatch to be rejected")
	}
}

func TestProcessCredentialRejectsBadCorrectnessProof(t *testing.T) {
	p := New()
	pub, priv, _, err := p.NewCredentialDefinition([]string{"name"}, crypto.CredentialDefinitionConfig{})
	if err != nil {
		t.Fatalf("NewCredentialDefinition: %v", err)
	}
	ms, _ := p.NewMasterSecret()
	offerNonce, _ := p.Nonce()
	blinded, blindingData, _, err := p.NewCredentialRequest(pub, ms, offerNonce)
	if err != nil {
		t.Fatalf("NewCredentialRequest: %v", err)
	}
	values := crypto.CredentialValues{"name": {Raw: "alice", Encoded: encodeValue("alice")}}
	sig, corr, _, err := p.NewCredential(pub, priv, offerNonce, blinded, values, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewCredential: %v", err)
	}

	corrupt := append([]byte(nil), corr...)
	corrupt[0] ^= 0xFF
	if err := p.ProcessCredential(sig, corrupt, blindingData, ms, pub, offerNonce); err == nil {
		t.Fatal("expected a corrupted correctness proof to be rejected")
	}
}

func TestRevocationAccumulatorRevokeRecoverWitness(t *testing.T) {
	p := New()
	pub, _, _, err := p.NewCredentialDefinition([]string{"name"}, crypto.CredentialDefinitionConfig{})
	if err != nil {
		t.Fatalf("NewCredentialDefinition: %v", err)
	}
	_, regPub, _, gen, err := p.NewRevocationRegistry(pub, 10, false)
	if err != nil {
		t.Fatalf("NewRevocationRegistry: %v", err)
	}
	count := 0
	for {
		if _, ok := gen.Next(); !ok {
			break
		}
		count++
	}
	if count != 10 {
		t.Fatalf("expected 10 tails entries for max_cred_num=10, got %d", count)
	}

	idx := uint32(3)
	witness, err := p.WitnessNew(idx, 10, false, crypto.RevocationDelta{Accum: regPub.Accum}, nil)
	if err != nil {
		t.Fatalf("WitnessNew: %v", err)
	}

	delta, err := p.Revoke(&regPub, 10, idx, nil)
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if len(delta.Revoked) != 1 || delta.Revoked[0] != idx {
		t.Fatalf("unexpected revoke delta: %+v", delta)
	}

	witness, err = p.WitnessUpdate(witness, 10, delta, nil)
	if err != nil {
		t.Fatalf("WitnessUpdate: %v", err)
	}
	if string(witness.Accum) != string(regPub.Accum) {
		t.Fatal("expected the witness to track the registry's post-revoke accumulator")
	}

	recoverDelta, err := p.Recover(&regPub, 10, idx, nil)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if len(recoverDelta.Issued) != 1 || recoverDelta.Issued[0] != idx {
		t.Fatalf("unexpected recover delta: %+v", recoverDelta)
	}
}

func TestMergeDelta(t *testing.T) {
	p := New()
	a := crypto.RevocationDelta{Issued: []uint32{1, 2}, Accum: []byte("a")}
	b := crypto.RevocationDelta{Revoked: []uint32{2}, Accum: []byte("b")}
	merged, err := p.MergeDelta(a, b)
	if err != nil {
		t.Fatalf("MergeDelta: %v", err)
	}
	if len(merged.Issued) != 2 || len(merged.Revoked) != 1 {
		t.Fatalf("unexpected merged delta: %+v", merged)
	}
	if string(merged.Accum) != "b" {
		t.Fatalf("expected the later delta's accum to win, got %q", merged.Accum)
	}
}
