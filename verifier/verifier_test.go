package verifier

import (
	"strconv"
	"testing"

	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/crypto/clcrypto"
)

// issuedProof builds a minimal issue -> request -> sign -> prove chain
// using the real clcrypto provider, exercising VerifyProof against an
// actually-issued credential rather than a hand-built payload.
func issuedProof(t *testing.T, predicateValue, minimum int32) (crypto.ProofRequest, crypto.Proof) {
	t.Helper()
	cp := clcrypto.New()

	pub, priv, _, err := cp.NewCredentialDefinition([]string{"age"}, crypto.CredentialDefinitionConfig{})
	if err != nil {
		t.Fatalf("NewCredentialDefinition: %v", err)
	}
	ms, err := cp.NewMasterSecret()
	if err != nil {
		t.Fatalf("NewMasterSecret: %v", err)
	}
	offerNonce, err := cp.Nonce()
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	blinded, _, _, err := cp.NewCredentialRequest(pub, ms, offerNonce)
	if err != nil {
		t.Fatalf("NewCredentialRequest: %v", err)
	}
	raw := strconv.Itoa(int(predicateValue))
	values := crypto.CredentialValues{
		"age": {Raw: raw, Encoded: raw},
	}
	if _, _, _, err := cp.NewCredential(pub, priv, offerNonce, blinded, values, nil, nil, nil, nil); err != nil {
		t.Fatalf("NewCredential: %v", err)
	}

	reqNonce, err := cp.Nonce()
	if err != nil {
		t.Fatalf("Nonce: %v", err)
	}
	req := crypto.ProofRequest{
		Nonce: reqNonce,
		RequestedPredicates: map[string]crypto.PredicateInfo{
			"age_ref": {Name: "age", PType: ">=", PValue: minimum},
		},
	}
	presented := crypto.PresentedCredentials{
		Predicates: map[string]crypto.PresentedCredential{
			"age_ref": {CredID: "cred-1", Values: values, NonRevoked: true},
		},
	}
	proof, err := cp.CreateProof(req, presented, ms)
	if err != nil {
		t.Fatalf("CreateProof: %v", err)
	}
	return req, proof
}

func TestVerifyProofAcceptsSatisfiedPredicate(t *testing.T) {
	e := New(clcrypto.New())
	req, proof := issuedProof(t, 21, 18)
	ok, err := e.VerifyProof(req, proof)
	if err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}
	if !ok {
		t.Fatal("expected a satisfied predicate (21>=18) to verify")
	}
}

func TestVerifyProofRejectsUnsatisfiedPredicate(t *testing.T) {
	e := New(clcrypto.New())
	req, proof := issuedProof(t, 12, 18)
	ok, err := e.VerifyProof(req, proof)
	if err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}
	if ok {
		t.Fatal("expected an unsatisfied predicate (12>=18) to fail verification")
	}
}

func TestVerifyProofRejectsMalformedProof(t *testing.T) {
	e := New(clcrypto.New())
	req := crypto.ProofRequest{Nonce: []byte("n")}
	if _, err := e.VerifyProof(req, crypto.Proof("not json")); err == nil {
		t.Fatal("expected a structural error for a malformed proof payload")
	}
}
