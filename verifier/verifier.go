// Package verifier implements VerifierEngine: the single verify_proof
// pipeline (spec §4.5).
package verifier

import (
	"github.com/gravitational/vcagent/crypto"
	"github.com/gravitational/vcagent/lib/errcode"
)

// Engine is the VerifierEngine. It depends only on crypto.Provider.
type Engine struct {
	crypto crypto.Provider
}

// New builds an Engine.
func New(cp crypto.Provider) *Engine {
	return &Engine{crypto: cp}
}

// VerifyProof checks proof against req. A well-formed-but-invalid proof
// returns (false, nil); only structural problems return a non-nil error,
// per spec §4.5/§7.
func (e *Engine) VerifyProof(req crypto.ProofRequest, proof crypto.Proof) (bool, error) {
	ok, err := e.crypto.VerifyProof(req, proof)
	if err != nil {
		if errcode.Is(err, errcode.CodeInvalidProof) || errcode.Is(err, errcode.CodeInvalidStructure) {
			return false, err
		}
		return false, errcode.InvalidProof("proof verification failed: %v", err)
	}
	return ok, nil
}
