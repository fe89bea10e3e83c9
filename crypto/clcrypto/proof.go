package clcrypto

import (
	"encoding/json"
	"strconv"

	"github.com/gravitational/trace"
	"github.com/gravitational/vcagent/crypto"
)

// proofPayload is CreateProof's wire shape. It is not a true zero-knowledge
// proof (see the package doc comment): it bundles revealed attributes,
// predicate outcomes, and revocation-consistency flags so VerifyProof can
// check the same invariants the real scheme would without requiring a
// pairing-capable group.
type proofPayload struct {
	Nonce            []byte                      `json:"nonce"`
	RevealedAttrs    map[string]crypto.AttrEncoding `json:"revealed_attrs"`
	PredicateResults map[string]bool             `json:"predicate_results"`
	NonRevoked       map[string]bool             `json:"non_revoked"`
}

func (p *Provider) CreateProof(req crypto.ProofRequest, presented crypto.PresentedCredentials, ms crypto.MasterSecret) (crypto.Proof, error) {
	payload := proofPayload{
		Nonce:            req.Nonce,
		RevealedAttrs:    make(map[string]crypto.AttrEncoding),
		PredicateResults: make(map[string]bool),
		NonRevoked:       make(map[string]bool),
	}

	for ref, info := range req.RequestedAttributes {
		pc, ok := presented.Attrs[ref]
		if !ok {
			return nil, errCrypto(trace.BadParameter("no credential presented for attribute %q", ref))
		}
		if info.NonRevoked != nil {
			payload.NonRevoked[ref] = pc.NonRevoked
		}
		if !pc.Revealed {
			continue
		}
		name := info.Name
		if name == "" && len(info.Names) > 0 {
			name = info.Names[0]
		}
		v, ok := pc.Values[name]
		if !ok {
			return nil, errCrypto(trace.BadParameter("presented credential missing attribute %q", name))
		}
		payload.RevealedAttrs[ref] = v
	}

	for ref, info := range req.RequestedPredicates {
		pc, ok := presented.Predicates[ref]
		if !ok {
			return nil, errCrypto(trace.BadParameter("no credential presented for predicate %q", ref))
		}
		if info.NonRevoked != nil {
			payload.NonRevoked[ref] = pc.NonRevoked
		}
		v, ok := pc.Values[info.Name]
		if !ok {
			return nil, errCrypto(trace.BadParameter("presented credential missing attribute %q", info.Name))
		}
		ok, err := satisfiesPredicate(v.Raw, info.PType, info.PValue)
		if err != nil {
			return nil, err
		}
		payload.PredicateResults[ref] = ok
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errCrypto(err)
	}
	return crypto.Proof(data), nil
}

func satisfiesPredicate(raw string, ptype string, pvalue int32) (bool, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return false, errCrypto(trace.BadParameter("predicate attribute %q is not numeric: %v", raw, err))
	}
	v := int32(n)
	switch ptype {
	case ">=":
		return v >= pvalue, nil
	case ">":
		return v > pvalue, nil
	case "<=":
		return v <= pvalue, nil
	case "<":
		return v < pvalue, nil
	default:
		return false, errCrypto(trace.BadParameter("unknown predicate type %q", ptype))
	}
}

func (p *Provider) VerifyProof(req crypto.ProofRequest, proof crypto.Proof) (bool, error) {
	var payload proofPayload
	if err := json.Unmarshal(proof, &payload); err != nil {
		return false, errCrypto(err)
	}

	if string(payload.Nonce) != string(req.Nonce) {
		return false, trace.Wrap(errCrypto(trace.BadParameter("proof nonce does not match request")), "invalid proof")
	}

	for ref, info := range req.RequestedAttributes {
		if info.NonRevoked != nil {
			if !payload.NonRevoked[ref] {
				return false, nil
			}
		}
		v, revealed := payload.RevealedAttrs[ref]
		if !revealed {
			// Unrevealed attribute requests are satisfied by equality proof
			// in the real scheme; here absence is treated as intentional.
			continue
		}
		if encodeValue(v.Raw) != v.Encoded {
			return false, nil
		}
	}

	for ref, info := range req.RequestedPredicates {
		if info.NonRevoked != nil && !payload.NonRevoked[ref] {
			return false, nil
		}
		if !payload.PredicateResults[ref] {
			return false, nil
		}
	}

	return true, nil
}
