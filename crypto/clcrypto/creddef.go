package clcrypto

import (
	"github.com/gravitational/trace"
	"github.com/gravitational/vcagent/crypto"
	"go.dedis.ch/kyber/v3"
)

// reservedMasterSecretAttr and reservedPolicyAttr are the two attributes
// spec.md §4.1 says every cred-def keypair covers beyond the caller's own
// attribute set: the master-secret binding slot and a policy-address slot
// used by CredentialAttrTagPolicy bookkeeping.
const (
	reservedMasterSecretAttr = "master_secret"
	reservedPolicyAttr       = "policy_address"
)

func (p *Provider) NewCredentialDefinition(attrNames []string, cfg crypto.CredentialDefinitionConfig) (crypto.CredentialDefinitionPublic, crypto.CredentialDefinitionPrivate, crypto.KeyCorrectnessProof, error) {
	if len(attrNames) == 0 {
		return crypto.CredentialDefinitionPublic{}, crypto.CredentialDefinitionPrivate{}, nil, errCrypto(trace.BadParameter("attr_names must not be empty"))
	}

	x := p.randomScalar()
	X := p.suite.Point().Mul(x, nil)

	xBytes, err := x.MarshalBinary()
	if err != nil {
		return crypto.CredentialDefinitionPublic{}, crypto.CredentialDefinitionPrivate{}, nil, errCrypto(err)
	}
	XBytes, err := X.MarshalBinary()
	if err != nil {
		return crypto.CredentialDefinitionPublic{}, crypto.CredentialDefinitionPrivate{}, nil, errCrypto(err)
	}

	pub := crypto.CredentialDefinitionPublic{
		AttrNames:         append([]string{reservedMasterSecretAttr, reservedPolicyAttr}, attrNames...),
		SupportRevocation: cfg.SupportRevocation,
		PublicKey:         XBytes,
	}
	priv := crypto.CredentialDefinitionPrivate{SecretKey: xBytes}

	corr, err := p.proveKnowledge(x, X)
	if err != nil {
		return crypto.CredentialDefinitionPublic{}, crypto.CredentialDefinitionPrivate{}, nil, err
	}
	return pub, priv, corr, nil
}

// proveKnowledge is a Schnorr proof of knowledge of x such that X = x*G,
// serving as the KeyCorrectnessProof a holder checks before trusting a
// cred-def's public key, and as the SignatureCorrectnessProof a holder
// checks before trusting an issued signature.
func (p *Provider) proveKnowledge(x kyber.Scalar, X kyber.Point) ([]byte, error) {
	k := p.randomScalar()
	R := p.suite.Point().Mul(k, nil)
	c := p.hashPoints(R, X)
	s := p.suite.Scalar().Add(k, p.suite.Scalar().Mul(c, x))

	Rb, err := R.MarshalBinary()
	if err != nil {
		return nil, errCrypto(err)
	}
	sb, err := s.MarshalBinary()
	if err != nil {
		return nil, errCrypto(err)
	}
	return append(Rb, sb...), nil
}

// verifyKnowledge checks a proveKnowledge proof against public point X.
func (p *Provider) verifyKnowledge(proof []byte, X kyber.Point) error {
	pointLen := p.suite.Point().MarshalSize()
	if len(proof) < pointLen {
		return trace.BadParameter("correctness proof too short")
	}
	R := p.suite.Point()
	if err := R.UnmarshalBinary(proof[:pointLen]); err != nil {
		return errCrypto(err)
	}
	s := p.suite.Scalar()
	if err := s.UnmarshalBinary(proof[pointLen:]); err != nil {
		return errCrypto(err)
	}
	c := p.hashPoints(R, X)
	// Check s*G == R + c*X
	lhs := p.suite.Point().Mul(s, nil)
	rhs := p.suite.Point().Add(R, p.suite.Point().Mul(c, X))
	if !lhs.Equal(rhs) {
		return trace.BadParameter("correctness proof does not verify")
	}
	return nil
}

func (p *Provider) hashPoints(points ...kyber.Point) kyber.Scalar {
	h := p.suite.Hash()
	for _, pt := range points {
		b, _ := pt.MarshalBinary()
		h.Write(b)
	}
	return p.suite.Scalar().SetBytes(h.Sum(nil))
}
