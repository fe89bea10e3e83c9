// Package envelope implements A2AEnvelope: authenticated/anonymous
// message packing over two wire-format families selected by a
// process-wide ProtocolType (spec §4.6).
package envelope

// ProtocolType selects the wire format A2AEnvelope packs/unpacks.
type ProtocolType int

const (
	V1 ProtocolType = iota
	V2
)

// Codec is the A2AEnvelope contract. The shipped implementations (v1Codec,
// v2Codec) are selected by ProtocolType; callers never construct them
// directly, only through New.
type Codec interface {
	// PrepareAuth packs msgs as an authcrypt envelope from senderVK to
	// recipientVK.
	PrepareAuth(senderPriv, senderVK, recipientVK []byte, msgs [][]byte) ([]byte, error)
	// PrepareAnon packs msgs as an anoncrypt envelope to recipientVK.
	PrepareAnon(recipientVK []byte, msgs [][]byte) ([]byte, error)
	// ParseAnon unpacks an anoncrypt envelope addressed to recipient's keypair.
	ParseAnon(recipientPriv, recipientVK []byte, data []byte) ([][]byte, error)
	// ParseAuth unpacks an authcrypt envelope, returning the sender's
	// verkey alongside the messages.
	ParseAuth(recipientPriv, recipientVK []byte, data []byte) (senderVK []byte, msgs [][]byte, error)
}

// New returns the Codec for protocol.
func New(protocol ProtocolType) Codec {
	switch protocol {
	case V2:
		return v2Codec{}
	default:
		return v1Codec{}
	}
}
