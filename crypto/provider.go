// Package crypto defines the CryptoProvider contract: the pure, stateless
// CL-signature/accumulator/nonce service every engine calls into for its
// heavy primitives. The shipped implementation lives in crypto/clcrypto.
package crypto

// MasterSecret is a holder-private scalar blinded into every credential
// request, serialized opaquely to its owning package.
type MasterSecret []byte

// CredentialDefinitionConfig controls cred-def creation.
type CredentialDefinitionConfig struct {
	SupportRevocation bool
}

// CredentialDefinitionPublic is the published half of a cred-def keypair.
type CredentialDefinitionPublic struct {
	AttrNames         []string
	SupportRevocation bool
	PublicKey         []byte
}

// CredentialDefinitionPrivate is the issuer-only half; never transmitted.
type CredentialDefinitionPrivate struct {
	SecretKey []byte
}

// KeyCorrectnessProof lets a holder check a cred-def's public key was built
// honestly, without trusting the issuer's word for it.
type KeyCorrectnessProof []byte

// Nonce is a cryptographically random challenge value. Byte length varies:
// legacy (<=80 bit) vs modern (256 bit) paths both exist per spec §9's open
// question; NonceLegacy and Nonce below expose both.
type Nonce []byte

// AttrEncoding is a credential attribute's raw/encoded pair: Raw is the
// human value, Encoded is its canonical big-integer-as-decimal-string
// encoding used inside the CL commitment.
type AttrEncoding struct {
	Raw     string
	Encoded string
}

// CredentialValues maps attribute name to its raw/encoded pair.
type CredentialValues map[string]AttrEncoding

// BlindedMasterSecret is a holder's hidden commitment to its master secret,
// sent to the issuer inside a CredentialRequest.
type BlindedMasterSecret []byte

// MasterSecretBlindingData is the holder-private opening of a
// BlindedMasterSecret, needed later to unblind the issued signature.
type MasterSecretBlindingData []byte

// CredentialSignature is the issuer's signature over a credential's
// attribute commitment (and, when revocation-enabled, its accumulator
// membership).
type CredentialSignature []byte

// SignatureCorrectnessProof lets a holder verify the issuer signed
// honestly against the published public key, without a trusted channel.
type SignatureCorrectnessProof []byte

// RevocationDelta is an accumulator update: the set of indices issued or
// revoked since the previous published state.
type RevocationDelta struct {
	Issued  []uint32
	Revoked []uint32
	Accum   []byte
}

// RevocationRegistryPublic is the published accumulator state.
type RevocationRegistryPublic struct {
	Accum []byte
}

// RevocationRegistryPrivate is the issuer-only accumulator trapdoor.
type RevocationRegistryPrivate []byte

// RevocationKeyPublic is the published revocation keypair half.
type RevocationKeyPublic []byte

// Witness is a holder-private proof fragment that a specific credential
// index is currently accumulated.
type Witness struct {
	Index     uint32
	Accum     []byte
	Timestamp uint64
}

// TailsAccessor is random access over a tails file's fixed-stride entries.
type TailsAccessor interface {
	Read(index uint32) ([]byte, error)
}

// Proof is an opaque zero-knowledge presentation produced by CreateProof
// and checked by VerifyProof.
type Proof []byte

// Provider is the CL-signature, accumulator, and nonce service every
// engine depends on. All operations are deterministic given their random
// inputs so tests can inject a seed (see clcrypto.Provider.WithRand).
type Provider interface {
	NewMasterSecret() (MasterSecret, error)

	NewCredentialDefinition(attrNames []string, cfg CredentialDefinitionConfig) (CredentialDefinitionPublic, CredentialDefinitionPrivate, KeyCorrectnessProof, error)

	NewCredentialRequest(pub CredentialDefinitionPublic, ms MasterSecret, nonce Nonce) (BlindedMasterSecret, MasterSecretBlindingData, KeyCorrectnessProof, error)

	// NewCredential signs values for the holder's request. revIdx/tails are
	// non-nil only when pub.SupportRevocation is true.
	NewCredential(
		pub CredentialDefinitionPublic, priv CredentialDefinitionPrivate,
		offerNonce Nonce, blinded BlindedMasterSecret, values CredentialValues,
		revIdx *uint32, regPub *RevocationRegistryPublic, regPriv RevocationRegistryPrivate, tails TailsAccessor,
	) (CredentialSignature, SignatureCorrectnessProof, *RevocationDelta, error)

	// ProcessCredential unblinds and verifies sig against pub, using the
	// holder's own master secret and blinding data. Returns an error
	// (never a bool) on signature mismatch: failure must happen before any
	// record write.
	ProcessCredential(
		sig CredentialSignature, corr SignatureCorrectnessProof,
		blindingData MasterSecretBlindingData, ms MasterSecret,
		pub CredentialDefinitionPublic, nonce Nonce,
	) error

	CreateProof(req ProofRequest, presented PresentedCredentials, ms MasterSecret) (Proof, error)
	VerifyProof(req ProofRequest, proof Proof) (bool, error)

	// Nonce returns a modern (256-bit) random nonce.
	Nonce() (Nonce, error)
	// NonceLegacy returns a legacy (<=80-bit) random nonce, for callers
	// that must match the historical wire size.
	NonceLegacy() (Nonce, error)

	NewRevocationRegistry(pub CredentialDefinitionPublic, maxCredNum uint32, issuanceByDefault bool) (RevocationKeyPublic, RevocationRegistryPublic, RevocationRegistryPrivate, TailsGenerator, error)

	Revoke(reg *RevocationRegistryPublic, maxCredNum uint32, idx uint32, tails TailsAccessor) (RevocationDelta, error)
	Recover(reg *RevocationRegistryPublic, maxCredNum uint32, idx uint32, tails TailsAccessor) (RevocationDelta, error)

	WitnessNew(idx uint32, maxCredNum uint32, issuanceByDefault bool, delta RevocationDelta, tails TailsAccessor) (Witness, error)
	WitnessUpdate(w Witness, maxCredNum uint32, delta RevocationDelta, tails TailsAccessor) (Witness, error)

	MergeDelta(a, b RevocationDelta) (RevocationDelta, error)
}

// TailsGenerator streams the tails blob for a freshly created revocation
// registry; tails.Service.StoreFromGenerator reads it to completion.
type TailsGenerator interface {
	Next() ([]byte, bool)
}

// ProofRequest mirrors the wire proof-request shape from spec §6.
type ProofRequest struct {
	Nonce                Nonce
	Name                 string
	Version              string
	RequestedAttributes  map[string]AttributeInfo
	RequestedPredicates  map[string]PredicateInfo
	NonRevoked           *NonRevokedInterval
}

type AttributeInfo struct {
	Name          string
	Names         []string
	NonRevoked    *NonRevokedInterval
}

type PredicateInfo struct {
	Name       string
	PType      string
	PValue     int32
	NonRevoked *NonRevokedInterval
}

type NonRevokedInterval struct {
	From *uint64
	To   *uint64
}

// PresentedCredentials is the holder's resolved-credential input to
// CreateProof: for every requested attribute/predicate ref, which stored
// credential (and, if revocation-bound, which Witness at which timestamp)
// to present.
type PresentedCredentials struct {
	Attrs      map[string]PresentedCredential
	Predicates map[string]PresentedCredential
}

type PresentedCredential struct {
	CredID    string
	Revealed  bool
	Values    CredentialValues
	Witness   *Witness
	Timestamp uint64
	// NonRevoked is the caller's (HolderEngine's) precomputed answer to
	// "is this index still accumulated at Timestamp", folded from the
	// registry's published delta history. The crypto provider treats
	// revocation-delta folding as out of scope for the same reason it
	// treats CL/pairing arithmetic as opaque: CreateProof copies this flag
	// into the proof for each request entry that carries a non-revocation
	// interval, VerifyProof rejects the proof when the flag is false, and
	// neither reads Witness.
	NonRevoked bool
}
