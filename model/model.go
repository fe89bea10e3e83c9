// Package model holds the persisted entity shapes shared by issuer,
// holder, and verifier: everything spec.md §3/§6 describes as a
// {version, data}-wrapped record. Record type names below (used as the
// first argument to record.Store calls) are the logical type namespaces
// each entity lives under.
package model

const (
	TypeSchema                               = "schema"
	TypeCredentialDefinition                 = "cred_def"
	TypeCredentialDefinitionPrivateKey        = "cred_def_priv"
	TypeCredentialDefinitionCorrectnessProof  = "cred_def_correctness"
	TypeTemporaryCredentialDefinition         = "cred_def_temp"
	TypeRevocationRegistryDefinition          = "rev_reg_def"
	TypeRevocationRegistryDefinitionPrivate   = "rev_reg_def_priv"
	TypeRevocationRegistry                    = "rev_reg"
	TypeRevocationRegistryInfo                = "rev_reg_info"
	TypeMasterSecret                          = "master_secret"
	TypeCredential                            = "credential"
	TypeCredentialAttrTagPolicy               = "cred_attr_tag_policy"
	TypeRevocationState                       = "revocation_state"
	TypePairwiseConnection                    = "pairwise"
	TypeMessage                               = "message"
)

// CurrentVersion is the version tag written by every Wrap call below;
// older values may still be read (see record.Envelope doc comment).
const CurrentVersion = "1.0"

// IssuanceType selects which half of the revocation index space a fresh
// issuance consumes.
type IssuanceType string

const (
	IssuanceOnDemand  IssuanceType = "on_demand"
	IssuanceByDefault IssuanceType = "by_default"
)

// Schema is the published attribute-name list a cred-def signs over.
type Schema struct {
	ID        string   `json:"id"`
	IssuerDID string   `json:"issuer_did"`
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	AttrNames []string `json:"attr_names"`
	SeqNo     *uint32  `json:"seq_no,omitempty"`
}

// CredentialDefinitionConfig mirrors spec §9's typed-config redesign.
type CredentialDefinitionConfig struct {
	SupportRevocation bool `json:"support_revocation"`
}

// CredentialDefinition is the published half of a cred-def.
type CredentialDefinition struct {
	ID                string                     `json:"id"`
	SchemaID          string                     `json:"schema_id"`
	Tag               string                     `json:"tag"`
	Config            CredentialDefinitionConfig `json:"config"`
	PublicKey         []byte                     `json:"public_key"`
	AttrNames         []string                   `json:"attr_names"`
}

// CredentialDefinitionPrivateKey is the issuer-only secret half; never
// transmitted.
type CredentialDefinitionPrivateKey struct {
	SecretKey []byte `json:"secret_key"`
}

// CredentialDefinitionCorrectnessProof lets a holder check a published
// public key was generated honestly.
type CredentialDefinitionCorrectnessProof struct {
	Proof []byte `json:"proof"`
}

// RevocationRegistryConfig mirrors spec §9's typed-config redesign.
type RevocationRegistryConfig struct {
	IssuanceType IssuanceType `json:"issuance_type"`
	MaxCredNum   uint32       `json:"max_cred_num"`
}

// DefaultRevocationRegistryConfig returns the documented defaults:
// issuance_type=on_demand, max_cred_num=100000.
func DefaultRevocationRegistryConfig() RevocationRegistryConfig {
	return RevocationRegistryConfig{IssuanceType: IssuanceOnDemand, MaxCredNum: 100000}
}

// RevocationRegistryDefinition is the published definition of a
// revocation registry.
type RevocationRegistryDefinition struct {
	ID         string                   `json:"id"`
	CredDefID  string                   `json:"cred_def_id"`
	Tag        string                   `json:"tag"`
	Config     RevocationRegistryConfig `json:"config"`
	TailsHash  string                   `json:"tails_hash"`
	TailsLoc   string                   `json:"tails_location"`
	PublicKey  []byte                   `json:"public_key"`
}

// RevocationRegistryDefinitionPrivate is the issuer-only accumulator
// trapdoor.
type RevocationRegistryDefinitionPrivate struct {
	SecretKey []byte `json:"secret_key"`
}

// RevocationRegistry is the published accumulator state, same id as its
// definition.
type RevocationRegistry struct {
	ID    string `json:"id"`
	Accum []byte `json:"accum"`
}

// RevocationRegistryInfo is issuer-local bookkeeping: the next index to
// assign and the set of indices already consumed.
type RevocationRegistryInfo struct {
	ID      string   `json:"id"`
	CurrID  uint32   `json:"curr_id"`
	UsedIDs []uint32 `json:"used_ids"`
}

// MasterSecret is the holder-private binding scalar, immutable once
// stored.
type MasterSecret struct {
	Name  string `json:"name"`
	Value []byte `json:"value"`
}

// AttrValue is a credential attribute's raw/encoded pair.
type AttrValue struct {
	Raw     string `json:"raw"`
	Encoded string `json:"encoded"`
}

// Credential is the holder-stored, issuer-signed credential. RevReg and
// Witness are stripped before persisting per spec §4.4.3 and recomputed
// from deltas on demand.
type Credential struct {
	ID              string               `json:"id"`
	SchemaID        string               `json:"schema_id"`
	CredDefID       string               `json:"cred_def_id"`
	RevRegID        *string              `json:"rev_reg_id,omitempty"`
	CredRevID       *string              `json:"cred_rev_id,omitempty"`
	Values          map[string]AttrValue `json:"values"`
	Signature       []byte               `json:"signature"`
	CorrectnessProof []byte              `json:"signature_correctness_proof"`
}

// CredentialOffer is the issuer-to-holder transient message offering a
// credential.
type CredentialOffer struct {
	SchemaID            string `json:"schema_id"`
	CredDefID           string `json:"cred_def_id"`
	KeyCorrectnessProof []byte `json:"key_correctness_proof"`
	Nonce               []byte `json:"nonce"`
	MethodName          string `json:"method_name,omitempty"`
}

// CredentialRequest is the holder-to-issuer transient message requesting
// a credential.
type CredentialRequest struct {
	ProverDID                  string `json:"prover_did"`
	CredDefID                  string `json:"cred_def_id"`
	BlindedMS                  []byte `json:"blinded_ms"`
	BlindedMSCorrectnessProof  []byte `json:"blinded_ms_correctness_proof"`
	Nonce                      []byte `json:"nonce"`
}

// CredentialRequestMetadata is the holder-private opening a
// CredentialRequest needs later to unblind the issued signature.
type CredentialRequestMetadata struct {
	MasterSecretBlindingData []byte `json:"master_secret_blinding_data"`
	Nonce                    []byte `json:"nonce"`
	MasterSecretName         string `json:"master_secret_name"`
}

// CredentialAttrTagPolicy controls which attributes of credentials issued
// under a cred-def are indexed as searchable tags.
type CredentialAttrTagPolicy struct {
	CredDefID string   `json:"cred_def_id"`
	Attrs     []string `json:"attrs,omitempty"` // nil means "all"
}

// RevocationState is the holder-local non-revocation witness, keyed by
// (rev_reg_id, timestamp).
type RevocationState struct {
	RevRegID  string `json:"rev_reg_id"`
	Timestamp uint64 `json:"timestamp"`
	Witness   []byte `json:"witness"`
}

// MessageStatus is a MessageBroker outbox entry's delivery state (spec
// §4.7/§6). Reviewed is an orthogonal acknowledgement bit, not a terminal
// state in the Created→Sent→Received→Accepted→Rejected chain.
type MessageStatus string

const (
	MessageCreated  MessageStatus = "Created"
	MessageSent     MessageStatus = "Sent"
	MessageReceived MessageStatus = "Received"
	MessageAccepted MessageStatus = "Accepted"
	MessageRejected MessageStatus = "Rejected"
	MessageReviewed MessageStatus = "Reviewed"
)

// ConnectionStatus is a PairwiseConnection's lifecycle state (spec §6).
type ConnectionStatus string

const (
	ConnectionNotConnected ConnectionStatus = "NotConnected"
	ConnectionConnected    ConnectionStatus = "Connected"
	ConnectionDeleted      ConnectionStatus = "Deleted"
)

// PairwiseConnection is the opaque connection-bookkeeping record (spec §9
// supplemented feature): the two DID/verkey pairs a pairwise channel was
// established under, plus thread send/receive counters.
type PairwiseConnection struct {
	ConnectionID   string           `json:"connection_id"`
	MyDID          string           `json:"my_did"`
	MyVK           string           `json:"my_vk"`
	TheirDID       string           `json:"their_did"`
	TheirVK        string           `json:"their_vk"`
	Endpoint       string           `json:"endpoint,omitempty"`
	Status         ConnectionStatus `json:"status"`
	SenderOrder    int              `json:"sender_order"`
	ReceivedOrders map[string]int   `json:"received_orders,omitempty"`
}

// MessageRecord is one MessageBroker outbox/inbox entry.
type MessageRecord struct {
	UID          string        `json:"uid"`
	ConnectionID string        `json:"connection_id"`
	Type         string        `json:"type"`
	Status       MessageStatus `json:"status"`
	Reviewed     bool          `json:"reviewed"`
	Payload      []byte        `json:"payload"`
	RefMsgID     string        `json:"ref_msg_id,omitempty"`
	ThreadID     string        `json:"thread_id,omitempty"`
	SenderOrder  int           `json:"sender_order,omitempty"`
}
