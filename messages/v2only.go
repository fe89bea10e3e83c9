package messages

// ConnectionRequestV2 is the V2-only connection-request shape (the
// original Rust A2AMessage enum's "connection-request", dropped by
// spec.md's distillation, restored per SPEC_FULL.md §9).
type ConnectionRequestV2 struct {
	Header
	SenderDetail SenderDetail `json:"sender_detail"`
	SenderAgencyDetail SenderAgencyDetail `json:"sender_agency_detail"`
}

func (m ConnectionRequestV2) TypeDescriptor() TypeDescriptor { return m.Type }

// SenderDetail carries the DID/verkey/label the requester offers a
// pairwise connection under.
type SenderDetail struct {
	DID       string `json:"DID"`
	VerKey    string `json:"verKey"`
	Name      string `json:"name,omitempty"`
	LogoURL   string `json:"logoUrl,omitempty"`
}

// SenderAgencyDetail carries the requester's cloud agent endpoint.
type SenderAgencyDetail struct {
	DID      string `json:"DID"`
	VerKey   string `json:"verKey"`
	Endpoint string `json:"endpoint"`
}

// ConnectionRequestAnswerV2 answers ConnectionRequestV2.
type ConnectionRequestAnswerV2 struct {
	Header
	SenderDetail SenderDetail       `json:"sender_detail"`
	SenderAgencyDetail SenderAgencyDetail `json:"sender_agency_detail"`
	Accepted bool `json:"accepted"`
}

func (m ConnectionRequestAnswerV2) TypeDescriptor() TypeDescriptor { return m.Type }

// SendRemoteMessageV2 is the V2-only single-message delivery shape,
// distinct from Routing.SEND_REMOTE_MSG in that it carries the already
// V2-packed bytes rather than an opaque V1 bundle.
type SendRemoteMessageV2 struct {
	Header
	ID       string `json:"@id,omitempty"`
	Message  []byte `json:"message"`
	SendMsg  bool   `json:"sendMsg"`
}

func (m SendRemoteMessageV2) TypeDescriptor() TypeDescriptor { return m.Type }
