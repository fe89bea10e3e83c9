package messages

// CreateKey (Pairwise.CREATE_KEY) asks the agency to mint a pairwise DID
// for a new connection (spec §9 Pairwise bookkeeping).
type CreateKey struct {
	Header
	ForDID   string `json:"forDID"`
	ForDIDVK string `json:"forDIDVerKey"`
}

func (m CreateKey) TypeDescriptor() TypeDescriptor { return m.Type }

// KeyCreated (Pairwise.KEY_CREATED) answers CreateKey with the minted
// pairwise DID pair.
type KeyCreated struct {
	Header
	WithPairwiseDID   string `json:"withPairwiseDID"`
	WithPairwiseDIDVK string `json:"withPairwiseDIDVerKey"`
}

func (m KeyCreated) TypeDescriptor() TypeDescriptor { return m.Type }

// MessagePayload is one opaque message accepted by SendMessages.
type MessagePayload struct {
	Type       string `json:"type"`
	Payload    []byte `json:"payload"`
	ReplyToMsgID string `json:"reply_to_msg_id,omitempty"`
}

// SendMessages (Pairwise.SEND_MSGS) delivers one or more messages over a
// pairwise connection.
type SendMessages struct {
	Header
	Messages []MessagePayload `json:"msgs"`
}

func (m SendMessages) TypeDescriptor() TypeDescriptor { return m.Type }

// GetMessages (Pairwise.GET_MSGS) retrieves messages for a connection,
// optionally filtered by status or uid.
type GetMessages struct {
	Header
	ExcludePayload bool     `json:"excludePayload,omitempty"`
	UIDs           []string `json:"uids,omitempty"`
	StatusCodes    []string `json:"statusCodes,omitempty"`
}

func (m GetMessages) TypeDescriptor() TypeDescriptor { return m.Type }

// ConnRequest (Pairwise.CONN_REQUEST) asks a connection's counterparty to
// accept a pairwise invitation.
type ConnRequest struct {
	Header
	SendMsg   bool   `json:"sendMsg"`
	ReplyToMsgID string `json:"reply_to_msg_id,omitempty"`
	KeyDlgProof  KeyDelegationProof `json:"key_dlg_proof,omitempty"`
}

func (m ConnRequest) TypeDescriptor() TypeDescriptor { return m.Type }

// KeyDelegationProof authorizes the cloud agent to act on the owner's
// behalf for a pairwise connection.
type KeyDelegationProof struct {
	AgentDID   string `json:"agentDID,omitempty"`
	AgentDelegatedKey string `json:"agentDelegatedKey,omitempty"`
	Signature  string `json:"signature,omitempty"`
}

// ConnRequestAnswer (Pairwise.CONN_REQUEST_ANSWER) answers ConnRequest.
type ConnRequestAnswer struct {
	Header
	Accept string `json:"sendMsg,omitempty"`
}

func (m ConnRequestAnswer) TypeDescriptor() TypeDescriptor { return m.Type }

// UpdateMsgStatus (Pairwise.UPDATE_MSG_STATUS) transitions one or more
// messages to a new delivery status (spec §4.7).
type UpdateMsgStatus struct {
	Header
	StatusCode string   `json:"statusCode"`
	UIDs       []string `json:"uids"`
}

func (m UpdateMsgStatus) TypeDescriptor() TypeDescriptor { return m.Type }

// MsgStatusUpdated (Pairwise.MSG_STATUS_UPDATED) acknowledges
// UpdateMsgStatus.
type MsgStatusUpdated struct {
	Header
	StatusCode string   `json:"statusCode"`
	UIDs       []string `json:"uids"`
}

func (m MsgStatusUpdated) TypeDescriptor() TypeDescriptor { return m.Type }

func newPairwiseType(name, version string) TypeDescriptor {
	return TypeDescriptor{Family: FamilyPairwise, Name: name, Version: version, Qualifier: DefaultQualifier}
}
