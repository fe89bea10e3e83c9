// Package messages implements the closed A2A message family registry
// (spec §6): Routing, Onboarding, Pairwise and Configs, dispatched by a
// {family, name, version, qualifier} @type discriminator.
package messages

// Family names one of the four closed message families.
type Family string

const (
	FamilyRouting    Family = "routing"
	FamilyOnboarding Family = "onboarding"
	FamilyPairwise   Family = "pairwise"
	FamilyConfigs    Family = "configs"
)

// DefaultQualifier is the qualifier used for every message this agent
// produces; it is accepted but not interpreted on parse.
const DefaultQualifier = "did:sov:123456789abcdefghi1234;spec"

// TypeDescriptor is the @type discriminator every A2A message carries.
type TypeDescriptor struct {
	Family    Family `json:"family"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Qualifier string `json:"qualifier,omitempty"`
}

// Header is embedded in every concrete message type.
type Header struct {
	Type   TypeDescriptor `json:"@type"`
	ID     string         `json:"@id,omitempty"`
	Thread *Thread        `json:"~thread,omitempty"`
}

// Thread carries reply-to threading (spec §4.7 ref_msg_id following).
type Thread struct {
	ThID           string `json:"thid,omitempty"`
	SenderOrder    int    `json:"sender_order,omitempty"`
}

// Message is implemented by every concrete A2A message type, including
// Unknown.
type Message interface {
	TypeDescriptor() TypeDescriptor
}

// Unknown is returned by Parse for any @type outside the closed set
// (spec §9 redesign flag): upper layers decide whether to reject it.
type Unknown struct {
	Name    string
	Version string
}

func (u Unknown) TypeDescriptor() TypeDescriptor {
	return TypeDescriptor{Name: u.Name, Version: u.Version}
}

const (
	nameFwd            = "FWD"
	nameSendRemoteMsg  = "SEND_REMOTE_MSG"
	nameConnect        = "CONNECT"
	nameSignup         = "SIGNUP"
	nameCreateAgent    = "CREATE_AGENT"
	nameConnected      = "CONNECTED"
	nameSignedUp       = "SIGNED_UP"
	nameAgentCreated   = "AGENT_CREATED"
	nameCreateKey      = "CREATE_KEY"
	nameKeyCreated     = "KEY_CREATED"
	nameSendMsgs       = "SEND_MSGS"
	nameGetMsgs        = "GET_MSGS"
	nameConnRequest    = "CONN_REQUEST"
	nameConnReqAnswer  = "CONN_REQUEST_ANSWER"
	nameUpdMsgStatus   = "UPDATE_MSG_STATUS"
	nameMsgStatusUpd   = "MSG_STATUS_UPDATED"
	nameUpdateConfigs  = "UPDATE_CONFIGS"
	nameGetConfigs     = "GET_CONFIGS"
	nameRemoveConfigs  = "REMOVE_CONFIGS"
	nameCreateMessage  = "CREATE_MESSAGE"
	nameMessageDetail  = "MESSAGE_DETAIL"
	nameMessageCreated = "MESSAGE_CREATED"
	nameConnReqV2      = "connection-request"
	nameConnReqAnsV2   = "connection-request-answer"
	nameSendRemoteMsgV2 = "send-remote-message"
)
