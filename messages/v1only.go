package messages

// CreateMessage is the V1-only message-creation shape (dropped from
// spec.md's distillation, restored per SPEC_FULL.md §9 so uid
// addressing has a concrete type to carry). It lives in the Pairwise
// family alongside SEND_MSGS/GET_MSGS.
type CreateMessage struct {
	Header
	MType        string `json:"mtype"`
	SendMsg      bool   `json:"send_msg"`
	ReplyToMsgID string `json:"reply_to_msg_id,omitempty"`
}

func (m CreateMessage) TypeDescriptor() TypeDescriptor { return m.Type }

// MessageDetail carries the actual message payload for a CreateMessage
// request, over the existing connection's encryption key.
type MessageDetail struct {
	Header
	Msg      []byte `json:"@msg"`
	Title    string `json:"title,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

func (m MessageDetail) TypeDescriptor() TypeDescriptor { return m.Type }

// MessageCreated answers CreateMessage with the assigned uid.
type MessageCreated struct {
	Header
	UID string `json:"uid"`
}

func (m MessageCreated) TypeDescriptor() TypeDescriptor { return m.Type }
