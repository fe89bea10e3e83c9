package messages

// Forward (Routing.FWD) wraps an opaque inner message addressed to fwd.
type Forward struct {
	Header
	FwdTo string `json:"fwd"`
	Msg   []byte `json:"msg"`
}

func (m Forward) TypeDescriptor() TypeDescriptor { return m.Type }

// SendRemoteMessage (Routing.SEND_REMOTE_MSG) asks the agency to deliver
// msg to a pairwise connection by its DID.
type SendRemoteMessage struct {
	Header
	ID           string `json:"id,omitempty"`
	MExpirationTime int64 `json:"mexp_time,omitempty"`
	SendMsg      bool   `json:"send_msg"`
	ToDID        string `json:"to_did"`
	Msg          []byte `json:"msg"`
	RefMsgID     string `json:"ref_msg_id,omitempty"`
}

func (m SendRemoteMessage) TypeDescriptor() TypeDescriptor { return m.Type }

func newRoutingType(name, version string) TypeDescriptor {
	return TypeDescriptor{Family: FamilyRouting, Name: name, Version: version, Qualifier: DefaultQualifier}
}
