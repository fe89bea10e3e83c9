package messages

import (
	"encoding/json"

	"github.com/gravitational/trace"
)

// Parse inspects data's @type discriminator and unmarshals it into the
// matching concrete Message. An unexpected (family, name) combination
// yields Unknown rather than an error (spec §9 redesign flag), leaving
// the reject/ignore decision to the caller.
func Parse(data []byte) (Message, error) {
	var probe struct {
		Type TypeDescriptor `json:"@type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, trace.Wrap(err)
	}

	target := messageFor(probe.Type)
	if target == nil {
		return Unknown{Name: probe.Type.Name, Version: probe.Type.Version}, nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return nil, trace.Wrap(err)
	}
	return target.(Message), nil
}

// messageFor returns a pointer to the zero value of the concrete type
// matching t, or nil if t falls outside the closed set.
func messageFor(t TypeDescriptor) interface{} {
	switch t.Family {
	case FamilyRouting:
		switch t.Name {
		case nameFwd:
			return &Forward{}
		case nameSendRemoteMsg:
			return &SendRemoteMessage{}
		}
	case FamilyOnboarding:
		switch t.Name {
		case nameConnect:
			return &Connect{}
		case nameConnected:
			return &Connected{}
		case nameSignup:
			return &Signup{}
		case nameSignedUp:
			return &SignedUp{}
		case nameCreateAgent:
			return &CreateAgent{}
		case nameAgentCreated:
			return &AgentCreated{}
		}
	case FamilyPairwise:
		switch t.Name {
		case nameCreateKey:
			return &CreateKey{}
		case nameKeyCreated:
			return &KeyCreated{}
		case nameSendMsgs:
			return &SendMessages{}
		case nameGetMsgs:
			return &GetMessages{}
		case nameConnRequest:
			return &ConnRequest{}
		case nameConnReqAnswer:
			return &ConnRequestAnswer{}
		case nameUpdMsgStatus:
			return &UpdateMsgStatus{}
		case nameMsgStatusUpd:
			return &MsgStatusUpdated{}
		case nameCreateMessage:
			return &CreateMessage{}
		case nameMessageDetail:
			return &MessageDetail{}
		case nameMessageCreated:
			return &MessageCreated{}
		case nameConnReqV2:
			return &ConnectionRequestV2{}
		case nameConnReqAnsV2:
			return &ConnectionRequestAnswerV2{}
		case nameSendRemoteMsgV2:
			return &SendRemoteMessageV2{}
		}
	case FamilyConfigs:
		switch t.Name {
		case nameUpdateConfigs:
			return &UpdateConfigs{}
		case nameGetConfigs:
			return &GetConfigs{}
		case nameRemoveConfigs:
			return &RemoveConfigs{}
		}
	}
	return nil
}

// Encode marshals msg to its wire JSON form. Callers pass the result to
// envelope.Codec as the single V2 message, or as one of the bundled V1
// entries.
func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	return data, trace.Wrap(err)
}
