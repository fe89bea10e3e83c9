package messages

// NewForward builds a Routing.FWD message addressed to fwdTo.
func NewForward(id, fwdTo string, msg []byte) Forward {
	return Forward{Header: Header{Type: newRoutingType(nameFwd, "1.0"), ID: id}, FwdTo: fwdTo, Msg: msg}
}

// NewSendRemoteMessage builds a Routing.SEND_REMOTE_MSG message.
func NewSendRemoteMessage(id, toDID string, msg []byte, sendMsg bool) SendRemoteMessage {
	return SendRemoteMessage{Header: Header{Type: newRoutingType(nameSendRemoteMsg, "1.0"), ID: id}, ToDID: toDID, Msg: msg, SendMsg: sendMsg}
}

// NewConnect builds an Onboarding.CONNECT message.
func NewConnect(id, fromDID, fromDIDVK string) Connect {
	return Connect{Header: Header{Type: newOnboardingType(nameConnect, "1.0"), ID: id}, FromDID: fromDID, FromDIDVK: fromDIDVK}
}

// NewConnected builds an Onboarding.CONNECTED reply.
func NewConnected(id, pairwiseDID, pairwiseVK string) Connected {
	return Connected{Header: Header{Type: newOnboardingType(nameConnected, "1.0"), ID: id}, WithPairwiseDID: pairwiseDID, WithPairwiseDIDVK: pairwiseVK}
}

// NewCreateKey builds a Pairwise.CREATE_KEY message.
func NewCreateKey(id, forDID, forDIDVK string) CreateKey {
	return CreateKey{Header: Header{Type: newPairwiseType(nameCreateKey, "1.0"), ID: id}, ForDID: forDID, ForDIDVK: forDIDVK}
}

// NewKeyCreated builds a Pairwise.KEY_CREATED reply.
func NewKeyCreated(id, pairwiseDID, pairwiseVK string) KeyCreated {
	return KeyCreated{Header: Header{Type: newPairwiseType(nameKeyCreated, "1.0"), ID: id}, WithPairwiseDID: pairwiseDID, WithPairwiseDIDVK: pairwiseVK}
}

// NewSendMessages builds a Pairwise.SEND_MSGS message.
func NewSendMessages(id string, msgs []MessagePayload) SendMessages {
	return SendMessages{Header: Header{Type: newPairwiseType(nameSendMsgs, "1.0"), ID: id}, Messages: msgs}
}

// NewGetMessages builds a Pairwise.GET_MSGS message.
func NewGetMessages(id string, uids, statusCodes []string) GetMessages {
	return GetMessages{Header: Header{Type: newPairwiseType(nameGetMsgs, "1.0"), ID: id}, UIDs: uids, StatusCodes: statusCodes}
}

// NewUpdateMsgStatus builds a Pairwise.UPDATE_MSG_STATUS message.
func NewUpdateMsgStatus(id, statusCode string, uids []string) UpdateMsgStatus {
	return UpdateMsgStatus{Header: Header{Type: newPairwiseType(nameUpdMsgStatus, "1.0"), ID: id}, StatusCode: statusCode, UIDs: uids}
}

// NewMsgStatusUpdated builds a Pairwise.MSG_STATUS_UPDATED reply.
func NewMsgStatusUpdated(id, statusCode string, uids []string) MsgStatusUpdated {
	return MsgStatusUpdated{Header: Header{Type: newPairwiseType(nameMsgStatusUpd, "1.0"), ID: id}, StatusCode: statusCode, UIDs: uids}
}

// NewUpdateConfigs builds a Configs.UPDATE_CONFIGS message.
func NewUpdateConfigs(id string, configs []ConfigOption) UpdateConfigs {
	return UpdateConfigs{Header: Header{Type: newConfigsType(nameUpdateConfigs, "1.0"), ID: id}, Configs: configs}
}

// NewGetConfigs builds a Configs.GET_CONFIGS message.
func NewGetConfigs(id string, names []string) GetConfigs {
	return GetConfigs{Header: Header{Type: newConfigsType(nameGetConfigs, "1.0"), ID: id}, Names: names}
}

// NewRemoveConfigs builds a Configs.REMOVE_CONFIGS message.
func NewRemoveConfigs(id string, names []string) RemoveConfigs {
	return RemoveConfigs{Header: Header{Type: newConfigsType(nameRemoveConfigs, "1.0"), ID: id}, Names: names}
}
