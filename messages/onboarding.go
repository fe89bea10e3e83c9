package messages

// Connect (Onboarding.CONNECT) opens an onboarding session against an
// agency by the requester's DID/verkey pair.
type Connect struct {
	Header
	FromDID    string `json:"fromDID"`
	FromDIDVK  string `json:"fromDIDVerKey"`
}

func (m Connect) TypeDescriptor() TypeDescriptor { return m.Type }

// Connected (Onboarding.CONNECTED) answers Connect with the agency's own
// identity.
type Connected struct {
	Header
	WithPairwiseDID   string `json:"withPairwiseDID"`
	WithPairwiseDIDVK string `json:"withPairwiseDIDVerKey"`
}

func (m Connected) TypeDescriptor() TypeDescriptor { return m.Type }

// Signup (Onboarding.SIGNUP) registers the requester's DID with the
// agency.
type Signup struct {
	Header
}

func (m Signup) TypeDescriptor() TypeDescriptor { return m.Type }

// SignedUp (Onboarding.SIGNED_UP) acknowledges Signup.
type SignedUp struct {
	Header
}

func (m SignedUp) TypeDescriptor() TypeDescriptor { return m.Type }

// CreateAgent (Onboarding.CREATE_AGENT) provisions a per-user agent
// under the agency.
type CreateAgent struct {
	Header
}

func (m CreateAgent) TypeDescriptor() TypeDescriptor { return m.Type }

// AgentCreated (Onboarding.AGENT_CREATED) returns the new agent's DID
// pair.
type AgentCreated struct {
	Header
	WithPairwiseDID   string `json:"withPairwiseDID"`
	WithPairwiseDIDVK string `json:"withPairwiseDIDVerKey"`
}

func (m AgentCreated) TypeDescriptor() TypeDescriptor { return m.Type }

func newOnboardingType(name, version string) TypeDescriptor {
	return TypeDescriptor{Family: FamilyOnboarding, Name: name, Version: version, Qualifier: DefaultQualifier}
}
