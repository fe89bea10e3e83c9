package messages

// ConfigOption is one key/value pair in an agent's opaque config bag
// (spec §1 keeps agent config opaque).
type ConfigOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// UpdateConfigs (Configs.UPDATE_CONFIGS) upserts the named options.
type UpdateConfigs struct {
	Header
	Configs []ConfigOption `json:"configs"`
}

func (m UpdateConfigs) TypeDescriptor() TypeDescriptor { return m.Type }

// GetConfigs (Configs.GET_CONFIGS) retrieves the named options, or all
// options when Names is empty.
type GetConfigs struct {
	Header
	Names []string `json:"configs,omitempty"`
}

func (m GetConfigs) TypeDescriptor() TypeDescriptor { return m.Type }

// RemoveConfigs (Configs.REMOVE_CONFIGS) deletes the named options.
type RemoveConfigs struct {
	Header
	Names []string `json:"configs"`
}

func (m RemoveConfigs) TypeDescriptor() TypeDescriptor { return m.Type }

func newConfigsType(name, version string) TypeDescriptor {
	return TypeDescriptor{Family: FamilyConfigs, Name: name, Version: version, Qualifier: DefaultQualifier}
}
