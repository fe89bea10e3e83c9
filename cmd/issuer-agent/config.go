package main

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/gravitational/trace"

	"github.com/gravitational/vcagent/lib"
	"github.com/gravitational/vcagent/lib/logger"
	"github.com/gravitational/vcagent/utils"
)

// Config is the issuer-agent's TOML configuration.
type Config struct {
	IssuerDID string           `toml:"issuer-did"`
	Store     StoreConfig      `toml:"store"`
	Ledger    lib.LedgerConfig `toml:"ledger"`
	HTTP      utils.HTTPConfig `toml:"http"`
	Log       logger.Config    `toml:"log"`
}

// StoreConfig selects and configures the record.Store backend.
type StoreConfig struct {
	// Kind is either "memory" or "diskv".
	Kind string `toml:"kind"`
	// Path is the diskv base directory, required when Kind == "diskv".
	Path string `toml:"path"`
	// TailsPath is the tails.Service base directory.
	TailsPath string `toml:"tails-path"`
}

// LoadConfig reads and parses a TOML config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	var conf Config
	if err := toml.Unmarshal(data, &conf); err != nil {
		return nil, trace.Wrap(err)
	}
	if conf.IssuerDID == "" {
		return nil, trace.BadParameter("issuer-did is required")
	}
	if conf.Store.TailsPath == "" {
		return nil, trace.BadParameter("store.tails-path is required")
	}
	return &conf, nil
}

const exampleConfig = `# Example vcagent issuer-agent configuration TOML file
issuer-did = "did:sov:1234567890abcdefghij"

[store]
kind = "diskv"
path = "/var/lib/vcagent/issuer/records"
tails-path = "/var/lib/vcagent/issuer/tails"

[ledger]
endpoint = "https://ledger.example.test"

[http]
listen = ":8443"
insecure = false

[log]
severity = "info"
`
