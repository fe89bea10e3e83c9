package main

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/gravitational/trace"

	"github.com/gravitational/vcagent/lib"
	"github.com/gravitational/vcagent/lib/logger"
	"github.com/gravitational/vcagent/utils"
)

// Config is the holder-agent's TOML configuration.
type Config struct {
	Store  StoreConfig      `toml:"store"`
	Ledger lib.LedgerConfig `toml:"ledger"`
	HTTP   utils.HTTPConfig `toml:"http"`
	Log    logger.Config    `toml:"log"`

	// RevRegIDs lists the revocation registries this holder tracks
	// credentials against, polled by the LedgerDeltaWatcher.
	RevRegIDs []string `toml:"rev-reg-ids"`
	// PollInterval overrides ledgerwatch.DefaultInterval when set, parsed
	// with time.ParseDuration (e.g. "15s").
	PollInterval string `toml:"poll-interval"`
}

// StoreConfig selects and configures the record.Store and tails.Service
// backends.
type StoreConfig struct {
	Kind      string `toml:"kind"`
	Path      string `toml:"path"`
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
	if conf.Store.TailsPath == "" {
		return nil, trace.BadParameter("store.tails-path is required")
	}
	return &conf, nil
}

const exampleConfig = `# Example vcagent holder-agent configuration TOML file

rev-reg-ids = ["did:sov:1234567890abcdefghij/anoncreds/revocation/1"]
poll-interval = "15s"

[store]
kind = "diskv"
path = "/var/lib/vcagent/holder/records"
tails-path = "/var/lib/vcagent/holder/tails"

[ledger]
endpoint = "https://ledger.example.test"

[http]
listen = ":8444"
insecure = false

[log]
severity = "info"
`
