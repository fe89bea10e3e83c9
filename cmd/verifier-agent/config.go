package main

import (
	"os"

	"github.com/pelletier/go-toml"
	"github.com/gravitational/trace"

	"github.com/gravitational/vcagent/lib"
	"github.com/gravitational/vcagent/lib/logger"
	"github.com/gravitational/vcagent/utils"
)

// Config is the verifier-agent's TOML configuration.
type Config struct {
	Store  StoreConfig      `toml:"store"`
	Ledger lib.LedgerConfig `toml:"ledger"`
	HTTP   utils.HTTPConfig `toml:"http"`
	Log    logger.Config    `toml:"log"`
}

// StoreConfig selects and configures the record.Store backend, used here
// only for the broker's outbox and pairwise connection bookkeeping (the
// verifier engine itself is stateless).
type StoreConfig struct {
	Kind string `toml:"kind"`
	Path string `toml:"path"`
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
	return &conf, nil
}

const exampleConfig = `# Example vcagent verifier-agent configuration TOML file

[store]
kind = "diskv"
path = "/var/lib/vcagent/verifier/records"

[ledger]
endpoint = "https://ledger.example.test"

[http]
listen = ":8445"
insecure = false

[log]
severity = "info"
`
