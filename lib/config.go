package lib

// LedgerConfig stores config options for where the DID ledger transport is
// listening and what credentials to present to it. It is handed, opaque,
// to a ledger.Client implementation; the core never interprets these
// fields itself.
type LedgerConfig struct {
	Endpoint   string `toml:"endpoint"`
	ClientKey  string `toml:"client_key"`
	ClientCrt  string `toml:"client_crt"`
	RootCAs    string `toml:"root_cas"`
	PoolConfig string `toml:"pool_config"`
}
