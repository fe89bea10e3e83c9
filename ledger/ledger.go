// Package ledger defines the LedgerClient contract the core depends on for
// schema/cred-def/revocation-registry publish and fetch, plus a retrying
// wrapper and an in-memory fake used by engine tests.
package ledger

import "context"

// PaymentAddress is an opaque payment-method address some ledgers require
// on Publish. The core never interprets its contents (spec §9
// "Supplemented Features": payment is optional and kept opaque).
type PaymentAddress string

// Txn is an opaque, already-serialized ledger transaction body.
type Txn []byte

// Client is the external collaborator the core depends on for publishing
// and fetching public ledger artifacts (schemas, cred-defs, revocation
// registry definitions/deltas).
type Client interface {
	// Publish submits txn for id, optionally paying through addr. addr may
	// be empty when the ledger requires none.
	Publish(ctx context.Context, id string, txn Txn, addr PaymentAddress) error
	// Fetch retrieves the current JSON body stored at id.
	Fetch(ctx context.Context, id string) ([]byte, error)
	// ProtocolVersion reports the ledger's advertised protocol version,
	// for lib.AssertLedgerProtocolVersion gating.
	ProtocolVersion(ctx context.Context) (string, error)
}
