package lib

import (
	"github.com/gravitational/trace"
	"github.com/hashicorp/go-version"
)

// AssertLedgerProtocolVersion returns an error if the ledger's reported
// protocol version is less than minVersion. Adapted from the teacher's
// AssertServerVersion check against a Teleport auth server's ping response.
func AssertLedgerProtocolVersion(reportedVersion, minVersion string) error {
	actual, err := version.NewVersion(reportedVersion)
	if err != nil {
		return trace.Wrap(err)
	}
	required, err := version.NewVersion(minVersion)
	if err != nil {
		return trace.Wrap(err)
	}
	if actual.LessThan(required) {
		return trace.Errorf("ledger protocol version %s is less than required %s", reportedVersion, minVersion)
	}
	return nil
}
