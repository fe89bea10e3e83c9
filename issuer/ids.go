package issuer

import (
	"fmt"
	"strings"

	"github.com/gravitational/vcagent/lib/errcode"
)

// SchemaID builds a schema's canonical id per spec §3:
// <issuerDid>:2:<name>:<version>.
func SchemaID(issuerDID, name, version string) string {
	return fmt.Sprintf("%s:2:%s:%s", issuerDID, name, version)
}

// CredDefID builds a cred-def's canonical id:
// <issuerDid>:3:CL:<schemaRef>:<tag>.
func CredDefID(issuerDID, schemaRef, tag string) string {
	return fmt.Sprintf("%s:3:CL:%s:%s", issuerDID, schemaRef, tag)
}

// RevRegDefID builds a revocation-registry-definition id:
// <issuerDid>:4:<credDefId>:CL_ACCUM:<tag>.
func RevRegDefID(issuerDID, credDefID, tag string) string {
	return fmt.Sprintf("%s:4:%s:CL_ACCUM:%s", issuerDID, credDefID, tag)
}

// isQualified reports whether id carries a did:<method>: prefix, as
// opposed to a bare legacy identifier.
func isQualified(id string) bool {
	return strings.HasPrefix(id, "did:")
}

// reconcileSchemaRef applies spec §4.3.2's qualification rule: if the
// issuer DID is unqualified but the schema id is qualified, fail; if the
// issuer is qualified and the schema id is unqualified, lift the schema id
// into the issuer's method.
func reconcileSchemaRef(issuerDID, schemaID string) (string, error) {
	issuerQualified := isQualified(issuerDID)
	schemaQualified := isQualified(schemaID)
	switch {
	case !issuerQualified && schemaQualified:
		return "", errcode.InvalidStructure("unqualified issuer DID %q cannot reference qualified schema id %q", issuerDID, schemaID)
	case issuerQualified && !schemaQualified:
		method := strings.SplitN(issuerDID, ":", 3)[1]
		return fmt.Sprintf("did:%s:%s", method, schemaID), nil
	default:
		return schemaID, nil
	}
}
