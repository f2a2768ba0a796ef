// Package did parses decentralized identifiers and extracts verification keys
// from their documents.
package did

import (
	"strings"

	dErrors "dcx/pkg/domain-errors"
)

// DID is a parsed did:<method>:<method-specific-id>.
type DID struct {
	Method string
	ID     string
}

func (d DID) String() string {
	return "did:" + d.Method + ":" + d.ID
}

// Parse splits uri into method and method-specific id. Fragments, queries and
// paths are rejected; callers resolve the bare DID.
func Parse(uri string) (DID, error) {
	rest, ok := strings.CutPrefix(uri, "did:")
	if !ok {
		return DID{}, dErrors.New(dErrors.CodeUnresolvable, "malformed DID: missing did: scheme")
	}
	method, id, ok := strings.Cut(rest, ":")
	if !ok || method == "" || id == "" {
		return DID{}, dErrors.New(dErrors.CodeUnresolvable, "malformed DID: expected did:<method>:<id>")
	}
	for _, r := range method {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return DID{}, dErrors.New(dErrors.CodeUnresolvable, "malformed DID: invalid method name")
		}
	}
	if strings.ContainsAny(id, "#?/") {
		return DID{}, dErrors.New(dErrors.CodeUnresolvable, "malformed DID: unexpected DID URL components")
	}
	return DID{Method: method, ID: id}, nil
}

// MethodSpecificID returns everything after the second colon of did.
// A string with no colon after the scheme is returned unchanged.
func MethodSpecificID(did string) string {
	if len(did) < 4 {
		return did
	}
	i := strings.IndexByte(did[4:], ':')
	if i < 0 {
		return did
	}
	return did[4+i+1:]
}

// KeyID builds the verification method reference an issued credential
// should point back to for did.
func KeyID(did string) string {
	return did + "#" + MethodSpecificID(did)
}
