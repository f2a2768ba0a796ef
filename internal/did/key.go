package did

import (
	"crypto/ed25519"
	"fmt"

	"github.com/multiformats/go-multibase"

	dErrors "dcx/pkg/domain-errors"
)

const (
	MethodKey = "key"
	MethodWeb = "web"
)

// NewKeyDID derives the did:key identifier for an Ed25519 public key.
func NewKeyDID(pub ed25519.PublicKey) (string, error) {
	fingerprint, err := EncodeEd25519Multibase(pub)
	if err != nil {
		return "", err
	}
	return "did:key:" + fingerprint, nil
}

// KeyDocument expands a did:key into its document. The single verification
// method is referenced from authentication and assertionMethod.
func KeyDocument(uri string) (*Document, error) {
	d, err := Parse(uri)
	if err != nil {
		return nil, err
	}
	if d.Method != MethodKey {
		return nil, dErrors.New(dErrors.CodeUnresolvable, fmt.Sprintf("not a did:key: %s", d.Method))
	}
	encoding, raw, err := multibase.Decode(d.ID)
	if err != nil || encoding != multibase.Base58BTC {
		return nil, dErrors.New(dErrors.CodeUnresolvable, "malformed did:key fingerprint")
	}
	pub, err := PublicKeyFromMulticodec(raw)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnresolvable, "unsupported did:key type")
	}
	vmType := TypeMultikey
	if _, ok := pub.(ed25519.PublicKey); ok {
		vmType = TypeEd25519Verification
	}

	vmID := uri + "#" + d.ID
	return &Document{
		Context: []string{ContextDIDv1},
		ID:      uri,
		VerificationMethod: []VerificationMethod{{
			ID:                 vmID,
			Type:               vmType,
			Controller:         uri,
			PublicKeyMultibase: d.ID,
		}},
		Authentication:  []any{vmID},
		AssertionMethod: []any{vmID},
	}, nil
}
