package did

import (
	"bytes"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-jose/go-jose/v3"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multibase"

	dErrors "dcx/pkg/domain-errors"
)

const (
	ContextDIDv1 = "https://www.w3.org/ns/did/v1"

	TypeJSONWebKey2020      = "JsonWebKey2020"
	TypeEd25519Verification = "Ed25519VerificationKey2020"
	TypeMultikey            = "Multikey"
)

// Multicodec prefixes (unsigned varint) for public keys.
var (
	multicodecEd25519 = []byte{0xed, 0x01}
	multicodecP256    = []byte{0x80, 0x24}
)

var (
	ErrNoVerificationMethods = dErrors.New(dErrors.CodeUnresolvable, "applicant DID has no verification methods")
	ErrNoPublicKey           = dErrors.New(dErrors.CodeUnresolvable, "applicant DID has no public key")
)

// Document is the subset of a DID document the issuer reads.
type Document struct {
	Context            any                  `json:"@context,omitempty"`
	ID                 string               `json:"id"`
	Controller         any                  `json:"controller,omitempty"`
	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication     []any                `json:"authentication,omitempty"`
	AssertionMethod    []any                `json:"assertionMethod,omitempty"`
	Service            []Service            `json:"service,omitempty"`
}

// VerificationMethod carries key material in one of three encodings.
// publicKeyJwk is kept raw so documents with key types the issuer cannot
// verify still decode.
type VerificationMethod struct {
	ID                 string          `json:"id"`
	Type               string          `json:"type"`
	Controller         string          `json:"controller"`
	PublicKeyJWK       json.RawMessage `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string          `json:"publicKeyMultibase,omitempty"`
	PublicKeyBase58    string          `json:"publicKeyBase58,omitempty"`
}

type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint any    `json:"serviceEndpoint"`
}

// FirstVerificationKey returns the public key of the document's first
// verification method. Later methods are never consulted.
func FirstVerificationKey(doc *Document) (crypto.PublicKey, error) {
	if doc == nil || len(doc.VerificationMethod) == 0 {
		return nil, ErrNoVerificationMethods
	}
	pub, err := doc.VerificationMethod[0].PublicKey()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnresolvable, ErrNoPublicKey.Error())
	}
	return pub, nil
}

// PublicKey decodes the method's key material, preferring publicKeyJwk.
func (vm VerificationMethod) PublicKey() (crypto.PublicKey, error) {
	switch {
	case len(vm.PublicKeyJWK) > 0 && string(vm.PublicKeyJWK) != "null":
		var jwk jose.JSONWebKey
		if err := jwk.UnmarshalJSON(vm.PublicKeyJWK); err != nil {
			return nil, fmt.Errorf("decode publicKeyJwk: %w", err)
		}
		if !jwk.IsPublic() {
			jwk = jwk.Public()
		}
		return supported(jwk.Key)
	case vm.PublicKeyMultibase != "":
		_, raw, err := multibase.Decode(vm.PublicKeyMultibase)
		if err != nil {
			return nil, fmt.Errorf("decode publicKeyMultibase: %w", err)
		}
		return PublicKeyFromMulticodec(raw)
	case vm.PublicKeyBase58 != "":
		raw, err := base58.Decode(vm.PublicKeyBase58)
		if err != nil {
			return nil, fmt.Errorf("decode publicKeyBase58: %w", err)
		}
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("publicKeyBase58: want %d bytes, got %d", ed25519.PublicKeySize, len(raw))
		}
		return ed25519.PublicKey(raw), nil
	}
	return nil, errors.New("verification method carries no key material")
}

// PublicKeyFromMulticodec decodes a multicodec-prefixed key. A bare 32-byte
// value is taken as Ed25519.
func PublicKeyFromMulticodec(raw []byte) (crypto.PublicKey, error) {
	switch {
	case len(raw) == ed25519.PublicKeySize:
		return ed25519.PublicKey(raw), nil
	case bytes.HasPrefix(raw, multicodecEd25519) && len(raw) == 2+ed25519.PublicKeySize:
		return ed25519.PublicKey(raw[2:]), nil
	case bytes.HasPrefix(raw, multicodecP256):
		x, y := elliptic.UnmarshalCompressed(elliptic.P256(), raw[2:])
		if x == nil {
			return nil, errors.New("invalid compressed P-256 key")
		}
		return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
	}
	return nil, errors.New("unsupported multicodec key")
}

// EncodeEd25519Multibase renders pub as base58btc multibase with the Ed25519 multicodec prefix.
func EncodeEd25519Multibase(pub ed25519.PublicKey) (string, error) {
	return multibase.Encode(multibase.Base58BTC, append(append([]byte{}, multicodecEd25519...), pub...))
}

func supported(key any) (crypto.PublicKey, error) {
	switch k := key.(type) {
	case ed25519.PublicKey:
		return k, nil
	case *ecdsa.PublicKey:
		return k, nil
	}
	return nil, fmt.Errorf("unsupported key type %T", key)
}

