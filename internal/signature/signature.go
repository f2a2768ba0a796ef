// Package signature verifies applicant request signatures and signs on
// behalf of the issuer.
package signature

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	dErrors "dcx/pkg/domain-errors"
)

// ErrUnsupportedKey is returned for key types the issuer cannot verify against.
var ErrUnsupportedKey = dErrors.New(dErrors.CodeInvalidSignature, "unsupported verification key type")

// Digest is the SHA-256 of the request body exactly as received.
func Digest(body []byte) []byte {
	sum := sha256.Sum256(body)
	return sum[:]
}

// Decode accepts standard and URL-safe base64, padded or not.
func Decode(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, dErrors.New(dErrors.CodeInvalidSignature, "signature is empty")
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if sig, err := enc.DecodeString(encoded); err == nil {
			return sig, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeInvalidSignature, "signature is not valid base64")
}

// Verifier checks a signature over a digest. It holds no state.
type Verifier struct{}

// Verify reports whether sig is a valid signature by pub over digest.
// Ed25519 signs the digest bytes directly; ECDSA signatures are raw r||s.
func (Verifier) Verify(pub crypto.PublicKey, sig, digest []byte) (bool, error) {
	switch key := pub.(type) {
	case ed25519.PublicKey:
		if len(key) != ed25519.PublicKeySize {
			return false, ErrUnsupportedKey
		}
		return ed25519.Verify(key, digest, sig), nil
	case *ecdsa.PublicKey:
		size := curveBytes(key.Curve)
		if size == 0 {
			return false, ErrUnsupportedKey
		}
		if len(sig) != 2*size {
			return false, nil
		}
		r := new(big.Int).SetBytes(sig[:size])
		s := new(big.Int).SetBytes(sig[size:])
		return ecdsa.Verify(key, digest, r, s), nil
	default:
		return false, ErrUnsupportedKey
	}
}

// Signer binds one issuer private key. It is a value: handlers receive a
// fresh copy per dispatch and cannot reach the key itself.
type Signer struct {
	sign      func(data []byte) ([]byte, error)
	algorithm string
}

// NewSigner builds a Signer for an Ed25519 or ECDSA (P-256, P-384) private key.
func NewSigner(priv crypto.PrivateKey) (Signer, error) {
	switch key := priv.(type) {
	case ed25519.PrivateKey:
		return Signer{
			algorithm: "EdDSA",
			sign: func(data []byte) ([]byte, error) {
				return ed25519.Sign(key, data), nil
			},
		}, nil
	case *ecdsa.PrivateKey:
		alg, hash := ecdsaParams(key.Curve)
		if alg == "" {
			return Signer{}, fmt.Errorf("unsupported curve %s", key.Curve.Params().Name)
		}
		size := curveBytes(key.Curve)
		return Signer{
			algorithm: alg,
			sign: func(data []byte) ([]byte, error) {
				r, s, err := ecdsa.Sign(rand.Reader, key, hash(data))
				if err != nil {
					return nil, err
				}
				out := make([]byte, 2*size)
				r.FillBytes(out[:size])
				s.FillBytes(out[size:])
				return out, nil
			},
		}, nil
	default:
		return Signer{}, fmt.Errorf("unsupported private key type %T", priv)
	}
}

// Sign signs data. ECDSA keys hash data first, as JWS does.
func (s Signer) Sign(data []byte) ([]byte, error) {
	if s.sign == nil {
		return nil, fmt.Errorf("signer has no key")
	}
	return s.sign(data)
}

// Algorithm is the JWS alg name for the bound key.
func (s Signer) Algorithm() string {
	return s.algorithm
}

func curveBytes(c elliptic.Curve) int {
	switch c {
	case elliptic.P256():
		return 32
	case elliptic.P384():
		return 48
	default:
		return 0
	}
}

func ecdsaParams(c elliptic.Curve) (string, func([]byte) []byte) {
	switch c {
	case elliptic.P256():
		return "ES256", Digest
	case elliptic.P384():
		return "ES384", func(b []byte) []byte {
			sum := sha512.Sum384(b)
			return sum[:]
		}
	default:
		return "", nil
	}
}
