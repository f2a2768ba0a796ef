// Package identity bootstraps the issuer's DID and signing key.
//
// The key material lives in a JSON key file shaped as
//
//	{"did": "...", "keySet": {"verificationMethodKeys": [{"privateKeyJwk": {...}, "publicKeyJwk": {...}}]}, "services": [...]}
//
// A missing file triggers creation of a fresh did:key identity which is then
// persisted; any other read or parse failure is returned to the caller.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-jose/go-jose/v3"

	"dcx/internal/did"
	"dcx/internal/signature"
	dErrors "dcx/pkg/domain-errors"
)

// ServiceTypeDWN marks a DID service entry pointing at decentralized web nodes.
const ServiceTypeDWN = "DecentralizedWebNode"

// KeyPair holds one verification method key as JWKs.
type KeyPair struct {
	PrivateKeyJWK jose.JSONWebKey `json:"privateKeyJwk"`
	PublicKeyJWK  jose.JSONWebKey `json:"publicKeyJwk"`
}

type KeySet struct {
	VerificationMethodKeys []KeyPair `json:"verificationMethodKeys"`
}

// KeyFile is the on-disk form of an identity.
type KeyFile struct {
	DID      string        `json:"did"`
	KeySet   KeySet        `json:"keySet"`
	Services []did.Service `json:"services"`
}

// Identity is the issuer's DID with its private key. It is read-only after
// construction and safe to share between requests.
type Identity struct {
	DID      string
	Services []did.Service
	key      ed25519.PrivateKey
}

type options struct {
	random io.Reader
	logger *slog.Logger
}

// Option configures LoadOrCreate.
type Option func(*options)

// WithRandom sets the entropy source for new keys.
func WithRandom(r io.Reader) Option {
	return func(o *options) {
		o.random = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// LoadOrCreate reads the identity stored at path, or creates and persists a
// new one advertising services when the file does not exist. Services of an
// existing file win over the ones passed in.
func LoadOrCreate(path string, services []did.Service, opts ...Option) (*Identity, error) {
	o := options{random: rand.Reader, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		id, err := Parse(raw)
		if err != nil {
			return nil, err
		}
		o.logger.Info("loaded issuer identity", "did", id.DID, "key_file", path)
		return id, nil
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "read key file")
	}

	id, err := New(o.random, services)
	if err != nil {
		return nil, err
	}
	if err := id.Save(path); err != nil {
		return nil, err
	}
	o.logger.Info("created issuer identity", "did", id.DID, "key_file", path)
	return id, nil
}

// New generates a did:key identity from an Ed25519 key drawn from random.
func New(random io.Reader, services []did.Service) (*Identity, error) {
	pub, priv, err := ed25519.GenerateKey(random)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate issuer key")
	}
	uri, err := did.NewKeyDID(pub)
	if err != nil {
		return nil, err
	}
	return &Identity{DID: uri, Services: services, key: priv}, nil
}

// Parse decodes a key file. The first verification method key must be an
// Ed25519 private key whose did:key matches the stored DID.
func Parse(raw []byte) (*Identity, error) {
	var kf KeyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "malformed key file")
	}
	if len(kf.KeySet.VerificationMethodKeys) == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "key file has no verification method keys")
	}
	priv, ok := kf.KeySet.VerificationMethodKeys[0].PrivateKeyJWK.Key.(ed25519.PrivateKey)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "key file private key is not Ed25519")
	}
	derived, err := did.NewKeyDID(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	if kf.DID != derived {
		return nil, dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("key file did %q does not match its key", kf.DID))
	}
	return &Identity{DID: kf.DID, Services: kf.Services, key: priv}, nil
}

// Save writes the identity to path with owner-only permissions.
func (i *Identity) Save(path string) error {
	raw, err := json.MarshalIndent(i.KeyFile(), "", "  ")
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode key file")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "create key file directory")
		}
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "write key file")
	}
	return nil
}

func (i *Identity) KeyFile() KeyFile {
	kid := i.KeyID()
	return KeyFile{
		DID: i.DID,
		KeySet: KeySet{VerificationMethodKeys: []KeyPair{{
			PrivateKeyJWK: jose.JSONWebKey{Key: i.key, KeyID: kid, Algorithm: string(jose.EdDSA)},
			PublicKeyJWK:  jose.JSONWebKey{Key: i.PublicKey(), KeyID: kid, Algorithm: string(jose.EdDSA)},
		}}},
		Services: i.Services,
	}
}

func (i *Identity) PublicKey() ed25519.PublicKey {
	return i.key.Public().(ed25519.PublicKey)
}

// KeyID is the verification method id of the issuer's signing key.
func (i *Identity) KeyID() string {
	return did.KeyID(i.DID)
}

// Signer returns a fresh signer over the issuer key.
func (i *Identity) Signer() (signature.Signer, error) {
	return signature.NewSigner(i.key)
}

// Document expands the issuer DID and attaches its services.
func (i *Identity) Document() (*did.Document, error) {
	doc, err := did.KeyDocument(i.DID)
	if err != nil {
		return nil, err
	}
	doc.Service = i.Services
	return doc, nil
}

// DWNServices describes the given node endpoints as a single DID service.
func DWNServices(endpoints []string) []did.Service {
	if len(endpoints) == 0 {
		return nil
	}
	return []did.Service{{
		ID:              "#dwn",
		Type:            ServiceTypeDWN,
		ServiceEndpoint: map[string]any{"nodes": endpoints},
	}}
}
