package jsonrpc

import (
	"crypto"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v3"

	"dcx/internal/dwn"
	"dcx/internal/signature"
)

// timestampFormat is the microsecond UTC form DWN nodes expect.
const timestampFormat = "2006-01-02T15:04:05.000000Z"

const (
	interfaceProtocols = "Protocols"
	interfaceRecords   = "Records"

	methodQuery     = "Query"
	methodConfigure = "Configure"
	methodRead      = "Read"
	methodWrite     = "Write"
)

// message is a DWN message as carried in dwn.processMessage params.
type message struct {
	RecordID      string         `json:"recordId,omitempty"`
	Descriptor    descriptor     `json:"descriptor"`
	Authorization *authorization `json:"authorization,omitempty"`
}

type descriptor struct {
	Interface        string                  `json:"interface"`
	Method           string                  `json:"method"`
	MessageTimestamp string                  `json:"messageTimestamp"`
	Filter           any                     `json:"filter,omitempty"`
	Definition       *dwn.ProtocolDefinition `json:"definition,omitempty"`

	// RecordsWrite
	Protocol      string `json:"protocol,omitempty"`
	ProtocolPath  string `json:"protocolPath,omitempty"`
	Schema        string `json:"schema,omitempty"`
	DataFormat    string `json:"dataFormat,omitempty"`
	DataCID       string `json:"dataCid,omitempty"`
	DataSize      int    `json:"dataSize,omitempty"`
	DateCreated   string `json:"dateCreated,omitempty"`
	Published     bool   `json:"published,omitempty"`
	DatePublished string `json:"datePublished,omitempty"`
}

// authorization holds a general JWS JSON serialization over the descriptor digest.
type authorization struct {
	Signature generalJWS `json:"signature"`
}

type generalJWS struct {
	Payload    string         `json:"payload"`
	Signatures []jwsSignature `json:"signatures"`
}

type jwsSignature struct {
	Protected string `json:"protected"`
	Signature string `json:"signature"`
}

// Author signs messages on behalf of the tenant DID.
type Author struct {
	DID       string
	KeyID     string
	PublicKey crypto.PublicKey
	Signer    signature.Signer
}

// opaqueSigner lets go-jose sign through a signature.Signer without the
// private key leaving it.
type opaqueSigner struct {
	author Author
}

func (o opaqueSigner) Public() *jose.JSONWebKey {
	return &jose.JSONWebKey{
		Key:       o.author.PublicKey,
		KeyID:     o.author.KeyID,
		Algorithm: o.author.Signer.Algorithm(),
		Use:       "sig",
	}
}

func (o opaqueSigner) Algs() []jose.SignatureAlgorithm {
	return []jose.SignatureAlgorithm{jose.SignatureAlgorithm(o.author.Signer.Algorithm())}
}

func (o opaqueSigner) SignPayload(payload []byte, _ jose.SignatureAlgorithm) ([]byte, error) {
	return o.author.Signer.Sign(payload)
}

// digest is the base64url SHA-256 of v's JSON encoding. It stands in for the
// dag-cbor CIDs that full DWN implementations compute.
func digest(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

func authorize(author *Author, d descriptor) (*authorization, error) {
	if author == nil {
		return nil, nil
	}
	cid, err := digest(d)
	if err != nil {
		return nil, fmt.Errorf("digest descriptor: %w", err)
	}
	payload, err := json.Marshal(map[string]string{"descriptorCid": cid})
	if err != nil {
		return nil, err
	}

	alg := jose.SignatureAlgorithm(author.Signer.Algorithm())
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: alg, Key: opaqueSigner{author: *author}}, nil)
	if err != nil {
		return nil, fmt.Errorf("build jws signer: %w", err)
	}
	obj, err := signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign descriptor: %w", err)
	}

	// A single-signature FullSerialize is the flattened form; DWN expects general.
	var flat struct {
		Payload   string `json:"payload"`
		Protected string `json:"protected"`
		Signature string `json:"signature"`
	}
	if err := json.Unmarshal([]byte(obj.FullSerialize()), &flat); err != nil {
		return nil, fmt.Errorf("decode jws: %w", err)
	}
	return &authorization{Signature: generalJWS{
		Payload:    flat.Payload,
		Signatures: []jwsSignature{{Protected: flat.Protected, Signature: flat.Signature}},
	}}, nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}
