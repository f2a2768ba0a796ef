// Package jwtvc signs verifiable credentials as JWTs with the issuer key.
package jwtvc

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"dcx/internal/signature"
	dErrors "dcx/pkg/domain-errors"
)

const (
	ContextCredentialsV1 = "https://www.w3.org/2018/credentials/v1"
	TypeVerifiable       = "VerifiableCredential"

	issuanceDateFormat = "2006-01-02T15:04:05Z"
)

// Claims is a JWT-VC payload. The registered claims mirror the vc's
// issuer, id, subject and validity.
type Claims struct {
	VC VC `json:"vc"`
	jwt.RegisteredClaims
}

// VC is the vc claim of a JWT-VC.
type VC struct {
	Context           []string       `json:"@context"`
	Type              []string       `json:"type"`
	ID                string         `json:"id"`
	Issuer            string         `json:"issuer"`
	IssuanceDate      string         `json:"issuanceDate"`
	ExpirationDate    string         `json:"expirationDate,omitempty"`
	CredentialSubject map[string]any `json:"credentialSubject"`
}

// Credential describes what to issue. Type is appended to VerifiableCredential.
type Credential struct {
	Type      string
	Issuer    string
	Subject   string
	Data      map[string]any
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Sign builds and signs a JWT-VC. kid names the issuer verification method
// in the JOSE header.
func Sign(signer signature.Signer, kid string, c Credential) (string, error) {
	if c.Issuer == "" || c.Subject == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "credential issuer and subject are required")
	}
	if signer.Algorithm() == "" {
		return "", dErrors.New(dErrors.CodeInternal, "signer has no key")
	}

	now := c.IssuedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC().Truncate(time.Second)
	id := "urn:uuid:" + uuid.NewString()

	subject := make(map[string]any, len(c.Data)+1)
	for k, v := range c.Data {
		subject[k] = v
	}
	subject["id"] = c.Subject

	types := []string{TypeVerifiable}
	if c.Type != "" && c.Type != TypeVerifiable {
		types = append(types, c.Type)
	}

	claims := Claims{
		VC: VC{
			Context:           []string{ContextCredentialsV1},
			Type:              types,
			ID:                id,
			Issuer:            c.Issuer,
			IssuanceDate:      now.Format(issuanceDateFormat),
			CredentialSubject: subject,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.Issuer,
			Subject:   c.Subject,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if !c.ExpiresAt.IsZero() {
		exp := c.ExpiresAt.UTC().Truncate(time.Second)
		claims.VC.ExpirationDate = exp.Format(issuanceDateFormat)
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}

	token := jwt.NewWithClaims(signingMethod{alg: signer.Algorithm()}, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(signer)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign credential")
	}
	return signed, nil
}

// signingMethod signs with a signature.Signer so the private key never
// leaves the identity package. It is not registered with jwt; verification
// goes through the standard methods for the alg.
type signingMethod struct {
	alg string
}

func (m signingMethod) Alg() string {
	return m.alg
}

func (m signingMethod) Sign(signingString string, key any) ([]byte, error) {
	signer, ok := key.(signature.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: want signature.Signer, got %T", jwt.ErrInvalidKeyType, key)
	}
	return signer.Sign([]byte(signingString))
}

func (m signingMethod) Verify(string, []byte, any) error {
	return fmt.Errorf("%s: verification is not supported by the signing method", m.alg)
}
