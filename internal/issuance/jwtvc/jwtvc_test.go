package jwtvc

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcx/internal/signature"
	dErrors "dcx/pkg/domain-errors"
)

const (
	issuerDID  = "did:key:z6MkIssuer"
	subjectDID = "did:key:z6MkSubject"
	kid        = issuerDID + "#z6MkIssuer"
)

func TestSignEd25519(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := signature.NewSigner(priv)
	require.NoError(t, err)

	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := Sign(signer, kid, Credential{
		Type:      "ExampleCred",
		Issuer:    issuerDID,
		Subject:   subjectDID,
		Data:      map[string]any{"value": 10},
		IssuedAt:  issued,
		ExpiresAt: issued.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		return pub, nil
	}, jwt.WithValidMethods([]string{"EdDSA"}), jwt.WithTimeFunc(func() time.Time { return issued.Add(time.Hour) }))
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, kid, parsed.Header["kid"])

	assert.Equal(t, issuerDID, claims.Issuer)
	assert.Equal(t, subjectDID, claims.Subject)
	assert.Equal(t, claims.ID, claims.VC.ID)
	assert.Equal(t, []string{TypeVerifiable, "ExampleCred"}, claims.VC.Type)
	assert.Equal(t, "2024-03-01T12:00:00Z", claims.VC.IssuanceDate)
	assert.Equal(t, "2024-03-02T12:00:00Z", claims.VC.ExpirationDate)
	assert.Equal(t, subjectDID, claims.VC.CredentialSubject["id"])
	assert.EqualValues(t, 10, claims.VC.CredentialSubject["value"])
}

func TestSignES256(t *testing.T) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	signer, err := signature.NewSigner(priv)
	require.NoError(t, err)

	token, err := Sign(signer, kid, Credential{Issuer: issuerDID, Subject: subjectDID})
	require.NoError(t, err)

	_, err = jwt.Parse(token, func(*jwt.Token) (any, error) {
		return &priv.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	assert.NoError(t, err)
}

func TestSignRejectsIncompleteCredentials(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	signer, _ := signature.NewSigner(priv)

	_, err := Sign(signer, kid, Credential{Issuer: issuerDID})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = Sign(signature.Signer{}, kid, Credential{Issuer: issuerDID, Subject: subjectDID})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
