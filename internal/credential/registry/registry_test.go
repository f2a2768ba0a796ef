package registry

//go:generate mockgen -source=registry.go -destination=mocks/mocks.go -package=mocks IssuanceHandler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"dcx/internal/credential/models"
	dErrors "dcx/pkg/domain-errors"
)

const issuerDID = "did:key:z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK"

func manifest(id string) *models.CredentialManifest {
	return &models.CredentialManifest{
		ID:     id,
		Issuer: models.Issuer{ID: "[replaced]", Name: "Example"},
		PresentationDefinition: &models.PresentationDefinition{
			ID: id + "-pd",
			InputDescriptors: []models.InputDescriptor{{
				ID:          "name",
				Constraints: &models.Constraints{Fields: []models.Field{{Path: []string{"$.credentialSubject.name"}}}},
			}},
		},
	}
}

var noop = HandlerFunc(func(context.Context, IssuanceRequest) (any, error) { return nil, nil })

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	r, err := New(
		CredentialType{Manifest: manifest("B-CREDENTIAL"), Handler: noop},
		CredentialType{Manifest: manifest("A-CREDENTIAL"), Handler: noop},
	)
	s.Require().NoError(err)
	s.registry = r
}

func (s *RegistrySuite) TestAllTypeIDsKeepsRegistrationOrder() {
	s.Equal([]string{"B-CREDENTIAL", "A-CREDENTIAL"}, s.registry.AllTypeIDs())
}

func (s *RegistrySuite) TestLookup() {
	t, err := s.registry.Lookup("A-CREDENTIAL")
	s.Require().NoError(err)
	s.Equal("A-CREDENTIAL", t.ID())

	_, err = s.registry.Lookup("NOPE")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	s.Equal("unknown credential type", err.Error())
}

func (s *RegistrySuite) TestManifestForStampsIssuerWithoutTouchingTemplate() {
	m, err := s.registry.ManifestFor("A-CREDENTIAL", issuerDID)
	s.Require().NoError(err)
	s.Equal(issuerDID, m.Issuer.ID)

	m.PresentationDefinition.InputDescriptors[0].ID = "mutated"

	again, err := s.registry.ManifestFor("A-CREDENTIAL", "did:key:other")
	s.Require().NoError(err)
	s.Equal("did:key:other", again.Issuer.ID)
	s.Equal("name", again.PresentationDefinition.InputDescriptors[0].ID)

	t, _ := s.registry.Lookup("A-CREDENTIAL")
	s.Equal("[replaced]", t.Manifest.Issuer.ID)
}

func (s *RegistrySuite) TestManifests() {
	ms, err := s.registry.Manifests(issuerDID)
	s.Require().NoError(err)
	s.Require().Len(ms, 2)
	for _, m := range ms {
		s.Equal(issuerDID, m.Issuer.ID)
	}
	s.Equal("B-CREDENTIAL", ms[0].ID)
}

func (s *RegistrySuite) TestNewRejectsInvalidTypes() {
	tests := map[string][]CredentialType{
		"duplicate id": {
			{Manifest: manifest("X"), Handler: noop},
			{Manifest: manifest("X"), Handler: noop},
		},
		"empty id":        {{Manifest: manifest(""), Handler: noop}},
		"nil manifest":    {{Handler: noop}},
		"missing handler": {{Manifest: manifest("X")}},
	}
	for name, types := range tests {
		s.Run(name, func() {
			_, err := New(types...)
			s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}
}

func (s *RegistrySuite) TestHandlerFunc() {
	var got IssuanceRequest
	h := HandlerFunc(func(_ context.Context, req IssuanceRequest) (any, error) {
		got = req
		return "ok", nil
	})

	out, err := h.Issue(context.Background(), IssuanceRequest{ApplicantDID: "did:example:abc123"})
	s.Require().NoError(err)
	s.Equal("ok", out)
	s.Equal("did:example:abc123", got.ApplicantDID)
}
