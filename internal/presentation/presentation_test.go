package presentation

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"dcx/internal/credential/models"
)

type PresentationSuite struct {
	suite.Suite
	ctx       context.Context
	priv      ed25519.PrivateKey
	validator *Validator
}

func TestPresentationSuite(t *testing.T) {
	suite.Run(t, new(PresentationSuite))
}

func (s *PresentationSuite) SetupTest() {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	s.Require().NoError(err)
	s.priv = priv
	s.ctx = context.Background()
	s.validator = NewValidator()
}

func (s *PresentationSuite) jwtVC(subject map[string]any, types ...string) string {
	return s.signedVC(jwt.SigningMethodEdDSA, s.priv, subject, types...)
}

func (s *PresentationSuite) signedVC(method jwt.SigningMethod, key any, subject map[string]any, types ...string) string {
	claims := jwt.MapClaims{
		"iss": "did:key:z6MkIssuer",
		"sub": "did:key:z6MkHolder",
		"jti": "urn:uuid:1",
		"vc": map[string]any{
			"@context":          []any{"https://www.w3.org/2018/credentials/v1"},
			"type":              append([]any{"VerifiableCredential"}, toAny(types)...),
			"credentialSubject": subject,
		},
	}
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	s.Require().NoError(err)
	return token
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func field(path string, filter string) models.Field {
	f := models.Field{Path: []string{path}}
	if filter != "" {
		f.Filter = json.RawMessage(filter)
	}
	return f
}

func descriptor(id string, fields ...models.Field) models.InputDescriptor {
	return models.InputDescriptor{ID: id, Constraints: &models.Constraints{Fields: fields}}
}

func (s *PresentationSuite) namePD() *models.PresentationDefinition {
	return &models.PresentationDefinition{
		ID: "name-pd",
		InputDescriptors: []models.InputDescriptor{
			descriptor("name", field("$.credentialSubject.name", `{"type":"string","minLength":1}`)),
		},
	}
}

func (s *PresentationSuite) TestSatisfiedByJWTVC() {
	vc := s.jwtVC(map[string]any{"name": "Alice"})
	s.NoError(s.validator.AssertSatisfies(s.ctx, []string{vc}, s.namePD()))
}

func (s *PresentationSuite) TestPathsMayAddressTheJWTPayload() {
	pd := &models.PresentationDefinition{
		ID:               "payload-pd",
		InputDescriptors: []models.InputDescriptor{descriptor("iss", field("$.iss", `{"type":"string","pattern":"^did:key:"}`))},
	}
	s.NoError(s.validator.AssertSatisfies(s.ctx, []string{s.jwtVC(map[string]any{})}, pd))
}

func (s *PresentationSuite) TestRegisteredClaimsFillVCProperties() {
	pd := &models.PresentationDefinition{
		ID: "subject-pd",
		InputDescriptors: []models.InputDescriptor{
			descriptor("holder", field("$.credentialSubject.id", `{"const":"did:key:z6MkHolder"}`)),
		},
	}
	s.NoError(s.validator.AssertSatisfies(s.ctx, []string{s.jwtVC(map[string]any{"name": "Alice"})}, pd))
}

func (s *PresentationSuite) TestUnmatchedDescriptor() {
	vc := s.jwtVC(map[string]any{"email": "alice@example.com"})

	err := s.validator.AssertSatisfies(s.ctx, []string{vc}, s.namePD())

	var verr *ValidationError
	s.Require().True(errors.As(err, &verr))
	s.Equal("name-pd", verr.DefinitionID)
	s.Equal([]string{"name"}, verr.Unmatched)
	s.Contains(err.Error(), "no credential for input descriptors name")
}

func (s *PresentationSuite) TestFilterRejectsValue() {
	vc := s.jwtVC(map[string]any{"name": ""})
	s.Error(s.validator.AssertSatisfies(s.ctx, []string{vc}, s.namePD()))
}

func (s *PresentationSuite) TestArrayClaims() {
	pd := &models.PresentationDefinition{
		ID: "type-pd",
		InputDescriptors: []models.InputDescriptor{
			descriptor("by-element", field("$.type[*]", `{"const":"EmploymentCredential"}`)),
			descriptor("by-array", field("$.type", `{"type":"array","contains":{"const":"EmploymentCredential"}}`)),
		},
	}
	vc := s.jwtVC(map[string]any{}, "EmploymentCredential")
	s.NoError(s.validator.AssertSatisfies(s.ctx, []string{vc}, pd))
	s.Error(s.validator.AssertSatisfies(s.ctx, []string{s.jwtVC(map[string]any{})}, pd))
}

func (s *PresentationSuite) TestJSONCredential() {
	vc := `{"type":["VerifiableCredential"],"credentialSubject":{"name":"Bob"}}`
	s.NoError(s.validator.AssertSatisfies(s.ctx, []string{vc}, s.namePD()))
}

func (s *PresentationSuite) TestOptionalFieldsAreNotRequired() {
	pd := s.namePD()
	pd.InputDescriptors[0].Constraints.Fields = append(pd.InputDescriptors[0].Constraints.Fields,
		models.Field{Path: []string{"$.credentialSubject.nickname"}, Optional: true})
	s.NoError(s.validator.AssertSatisfies(s.ctx, []string{s.jwtVC(map[string]any{"name": "Alice"})}, pd))
}

func (s *PresentationSuite) TestUndecodableCredentialsNeverMatch() {
	s.Error(s.validator.AssertSatisfies(s.ctx, []string{"not-a-jwt", "{broken"}, s.namePD()))
	s.Error(s.validator.AssertSatisfies(s.ctx, nil, s.namePD()))
}

func (s *PresentationSuite) TestInvalidPathIsAValidationError() {
	pd := &models.PresentationDefinition{
		ID:               "bad-path",
		InputDescriptors: []models.InputDescriptor{descriptor("x", field("$.credentialSubject[", ""))},
	}
	err := s.validator.AssertSatisfies(s.ctx, []string{s.jwtVC(map[string]any{})}, pd)
	var verr *ValidationError
	s.True(errors.As(err, &verr))
}

func (s *PresentationSuite) TestNilDefinitionIsSatisfied() {
	s.NoError(s.validator.AssertSatisfies(s.ctx, nil, nil))
}

func (s *PresentationSuite) TestSubmissionRequirements() {
	pd := &models.PresentationDefinition{
		ID: "grouped",
		SubmissionRequirements: []*models.SubmissionRequirement{
			{Name: "identity", Rule: models.RulePick, Count: 1, From: "A"},
		},
		InputDescriptors: []models.InputDescriptor{
			{ID: "name", Group: []string{"A"}, Constraints: &models.Constraints{Fields: []models.Field{field("$.credentialSubject.name", "")}}},
			{ID: "email", Group: []string{"A"}, Constraints: &models.Constraints{Fields: []models.Field{field("$.credentialSubject.email", "")}}},
		},
	}
	vcs := []string{s.jwtVC(map[string]any{"email": "alice@example.com"})}

	s.NoError(s.validator.AssertSatisfies(s.ctx, vcs, pd))

	pd.SubmissionRequirements[0] = &models.SubmissionRequirement{Name: "identity", Rule: models.RuleAll, From: "A"}
	err := s.validator.AssertSatisfies(s.ctx, vcs, pd)
	s.Require().Error(err)
	s.Contains(err.Error(), `requirement "identity" needs all 2 inputs, got 1`)

	pd.SubmissionRequirements[0] = &models.SubmissionRequirement{
		Rule: models.RulePick, Count: 1,
		FromNested: []*models.SubmissionRequirement{
			{Rule: models.RuleAll, From: "A"},
			{Rule: models.RulePick, Min: 1, From: "A"},
		},
	}
	s.NoError(s.validator.AssertSatisfies(s.ctx, vcs, pd))
}

func (s *PresentationSuite) TestSelectCredentials() {
	alice := s.jwtVC(map[string]any{"name": "Alice"})
	other := s.jwtVC(map[string]any{"email": "x@example.com"})
	bob := `{"credentialSubject":{"name":"Bob"}}`

	selected, err := s.validator.SelectCredentials(s.ctx, []string{alice, other, bob}, s.namePD())
	s.Require().NoError(err)
	s.Equal([]string{alice, bob}, selected)

	_, err = s.validator.SelectCredentials(s.ctx, []string{alice}, nil)
	s.Error(err)
}

func (s *PresentationSuite) TestBuildPresentation() {
	other := s.jwtVC(map[string]any{"email": "x@example.com"})
	alice := s.jwtVC(map[string]any{"name": "Alice"})

	vp, err := s.validator.BuildPresentation(s.ctx, []string{other, alice}, s.namePD())
	s.Require().NoError(err)
	s.Equal("name-pd", vp.PresentationSubmission.DefinitionID)
	s.NotEmpty(vp.PresentationSubmission.ID)
	s.Equal([]models.Descriptor{{ID: "name", Format: FormatJWTVC, Path: "$.verifiableCredential[1]"}}, vp.PresentationSubmission.DescriptorMap)
	s.Equal([]string{other, alice}, vp.VerifiableCredential)
	s.NoError(vp.Validate())

	_, err = s.validator.BuildPresentation(s.ctx, []string{other}, s.namePD())
	var verr *ValidationError
	s.True(errors.As(err, &verr))
}

func (s *PresentationSuite) TestFormatRestrictions() {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	s.Require().NoError(err)

	subject := map[string]any{"name": "Alice"}
	eddsa := s.jwtVC(subject)
	es256 := s.signedVC(jwt.SigningMethodES256, ecKey, subject)
	ldp := `{"type":["VerifiableCredential"],"credentialSubject":{"name":"Alice"},"proof":{"type":"Ed25519Signature2020"}}`
	unproven := `{"type":["VerifiableCredential"],"credentialSubject":{"name":"Alice"}}`

	jwtEdDSA := map[string]models.Format{"jwt_vc": {Alg: []string{"EdDSA"}}}
	anyJWT := map[string]models.Format{"jwt_vc": {}}
	ldpEd := map[string]models.Format{"ldp_vc": {ProofType: []string{"Ed25519Signature2020"}}}

	cases := []struct {
		name         string
		descriptor   map[string]models.Format
		definition   map[string]models.Format
		vc           string
		wantSatisfied bool
	}{
		{"no restriction accepts json", nil, nil, ldp, true},
		{"jwt descriptor rejects json", jwtEdDSA, nil, ldp, false},
		{"jwt descriptor accepts matching alg", jwtEdDSA, nil, eddsa, true},
		{"jwt descriptor rejects other alg", jwtEdDSA, nil, es256, false},
		{"jwt without alg list accepts any alg", anyJWT, nil, es256, true},
		{"definition format applies when descriptor has none", nil, jwtEdDSA, ldp, false},
		{"descriptor format overrides definition", ldpEd, jwtEdDSA, ldp, true},
		{"ldp proof type must match", ldpEd, nil, unproven, false},
		{"ldp descriptor rejects jwt", ldpEd, nil, eddsa, false},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			pd := s.namePD()
			pd.Format = tc.definition
			pd.InputDescriptors[0].Format = tc.descriptor

			err := s.validator.AssertSatisfies(s.ctx, []string{tc.vc}, pd)
			if tc.wantSatisfied {
				s.NoError(err)
				return
			}
			var verr *ValidationError
			s.Require().ErrorAs(err, &verr)
			s.Equal([]string{"name"}, verr.Unmatched)
		})
	}
}

func (s *PresentationSuite) TestFirstSelectedPathDecides() {
	pd := &models.PresentationDefinition{
		ID: "alias-pd",
		InputDescriptors: []models.InputDescriptor{descriptor("name", models.Field{
			Path:   []string{"$.credentialSubject.name", "$.credentialSubject.alias"},
			Filter: json.RawMessage(`{"type":"string","minLength":1}`),
		})},
	}

	s.NoError(s.validator.AssertSatisfies(s.ctx, []string{`{"credentialSubject":{"alias":"Bob"}}`}, pd),
		"a missing first path falls through to the next")
	s.Error(s.validator.AssertSatisfies(s.ctx, []string{`{"credentialSubject":{"name":"","alias":"Bob"}}`}, pd),
		"a selected value that fails the filter is final")
}

func (s *PresentationSuite) TestSubmissionRequirementBounds() {
	group := func(ids ...string) []models.InputDescriptor {
		out := make([]models.InputDescriptor, 0, len(ids))
		for _, id := range ids {
			out = append(out, models.InputDescriptor{ID: id, Group: []string{"A"},
				Constraints: &models.Constraints{Fields: []models.Field{field("$.credentialSubject."+id, "")}}})
		}
		return out
	}
	vcs := []string{s.jwtVC(map[string]any{"name": "Alice", "email": "alice@example.com"})}

	cases := []struct {
		name    string
		req     *models.SubmissionRequirement
		wantErr string
	}{
		{"max respected", &models.SubmissionRequirement{Rule: models.RulePick, Max: 2, From: "A"}, ""},
		{"max exceeded", &models.SubmissionRequirement{Name: "contact", Rule: models.RulePick, Max: 1, From: "A"}, `requirement "contact" allows at most 1 inputs, got 2`},
		{"min above max", &models.SubmissionRequirement{Rule: models.RulePick, Min: 3, Max: 1, From: "A"}, "has min 3 above max 1"},
		{"empty group", &models.SubmissionRequirement{Rule: models.RuleAll, From: "B"}, `group "B" has no input descriptors`},
		{"empty group nested", &models.SubmissionRequirement{Rule: models.RulePick, Count: 1, FromNested: []*models.SubmissionRequirement{
			{Rule: models.RuleAll, From: "A"},
			{Rule: models.RuleAll, From: "B"},
		}}, `group "B" has no input descriptors`},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			pd := &models.PresentationDefinition{
				ID:                     "bounded",
				SubmissionRequirements: []*models.SubmissionRequirement{tc.req},
				InputDescriptors:       group("name", "email"),
			}
			err := s.validator.AssertSatisfies(s.ctx, vcs, pd)
			if tc.wantErr == "" {
				s.NoError(err)
				return
			}
			s.Require().Error(err)
			s.Contains(err.Error(), tc.wantErr)
		})
	}
}
