package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "dcx/pkg/domain-errors"
)

const manifestJSON = `{
  "id": "EXAMPLE-CREDENTIAL",
  "spec_version": "https://identity.foundation/credential-manifest/spec/v1.0.0/",
  "issuer": {"id": "[replaced]", "name": "Example Issuer"},
  "output_descriptors": [{"id": "example_output", "schema": "https://example.com/schemas/example"}],
  "format": {"jwt_vc": {"alg": ["EdDSA"]}},
  "presentation_definition": {
    "id": "example-pd",
    "input_descriptors": [{
      "id": "name",
      "constraints": {"fields": [{"path": ["$.credentialSubject.name"], "filter": {"type": "string"}}]}
    }]
  }
}`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(manifestJSON))
	require.NoError(t, err)
	assert.Equal(t, "EXAMPLE-CREDENTIAL", m.ID)
	require.NotNil(t, m.PresentationDefinition)
	assert.JSONEq(t, `{"type":"string"}`, string(m.PresentationDefinition.InputDescriptors[0].Constraints.Fields[0].Filter))

	_, err = ParseManifest([]byte(`{"name":"no id"}`))
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	m, err := ParseManifest([]byte(manifestJSON))
	require.NoError(t, err)

	c, err := m.Clone()
	require.NoError(t, err)
	c.Issuer.ID = "did:key:z6Mk"
	c.PresentationDefinition.InputDescriptors[0].ID = "changed"

	assert.Equal(t, "[replaced]", m.Issuer.ID)
	assert.Equal(t, "name", m.PresentationDefinition.InputDescriptors[0].ID)
}

func TestApplicationPayloadValidate(t *testing.T) {
	valid := func() ApplicationPayload {
		return ApplicationPayload{
			Context: []string{"https://www.w3.org/2018/credentials/v1"},
			Type:    []string{"VerifiablePresentation"},
			PresentationSubmission: PresentationSubmission{
				ID:           "sub-1",
				DefinitionID: "example-pd",
				DescriptorMap: []Descriptor{
					{ID: "name", Format: "jwt_vc", Path: "$.verifiableCredential[0]"},
				},
			},
			VerifiableCredential: []string{"eyJ..."},
		}
	}

	p := valid()
	assert.NoError(t, p.Validate())

	tests := []struct {
		name    string
		mutate  func(*ApplicationPayload)
		message string
	}{
		{"missing context", func(p *ApplicationPayload) { p.Context = nil }, "@context is required"},
		{"missing type", func(p *ApplicationPayload) { p.Type = nil }, "type is required"},
		{"missing credentials", func(p *ApplicationPayload) { p.VerifiableCredential = nil }, "verifiableCredential is required"},
		{"missing submission id", func(p *ApplicationPayload) { p.PresentationSubmission.ID = "" }, "presentation_submission.id is required"},
		{"missing descriptor path", func(p *ApplicationPayload) { p.PresentationSubmission.DescriptorMap[0].Path = "" }, "presentation_submission.descriptor_map[0].path is required"},
		{"blank credential", func(p *ApplicationPayload) { p.VerifiableCredential = []string{" "} }, "verifiableCredential[0] must not be blank"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestPayloadUnmarshalUsesWireNames(t *testing.T) {
	var p ApplicationPayload
	require.NoError(t, json.Unmarshal([]byte(`{
		"@context": ["https://www.w3.org/2018/credentials/v1"],
		"type": ["VerifiablePresentation"],
		"presentation_submission": {"id": "s", "definition_id": "d", "descriptor_map": []},
		"verifiableCredential": ["a.b.c"]
	}`), &p))
	assert.Equal(t, "d", p.PresentationSubmission.DefinitionID)
	assert.Equal(t, []string{"a.b.c"}, p.VerifiableCredential)
}
