package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "dcx/pkg/domain-errors"
)

type descriptor struct {
	ID   string `json:"id" validate:"notblank"`
	Path string `json:"path" validate:"required"`
}

type submission struct {
	DefinitionID  string       `json:"definition_id" validate:"required"`
	DescriptorMap []descriptor `json:"descriptor_map" validate:"min=1,dive"`
	Holder        string       `json:"holder,omitempty" validate:"omitempty,did"`
}

func TestValidate(t *testing.T) {
	valid := submission{
		DefinitionID:  "pd-1",
		DescriptorMap: []descriptor{{ID: "kyc", Path: "$.verifiableCredential[0]"}},
	}

	t.Run("valid struct", func(t *testing.T) {
		assert.NoError(t, Validate(valid))
	})

	cases := []struct {
		name   string
		mutate func(*submission)
		msg    string
	}{
		{"missing field uses json name", func(s *submission) { s.DefinitionID = "" }, "definition_id is required"},
		{"empty slice", func(s *submission) { s.DescriptorMap = nil }, "descriptor_map must have at least 1 entries"},
		{"blank nested field", func(s *submission) { s.DescriptorMap[0].ID = "  " }, "descriptor_map[0].id must not be blank"},
		{"malformed did", func(s *submission) { s.Holder = "example:abc" }, "holder must be a DID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid
			s.DescriptorMap = append([]descriptor(nil), valid.DescriptorMap...)
			tc.mutate(&s)

			err := Validate(s)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			assert.Equal(t, tc.msg, err.Error())
		})
	}
}

func TestIsDID(t *testing.T) {
	assert.True(t, IsDID("did:example:abc123"))
	assert.True(t, IsDID("did:web:issuer.example.com%3A8443"))
	assert.True(t, IsDID("did:ion:EiA:abc"))
	assert.False(t, IsDID("did:example"))
	assert.False(t, IsDID("DID:example:abc"))
	assert.False(t, IsDID(""))
}
