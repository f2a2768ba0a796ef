package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionWireForm(t *testing.T) {
	raw, err := json.Marshal(Definition())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, URI, decoded["protocol"])
	assert.Equal(t, false, decoded["published"])

	structure := decoded["structure"].(map[string]any)
	application := structure["application"].(map[string]any)
	assert.Contains(t, application, "$actions")
	assert.Contains(t, application, "response")
	assert.Contains(t, application, "invoice")

	response := application["response"].(map[string]any)
	actions := response["$actions"].([]any)
	require.Len(t, actions, 2)
	assert.Equal(t, map[string]any{"who": "recipient", "of": "application", "can": []any{"create", "update"}}, actions[0])
}

func TestDefinitionReturnsIndependentCopies(t *testing.T) {
	a := Definition()
	a.Structure["manifest"].Actions[0].Who = "author"

	assert.Equal(t, "anyone", Definition().Structure["manifest"].Actions[0].Who)
}

func TestManifestRecordMatchesFilter(t *testing.T) {
	req := ManifestRecord(map[string]string{"id": "X"})
	f := ManifestFilter()

	assert.True(t, req.Published)
	assert.Equal(t, f.Schema, req.Schema)
	assert.Equal(t, f.Protocol, req.Protocol)
	assert.Equal(t, f.ProtocolPath, req.ProtocolPath)
	assert.Equal(t, f.DataFormat, req.DataFormat)
}
