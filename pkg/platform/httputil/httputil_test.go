package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "dcx/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		status      int
		code        string
		description string
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "unknown credential type"), http.StatusNotFound, "not_found", "unknown credential type"},
		{"unresolvable did", dErrors.New(dErrors.CodeUnresolvable, "applicant DID has no public key"), http.StatusBadRequest, "unresolvable_did", "applicant DID has no public key"},
		{"invalid signature", dErrors.New(dErrors.CodeInvalidSignature, "invalid signature"), http.StatusBadRequest, "invalid_signature", "invalid signature"},
		{"validation", dErrors.New(dErrors.CodeValidation, "input descriptor unmatched"), http.StatusBadRequest, "validation_error", "input descriptor unmatched"},
		{"remote store", dErrors.New(dErrors.CodeRemoteStore, "dwn unavailable"), http.StatusBadGateway, "remote_store_error", ""},
		{"internal hides message", dErrors.New(dErrors.CodeInternal, "handler leaked ssn 123"), http.StatusInternalServerError, "internal_error", ""},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["error"])
			assert.Equal(t, tt.description, body["error_description"])
		})
	}
}
