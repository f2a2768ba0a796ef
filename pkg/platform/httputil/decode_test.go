package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "dcx/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type validatingRequest struct {
	Name string `json:"name"`
}

func (r *validatingRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// fullRequest implements all preparation interfaces
type fullRequest struct {
	Name      string `json:"name"`
	sanitized bool
	validated bool
}

func (r *fullRequest) Sanitize() {
	r.sanitized = true
}

func (r *fullRequest) Normalize() {}

func (r *fullRequest) Validate() error {
	r.validated = true
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type domainErrorRequest struct {
	ID string `json:"id"`
}

func (r *domainErrorRequest) Validate() error {
	if r.ID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	return nil
}

func TestReadBody(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("returns exact bytes", func(t *testing.T) {
		body := "{\"name\": \"test\" ,\n \"value\":42}"
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
		w := httptest.NewRecorder()

		raw, ok := ReadBody(w, req, logger, ctx, "test-request-id")

		require.True(t, ok)
		assert.Equal(t, body, string(raw))
	})

	t.Run("oversized body returns bad request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"far too long"}`))
		w := httptest.NewRecorder()
		req.Body = http.MaxBytesReader(w, req.Body, 4)

		raw, ok := ReadBody(w, req, logger, ctx, "test-request-id")

		assert.False(t, ok)
		assert.Nil(t, raw)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var errResp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
		assert.Equal(t, "request body too large", errResp["error_description"])
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	t.Run("successful decode", func(t *testing.T) {
		result, err := DecodeAndPrepare[testRequest]([]byte(`{"name":"test","value":42}`))

		require.NoError(t, err)
		assert.Equal(t, "test", result.Name)
		assert.Equal(t, 42, result.Value)
	})

	t.Run("invalid JSON returns bad request", func(t *testing.T) {
		result, err := DecodeAndPrepare[testRequest]([]byte(`{invalid json}`))

		assert.Nil(t, result)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("empty body returns bad request", func(t *testing.T) {
		_, err := DecodeAndPrepare[testRequest]([]byte("  "))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("plain validation error is wrapped with validation code", func(t *testing.T) {
		_, err := DecodeAndPrepare[validatingRequest]([]byte(`{"name":""}`))

		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "name is required")
	})

	t.Run("domain error code from Validate is preserved", func(t *testing.T) {
		_, err := DecodeAndPrepare[domainErrorRequest]([]byte(`{"id":""}`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("calls all preparation methods", func(t *testing.T) {
		result, err := DecodeAndPrepare[fullRequest]([]byte(`{"name":"test"}`))

		require.NoError(t, err)
		assert.True(t, result.sanitized, "Sanitize() should have been called")
		assert.True(t, result.validated, "Validate() should have been called")
	})
}

func TestPrepareRequest(t *testing.T) {
	assert.NoError(t, PrepareRequest(&validatingRequest{Name: "test"}))
	assert.ErrorContains(t, PrepareRequest(&validatingRequest{}), "name is required")
	assert.NoError(t, PrepareRequest(&testRequest{Name: "test"}))
}
