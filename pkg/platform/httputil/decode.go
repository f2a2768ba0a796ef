package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "dcx/pkg/domain-errors"
)

// ReadBody reads the complete request body and returns it byte-for-byte.
// Signed requests are verified over these exact bytes, so callers must not
// decode from r.Body after calling it.
// On failure, writes an error response and returns nil, false.
func ReadBody(w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.WarnContext(ctx, "failed to read request body",
			"error", err,
			"request_id", requestID,
		)
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body too large"))
			return nil, false
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	return body, true
}

// Validatable is implemented by request types that support validation.
type Validatable interface {
	Validate() error
}

// Normalizable is implemented by request types that support normalization.
type Normalizable interface {
	Normalize()
}

// Sanitizable is implemented by request types that support sanitization.
type Sanitizable interface {
	Sanitize()
}

// PrepareRequest sanitizes, normalizes, and validates a request.
func PrepareRequest(req any) error {
	if s, ok := req.(Sanitizable); ok {
		s.Sanitize()
	}
	if n, ok := req.(Normalizable); ok {
		n.Normalize()
	}
	if v, ok := req.(Validatable); ok {
		return v.Validate()
	}
	return nil
}

// DecodeAndPrepare decodes raw JSON into T, then calls Sanitize(), Normalize(),
// and Validate() if T implements those interfaces. Decode failures carry
// CodeBadRequest; plain validation errors are wrapped as CodeValidation and
// domain errors keep their code.
func DecodeAndPrepare[T any](body []byte) (*T, error) {
	var req T
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request body is empty")
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	if err := PrepareRequest(&req); err != nil {
		var domainErr *dErrors.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}
	return &req, nil
}
