package requestcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestContext(t *testing.T) {
	t.Run("empty context returns zero values", func(t *testing.T) {
		ctx := context.Background()
		assert.Empty(t, RequestID(ctx))
		assert.Empty(t, ClientIP(ctx))
		assert.Empty(t, UserAgent(ctx))
		assert.Empty(t, ApplicantDID(ctx))
	})

	t.Run("stores and returns values", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-1")
		ctx = WithClientMetadata(ctx, "10.0.0.1", "wallet/1.0")
		ctx = WithApplicantDID(ctx, "did:example:abc123")

		assert.Equal(t, "req-1", RequestID(ctx))
		assert.Equal(t, "10.0.0.1", ClientIP(ctx))
		assert.Equal(t, "wallet/1.0", UserAgent(ctx))
		assert.Equal(t, "did:example:abc123", ApplicantDID(ctx))
	})
}
