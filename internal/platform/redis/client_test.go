package redis

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dcx/internal/platform/config"
)

func TestNew(t *testing.T) {
	t.Run("empty URL disables redis", func(t *testing.T) {
		client, err := New(context.Background(), config.RedisConfig{}, prometheus.NewRegistry())
		require.NoError(t, err)
		assert.Nil(t, client)
	})

	t.Run("malformed URL fails", func(t *testing.T) {
		_, err := New(context.Background(), config.RedisConfig{URL: "postgres://nope"}, prometheus.NewRegistry())
		assert.ErrorContains(t, err, "parse redis URL")
	})
}
