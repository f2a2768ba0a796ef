package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "dcx/pkg/platform/audit"
)

func received(subject string, n int) audit.Event {
	return audit.Event{Action: string(audit.EventApplicationReceived), Subject: subject, RequestID: fmt.Sprint(n)}
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps events in append order below capacity", func(t *testing.T) {
		store := NewInMemoryStore(WithCapacity(4))
		for i := range 3 {
			require.NoError(t, store.Append(ctx, received("did:key:z6MkA", i)))
		}

		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "0", all[0].RequestID)
		assert.Equal(t, "2", all[2].RequestID)
	})

	t.Run("capacity holds under sustained appends", func(t *testing.T) {
		store := NewInMemoryStore(WithCapacity(3))
		for i := range 10 {
			subject := "did:key:z6MkA"
			if i%2 == 1 {
				subject = "did:key:z6MkB"
			}
			require.NoError(t, store.Append(ctx, received(subject, i)))
		}

		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"7", "8", "9"}, []string{all[0].RequestID, all[1].RequestID, all[2].RequestID})

		a, err := store.ListBySubject(ctx, "did:key:z6MkA")
		require.NoError(t, err)
		require.Len(t, a, 1)
		assert.Equal(t, "8", a[0].RequestID)
	})

	t.Run("defaults to DefaultCapacity", func(t *testing.T) {
		store := NewInMemoryStore(WithCapacity(0))
		for i := range DefaultCapacity + 5 {
			require.NoError(t, store.Append(ctx, received("did:key:z6MkA", i)))
		}
		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, DefaultCapacity)
		assert.Equal(t, "5", all[0].RequestID)
	})
}
