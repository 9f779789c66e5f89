package backend

import (
	"context"
	"testing"

	hmschat "github.com/ahmadijaz02/hms-go-chat/hms-chat"
	"github.com/tj/assert"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		StoreOpts.Backend = Memory
		store, release, err := Open(ctx, "local", nil)
		assert.NoError(t, err)
		defer release()

		_, ok := store.(*hmschat.MemoryStore)
		assert.True(t, ok)
	})

	t.Run("unknown", func(t *testing.T) {
		StoreOpts.Backend = "cassandra"
		_, _, err := Open(ctx, "local", nil)
		assert.Error(t, err)
	})
}
