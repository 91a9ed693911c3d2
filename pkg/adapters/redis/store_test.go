package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/adapters/redis"
	contract "github.com/aretw0/espalier/pkg/ports/tests"
)

func newTestStore(t *testing.T, opts ...redis.Option) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	return redis.NewFromClient(client, opts...), mr
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := newTestStore(t)
	contract.RunConversationStoreContract(t, store)
}

func TestRedisStore_KeyPrefix(t *testing.T) {
	store, mr := newTestStore(t, redis.WithPrefix("custom:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "abc", contract.ContractDocument()))

	assert.True(t, mr.Exists("custom:abc"))
	assert.False(t, mr.Exists("espalier:conversation:abc"))
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, mr := newTestStore(t, redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "ephemeral", contract.ContractDocument()))

	// Past the TTL the document itself is gone. The index prunes lazily
	// on wall-clock time, so only the data key is asserted here.
	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "ephemeral")
	assert.Error(t, err)
}
