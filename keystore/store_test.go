package keystore

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/apiguard"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, "test"), mr
}

func TestStorePutFind(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	key := &apiguard.APIKey{ID: "k1", Name: "ci", Owner: "alice", Scopes: []string{"read"}}
	require.NoError(t, s.Put(ctx, key, 0))

	got, err := s.FindAPIKey(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestStoreMissingKey(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.FindAPIKey(context.Background(), "missing")
	require.ErrorIs(t, err, apiguard.ErrAPIKeyNotFound)

	_, err = s.FindAPIKey(context.Background(), "")
	require.ErrorIs(t, err, apiguard.ErrAPIKeyNotFound)
}

func TestStoreCorruptRecord(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set(s.Key("k1"), "{not json"))

	_, err := s.FindAPIKey(context.Background(), "k1")
	require.ErrorIs(t, err, ErrRecordCorrupt)
	require.ErrorIs(t, err, apiguard.ErrEventCorrupt)
}

func TestStoreFillsMissingID(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set(s.Key("k1"), `{"owner":"alice"}`))

	got, err := s.FindAPIKey(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, "k1", got.ID)
	assert.Equal(t, "alice", got.Owner)
}

func TestStoreDeleteAndTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, &apiguard.APIKey{ID: "k1"}, 0))
	require.NoError(t, s.Delete(ctx, "k1"))
	_, err := s.FindAPIKey(ctx, "k1")
	require.ErrorIs(t, err, apiguard.ErrAPIKeyNotFound)
	require.NoError(t, s.Delete(ctx, "k1"))

	require.NoError(t, s.Put(ctx, &apiguard.APIKey{ID: "k2"}, time.Minute))
	mr.FastForward(2 * time.Minute)
	_, err = s.FindAPIKey(ctx, "k2")
	require.ErrorIs(t, err, apiguard.ErrAPIKeyNotFound)
}

func TestStoreUnavailable(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, err := s.FindAPIKey(context.Background(), "k1")
	require.ErrorIs(t, err, apiguard.ErrLookupUnavailable)
}

func TestStorePutRequiresID(t *testing.T) {
	s, _ := newTestStore(t)
	require.Error(t, s.Put(context.Background(), nil, 0))
	require.Error(t, s.Put(context.Background(), &apiguard.APIKey{}, 0))
}

func TestStoreRehydratesPersistedEvent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, &apiguard.APIKey{ID: "k1", Owner: "alice"}, 0))

	e := apiguard.MustNewAPIKeyAuthenticated(struct{ Path string }{"/"}, &apiguard.APIKey{ID: "k1"})
	data, err := apiguard.JSONCodec{}.Encode(e)
	require.NoError(t, err)

	got, err := apiguard.Unmarshal(ctx, nil, data, s)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.APIKey().Owner)
	assert.False(t, got.HasRequest())
}
