package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client)
	return store, mr
}

func TestRedisStore_SaveLoadDeleteRoom(t *testing.T) {
	store, mr := newTestRedisStore(t)
	defer mr.Close()
	ctx := context.Background()

	data := &RoomData{
		ID:       "abc12345",
		Mode:     "dice-chess",
		Position: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		Turn:     "white",
		Started:  true,
		Players: []PlayerData{
			{ID: "p1", Name: "Alice", Color: "white"},
			{ID: "p2", Name: "Bob", Color: "black"},
		},
		CreatedAt: time.Now().Unix(),
	}

	// Save
	err := store.SaveRoom(ctx, data)
	assert.NoError(t, err)

	// Load
	loaded, err := store.LoadRoom(ctx, "abc12345")
	assert.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Equal(t, "dice-chess", loaded.Mode)
	assert.Equal(t, "white", loaded.Turn)
	assert.Len(t, loaded.Players, 2)

	// Delete
	err = store.DeleteRoom(ctx, "abc12345")
	assert.NoError(t, err)

	// Verify Delete
	loaded, err = store.LoadRoom(ctx, "abc12345")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_LoadRoom_Missing(t *testing.T) {
	store, mr := newTestRedisStore(t)
	defer mr.Close()

	loaded, err := store.LoadRoom(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_Counters(t *testing.T) {
	store, mr := newTestRedisStore(t)
	defer mr.Close()
	ctx := context.Background()

	// Counters start at zero
	n, err := store.GamesStarted(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.NoError(t, store.IncrGamesStarted(ctx))
	assert.NoError(t, store.IncrGamesStarted(ctx))

	n, err = store.GamesStarted(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.NoError(t, store.RecordResult(ctx, "checkmate"))
	assert.NoError(t, store.RecordResult(ctx, "checkmate"))
	assert.NoError(t, store.RecordResult(ctx, "opponent-left"))

	n, err = store.ResultCount(ctx, "checkmate")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.ResultCount(ctx, "stalemate")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
