package session

import (
	"context"
	"testing"
	"time"

	"intake-bot/internal/common/database"
	"intake-bot/internal/common/logger"
	"intake-bot/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMirror(t *testing.T) (*RedisMirror, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	return NewRedisMirror(client), mr
}

func TestStore_PutMirrorsAndGetReadsBack(t *testing.T) {
	mirror, mr := newTestMirror(t)
	store := NewStore(mirror, logger.NewNoOpLogger())
	ctx := context.Background()

	sess := models.NewJobSession(42)
	sess.Set("name", "Ali Valiyev")
	store.Put(ctx, sess)

	got := store.Get(ctx, 42)
	require.NotNil(t, got)
	assert.Equal(t, models.StepName, got.Step)
	assert.Equal(t, "Ali Valiyev", got.Get("name"))

	// mirror holds a durable copy under the state key
	raw, err := mr.Get("intake:state:42")
	require.NoError(t, err)
	assert.Contains(t, raw, "Ali Valiyev")
}

func TestStore_GetFallsBackToMirrorOnColdCache(t *testing.T) {
	mirror, _ := newTestMirror(t)
	ctx := context.Background()

	warm := NewStore(mirror, logger.NewNoOpLogger())
	sess := models.NewAdminSession(7)
	warm.Put(ctx, sess)

	// a fresh store simulates a restarted process
	cold := NewStore(mirror, logger.NewNoOpLogger())
	got := cold.Get(ctx, 7)
	require.NotNil(t, got)
	assert.Equal(t, models.ModeAdmin, got.Mode)
	assert.Equal(t, models.StepAdminMenu, got.Step)
}

func TestStore_MissIsCached(t *testing.T) {
	mirror, mr := newTestMirror(t)
	store := NewStore(mirror, logger.NewNoOpLogger())
	ctx := context.Background()

	require.Nil(t, store.Get(ctx, 99))

	// even with the mirror gone the cached absence answers
	mr.Close()
	assert.Nil(t, store.Get(ctx, 99))
}

func TestStore_ClearRemovesStateEverywhere(t *testing.T) {
	mirror, mr := newTestMirror(t)
	store := NewStore(mirror, logger.NewNoOpLogger())
	ctx := context.Background()

	store.Put(ctx, models.NewJobSession(11))
	store.Clear(ctx, 11)

	assert.Nil(t, store.Get(ctx, 11))
	assert.False(t, mr.Exists("intake:state:11"))
}

func TestStore_MirrorFailureDoesNotLoseWrites(t *testing.T) {
	mirror, mr := newTestMirror(t)
	store := NewStore(mirror, logger.NewNoOpLogger())
	ctx := context.Background()

	mr.Close()
	sess := models.NewJobSession(5)
	sess.Step = models.StepPhone
	store.Put(ctx, sess)

	got := store.Get(ctx, 5)
	require.NotNil(t, got)
	assert.Equal(t, models.StepPhone, got.Step)
}

func TestStore_Lang(t *testing.T) {
	mirror, mr := newTestMirror(t)
	store := NewStore(mirror, logger.NewNoOpLogger())
	ctx := context.Background()

	assert.Equal(t, "", store.Lang(ctx, 3))

	store.SetLang(ctx, 3, "ru")
	assert.Equal(t, "ru", store.Lang(ctx, 3))

	raw, err := mr.Get("intake:lang:3")
	require.NoError(t, err)
	assert.Equal(t, "ru", raw)

	cold := NewStore(mirror, logger.NewNoOpLogger())
	assert.Equal(t, "ru", cold.Lang(ctx, 3))
}

func TestStore_NilMirror(t *testing.T) {
	store := NewStore(nil, logger.NewNoOpLogger())
	ctx := context.Background()

	store.Put(ctx, models.NewJobSession(1))
	require.NotNil(t, store.Get(ctx, 1))

	store.SetLang(ctx, 1, "en")
	assert.Equal(t, "en", store.Lang(ctx, 1))

	store.Clear(ctx, 1)
	assert.Nil(t, store.Get(ctx, 1))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := NewStore(nil, logger.NewNoOpLogger())
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(id int64) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				store.Put(ctx, models.NewJobSession(id))
				store.Get(ctx, id)
				store.SetLang(ctx, id, "uz")
			}
		}(int64(i))
	}
	for i := 0; i < 8; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for goroutines")
		}
	}
}
