package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cfs-assistant-go/internal/config"
	"cfs-assistant-go/internal/model"
	"cfs-assistant-go/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = model.Session{
	Username:        "alice",
	Token:           "tok-1",
	AccountID:       "100200300400",
	MaskedAccountID: "********0400",
}

// exerciseSessionRepository 对任意 SessionRepository 实现执行同一组检查。
func exerciseSessionRepository(t *testing.T, repo SessionRepository) {
	t.Helper()
	ctx := context.Background()

	empty, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, empty.Complete())

	require.NoError(t, repo.Save(ctx, alice))
	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	rotated := alice
	rotated.Token = "tok-2"
	require.NoError(t, repo.Save(ctx, rotated))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", got.Token)

	require.NoError(t, repo.Clear(ctx))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Session{}, got)

	// 重复清除不报错
	require.NoError(t, repo.Clear(ctx))
}

func TestMemorySessionRepository(t *testing.T) {
	exerciseSessionRepository(t, NewMemorySessionRepository())
}

func TestMemorySessionRepositoryPartialRecord(t *testing.T) {
	repo := NewMemorySessionRepository()
	repo.Put(model.KeyAuthToken, "tok")
	repo.Put(model.KeyUsername, "alice")

	got, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.False(t, got.Complete())
	assert.Equal(t, "tok", got.Token)
	assert.Len(t, repo.Snapshot(), 2)
}

func openSQLite(t *testing.T, path string) *SQLiteSessionRepository {
	t.Helper()
	db, err := database.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo, err := NewSQLiteSessionRepository(db)
	require.NoError(t, err)
	return repo
}

func TestSQLiteSessionRepository(t *testing.T) {
	exerciseSessionRepository(t, openSQLite(t, filepath.Join(t.TempDir(), "session.db")))
}

func TestSQLiteSessionSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	ctx := context.Background()

	first := openSQLite(t, path)
	require.NoError(t, first.Save(ctx, alice))

	second := openSQLite(t, path)
	got, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, alice, got)
}

func TestSQLiteSessionPartialRecord(t *testing.T) {
	ctx := context.Background()
	repo := openSQLite(t, filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, repo.Put(ctx, model.KeyAuthToken, "tok"))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, got.Complete())
	assert.Equal(t, "tok", got.Token)
}

func TestRedisSessionRepository(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := database.NewRedis(ctx, config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	defer rdb.Close()

	prefix := "cfs:test:" + t.Name() + ":"
	defer rdb.Del(ctx, prefix+model.KeyAuthToken, prefix+model.KeyUsername, prefix+model.KeyAccountID, prefix+model.KeyMaskedAccountID)

	exerciseSessionRepository(t, NewRedisSessionRepository(rdb, prefix))
}
