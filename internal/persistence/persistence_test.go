package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/tokenchain/internal/config"
	"github.com/spec-kit/tokenchain/internal/domain"
)

func TestFileStoreWritesIndentedPayload(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, zap.NewNop())

	err := store.Save(context.Background(), domain.StagePayload{Stage: domain.StageTicket, Body: []byte(`{"ticket":"T"}`)})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, TicketFile))
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"ticket\": \"T\"\n}", string(data))

	info, err := os.Stat(filepath.Join(dir, TicketFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreOverwrites(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.StagePayload{Stage: domain.StageCore, Body: []byte(`{"accessToken":"old","refreshToken":"r"}`)}))
	require.NoError(t, store.Save(ctx, domain.StagePayload{Stage: domain.StageCore, Body: []byte(`{"accessToken":"new"}`)}))

	data, err := os.ReadFile(store.Path(domain.StageCore))
	require.NoError(t, err)
	assert.JSONEq(t, `{"accessToken":"new"}`, string(data))
}

func TestFileStorePaths(t *testing.T) {
	store := NewFileStore("out", zap.NewNop())
	assert.Equal(t, filepath.Join("out", TicketFile), store.Path(domain.StageTicket))
	assert.Equal(t, filepath.Join("out", CoreFile), store.Path(domain.StageCore))
	assert.Equal(t, filepath.Join("out", AudienceFile), store.Path(domain.StageLive))
	assert.Empty(t, store.Path(domain.StageVerify))
}

func TestFileStoreErrors(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing"), zap.NewNop())
	ctx := context.Background()

	err := store.Save(ctx, domain.StagePayload{Stage: domain.StageLive, Body: []byte(`{"accessToken":"A2"}`)})
	assert.Error(t, err)

	err = NewFileStore(t.TempDir(), zap.NewNop()).Save(ctx, domain.StagePayload{Stage: domain.StageLive, Body: []byte(`nope`)})
	assert.Error(t, err)

	err = store.Save(ctx, domain.StagePayload{Stage: domain.StageVerify, Body: []byte(`{}`)})
	assert.Error(t, err)
}

type recordingSink struct {
	saved []domain.Stage
	err   error
}

func (r *recordingSink) Save(_ context.Context, payload domain.StagePayload) error {
	r.saved = append(r.saved, payload.Stage)
	return r.err
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	first := &recordingSink{err: boom}
	second := &recordingSink{}

	err := MultiSink{first, nil, second}.Save(context.Background(), domain.StagePayload{Stage: domain.StageCore})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []domain.Stage{domain.StageCore}, first.saved)
	assert.Equal(t, []domain.Stage{domain.StageCore}, second.saved)
}

func TestRedisDisabledWithoutAddr(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{}, zap.NewNop())
	assert.Nil(t, r)
	assert.Error(t, r.Save(context.Background(), domain.StagePayload{Stage: domain.StageLive}))
	r.Close()
}

func TestRedisKey(t *testing.T) {
	r := NewRedisWithClient(nil, "", 0)
	assert.Equal(t, "tokenchain:live", r.Key(domain.StageLive))
	assert.Equal(t, "tm:core", NewRedisWithClient(nil, "tm", 0).Key(domain.StageCore))
}

func TestPostgresDisabledWithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, pg.PoolHandle())
	assert.NoError(t, RunMigrations(context.Background(), pg.PoolHandle(), zap.NewNop()))
	pg.Close()
}

func TestMigrationNames(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_token_chain_runs.sql"}, names)
}
