package swarm

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmmind/swarmmind/core"
)

func TestFileStoreSaveAndLoadLatestRoundTrips(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	store := NewFileStore(dir)
	ctx := context.Background()

	task := core.NewTask(core.NewID(), "root", "desc", core.TaskGeneral, core.PriorityMedium)
	cp := &Checkpoint{
		ID:        core.NewID(),
		Name:      "test-checkpoint",
		Metrics:   Metrics{TotalTasks: 1},
		Tasks:     map[string]*core.Task{task.ID: task},
		Timestamp: time.Now(),
	}
	require.NoError(t, store.Save(ctx, cp))

	loaded, err := store.LoadLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, cp.ID, loaded.ID)
	assert.Equal(t, int64(1), loaded.Metrics.TotalTasks)
	assert.Contains(t, loaded.Tasks, task.ID)
}

func TestFileStoreLoadLatestReturnsNewestCheckpoint(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "checkpoints")
	store := NewFileStore(dir)
	ctx := context.Background()

	older := &Checkpoint{ID: "older", Timestamp: time.Unix(1000, 0)}
	newer := &Checkpoint{ID: "newer", Timestamp: time.Unix(2000, 0)}
	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	loaded, err := store.LoadLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "newer", loaded.ID)
}

func TestFileStoreLoadLatestOnMissingDirReturnsNil(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist"))
	loaded, err := store.LoadLatest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
