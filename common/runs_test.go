package common

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunStore(t *testing.T) *RunStore {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { Close(conn) })

	store, err := NewRunStore(conn)
	require.NoError(t, err)
	return store
}

func TestRunStore_RecordStatuses(t *testing.T) {
	store := newTestRunStore(t)
	ctx := context.Background()

	completed, err := store.Record(ctx, RunSummary{Kind: RunKindSeed, OutputPath: "out.js", OutputDigest: "aa", Written: true, RankingCount: 3})
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, completed.Status)
	assert.False(t, completed.Unchanged)
	assert.NotEmpty(t, completed.ID)

	partial, err := store.Record(ctx, RunSummary{
		Kind: RunKindSeed, OutputPath: "out.js", OutputDigest: "bb", Written: true,
		Errors: []RunError{{Phase: "live", Message: "boom"}},
	})
	require.NoError(t, err)
	assert.Equal(t, RunStatusPartial, partial.Status)

	failed, err := store.Record(ctx, RunSummary{
		Kind: RunKindDefaults, OutputPath: "out.js",
		Errors: []RunError{{Phase: "defaults", Message: "no such file"}},
	})
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, failed.Status)
	assert.Equal(t, []RunError{{Phase: "defaults", Message: "no such file"}}, failed.ErrorList())
}

func TestRunStore_Unchanged(t *testing.T) {
	store := newTestRunStore(t)
	ctx := context.Background()
	start := time.Now().Add(-time.Minute)

	first, err := store.Record(ctx, RunSummary{Kind: RunKindSeed, OutputPath: "out.js", OutputDigest: "aa", Written: true, StartedAt: start})
	require.NoError(t, err)
	assert.False(t, first.Unchanged)

	second, err := store.Record(ctx, RunSummary{Kind: RunKindSeed, OutputPath: "out.js", OutputDigest: "aa", Written: true, StartedAt: start.Add(time.Second)})
	require.NoError(t, err)
	assert.True(t, second.Unchanged)

	other, err := store.Record(ctx, RunSummary{Kind: RunKindSeed, OutputPath: "other.js", OutputDigest: "aa", Written: true})
	require.NoError(t, err)
	assert.False(t, other.Unchanged, "digest comparison is scoped to the output path")
}

func TestRunStore_ListAndGet(t *testing.T) {
	store := newTestRunStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 3; i++ {
		_, err := store.Record(ctx, RunSummary{Kind: RunKindLoad, StartedAt: base.Add(time.Duration(i) * time.Minute), RankingCount: i})
		require.NoError(t, err)
	}

	runs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].RankingCount, "newest first")

	run, err := store.Get(ctx, runs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, run.RankingCount)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
