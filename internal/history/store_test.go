// SPDX-License-Identifier: MIT

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func sampleRun(started time.Time) Run {
	return Run{
		StartedAt:   started,
		FinishedAt:  started.Add(2 * time.Second),
		Result:      ResultOK,
		Components:  4,
		Files:       4,
		Cached:      1,
		PipelineRan: true,
		TriggeredBy: TriggerCLI,
	}
}

func TestRecordAssignsID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Record(ctx, sampleRun(time.Now()))
	require.NoError(t, err)

	_, err = uuid.Parse(id)
	assert.NoError(t, err, "generated ID should be a UUID")
}

func TestRecordKeepsGivenID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := sampleRun(time.Now())
	run.ID = "3b7e9c2a-0000-4000-8000-000000000001"

	id, err := store.Record(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, run.ID, id)
}

func TestRecordRejectsUnknownResult(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := sampleRun(time.Now())
	run.Result = "maybe"

	_, err := store.Record(ctx, run)
	require.Error(t, err, "CHECK constraint should reject unknown result")
}

func TestGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Date(2025, 6, 1, 12, 30, 0, 250*int(time.Millisecond), time.UTC)
	run := sampleRun(started)
	run.TriggeredBy = TriggerAPI
	run.Result = ResultError
	run.Error = "render button: invalid tag"

	id, err := store.Record(ctx, run)
	require.NoError(t, err)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, id, got.ID)
	assert.True(t, got.StartedAt.Equal(run.StartedAt), "started_at should survive the round trip")
	assert.True(t, got.FinishedAt.Equal(run.FinishedAt))
	assert.Equal(t, ResultError, got.Result)
	assert.Equal(t, 4, got.Components)
	assert.Equal(t, 4, got.Files)
	assert.Equal(t, 1, got.Cached)
	assert.True(t, got.PipelineRan)
	assert.Equal(t, TriggerAPI, got.TriggeredBy)
	assert.Equal(t, "render button: invalid tag", got.Error)
	assert.Equal(t, 2*time.Second, got.Duration())
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRecentOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		id, err := store.Record(ctx, sampleRun(base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	// Newest first
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[1], recent[1].ID)
}

func TestRecentEmpty(t *testing.T) {
	store := newTestStore(t)

	recent, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestPrune(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		id, err := store.Record(ctx, sampleRun(base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	deleted, err := store.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	recent, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[4], recent[0].ID)
	assert.Equal(t, ids[3], recent[1].ID)

	// Pruned runs are gone
	got, err := store.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPruneKeepsAllWhenUnderCap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Record(ctx, sampleRun(time.Now()))
	require.NoError(t, err)

	deleted, err := store.Prune(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
