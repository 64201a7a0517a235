package core

import (
	"context"
	"testing"
	"time"

	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/driver/drivertest"
	"github.com/agenthands/cognivault/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileRepairsGraph(t *testing.T) {
	graph := &drivertest.Driver{Err: errOffline}
	f := newFixture(t, graph)
	ctx := context.Background()

	res, err := f.writer.Write(ctx, enrichedInput())
	require.NoError(t, err)
	require.False(t, res.GraphCommitted())

	graph.Err = nil
	r := NewReconciler(f.writer, "*/5 * * * *", 10, 5)
	report, err := r.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Checked: 1, Repaired: 1}, report)

	intent, ok := f.docs.Intent(res.Chunk.ChunkID)
	require.True(t, ok)
	assert.True(t, intent.Settled())
	assert.Equal(t, 1, intent.Attempts)
	assert.Empty(t, intent.LastError)

	stored, err := f.docs.GetChunk(ctx, res.Chunk.ChunkID)
	require.NoError(t, err)
	assert.Equal(t, res.Chunk.ChunkID, stored.GraphNodeID)
}

func TestReconcileRepairsVector(t *testing.T) {
	graph := &drivertest.Driver{}
	base := newFixture(t, graph)
	f := newFixtureWith(t, graph, base.docs, base.docs, base.vectors, failingVectors{base.vectors})
	ctx := context.Background()

	res, err := f.writer.Write(ctx, enrichedInput())
	require.NoError(t, err)
	assert.Equal(t, model.IntentFailed, res.Intent.Vector)

	f.writer.Vectors = f.vectors
	report, err := NewReconciler(f.writer, "*/5 * * * *", 10, 5).Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Repaired)

	_, err = f.vectors.Fetch(ctx, res.Chunk.ChunkID)
	assert.NoError(t, err)
}

func TestReconcileAbandonsOrphans(t *testing.T) {
	graph := &drivertest.Driver{}
	f := newFixture(t, graph)
	ctx := context.Background()

	intent := model.NewWriteIntent("mem_orphan", "u1", f.writer.Now().Add(-time.Hour))
	intent.Graph = model.IntentCommitted
	intent.Vector = model.IntentCommitted
	intent.Document = model.IntentFailed
	require.NoError(t, f.docs.CreateIntent(ctx, intent))
	require.NoError(t, f.vectors.Upsert(ctx, store.VectorRecord{
		ID:       "mem_orphan",
		Values:   []float32{1, 0, 0, 0, 0, 0, 0, 0},
		Metadata: store.VectorMetadata{ChunkID: "mem_orphan", UserID: "u1"},
	}))

	report, err := NewReconciler(f.writer, "*/5 * * * *", 10, 5).Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Checked: 1, Abandoned: 1}, report)

	deletes := graph.Matching("DETACH DELETE m")
	require.Len(t, deletes, 1)
	assert.Equal(t, "mem_orphan", deletes[0].Params["id"])

	_, err = f.vectors.Fetch(ctx, "mem_orphan")
	assert.ErrorIs(t, err, model.ErrNotFound)

	stored, ok := f.docs.Intent("mem_orphan")
	require.True(t, ok)
	assert.Equal(t, model.IntentAbandoned, stored.Document)
	assert.True(t, stored.Settled())
}

func TestReconcileSkipsInFlightWrites(t *testing.T) {
	f := newFixture(t, &drivertest.Driver{})
	ctx := context.Background()

	intent := model.NewWriteIntent("mem_new", "u1", f.writer.Now())
	require.NoError(t, f.docs.CreateIntent(ctx, intent))

	report, err := NewReconciler(f.writer, "*/5 * * * *", 10, 5).Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Checked)

	stored, _ := f.docs.Intent("mem_new")
	assert.Equal(t, model.IntentPending, stored.Document)
	assert.Zero(t, stored.Attempts)
}

func TestReconcileStopsAtMaxAttempts(t *testing.T) {
	graph := &drivertest.Driver{Err: errOffline}
	f := newFixture(t, graph)
	ctx := context.Background()

	res, err := f.writer.Write(ctx, enrichedInput())
	require.NoError(t, err)

	r := NewReconciler(f.writer, "*/5 * * * *", 10, 2)
	for i := 0; i < 2; i++ {
		report, err := r.Reconcile(ctx)
		require.NoError(t, err)
		assert.Equal(t, ReconcileReport{Checked: 1, Failed: 1}, report)
	}

	report, err := r.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Checked)

	intent, _ := f.docs.Intent(res.Chunk.ChunkID)
	assert.Equal(t, 2, intent.Attempts)
	assert.Equal(t, model.IntentFailed, intent.Graph)
	assert.Contains(t, intent.LastError, "connection refused")
}

func TestReconcilerIsAJob(t *testing.T) {
	f := newFixture(t, &drivertest.Driver{})
	r := NewReconciler(f.writer, "*/5 * * * *", 10, 5)

	assert.Equal(t, ReconcileJobName, r.Name())
	assert.Equal(t, "*/5 * * * *", r.Schedule())
	assert.NoError(t, r.Run(context.Background()))
}
