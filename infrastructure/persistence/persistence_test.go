package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/graph"
	"github.com/tart-proj/codescholar/domain/idiom"
	"github.com/tart-proj/codescholar/domain/oracle"
	"github.com/tart-proj/codescholar/domain/repository"
	"github.com/tart-proj/codescholar/domain/task"
	"github.com/tart-proj/codescholar/internal/database"
)

func newTestDB(t *testing.T) database.Database {
	t.Helper()
	db, err := database.NewDatabase(context.Background(), "sqlite:///"+t.TempDir()+"/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, AutoMigrate(db))
	return db
}

func testGraph(t *testing.T, apis ...string) *graph.Program {
	t.Helper()
	nodes := make([]graph.Node, 0, len(apis))
	var edges []graph.Edge
	for i, api := range apis {
		nodes = append(nodes, graph.NewNode(graph.NodeID(i+1), graph.NodeCall).WithAPI(api))
		if i > 0 {
			edges = append(edges, graph.NewEdge(graph.NodeID(i), graph.NodeID(i+1), graph.EdgeData))
		}
	}
	g, err := graph.New(nodes, edges)
	require.NoError(t, err)
	return g
}

func TestProgramStore_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	store := NewProgramStore(db)
	ctx := context.Background()

	original := corpus.NewProgram("p1", "numpy", "x = np.mean(a)\nnp.std(x)", testGraph(t, "np.mean", "np.std"))
	require.NoError(t, store.Save(ctx, original))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID())
	assert.Equal(t, "numpy", got.Dataset())
	assert.Equal(t, original.Source(), got.Source())
	require.NotNil(t, got.Graph())
	assert.Equal(t, 2, got.Graph().Len())
	assert.Equal(t, []string{"np.mean", "np.std"}, got.Graph().APIs())
	require.Len(t, got.Graph().Edges(), 1)
	assert.Equal(t, graph.EdgeData, got.Graph().Edges()[0].Kind())
}

func TestProgramStore_GetMissing(t *testing.T) {
	store := NewProgramStore(newTestDB(t))
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, corpus.ErrNotFound)
}

func TestProgramStore_SaveOverwrites(t *testing.T) {
	db := newTestDB(t)
	store := NewProgramStore(db)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, corpus.NewProgram("p1", "numpy", "v1", testGraph(t, "np.mean"))))
	require.NoError(t, store.Save(ctx, corpus.NewProgram("p1", "numpy", "v2", testGraph(t, "np.mean"))))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Source())

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestProgramStore_FindHosts(t *testing.T) {
	db := newTestDB(t)
	store := NewProgramStore(db)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, corpus.NewProgram("p1", "numpy", "", testGraph(t, "np.mean", "np.std"))))
	require.NoError(t, store.Save(ctx, corpus.NewProgram("p2", "numpy", "", testGraph(t, "np.mean"))))
	require.NoError(t, store.Save(ctx, corpus.NewProgram("p3", "pandas", "", testGraph(t, "np.mean", "np.std"))))

	hosts, err := store.FindHosts(ctx, []string{"np.mean", "np.std"})
	require.NoError(t, err)
	require.Len(t, hosts, 2, "every seed API must be present")
	assert.Equal(t, "p1", hosts[0].ID(), "hosts come back in ID order")
	assert.Equal(t, "p3", hosts[1].ID())

	scoped, err := store.FindHosts(ctx, []string{"np.mean"}, repository.WithDataset("pandas"))
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "p3", scoped[0].ID())

	none, err := store.FindHosts(ctx, []string{"np.percentile"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func emittedIdiom(t *testing.T, runID uuid.UUID, dataset string, rank int) idiom.Idiom {
	t.Helper()
	host := corpus.NewProgram("h-"+uuid.NewString(), dataset, "src", testGraph(t, "read", "parse"))
	p, err := idiom.NewSeed(host, 1)
	require.NoError(t, err)
	p, err = p.Extend(2)
	require.NoError(t, err)
	p = p.WithScore(oracle.NewScore(oracle.Vector{0.1, 0.9}, rank*10))
	emitted, err := idiom.NewIdiom(runID, dataset, p, rank)
	require.NoError(t, err)
	return emitted
}

func TestIdiomStore_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	store := NewIdiomStore(db)
	ctx := context.Background()

	runID := uuid.New()
	original := emittedIdiom(t, runID, "numpy", 1)
	require.NoError(t, store.Save(ctx, original))

	got, err := store.Get(ctx, original.ID())
	require.NoError(t, err)
	assert.Equal(t, original.ID(), got.ID())
	assert.Equal(t, runID, got.RunID())
	assert.Equal(t, original.APIs(), got.APIs())
	assert.Equal(t, original.Support(), got.Support())
	assert.Equal(t, original.Rank(), got.Rank())
	assert.Equal(t, original.Signature(), got.Signature())
	assert.Equal(t, original.Witnesses(), got.Witnesses())
	require.NotNil(t, got.Graph())
	assert.Equal(t, 2, got.Graph().Len())
}

func TestIdiomStore_GetMissing(t *testing.T) {
	store := NewIdiomStore(newTestDB(t))
	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, idiom.ErrNotFound)
}

func TestIdiomStore_FindByRun(t *testing.T) {
	db := newTestDB(t)
	store := NewIdiomStore(db)
	ctx := context.Background()

	runA, runB := uuid.New(), uuid.New()
	require.NoError(t, store.SaveAll(ctx, []idiom.Idiom{
		emittedIdiom(t, runA, "numpy", 1),
		emittedIdiom(t, runA, "numpy", 2),
		emittedIdiom(t, runB, "pandas", 1),
	}))

	got, err := store.Find(ctx, repository.WithRunID(runA.String()))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.LessOrEqual(t, got[0].Rank(), got[1].Rank(), "default ordering is rank ascending within size")

	count, err := store.Count(ctx, repository.WithRunID(runB.String()))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	supported, err := store.Find(ctx, repository.WithMinSupport(20))
	require.NoError(t, err)
	require.Len(t, supported, 1, "rank-1 idioms carry support 10 and are filtered")
	for _, emitted := range supported {
		assert.GreaterOrEqual(t, emitted.Support(), 20)
	}
}

func TestTaskStore_SaveDeduplicates(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)
	ctx := context.Background()

	payload := map[string]any{task.PayloadKeyRunID: "run-1"}
	first, err := store.Save(ctx, task.NewTask(task.OperationRunSearch, int(task.PriorityNormal), payload))
	require.NoError(t, err)
	second, err := store.Save(ctx, task.NewTask(task.OperationRunSearch, int(task.PriorityCritical), payload))
	require.NoError(t, err)
	assert.Equal(t, first.DedupKey(), second.DedupKey())

	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// The surviving row carries the updated priority.
	pending, err := store.FindPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int(task.PriorityCritical), pending[0].Priority())
}

func TestTaskStore_DequeueByPriority(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)
	ctx := context.Background()

	_, err := store.Save(ctx, task.NewTask(task.OperationRunSearch, int(task.PriorityBackground),
		map[string]any{task.PayloadKeyRunID: "low"}))
	require.NoError(t, err)
	_, err = store.Save(ctx, task.NewTask(task.OperationRunSearch, int(task.PriorityCritical),
		map[string]any{task.PayloadKeyRunID: "high"}))
	require.NoError(t, err)

	got, found, err := store.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "high", got.Payload()[task.PayloadKeyRunID])

	got, found, err = store.Dequeue(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "low", got.Payload()[task.PayloadKeyRunID])

	_, found, err = store.Dequeue(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestTaskStore_DequeueByOperation(t *testing.T) {
	db := newTestDB(t)
	store := NewTaskStore(db)
	ctx := context.Background()

	_, err := store.Save(ctx, task.NewTask(task.OperationRunSearch, int(task.PriorityNormal),
		map[string]any{task.PayloadKeyRunID: "search"}))
	require.NoError(t, err)
	_, err = store.Save(ctx, task.NewTask(task.OperationIngestDataset, int(task.PriorityCritical),
		map[string]any{task.PayloadKeyDataset: "numpy"}))
	require.NoError(t, err)

	got, found, err := store.DequeueByOperation(ctx, task.OperationRunSearch)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, task.OperationRunSearch, got.Operation())

	count, err := store.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStatusStore_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	store := NewStatusStore(db)
	ctx := context.Background()

	status := task.NewStatus(task.OperationRunSearch, nil, task.TrackableTypeRun, 42)
	status = status.SetTotal(10).SetCurrent(3, "growing size 3")

	saved, err := store.Save(ctx, status)
	require.NoError(t, err)

	got, err := store.Get(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, task.ReportingStateInProgress, got.State())
	assert.Equal(t, 10, got.Total())
	assert.Equal(t, 3, got.Current())
	assert.Equal(t, int64(42), got.TrackableID())
	assert.Equal(t, task.TrackableTypeRun, got.TrackableType())

	byTrackable, err := store.FindByTrackable(ctx, task.TrackableTypeRun, 42)
	require.NoError(t, err)
	assert.Len(t, byTrackable, 1)

	require.NoError(t, store.DeleteByTrackable(ctx, task.TrackableTypeRun, 42))
	byTrackable, err = store.FindByTrackable(ctx, task.TrackableTypeRun, 42)
	require.NoError(t, err)
	assert.Empty(t, byTrackable)
}

func TestSQLiteScoreStore(t *testing.T) {
	db := newTestDB(t)
	store := NewScoreStore(db)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "sig-a")
	require.NoError(t, err)
	assert.False(t, found)

	score := oracle.NewScore(oracle.Vector{0.25, -0.5, 1}, 17)
	require.NoError(t, store.Put(ctx, "sig-a", score))

	got, found, err := store.Get(ctx, "sig-a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, oracle.Vector{0.25, -0.5, 1}, got.Vector())
	assert.Equal(t, 17, got.Support())

	// Overwrite wins.
	require.NoError(t, store.Put(ctx, "sig-a", oracle.NewScore(oracle.Vector{1}, 3)))
	got, found, err = store.Get(ctx, "sig-a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3, got.Support())

	require.NoError(t, store.Flush(ctx))
	_, found, err = store.Get(ctx, "sig-a")
	require.NoError(t, err)
	assert.False(t, found)
}
