package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tart-proj/codescholar/domain/corpus"
	"github.com/tart-proj/codescholar/domain/graph"
	"github.com/tart-proj/codescholar/domain/repository"
)

const sampleManifest = `dataset: numpy
programs:
  - id: p1
    source: |
      m = np.mean(xs)
      s = np.std(xs)
    graph:
      nodes:
        - {id: 1, kind: call, api: np.mean}
        - {id: 2, kind: call, api: np.std}
        - {id: 3, kind: variable}
      edges:
        - {from: 1, to: 3, kind: data}
        - {from: 3, to: 2, kind: data}
  - id: p2
    source: np.mean(ys)
    graph:
      nodes:
        - {id: 1, kind: call, api: np.mean}
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestManifestLoader_Load(t *testing.T) {
	loader := NewManifestLoader()
	programs, err := loader.Load(context.Background(), writeManifest(t, sampleManifest))
	require.NoError(t, err)

	require.Len(t, programs, 2)
	p1 := programs[0]
	assert.Equal(t, "p1", p1.ID())
	assert.Equal(t, "numpy", p1.Dataset())
	assert.Contains(t, p1.Source(), "np.mean(xs)")
	require.NotNil(t, p1.Graph())
	assert.Equal(t, 3, p1.Graph().Len())
	assert.Equal(t, []string{"np.mean", "np.std"}, p1.Graph().APIs())
	assert.Len(t, p1.Graph().Edges(), 2)

	assert.Equal(t, 1, programs[1].Graph().Len())
}

func TestManifestLoader_Errors(t *testing.T) {
	loader := NewManifestLoader()
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
	}{
		{name: "missing dataset", content: "programs:\n  - id: p1\n"},
		{name: "missing program id", content: "dataset: d\nprograms:\n  - source: x\n"},
		{
			name:    "duplicate program id",
			content: "dataset: d\nprograms:\n  - id: p1\n  - id: p1\n",
		},
		{
			name:    "invalid node kind",
			content: "dataset: d\nprograms:\n  - id: p1\n    graph:\n      nodes:\n        - {id: 1, kind: bogus}\n",
		},
		{name: "not yaml", content: "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Load(ctx, writeManifest(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestManifestLoader_MissingFile(t *testing.T) {
	_, err := NewManifestLoader().Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	loader := NewManifestLoader()
	programs, err := loader.Load(context.Background(), writeManifest(t, sampleManifest))
	require.NoError(t, err)

	store := NewMemoryStoreFrom(programs)
	ctx := context.Background()

	hosts, err := store.FindHosts(ctx, []string{"np.mean"})
	require.NoError(t, err)
	require.Len(t, hosts, 2)
	assert.Equal(t, "p1", hosts[0].ID(), "ID order")

	both, err := store.FindHosts(ctx, []string{"np.mean", "np.std"})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "p1", both[0].ID())

	scoped, err := store.FindHosts(ctx, []string{"np.mean"}, repository.WithDataset("pandas"))
	require.NoError(t, err)
	assert.Empty(t, scoped)

	got, err := store.Get(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "p2", got.ID())

	_, err = store.Get(ctx, "absent")
	assert.ErrorIs(t, err, corpus.ErrNotFound)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	g, err := graph.New([]graph.Node{graph.NewNode(1, graph.NodeCall).WithAPI("pd.concat")}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, corpus.NewProgram("p3", "pandas", "", g)))

	count, err = store.Count(ctx, repository.WithDataset("pandas"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
