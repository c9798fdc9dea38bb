package idiom

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tart-proj/codescholar/domain/oracle"
)

func TestNewIdiom(t *testing.T) {
	host := chainHost(t, "h1")
	p, err := NewSeed(host, 1)
	require.NoError(t, err)
	p, err = p.Extend(2)
	require.NoError(t, err)
	p = p.WithScore(oracle.NewScore(oracle.Vector{0.1, 0.2}, 12))

	runID := uuid.New()
	emitted, err := NewIdiom(runID, "pandas", p, 3)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, emitted.ID())
	assert.Equal(t, runID, emitted.RunID())
	assert.Equal(t, "pandas", emitted.Dataset())
	assert.Equal(t, []string{"parse", "read"}, emitted.APIs())
	assert.Equal(t, 2, emitted.Size())
	assert.Equal(t, 12, emitted.Support())
	assert.Equal(t, 3, emitted.Rank())
	assert.Equal(t, p.Signature(), emitted.Signature())
	assert.Equal(t, []string{"h1"}, emitted.Witnesses())
	require.NotNil(t, emitted.Graph())
	assert.Equal(t, 2, emitted.Graph().Len())
	assert.WithinDuration(t, time.Now().UTC(), emitted.CreatedAt(), time.Minute)
}

func TestNewIdiom_RejectsNonPositiveRank(t *testing.T) {
	p, err := NewSeed(chainHost(t, "h1"), 1)
	require.NoError(t, err)

	_, err = NewIdiom(uuid.New(), "test", p, 0)
	assert.Error(t, err)
	_, err = NewIdiom(uuid.New(), "test", p, -1)
	assert.Error(t, err)
}

func TestRestoreIdiom(t *testing.T) {
	id, runID := uuid.New(), uuid.New()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	restored := RestoreIdiom(
		id, runID, "numpy",
		[]string{"np.mean"},
		1, 40, 2,
		"sig",
		nil,
		[]string{"p1", "p2"},
		"np.mean(xs)",
		created,
	)

	assert.Equal(t, id, restored.ID())
	assert.Equal(t, runID, restored.RunID())
	assert.Equal(t, "numpy", restored.Dataset())
	assert.Equal(t, 40, restored.Support())
	assert.Equal(t, 2, restored.Rank())
	assert.Equal(t, "sig", restored.Signature())
	assert.Equal(t, []string{"p1", "p2"}, restored.Witnesses())
	assert.Equal(t, "np.mean(xs)", restored.Source())
	assert.Equal(t, created, restored.CreatedAt())
}
