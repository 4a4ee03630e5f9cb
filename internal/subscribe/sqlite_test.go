package subscribe

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSink(t *testing.T) *SQLiteSink {
	t.Helper()

	sink, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		sink.Close()
	})
	return sink
}

func TestSQLiteSink_Subscribe(t *testing.T) {
	sink := setupSink(t)
	ctx := context.Background()

	require.NoError(t, sink.Subscribe(ctx, "Jane@Example.com"))
	require.NoError(t, sink.Subscribe(ctx, "bob@example.com"))
	require.NoError(t, sink.Subscribe(ctx, " jane@example.com "), "duplicates are ignored")

	subs, err := sink.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "jane@example.com", subs[0].Email)
	assert.Equal(t, "bob@example.com", subs[1].Email)
	assert.False(t, subs[0].CreatedAt.IsZero())

	assert.Error(t, sink.Subscribe(ctx, "  "))
}

func TestSQLiteSink_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subscribers.db")
	ctx := context.Background()

	sink, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, sink.Subscribe(ctx, "jane@example.com"))
	require.NoError(t, sink.Close())

	sink, err = OpenSQLite(path)
	require.NoError(t, err)
	defer sink.Close()

	subs, err := sink.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "jane@example.com", subs[0].Email)
}
