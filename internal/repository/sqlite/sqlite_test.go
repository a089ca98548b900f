package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodegraph/internal/codec"
	"nodegraph/internal/domain"
)

// newTestRepo creates a SQLite repository in a temporary directory
func newTestRepo(t *testing.T, opts ...Option) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "test.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

func sampleDocument(nodes int) *codec.Element {
	fc := codec.NewElement("FlowChart").Set("id", domain.NewID().String())
	list := codec.NewElement("Nodes")
	for range nodes {
		list.Add(codec.NewElement("Node").Set("id", domain.NewID().String()).SetFloat("x", 12.5))
	}
	conns := codec.NewElement("Connectors").Add(codec.NewElement("Connector").Set("id", domain.NewID().String()))
	fc.Add(codec.NewElement("View").SetFloat("scale", 1), list, conns)
	return codec.NewElement("NodeGraph").Set("version", "1").Add(fc)
}

func TestSaveAndLoadDocument(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	doc := sampleDocument(3)

	require.NoError(t, repo.SaveDocument(ctx, "main", doc))

	loaded, err := repo.LoadDocument(ctx, "main")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, doc, loaded)

	t.Run("missing document", func(t *testing.T) {
		loaded, err := repo.LoadDocument(ctx, "nope")
		assert.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("overwrite keeps creation time", func(t *testing.T) {
		before, err := repo.ListDocuments(ctx)
		require.NoError(t, err)

		repo.now = func() time.Time { return before[0].UpdatedAt.Add(time.Hour) }
		require.NoError(t, repo.SaveDocument(ctx, "main", sampleDocument(1)))

		after, err := repo.ListDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, after, 1)
		assert.Equal(t, before[0].CreatedAt, after[0].CreatedAt)
		assert.True(t, after[0].UpdatedAt.After(before[0].UpdatedAt))
		assert.Equal(t, 1, after[0].Nodes)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		assert.ErrorIs(t, repo.SaveDocument(ctx, "", doc), domain.ErrInvalidArgument)
		assert.ErrorIs(t, repo.SaveDocument(ctx, "x", nil), domain.ErrInvalidArgument)
	})
}

func TestUncompressedDocuments(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "plain.db")

	plain, err := New(path, WithCompression(false))
	require.NoError(t, err)
	doc := sampleDocument(2)
	require.NoError(t, plain.SaveDocument(ctx, "plain", doc))
	require.NoError(t, plain.Close())

	compressed, err := New(path)
	require.NoError(t, err)
	defer compressed.Close()

	loaded, err := compressed.LoadDocument(ctx, "plain")
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	repo.now = func() time.Time { return base }
	require.NoError(t, repo.SaveDocument(ctx, "older", sampleDocument(1)))
	repo.now = func() time.Time { return base.Add(time.Minute) }
	require.NoError(t, repo.SaveDocument(ctx, "newer", sampleDocument(4)))

	docs, err := repo.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "newer", docs[0].Name)
	assert.Equal(t, 1, docs[0].FlowCharts)
	assert.Equal(t, 4, docs[0].Nodes)
	assert.Equal(t, 1, docs[0].Connectors)
	assert.Positive(t, docs[0].Size)
	assert.Equal(t, base.Add(time.Minute), docs[0].UpdatedAt)
	assert.Equal(t, "older", docs[1].Name)
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	require.NoError(t, repo.SaveDocument(ctx, "gone", sampleDocument(1)))

	require.NoError(t, repo.DeleteDocument(ctx, "gone"))
	loaded, err := repo.LoadDocument(ctx, "gone")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	assert.ErrorIs(t, repo.DeleteDocument(ctx, "gone"), domain.ErrNotFound)
}

func TestCorruptBlob(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_, err := repo.db.Exec(`
		INSERT INTO documents (name, data, created_at, updated_at) VALUES ('bad', ?, ?, ?)
	`, []byte{0xc1, 0x00}, formatTime(time.Now()), formatTime(time.Now()))
	require.NoError(t, err)

	_, err = repo.LoadDocument(ctx, "bad")
	assert.ErrorIs(t, err, domain.ErrCorruptDocument)
}

func TestMetadata(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	var missing string
	found, err := repo.GetMetadata(ctx, "absent", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, repo.SetMetadata(ctx, "layout", map[string]int{"columns": 3}))
	var layout map[string]int
	found, err = repo.GetMetadata(ctx, "layout", &layout)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, map[string]int{"columns": 3}, layout)

	require.NoError(t, repo.SaveDocument(ctx, "main", sampleDocument(1)))
	var last lastSave
	found, err = repo.GetMetadata(ctx, "last_save", &last)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "main", last.Name)
}

func TestCountElements(t *testing.T) {
	c := countElements(sampleDocument(5))
	assert.Equal(t, documentCounts{flowCharts: 1, nodes: 5, connectors: 1}, c)
	assert.Equal(t, documentCounts{}, countElements(nil))
}
