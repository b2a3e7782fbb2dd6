package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), 3)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHasSourceEmptyCollection(t *testing.T) {
	s := openTestStore(t)
	ok, err := s.HasSource("/mirror/A.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddDocumentMarksSourceIngested(t *testing.T) {
	s := openTestStore(t)
	chunks := []Chunk{
		{Source: "/mirror/A.pdf", Page: 0, Content: "insulin titration schedule"},
		{Source: "/mirror/A.pdf", Page: 1, Content: "contraindications and monitoring"},
	}
	embeddings := [][]float32{{1, 0, 0}, {0, 1, 0}}
	require.NoError(t, s.AddDocument("/mirror/A.pdf", chunks, embeddings))

	ok, err := s.HasSource("/mirror/A.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	sources, err := s.ListSources()
	require.NoError(t, err)
	assert.Equal(t, []string{"/mirror/A.pdf"}, sources)
}

func TestAddDocumentRejectsMismatchedLengths(t *testing.T) {
	s := openTestStore(t)
	err := s.AddDocument("/mirror/A.pdf", []Chunk{{Content: "x"}}, nil)
	assert.Error(t, err)

	// Nothing should have been written.
	ok, err := s.HasSource("/mirror/A.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearchReturnsNearestChunksInOrder(t *testing.T) {
	s := openTestStore(t)
	chunks := []Chunk{
		{Source: "/mirror/A.pdf", Page: 0, Content: "near"},
		{Source: "/mirror/A.pdf", Page: 1, Content: "far"},
	}
	require.NoError(t, s.AddDocument("/mirror/A.pdf", chunks, [][]float32{{1, 0, 0}, {0, 0, 1}}))

	results, err := s.Search([]float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].Chunk.Content)
	assert.Equal(t, "far", results[1].Chunk.Content)
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
	assert.Equal(t, "/mirror/A.pdf", results[0].Chunk.Source)
}

func TestMetaRoundTrip(t *testing.T) {
	s := openTestStore(t)

	v, err := s.GetMeta("embedding_model")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	require.NoError(t, s.SetMeta("embedding_model", "text-embedding-3-small"))
	require.NoError(t, s.SetMeta("embedding_model", "nomic-embed-text"))

	v, err = s.GetMeta("embedding_model")
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", v)
}

func TestDeleteAllResetsCollection(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.AddDocument("/mirror/A.pdf",
		[]Chunk{{Source: "/mirror/A.pdf", Content: "x"}}, [][]float32{{1, 0, 0}}))
	require.NoError(t, s.SetMeta("embedding_model", "m"))

	require.NoError(t, s.DeleteAll())

	ok, err := s.HasSource("/mirror/A.pdf")
	require.NoError(t, err)
	assert.False(t, ok)
	v, err := s.GetMeta("embedding_model")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}
