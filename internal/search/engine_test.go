package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guidesearch/internal/store"
)

// --- Fakes ---

// fakeStore serves Search from a fixed relevance-ordered list, returning the
// top k the way a nearest-neighbor index would.
type fakeStore struct {
	ranked   []store.SearchResult
	sources  []string
	searches int
}

func (f *fakeStore) Search(_ []float32, k int) ([]store.SearchResult, error) {
	f.searches++
	if k > len(f.ranked) {
		k = len(f.ranked)
	}
	return f.ranked[:k], nil
}

func (f *fakeStore) ListSources() ([]string, error) { return f.sources, nil }

func (f *fakeStore) HasSource(string) (bool, error) { return false, nil }
func (f *fakeStore) AddDocument(string, []store.Chunk, [][]float32) error {
	return nil
}
func (f *fakeStore) GetMeta(string) (string, error) { return "", nil }
func (f *fakeStore) SetMeta(string, string) error   { return nil }
func (f *fakeStore) DeleteAll() error               { return nil }
func (f *fakeStore) Close() error                   { return nil }

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) Model() string { return "fake-embed" }

func result(source, content string, distance float64) store.SearchResult {
	return store.SearchResult{
		Chunk:    store.Chunk{Source: source, Content: content},
		Distance: distance,
	}
}

// --- Tests ---

func TestQueryDeduplicatesByChunkText(t *testing.T) {
	st := &fakeStore{ranked: []store.SearchResult{
		result("/m/A.pdf", "duplicate text", 0.1),
		result("/m/B.pdf", "duplicate text", 0.2),
		result("/m/A.pdf", "second", 0.3),
		result("/m/A.pdf", "third", 0.4),
		result("/m/B.pdf", "fourth", 0.5),
		result("/m/B.pdf", "fifth", 0.6),
	}}
	e := NewEngine(st, &fakeEmbedder{}, 4)

	resp, err := e.Query(context.Background(), "therapy")
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)

	texts := make(map[string]int)
	for _, r := range resp.Results {
		texts[r.Chunk.Content]++
	}
	assert.Equal(t, 1, texts["duplicate text"])
}

func TestQueryTerminatesWithFewerDistinctChunksThanN(t *testing.T) {
	st := &fakeStore{ranked: []store.SearchResult{
		result("/m/A.pdf", "only one", 0.1),
		result("/m/A.pdf", "only two", 0.2),
	}}
	e := NewEngine(st, &fakeEmbedder{}, 4)

	resp, err := e.Query(context.Background(), "therapy")
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
	// One widened probe at most: the index was exhausted on the first pass.
	assert.LessOrEqual(t, st.searches, 2)
}

func TestQueryExpandsRadiusToFindDistinctChunks(t *testing.T) {
	st := &fakeStore{ranked: []store.SearchResult{
		result("/m/A.pdf", "dup", 0.1),
		result("/m/A.pdf", "dup", 0.2),
		result("/m/A.pdf", "dup", 0.3),
		result("/m/A.pdf", "dup", 0.4),
		result("/m/A.pdf", "two", 0.5),
		result("/m/A.pdf", "three", 0.6),
		result("/m/A.pdf", "four", 0.7),
		result("/m/A.pdf", "five", 0.8),
	}}
	e := NewEngine(st, &fakeEmbedder{}, 4)

	resp, err := e.Query(context.Background(), "therapy")
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)
	assert.Greater(t, st.searches, 1, "expected the radius to expand past the first probe")
}

func TestQueryLexicalRescoreIsDeterministic(t *testing.T) {
	// Nearest-neighbor order favors the asthma chunk; the filename match
	// must still rank the diabetes chunk strictly first.
	st := &fakeStore{ranked: []store.SearchResult{
		result("/m/Asthma_Guideline.pdf", "management of chronic disease", 0.1),
		result("/m/Diabetes_Guideline.pdf", "management of blood sugar", 0.2),
	}}
	e := NewEngine(st, &fakeEmbedder{}, 4)

	resp, err := e.Query(context.Background(), "diabetes")
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	assert.Equal(t, "/m/Diabetes_Guideline.pdf", resp.Results[0].Chunk.Source)
	assert.Equal(t, 1, resp.Results[0].Score)
	assert.Equal(t, "/m/Asthma_Guideline.pdf", resp.Results[1].Chunk.Source)
	assert.Equal(t, 0, resp.Results[1].Score)
}

func TestQueryStableSortKeepsNeighborOrderOnTies(t *testing.T) {
	st := &fakeStore{ranked: []store.SearchResult{
		result("/m/A.pdf", "first by distance", 0.1),
		result("/m/B.pdf", "second by distance", 0.2),
		result("/m/C.pdf", "third by distance", 0.3),
	}}
	e := NewEngine(st, &fakeEmbedder{}, 4)

	resp, err := e.Query(context.Background(), "unrelated term")
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "first by distance", resp.Results[0].Chunk.Content)
	assert.Equal(t, "second by distance", resp.Results[1].Chunk.Content)
	assert.Equal(t, "third by distance", resp.Results[2].Chunk.Content)
}

func TestQueryListDirectiveSkipsVectorSearch(t *testing.T) {
	st := &fakeStore{sources: []string{"/m/A.pdf", "/m/B.pdf", "/other/B.pdf"}}
	emb := &fakeEmbedder{}
	e := NewEngine(st, emb, 4)

	resp, err := e.Query(context.Background(), "list")
	require.NoError(t, err)

	assert.Equal(t, []string{"A.pdf", "B.pdf"}, resp.Listing)
	assert.Empty(t, resp.Results)
	assert.Zero(t, st.searches)
	assert.Zero(t, emb.calls)
}

func TestQueryEmptyIndexSignalsNoResults(t *testing.T) {
	e := NewEngine(&fakeStore{}, &fakeEmbedder{}, 4)
	_, err := e.Query(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestDisplayNameAndURL(t *testing.T) {
	source := "/home/u/.guidesearch/mirror/Asthma Guideline.pdf"
	assert.Equal(t, "Asthma Guideline.pdf", DisplayName(source))
	assert.Equal(t,
		"https://meddocsearchsa.blob.core.windows.net/med-docs/Asthma%20Guideline.pdf",
		DocumentURL("https://meddocsearchsa.blob.core.windows.net/", "med-docs", source))
}
