package search

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"guidesearch/internal/embedder"
	"guidesearch/internal/store"
)

// ListCommand is the reserved query that returns the ingested document names
// instead of performing retrieval.
const ListCommand = "list"

// ErrNoResults signals that a search ran and found nothing, as opposed to a
// search that never happened.
var ErrNoResults = errors.New("no matching guideline excerpts found")

// ScoredDocument is a retrieved chunk with its lexical score. The nearest-
// neighbor distance is kept for display; ranking ties break on arrival order.
type ScoredDocument struct {
	Chunk    store.Chunk
	Score    int
	Distance float64
}

// Response is the outcome of one query. Exactly one of Listing and Results
// is populated: Listing for the list directive, Results otherwise.
type Response struct {
	Listing []string
	Results []ScoredDocument
}

// Engine answers free-text queries against the vector index with an
// expanding-radius deduplicated search and a filename-based lexical re-score.
type Engine struct {
	store    store.Store
	embedder embedder.Embedder
	topN     int
}

// NewEngine creates an engine returning at most topN results per query.
func NewEngine(st store.Store, emb embedder.Embedder, topN int) *Engine {
	if topN <= 0 {
		topN = 4
	}
	return &Engine{store: st, embedder: emb, topN: topN}
}

// Query dispatches the list directive or runs a search. The directive is a
// separate code path: no embedding and no vector search happen for it.
func (e *Engine) Query(ctx context.Context, query string) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == ListCommand {
		names, err := e.ListDocuments()
		if err != nil {
			return nil, err
		}
		return &Response{Listing: names}, nil
	}

	results, err := e.search(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Response{Results: results}, nil
}

// ListDocuments returns the distinct display names of all ingested documents.
func (e *Engine) ListDocuments() ([]string, error) {
	return Listing(e.store)
}

// Listing is ListDocuments without an engine: the list directive needs the
// store but no embedder.
func Listing(st store.Store) ([]string, error) {
	sources, err := st.ListSources()
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	seen := make(map[string]bool, len(sources))
	var names []string
	for _, source := range sources {
		name := DisplayName(source)
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// search runs the expanding-radius deduplicated search and re-scores the
// surviving chunks lexically.
func (e *Engine) search(ctx context.Context, query string) ([]ScoredDocument, error) {
	vec, err := e.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Widen the net until topN distinct chunk texts surface or the index is
	// exhausted. The same text can come back at different k thresholds when
	// identical content was indexed more than once.
	seen := make(map[string]bool)
	var hits []ScoredDocument
	for k := e.topN; ; k += e.topN {
		batch, err := e.store.Search(vec, k)
		if err != nil {
			return nil, fmt.Errorf("vector search: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		for _, r := range batch {
			if seen[r.Chunk.Content] {
				continue
			}
			seen[r.Chunk.Content] = true
			hits = append(hits, ScoredDocument{Chunk: r.Chunk, Distance: r.Distance})
		}
		if len(hits) >= e.topN {
			break
		}
		if len(batch) < k {
			// Fewer matches than requested: the whole index has been seen.
			break
		}
	}

	if len(hits) == 0 {
		return nil, ErrNoResults
	}

	// Lexical re-score: exact filename matches outrank pure semantic
	// similarity. The stable sort keeps nearest-neighbor order as tie-break.
	lowered := strings.ToLower(query)
	for i := range hits {
		hits[i].Score = strings.Count(normalizedName(hits[i].Chunk.Source), lowered)
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if len(hits) > e.topN {
		hits = hits[:e.topN]
	}
	return hits, nil
}

// DisplayName is the document name shown to users: the base name of the
// mirrored file.
func DisplayName(source string) string {
	return filepath.Base(source)
}

// normalizedName is the form used for lexical scoring: the lower-cased base
// name with spaces replaced by %20, the same shape the document URL uses.
func normalizedName(source string) string {
	return strings.ToLower(strings.ReplaceAll(DisplayName(source), " ", "%20"))
}

// DocumentURL builds the public URL of a document in the remote container.
func DocumentURL(accountURL, container, source string) string {
	name := strings.ReplaceAll(DisplayName(source), " ", "%20")
	return strings.TrimRight(accountURL, "/") + "/" + container + "/" + name
}
