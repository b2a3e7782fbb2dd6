package ingest

import (
	"context"
	"fmt"

	"guidesearch/internal/decompose"
	"guidesearch/internal/embedder"
	"guidesearch/internal/store"
)

const embedBatchSize = 32

// metaEmbeddingModel binds the collection to the embedding model that
// produced its vectors.
const metaEmbeddingModel = "embedding_model"

// Failure records one document whose ingestion failed. The document stays
// unindexed and is retried on the next run.
type Failure struct {
	Source string
	Err    error
}

// Stats reports the outcome of an ingestion run.
type Stats struct {
	Total    int
	Ingested int
	Skipped  int
	Empty    int
	Chunks   int
	Failures []Failure
}

// Pipeline ingests mirrored documents into the vector index. A document with
// at least one indexed chunk under its source path is never re-ingested.
type Pipeline struct {
	store      store.Store
	decomposer decompose.Decomposer
	embedder   embedder.Embedder
}

// New creates an ingestion pipeline.
func New(st store.Store, dec decompose.Decomposer, emb embedder.Embedder) *Pipeline {
	return &Pipeline{store: st, decomposer: dec, embedder: emb}
}

// Run ingests every document in docs that is not yet indexed. Per-document
// failures are reported in the stats and never abort the run. Re-running over
// an unchanged document set performs zero embedding calls and zero writes.
func (p *Pipeline) Run(ctx context.Context, docs []string) (*Stats, error) {
	if err := p.bindModel(); err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, path := range docs {
		stats.Total++

		indexed, err := p.store.HasSource(path)
		if err != nil {
			stats.Failures = append(stats.Failures, Failure{Source: path, Err: fmt.Errorf("existence check: %w", err)})
			continue
		}
		if indexed {
			stats.Skipped++
			continue
		}

		n, err := p.ingestOne(ctx, path)
		if err != nil {
			stats.Failures = append(stats.Failures, Failure{Source: path, Err: err})
			continue
		}
		if n == 0 {
			// Vacuously processed. There is no durable marker for empty
			// documents, so this one will be re-checked on every run.
			stats.Empty++
			continue
		}
		stats.Ingested++
		stats.Chunks += n
	}
	return stats, nil
}

// ingestOne decomposes, embeds, and writes one document. All chunks land in
// a single transaction, so a mid-run failure leaves the document unindexed.
func (p *Pipeline) ingestOne(ctx context.Context, path string) (int, error) {
	chunks, err := p.decomposer.Decompose(path)
	if err != nil {
		return 0, fmt.Errorf("decompose: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += embedBatchSize {
		end := i + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := p.embedder.Embed(ctx, texts[i:end])
		if err != nil {
			return 0, fmt.Errorf("embed: %w", err)
		}
		embeddings = append(embeddings, batch...)
	}

	records := make([]store.Chunk, len(chunks))
	for i, c := range chunks {
		records[i] = store.Chunk{Source: c.Source, Page: c.Page, Content: c.Text}
	}
	if err := p.store.AddDocument(path, records, embeddings); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	return len(records), nil
}

// bindModel enforces the collection/embedding-model binding. An empty
// collection adopts the configured model; a mismatch is an error and the
// collection must be wiped explicitly before switching models.
func (p *Pipeline) bindModel() error {
	bound, err := p.store.GetMeta(metaEmbeddingModel)
	if err != nil {
		return fmt.Errorf("get meta: %w", err)
	}
	current := p.embedder.Model()
	if bound == "" {
		if err := p.store.SetMeta(metaEmbeddingModel, current); err != nil {
			return fmt.Errorf("set meta: %w", err)
		}
		return nil
	}
	if bound != current {
		return fmt.Errorf("collection is bound to embedding model %q but %q is configured; run sync with --reset to rebuild the index", bound, current)
	}
	return nil
}
