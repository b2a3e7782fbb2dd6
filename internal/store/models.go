package store

// Chunk is one indexed excerpt of a guideline document. Source is the local
// mirror path of the document it came from; Page is zero-based.
type Chunk struct {
	ID      int64
	Source  string
	Page    int
	Content string
}

// SearchResult is a chunk with its distance to the query embedding.
// Results arrive ordered by ascending distance.
type SearchResult struct {
	Chunk    Chunk
	Distance float64
}
