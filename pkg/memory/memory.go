// Package memory provides vector memory backends used to remember published
// content and observed trends across pipeline runs.
package memory

import "context"

// VectorStore is the interface to a vector database.
type VectorStore interface {
	// CreateCollection creates a collection if it doesn't exist.
	CreateCollection(ctx context.Context, name string, vectorSize uint64) error
	// Upsert adds or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error
	// Search returns the nearest points to the given vector, best first.
	Search(ctx context.Context, collection string, vector []float32, limit int, scoreThreshold float32) ([]SearchResult, error)
	// Delete removes points by id.
	Delete(ctx context.Context, collection string, ids []string) error
}

// Point is a stored vector with its payload.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// SearchResult is a scored match from a vector search.
type SearchResult struct {
	ID    string  `json:"id"`
	Score float32 `json:"score"`
	Point Point   `json:"point"`
}

// Embedder converts text to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
