package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultCollection is where published content points land.
const DefaultCollection = "published_content"

// Archive remembers published content so the pipeline can detect when a new
// draft is too close to something already posted.
type Archive struct {
	store      VectorStore
	embedder   Embedder
	collection string
	vectorSize uint64
}

// ArchiveOption configures an Archive.
type ArchiveOption func(*Archive)

// WithCollection overrides the collection name.
func WithCollection(name string) ArchiveOption {
	return func(a *Archive) { a.collection = name }
}

// WithVectorSize sets the embedding dimensionality used at collection creation.
func WithVectorSize(size uint64) ArchiveOption {
	return func(a *Archive) { a.vectorSize = size }
}

func NewArchive(store VectorStore, embedder Embedder, opts ...ArchiveOption) *Archive {
	a := &Archive{
		store:      store,
		embedder:   embedder,
		collection: DefaultCollection,
		vectorSize: 384,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init ensures the backing collection exists.
func (a *Archive) Init(ctx context.Context) error {
	return a.store.CreateCollection(ctx, a.collection, a.vectorSize)
}

// Remember embeds the text and stores it with its payload. Returns the point id.
func (a *Archive) Remember(ctx context.Context, text string, payload map[string]any) (string, error) {
	vector, err := a.embedder.Embed(ctx, text)
	if err != nil {
		return "", err
	}
	if payload == nil {
		payload = make(map[string]any)
	}
	payload["text"] = text
	payload["stored_at"] = time.Now().UTC().Format(time.RFC3339)
	id := uuid.NewString()
	err = a.store.Upsert(ctx, a.collection, []Point{{ID: id, Vector: vector, Payload: payload}})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Similar returns stored content whose similarity to the text meets the
// threshold, best match first.
func (a *Archive) Similar(ctx context.Context, text string, limit int, threshold float32) ([]SearchResult, error) {
	vector, err := a.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return a.store.Search(ctx, a.collection, vector, limit, threshold)
}

// Forget removes stored points by id.
func (a *Archive) Forget(ctx context.Context, ids ...string) error {
	return a.store.Delete(ctx, a.collection, ids)
}
