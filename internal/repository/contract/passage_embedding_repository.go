package contract

import (
	"context"

	"alrah-ai-be/internal/entity"
)

// ScoredPassage is a corpus passage with its cosine similarity to the query
// vector, as computed by the index.
type ScoredPassage struct {
	Passage    *entity.PassageEmbedding
	Similarity float64
}

type PassageEmbeddingRepository interface {
	// Create stores one passage with its precomputed embedding. Used by the
	// corpus ingestion tool, never by the answer path.
	Create(ctx context.Context, passage *entity.PassageEmbedding, embedding []float32) error

	// SearchSimilarWithScore returns the limit most similar passages ordered
	// by descending similarity. No score cutoff is applied here; threshold
	// policy belongs to the context builder.
	SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*ScoredPassage, error)
	Count(ctx context.Context) (int64, error)
}
