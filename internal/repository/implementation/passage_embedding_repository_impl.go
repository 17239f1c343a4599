package implementation

import (
	"context"

	"alrah-ai-be/internal/entity"
	"alrah-ai-be/internal/model"
	"alrah-ai-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type PassageEmbeddingRepositoryImpl struct {
	db *gorm.DB
}

func NewPassageEmbeddingRepository(db *gorm.DB) contract.PassageEmbeddingRepository {
	return &PassageEmbeddingRepositoryImpl{
		db: db,
	}
}

func (r *PassageEmbeddingRepositoryImpl) Create(ctx context.Context, passage *entity.PassageEmbedding, embedding []float32) error {
	row := &model.PassageEmbedding{
		Id:             passage.Id,
		Source:         passage.Source,
		Content:        passage.Content,
		EmbeddingValue: pgvector.NewVector(embedding),
		CreatedAt:      passage.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// SearchSimilarWithScore runs a cosine nearest-neighbor query. pgvector's
// <=> operator yields cosine distance, so similarity is 1 - distance.
func (r *PassageEmbeddingRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredPassage, error) {
	if limit <= 0 {
		limit = 5
	}

	type row struct {
		model.PassageEmbedding
		Similarity float64
	}
	var rows []row

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("passage_embeddings").
		Select("passage_embeddings.*, 1 - (embedding_value <=> ?) as similarity", queryVector).
		Where("deleted_at IS NULL").
		Order("similarity DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]*contract.ScoredPassage, len(rows))
	for i, rw := range rows {
		results[i] = &contract.ScoredPassage{
			Passage: &entity.PassageEmbedding{
				Id:        rw.Id,
				Source:    rw.Source,
				Content:   rw.Content,
				CreatedAt: rw.CreatedAt,
			},
			Similarity: rw.Similarity,
		}
	}
	return results, nil
}

func (r *PassageEmbeddingRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PassageEmbedding{}).Count(&count).Error
	return count, err
}
