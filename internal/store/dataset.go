package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shelfwise/cataloger/internal/store/model"
)

type Dataset interface {
	List(ctx context.Context) (model.TrainingDatasetList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.TrainingDataset, error)
	Create(ctx context.Context, dataset model.TrainingDataset) (*model.TrainingDataset, error)
	Update(ctx context.Context, dataset *model.TrainingDataset) (*model.TrainingDataset, error)
	// MarkTraining claims the dataset for a training run with a conditional
	// update, so concurrent claims cannot both succeed. Returns
	// ErrRecordNotFound when the dataset is missing or already training.
	MarkTraining(ctx context.Context, id uuid.UUID, reviewedItems, totalItems int) (*model.TrainingDataset, error)
	// Activate marks the dataset active and deactivates every other dataset.
	// At most one dataset is active at a time; both updates run in the same
	// transaction context supplied by the caller.
	Activate(ctx context.Context, id uuid.UUID) (*model.TrainingDataset, error)
}

type DatasetStore struct {
	db *gorm.DB
}

// Make sure we conform to Dataset interface
var _ Dataset = (*DatasetStore)(nil)

func NewDatasetStore(db *gorm.DB) Dataset {
	return &DatasetStore{db: db}
}

func (s *DatasetStore) List(ctx context.Context) (model.TrainingDatasetList, error) {
	var datasets model.TrainingDatasetList
	result := s.getDB(ctx).Order("created_at DESC").Find(&datasets)
	if result.Error != nil {
		return nil, result.Error
	}
	return datasets, nil
}

func (s *DatasetStore) Get(ctx context.Context, id uuid.UUID) (*model.TrainingDataset, error) {
	var dataset model.TrainingDataset
	result := s.getDB(ctx).First(&dataset, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &dataset, nil
}

func (s *DatasetStore) Create(ctx context.Context, dataset model.TrainingDataset) (*model.TrainingDataset, error) {
	result := s.getDB(ctx).Clauses(clause.Returning{}).Create(&dataset)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &dataset, nil
}

func (s *DatasetStore) Update(ctx context.Context, dataset *model.TrainingDataset) (*model.TrainingDataset, error) {
	result := s.getDB(ctx).Model(dataset).Clauses(clause.Returning{}).Select("*").Updates(dataset)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return dataset, nil
}

func (s *DatasetStore) MarkTraining(ctx context.Context, id uuid.UUID, reviewedItems, totalItems int) (*model.TrainingDataset, error) {
	result := s.getDB(ctx).Model(&model.TrainingDataset{}).
		Where("id = ? AND status <> ?", id, model.DatasetStatusTraining).
		Updates(map[string]any{
			"status":         model.DatasetStatusTraining,
			"reviewed_items": reviewedItems,
			"total_items":    totalItems,
			"last_error":     "",
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return s.Get(ctx, id)
}

func (s *DatasetStore) Activate(ctx context.Context, id uuid.UUID) (*model.TrainingDataset, error) {
	db := s.getDB(ctx)

	if err := db.Model(&model.TrainingDataset{}).
		Where("is_active = ?", true).
		Update("is_active", false).Error; err != nil {
		return nil, err
	}

	result := db.Model(&model.TrainingDataset{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": true, "status": model.DatasetStatusDeployed})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return s.Get(ctx, id)
}

func (s *DatasetStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
