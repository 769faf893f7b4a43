package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shelfwise/cataloger/internal/store/model"
)

type Category interface {
	List(ctx context.Context) ([]model.Category, error)
	// GetOrCreate returns the category with the given name, creating it when
	// missing. Classification output may reference categories that were never
	// seen before.
	GetOrCreate(ctx context.Context, name string) (*model.Category, error)
}

type CategoryStore struct {
	db *gorm.DB
}

// Make sure we conform to Category interface
var _ Category = (*CategoryStore)(nil)

func NewCategoryStore(db *gorm.DB) Category {
	return &CategoryStore{db: db}
}

func (s *CategoryStore) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	result := s.getDB(ctx).Order("name").Find(&categories)
	if result.Error != nil {
		return nil, result.Error
	}
	return categories, nil
}

func (s *CategoryStore) GetOrCreate(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	err := s.getDB(ctx).First(&category, "name = ?", name).Error
	if err == nil {
		return &category, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	category = model.Category{ID: uuid.New(), Name: name}
	result := s.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&category)
	if result.Error != nil {
		return nil, result.Error
	}

	// Re-read in case a concurrent writer won the conflict.
	if err := s.getDB(ctx).First(&category, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *CategoryStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
