package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfwise/cataloger/internal/store/model"
)

type CatalogItem interface {
	List(ctx context.Context, filter *CatalogItemQueryFilter) (model.CatalogItemList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.CatalogItem, error)
	CreateBatch(ctx context.Context, items []model.CatalogItem) error
	// DeleteByDocumentID removes every item owned by the document. Callers
	// replacing a document's items run this inside the same transaction as
	// the inserts so readers never observe an empty document mid-replace.
	DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type CatalogItemStore struct {
	db *gorm.DB
}

// Make sure we conform to CatalogItem interface
var _ CatalogItem = (*CatalogItemStore)(nil)

func NewCatalogItemStore(db *gorm.DB) CatalogItem {
	return &CatalogItemStore{db: db}
}

func (s *CatalogItemStore) List(ctx context.Context, filter *CatalogItemQueryFilter) (model.CatalogItemList, error) {
	var items model.CatalogItemList
	tx := s.getDB(ctx).Model(&items).Order("created_at")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&items)
	if result.Error != nil {
		return nil, result.Error
	}
	return items, nil
}

func (s *CatalogItemStore) Get(ctx context.Context, id uuid.UUID) (*model.CatalogItem, error) {
	var item model.CatalogItem
	result := s.getDB(ctx).First(&item, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &item, nil
}

func (s *CatalogItemStore) CreateBatch(ctx context.Context, items []model.CatalogItem) error {
	if len(items) == 0 {
		return nil
	}
	return s.getDB(ctx).Create(&items).Error
}

func (s *CatalogItemStore) DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error {
	result := s.getDB(ctx).Unscoped().Delete(&model.CatalogItem{}, "document_id = ?", documentID.String())
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (s *CatalogItemStore) Count(ctx context.Context) (int64, error) {
	var count int64
	result := s.getDB(ctx).Model(&model.CatalogItem{}).Count(&count)
	return count, result.Error
}

func (s *CatalogItemStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
