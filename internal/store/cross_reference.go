package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfwise/cataloger/internal/store/model"
)

type CrossReference interface {
	List(ctx context.Context) (model.CrossReferenceList, error)
	// ListByItem returns edges where the item appears on either end.
	ListByItem(ctx context.Context, itemID uuid.UUID) (model.CrossReferenceList, error)
	CreateBatch(ctx context.Context, refs []model.CrossReference) error
	// DeleteByDocumentID removes every edge with at least one endpoint owned
	// by the document. Run atomically with the item deletion to avoid stale
	// edges referencing deleted items.
	DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type CrossReferenceStore struct {
	db *gorm.DB
}

// Make sure we conform to CrossReference interface
var _ CrossReference = (*CrossReferenceStore)(nil)

func NewCrossReferenceStore(db *gorm.DB) CrossReference {
	return &CrossReferenceStore{db: db}
}

func (s *CrossReferenceStore) List(ctx context.Context) (model.CrossReferenceList, error) {
	var refs model.CrossReferenceList
	result := s.getDB(ctx).Order("similarity_score DESC").Find(&refs)
	if result.Error != nil {
		return nil, result.Error
	}
	return refs, nil
}

func (s *CrossReferenceStore) ListByItem(ctx context.Context, itemID uuid.UUID) (model.CrossReferenceList, error) {
	var refs model.CrossReferenceList
	result := s.getDB(ctx).
		Where("source_item_id = ? OR target_item_id = ?", itemID.String(), itemID.String()).
		Order("similarity_score DESC").
		Find(&refs)
	if result.Error != nil {
		return nil, result.Error
	}
	return refs, nil
}

func (s *CrossReferenceStore) CreateBatch(ctx context.Context, refs []model.CrossReference) error {
	if len(refs) == 0 {
		return nil
	}
	return s.getDB(ctx).Create(&refs).Error
}

func (s *CrossReferenceStore) DeleteByDocumentID(ctx context.Context, documentID uuid.UUID) error {
	itemIDs := s.getDB(ctx).Model(&model.CatalogItem{}).
		Select("id").
		Where("document_id = ?", documentID.String())

	result := s.getDB(ctx).Unscoped().
		Where("source_item_id IN (?) OR target_item_id IN (?)", itemIDs, itemIDs).
		Delete(&model.CrossReference{})
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (s *CrossReferenceStore) Count(ctx context.Context) (int64, error) {
	var count int64
	result := s.getDB(ctx).Model(&model.CrossReference{}).Count(&count)
	return count, result.Error
}

func (s *CrossReferenceStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
