package store

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shelfwise/cataloger/internal/store/model"
)

type Document interface {
	List(ctx context.Context, filter *DocumentQueryFilter) (model.DocumentList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Document, error)
	Create(ctx context.Context, document model.Document) (*model.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// SetExtractionResult writes the extracted text, its confidence and the
	// processing timestamp in one update. Keyed by document id so re-running
	// the same extraction is idempotent.
	SetExtractionResult(ctx context.Context, id uuid.UUID, text string, confidence float64) (*model.Document, error)
}

type DocumentStore struct {
	db *gorm.DB
}

// Make sure we conform to Document interface
var _ Document = (*DocumentStore)(nil)

func NewDocumentStore(db *gorm.DB) Document {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) List(ctx context.Context, filter *DocumentQueryFilter) (model.DocumentList, error) {
	var documents model.DocumentList
	tx := s.getDB(ctx).Model(&documents).Order("created_at DESC")

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	result := tx.Find(&documents)
	if result.Error != nil {
		return nil, result.Error
	}
	return documents, nil
}

func (s *DocumentStore) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var document model.Document
	result := s.getDB(ctx).Preload("Items").First(&document, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &document, nil
}

func (s *DocumentStore) Create(ctx context.Context, document model.Document) (*model.Document, error) {
	result := s.getDB(ctx).Clauses(clause.Returning{}).Create(&document)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, result.Error
	}
	return &document, nil
}

func (s *DocumentStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.getDB(ctx).Unscoped().Select(clause.Associations).Delete(&model.Document{ID: id})
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (s *DocumentStore) SetExtractionResult(ctx context.Context, id uuid.UUID, text string, confidence float64) (*model.Document, error) {
	now := time.Now().UTC()
	updates := map[string]any{
		"extracted_text":        text,
		"extraction_confidence": confidence,
		"character_count":       utf8.RuneCountInString(text),
		"processed_at":          now,
		"updated_at":            now,
	}

	result := s.getDB(ctx).Model(&model.Document{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}

	return s.Get(ctx, id)
}

func (s *DocumentStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
