package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shelfwise/cataloger/internal/store/model"
)

type Feedback interface {
	List(ctx context.Context) (model.FeedbackRecordList, error)
	GetByItemID(ctx context.Context, itemID uuid.UUID) (*model.FeedbackRecord, error)
	// Upsert creates the feedback record for an item or overwrites the
	// existing one. One record per item.
	Upsert(ctx context.Context, record model.FeedbackRecord) (*model.FeedbackRecord, error)
	// CountReviewed returns the number of records usable for training:
	// use_for_training set and a non-pending accuracy verdict.
	CountReviewed(ctx context.Context) (int64, error)
	CountAccurate(ctx context.Context) (int64, error)
}

type FeedbackStore struct {
	db *gorm.DB
}

// Make sure we conform to Feedback interface
var _ Feedback = (*FeedbackStore)(nil)

func NewFeedbackStore(db *gorm.DB) Feedback {
	return &FeedbackStore{db: db}
}

func (s *FeedbackStore) List(ctx context.Context) (model.FeedbackRecordList, error) {
	var records model.FeedbackRecordList
	result := s.getDB(ctx).Order("created_at DESC").Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

func (s *FeedbackStore) GetByItemID(ctx context.Context, itemID uuid.UUID) (*model.FeedbackRecord, error) {
	var record model.FeedbackRecord
	result := s.getDB(ctx).First(&record, "item_id = ?", itemID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &record, nil
}

func (s *FeedbackStore) Upsert(ctx context.Context, record model.FeedbackRecord) (*model.FeedbackRecord, error) {
	now := time.Now().UTC()
	record.UpdatedAt = &now

	result := s.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_accurate", "corrected_fields", "use_for_training", "updated_at"}),
	}).Create(&record)
	if result.Error != nil {
		return nil, result.Error
	}

	return s.GetByItemID(ctx, record.ItemID)
}

func (s *FeedbackStore) CountReviewed(ctx context.Context) (int64, error) {
	var count int64
	result := s.getDB(ctx).Model(&model.FeedbackRecord{}).
		Where("use_for_training = ? AND is_accurate IS NOT NULL", true).
		Count(&count)
	return count, result.Error
}

func (s *FeedbackStore) CountAccurate(ctx context.Context) (int64, error) {
	var count int64
	result := s.getDB(ctx).Model(&model.FeedbackRecord{}).
		Where("use_for_training = ? AND is_accurate = ?", true, true).
		Count(&count)
	return count, result.Error
}

func (s *FeedbackStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
