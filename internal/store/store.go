package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/shelfwise/cataloger/internal/store/model"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Document() Document
	Category() Category
	CatalogItem() CatalogItem
	CrossReference() CrossReference
	Feedback() Feedback
	Dataset() Dataset
	Job() Job
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db             *gorm.DB
	document       Document
	category       Category
	catalogItem    CatalogItem
	crossReference CrossReference
	feedback       Feedback
	dataset        Dataset
	job            Job
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:             db,
		document:       NewDocumentStore(db),
		category:       NewCategoryStore(db),
		catalogItem:    NewCatalogItemStore(db),
		crossReference: NewCrossReferenceStore(db),
		feedback:       NewFeedbackStore(db),
		dataset:        NewDatasetStore(db),
		job:            NewJobStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Document() Document {
	return s.document
}

func (s *DataStore) Category() Category {
	return s.category
}

func (s *DataStore) CatalogItem() CatalogItem {
	return s.catalogItem
}

func (s *DataStore) CrossReference() CrossReference {
	return s.crossReference
}

func (s *DataStore) Feedback() Feedback {
	return s.feedback
}

func (s *DataStore) Dataset() Dataset {
	return s.dataset
}

func (s *DataStore) Job() Job {
	return s.job
}

// InitialMigration creates the domain tables. The river job tables are
// managed separately by pkg/migrations.
func (s *DataStore) InitialMigration() error {
	return s.db.AutoMigrate(
		&model.Document{},
		&model.Category{},
		&model.CatalogItem{},
		&model.CrossReference{},
		&model.FeedbackRecord{},
		&model.TrainingDataset{},
	)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
