package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/shelfwise/cataloger/internal/store"
	"github.com/shelfwise/cataloger/internal/store/model"
	"github.com/shelfwise/cataloger/pkg/log"
)

// CatalogFilter narrows catalog item queries. Zero value means no filter.
type CatalogFilter struct {
	DocumentID *uuid.UUID
	CategoryID *uuid.UUID
	NameQuery  string
}

type CatalogService struct {
	store  store.Store
	logger *log.StructuredLogger
}

func NewCatalogService(s store.Store) *CatalogService {
	return &CatalogService{
		store:  s,
		logger: log.NewDebugLogger("catalog_service"),
	}
}

func (s *CatalogService) ListItems(ctx context.Context, filter CatalogFilter) (model.CatalogItemList, error) {
	qf := store.NewCatalogItemQueryFilter()
	if filter.DocumentID != nil {
		qf = qf.ByDocumentID(filter.DocumentID.String())
	}
	if filter.CategoryID != nil {
		qf = qf.ByCategoryID(filter.CategoryID.String())
	}
	if filter.NameQuery != "" {
		qf = qf.ByNameLike(strings.ToLower(filter.NameQuery))
	}
	return s.store.CatalogItem().List(ctx, qf)
}

func (s *CatalogService) GetItem(ctx context.Context, id uuid.UUID) (*model.CatalogItem, error) {
	item, err := s.store.CatalogItem().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrCatalogItemNotFound(id)
		}
		return nil, err
	}
	return item, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.store.Category().List(ctx)
}

// ListCrossReferences returns every edge touching the item, regardless of
// which side of the pair the item is on.
func (s *CatalogService) ListCrossReferences(ctx context.Context, itemID uuid.UUID) (model.CrossReferenceList, error) {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.store.CrossReference().ListByItem(ctx, itemID)
}

func (s *CatalogService) ListAllCrossReferences(ctx context.Context) (model.CrossReferenceList, error) {
	return s.store.CrossReference().List(ctx)
}
