package store

import (
	"strings"

	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type DocumentQueryFilter BaseQuerier

func NewDocumentQueryFilter() *DocumentQueryFilter {
	return &DocumentQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *DocumentQueryFilter) ByProcessed(processed bool) *DocumentQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		if processed {
			return tx.Where("processed_at IS NOT NULL")
		}
		return tx.Where("processed_at IS NULL")
	})
	return qf
}

type CatalogItemQueryFilter BaseQuerier

func NewCatalogItemQueryFilter() *CatalogItemQueryFilter {
	return &CatalogItemQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *CatalogItemQueryFilter) ByDocumentID(documentID string) *CatalogItemQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("document_id = ?", documentID)
	})
	return qf
}

func (qf *CatalogItemQueryFilter) ByCategoryID(categoryID string) *CatalogItemQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("category_id = ?", categoryID)
	})
	return qf
}

func (qf *CatalogItemQueryFilter) ByNameLike(name string) *CatalogItemQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLikePattern(name)+"%")
	})
	return qf
}

// escapeLikePattern neutralizes LIKE wildcards in user-supplied search text
// so they match literally.
func escapeLikePattern(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type JobQueryFilter BaseQuerier

func NewJobQueryFilter() *JobQueryFilter {
	return &JobQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *JobQueryFilter) ByQueue(queue string) *JobQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("queue = ?", queue)
	})
	return qf
}

func (qf *JobQueryFilter) ByState(states ...string) *JobQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("state IN ?", states)
	})
	return qf
}
