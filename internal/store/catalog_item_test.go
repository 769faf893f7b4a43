package store_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	st "github.com/shelfwise/cataloger/internal/store"
	"github.com/shelfwise/cataloger/internal/store/model"
)

var _ = Describe("catalog item store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	BeforeAll(func() {
		store, gormDB = newTestStore("catalog_item")
	})

	AfterAll(func() {
		store.Close()
	})

	AfterEach(func() {
		gormDB.Exec("DELETE FROM cross_references;")
		gormDB.Exec("DELETE FROM catalog_items;")
		gormDB.Exec("DELETE FROM categories;")
		gormDB.Exec("DELETE FROM documents;")
	})

	newDocument := func(title string) *model.Document {
		document, err := store.Document().Create(context.TODO(), model.Document{
			ID:             uuid.New(),
			Title:          title,
			SourceLocation: "/library/" + title + ".pdf",
		})
		Expect(err).To(BeNil())
		return document
	}

	newItem := func(documentID uuid.UUID, category, name string) model.CatalogItem {
		cat, err := store.Category().GetOrCreate(context.TODO(), category)
		Expect(err).To(BeNil())
		item := model.CatalogItem{
			ID:          uuid.New(),
			DocumentID:  documentID,
			CategoryID:  cat.ID,
			Name:        name,
			Description: "a description",
			Difficulty:  "beginner",
			Confidence:  0.8,
		}
		Expect(store.CatalogItem().CreateBatch(context.TODO(), []model.CatalogItem{item})).To(BeNil())
		return item
	}

	Context("list", func() {
		It("filters by document, category and name", func() {
			book1 := newDocument("book1")
			book2 := newDocument("book2")
			newItem(book1.ID, "Card", "Ambitious Card")
			newItem(book1.ID, "Coin", "Coin Matrix")
			newItem(book2.ID, "Card", "Card Through Window")

			items, err := store.CatalogItem().List(context.TODO(), st.NewCatalogItemQueryFilter().ByDocumentID(book1.ID.String()))
			Expect(err).To(BeNil())
			Expect(items).To(HaveLen(2))

			card, err := store.Category().GetOrCreate(context.TODO(), "Card")
			Expect(err).To(BeNil())
			items, err = store.CatalogItem().List(context.TODO(), st.NewCatalogItemQueryFilter().ByCategoryID(card.ID.String()))
			Expect(err).To(BeNil())
			Expect(items).To(HaveLen(2))

			items, err = store.CatalogItem().List(context.TODO(), st.NewCatalogItemQueryFilter().ByNameLike("ambitious"))
			Expect(err).To(BeNil())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Name).To(Equal("Ambitious Card"))
		})

		It("treats wildcards in the search text literally", func() {
			book := newDocument("book")
			newItem(book.ID, "Card", "Ambitious Card")
			newItem(book.ID, "Card", "100% Certain Prediction")

			items, err := store.CatalogItem().List(context.TODO(), st.NewCatalogItemQueryFilter().ByNameLike("100%"))
			Expect(err).To(BeNil())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Name).To(Equal("100% Certain Prediction"))

			items, err = store.CatalogItem().List(context.TODO(), st.NewCatalogItemQueryFilter().ByNameLike("_"))
			Expect(err).To(BeNil())
			Expect(items).To(BeEmpty())
		})
	})

	Context("delete by document", func() {
		It("removes only the document's items", func() {
			book1 := newDocument("book1")
			book2 := newDocument("book2")
			newItem(book1.ID, "Card", "Ambitious Card")
			survivor := newItem(book2.ID, "Card", "Card Through Window")

			Expect(store.CatalogItem().DeleteByDocumentID(context.TODO(), book1.ID)).To(BeNil())

			items, err := store.CatalogItem().List(context.TODO(), nil)
			Expect(err).To(BeNil())
			Expect(items).To(HaveLen(1))
			Expect(items[0].ID).To(Equal(survivor.ID))
		})
	})

	Context("categories", func() {
		It("creates a category once and reuses it", func() {
			first, err := store.Category().GetOrCreate(context.TODO(), "Mentalism")
			Expect(err).To(BeNil())
			second, err := store.Category().GetOrCreate(context.TODO(), "Mentalism")
			Expect(err).To(BeNil())
			Expect(second.ID).To(Equal(first.ID))

			categories, err := store.Category().List(context.TODO())
			Expect(err).To(BeNil())
			Expect(categories).To(HaveLen(1))
		})
	})

	Context("cross references", func() {
		It("lists edges touching either end of an item", func() {
			book := newDocument("book")
			a := newItem(book.ID, "Card", "a")
			b := newItem(book.ID, "Card", "b")
			c := newItem(book.ID, "Card", "c")
			Expect(store.CrossReference().CreateBatch(context.TODO(), []model.CrossReference{
				{ID: uuid.New(), SourceItemID: a.ID, TargetItemID: b.ID, RelationshipKind: model.RelationshipSimilar, SimilarityScore: 0.72},
				{ID: uuid.New(), SourceItemID: c.ID, TargetItemID: a.ID, RelationshipKind: model.RelationshipVariation, SimilarityScore: 0.84},
				{ID: uuid.New(), SourceItemID: b.ID, TargetItemID: c.ID, RelationshipKind: model.RelationshipRelated, SimilarityScore: 0.61},
			})).To(BeNil())

			refs, err := store.CrossReference().ListByItem(context.TODO(), a.ID)
			Expect(err).To(BeNil())
			Expect(refs).To(HaveLen(2))
			// ordered by descending similarity
			Expect(refs[0].SimilarityScore).To(BeNumerically(">", refs[1].SimilarityScore))
		})

		It("removes edges with an endpoint in the document", func() {
			book1 := newDocument("book1")
			book2 := newDocument("book2")
			mine := newItem(book1.ID, "Card", "a")
			other1 := newItem(book2.ID, "Card", "b")
			other2 := newItem(book2.ID, "Card", "c")
			Expect(store.CrossReference().CreateBatch(context.TODO(), []model.CrossReference{
				{ID: uuid.New(), SourceItemID: mine.ID, TargetItemID: other1.ID, RelationshipKind: model.RelationshipSimilar, SimilarityScore: 0.75},
				{ID: uuid.New(), SourceItemID: other1.ID, TargetItemID: other2.ID, RelationshipKind: model.RelationshipRelated, SimilarityScore: 0.65},
			})).To(BeNil())

			Expect(store.CrossReference().DeleteByDocumentID(context.TODO(), book1.ID)).To(BeNil())

			refs, err := store.CrossReference().List(context.TODO())
			Expect(err).To(BeNil())
			Expect(refs).To(HaveLen(1))
			Expect(refs[0].SourceItemID).To(Equal(other1.ID))
		})
	})
})
