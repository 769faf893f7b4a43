package service_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/shelfwise/cataloger/internal/service"
	"github.com/shelfwise/cataloger/internal/store"
	"github.com/shelfwise/cataloger/internal/store/model"
)

var _ = Describe("document service", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		s, gormdb = newTestStore("document_service")
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM cross_references;")
		gormdb.Exec("DELETE FROM catalog_items;")
		gormdb.Exec("DELETE FROM categories;")
		gormdb.Exec("DELETE FROM documents;")
	})

	newProcessedDocument := func(title, text string) *model.Document {
		document, err := s.Document().Create(context.TODO(), model.Document{
			ID:             uuid.New(),
			Title:          title,
			SourceLocation: "/library/" + title + ".txt",
		})
		Expect(err).To(BeNil())
		if text != "" {
			document, err = s.Document().SetExtractionResult(context.TODO(), document.ID, text, 0.9)
			Expect(err).To(BeNil())
		}
		return document
	}

	Context("create", func() {
		It("registers the document and enqueues extraction", func() {
			queue := &fakeEnqueuer{}
			svc := service.NewDocumentService(s, queue, 50)

			document, jobID, err := svc.CreateDocument(context.TODO(), service.DocumentRegistrationForm{
				Title:          "Modern Card Magic",
				SourceLocation: "/library/modern-card-magic.pdf",
			})
			Expect(err).To(BeNil())
			Expect(jobID).To(Equal(int64(1)))
			Expect(queue.extractions).To(HaveLen(1))
			Expect(queue.extractions[0]).To(Equal(document.ID))

			stored, err := s.Document().Get(context.TODO(), document.ID)
			Expect(err).To(BeNil())
			Expect(stored.Title).To(Equal("Modern Card Magic"))
			Expect(stored.HasExtractedText()).To(BeFalse())
		})

		It("rejects a duplicate source location", func() {
			svc := service.NewDocumentService(s, &fakeEnqueuer{}, 50)

			form := service.DocumentRegistrationForm{Title: "book", SourceLocation: "/library/book.pdf"}
			_, _, err := svc.CreateDocument(context.TODO(), form)
			Expect(err).To(BeNil())

			_, _, err = svc.CreateDocument(context.TODO(), form)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrDuplicateSourceLocation{}))
		})

		It("removes the document again when the queue is unavailable", func() {
			svc := service.NewDocumentService(s, &fakeEnqueuer{err: errQueueDown}, 50)

			_, _, err := svc.CreateDocument(context.TODO(), service.DocumentRegistrationForm{
				Title:          "book",
				SourceLocation: "/library/book.pdf",
			})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrQueueUnavailable{}))

			count := int64(-1)
			Expect(gormdb.Model(&model.Document{}).Count(&count).Error).To(BeNil())
			Expect(count).To(Equal(int64(0)))
		})

		It("rejects an empty title", func() {
			svc := service.NewDocumentService(s, &fakeEnqueuer{}, 50)
			_, _, err := svc.CreateDocument(context.TODO(), service.DocumentRegistrationForm{SourceLocation: "/x"})
			Expect(err).NotTo(BeNil())
		})
	})

	Context("reprocess", func() {
		longText := func() string {
			text := ""
			for len(text) < 60 {
				text += "ambitious card "
			}
			return text
		}()

		It("enqueues a classification-only job tagged reprocess", func() {
			document := newProcessedDocument("book1", longText)
			queue := &fakeEnqueuer{}
			svc := service.NewDocumentService(s, queue, 50)

			jobID, err := svc.ReprocessDocument(context.TODO(), document.ID)
			Expect(err).To(BeNil())
			Expect(jobID).To(Equal(int64(1)))
			Expect(queue.extractions).To(BeEmpty())
			Expect(queue.classifications).To(HaveLen(1))
			Expect(queue.classifications[0].DocumentID).To(Equal(document.ID))
			Expect(queue.classifications[0].Source).To(Equal(model.JobSourceReprocess))
		})

		It("rejects a document that was never extracted", func() {
			document := newProcessedDocument("book1", "")
			svc := service.NewDocumentService(s, &fakeEnqueuer{}, 50)

			_, err := svc.ReprocessDocument(context.TODO(), document.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrNoExtractedText{}))
		})

		It("rejects a document with too little text", func() {
			document := newProcessedDocument("book1", "short text")
			svc := service.NewDocumentService(s, &fakeEnqueuer{}, 50)

			_, err := svc.ReprocessDocument(context.TODO(), document.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInsufficientContent{}))
		})

		It("rejects an unknown document", func() {
			svc := service.NewDocumentService(s, &fakeEnqueuer{}, 50)
			_, err := svc.ReprocessDocument(context.TODO(), uuid.New())
			Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		})
	})

	Context("delete", func() {
		It("removes items and cross-references with the document", func() {
			document := newProcessedDocument("book1", "text")
			other := newProcessedDocument("book2", "text")

			category, err := s.Category().GetOrCreate(context.TODO(), "Card")
			Expect(err).To(BeNil())

			mine := model.CatalogItem{ID: uuid.New(), DocumentID: document.ID, CategoryID: category.ID, Name: "a", Description: "d", Difficulty: "beginner"}
			theirs := model.CatalogItem{ID: uuid.New(), DocumentID: other.ID, CategoryID: category.ID, Name: "b", Description: "d", Difficulty: "beginner"}
			Expect(s.CatalogItem().CreateBatch(context.TODO(), []model.CatalogItem{mine, theirs})).To(BeNil())
			Expect(s.CrossReference().CreateBatch(context.TODO(), []model.CrossReference{
				{ID: uuid.New(), SourceItemID: mine.ID, TargetItemID: theirs.ID, RelationshipKind: model.RelationshipSimilar, SimilarityScore: 0.75},
			})).To(BeNil())

			svc := service.NewDocumentService(s, &fakeEnqueuer{}, 50)
			Expect(svc.DeleteDocument(context.TODO(), document.ID)).To(BeNil())

			_, err = s.Document().Get(context.TODO(), document.ID)
			Expect(err).To(Equal(store.ErrRecordNotFound))

			itemCount, err := s.CatalogItem().Count(context.TODO())
			Expect(err).To(BeNil())
			Expect(itemCount).To(Equal(int64(1)))

			refCount, err := s.CrossReference().Count(context.TODO())
			Expect(err).To(BeNil())
			Expect(refCount).To(Equal(int64(0)))
		})
	})
})
