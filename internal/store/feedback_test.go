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

var _ = Describe("feedback store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	BeforeAll(func() {
		store, gormDB = newTestStore("feedback")
	})

	AfterAll(func() {
		store.Close()
	})

	AfterEach(func() {
		gormDB.Exec("DELETE FROM feedback_records;")
		gormDB.Exec("DELETE FROM catalog_items;")
		gormDB.Exec("DELETE FROM categories;")
		gormDB.Exec("DELETE FROM documents;")
	})

	newItem := func(name string) model.CatalogItem {
		document, err := store.Document().Create(context.TODO(), model.Document{
			ID:             uuid.New(),
			Title:          name,
			SourceLocation: "/library/" + name + ".pdf",
		})
		Expect(err).To(BeNil())
		category, err := store.Category().GetOrCreate(context.TODO(), "Card")
		Expect(err).To(BeNil())
		item := model.CatalogItem{
			ID:          uuid.New(),
			DocumentID:  document.ID,
			CategoryID:  category.ID,
			Name:        name,
			Description: "a description",
			Difficulty:  "beginner",
		}
		Expect(store.CatalogItem().CreateBatch(context.TODO(), []model.CatalogItem{item})).To(BeNil())
		return item
	}

	submit := func(itemID uuid.UUID, accurate *bool, useForTraining bool) *model.FeedbackRecord {
		record, err := store.Feedback().Upsert(context.TODO(), model.FeedbackRecord{
			ID:             uuid.New(),
			ItemID:         itemID,
			IsAccurate:     accurate,
			UseForTraining: useForTraining,
		})
		Expect(err).To(BeNil())
		return record
	}

	boolPtr := func(v bool) *bool { return &v }

	Context("upsert", func() {
		It("keeps one record per item", func() {
			item := newItem("a")
			first := submit(item.ID, nil, true)
			second := submit(item.ID, boolPtr(true), true)

			Expect(second.ID).To(Equal(first.ID))
			Expect(second.IsAccurate).NotTo(BeNil())
			Expect(*second.IsAccurate).To(BeTrue())

			records, err := store.Feedback().List(context.TODO())
			Expect(err).To(BeNil())
			Expect(records).To(HaveLen(1))
		})

		It("overwrites the corrected fields", func() {
			item := newItem("a")
			submit(item.ID, boolPtr(true), true)

			name := "The Ambitious Card"
			record, err := store.Feedback().Upsert(context.TODO(), model.FeedbackRecord{
				ID:              uuid.New(),
				ItemID:          item.ID,
				IsAccurate:      boolPtr(false),
				CorrectedFields: model.MakeJSONField(model.CorrectedFields{Name: &name}),
				UseForTraining:  true,
			})
			Expect(err).To(BeNil())
			Expect(record.CorrectedFields).NotTo(BeNil())
			Expect(*record.CorrectedFields.Data.Name).To(Equal("The Ambitious Card"))
		})
	})

	Context("counters", func() {
		It("counts only reviewed records marked for training", func() {
			submit(newItem("a").ID, boolPtr(true), true)
			submit(newItem("b").ID, boolPtr(false), true)
			submit(newItem("c").ID, nil, true)            // pending
			submit(newItem("d").ID, boolPtr(true), false) // excluded from training

			reviewed, err := store.Feedback().CountReviewed(context.TODO())
			Expect(err).To(BeNil())
			Expect(reviewed).To(Equal(int64(2)))

			accurate, err := store.Feedback().CountAccurate(context.TODO())
			Expect(err).To(BeNil())
			Expect(accurate).To(Equal(int64(1)))
		})
	})
})
