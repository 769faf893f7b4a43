package service_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/shelfwise/cataloger/internal/jobs"
	"github.com/shelfwise/cataloger/internal/service"
	"github.com/shelfwise/cataloger/internal/store"
	"github.com/shelfwise/cataloger/internal/store/model"
)

var _ = Describe("training service", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		s, gormdb = newTestStore("training_service")
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM feedback_records;")
		gormdb.Exec("DELETE FROM training_datasets;")
		gormdb.Exec("DELETE FROM catalog_items;")
		gormdb.Exec("DELETE FROM categories;")
		gormdb.Exec("DELETE FROM documents;")
	})

	newItems := func(count int) []model.CatalogItem {
		document, err := s.Document().Create(context.TODO(), model.Document{
			ID:             uuid.New(),
			Title:          uuid.NewString(),
			SourceLocation: "/library/" + uuid.NewString(),
		})
		Expect(err).To(BeNil())
		category, err := s.Category().GetOrCreate(context.TODO(), "Card")
		Expect(err).To(BeNil())

		items := make([]model.CatalogItem, 0, count)
		for i := 0; i < count; i++ {
			items = append(items, model.CatalogItem{
				ID:          uuid.New(),
				DocumentID:  document.ID,
				CategoryID:  category.ID,
				Name:        uuid.NewString(),
				Description: "a description",
				Difficulty:  "beginner",
			})
		}
		Expect(s.CatalogItem().CreateBatch(context.TODO(), items)).To(BeNil())
		return items
	}

	reviewItems := func(svc *service.TrainingService, items []model.CatalogItem, accurate bool) {
		for i := range items {
			isAccurate := accurate
			_, err := svc.SubmitFeedback(context.TODO(), service.FeedbackForm{
				ItemID:     items[i].ID,
				IsAccurate: &isAccurate,
			})
			Expect(err).To(BeNil())
		}
	}

	Context("feedback", func() {
		It("records a review and derives its status", func() {
			items := newItems(1)
			svc := service.NewTrainingService(s, &fakeEnqueuer{}, 10)

			record, err := svc.SubmitFeedback(context.TODO(), service.FeedbackForm{ItemID: items[0].ID})
			Expect(err).To(BeNil())
			Expect(record.IsAccurate).To(BeNil())
			Expect(record.UseForTraining).To(BeTrue())

			reviews, err := svc.ListReviews(context.TODO())
			Expect(err).To(BeNil())
			Expect(reviews).To(HaveLen(1))
			Expect(reviews[0].Status).To(Equal(service.ReviewStatusPending))
		})

		It("overwrites on resubmission and derives corrected status", func() {
			items := newItems(1)
			svc := service.NewTrainingService(s, &fakeEnqueuer{}, 10)

			accurate := true
			_, err := svc.SubmitFeedback(context.TODO(), service.FeedbackForm{ItemID: items[0].ID, IsAccurate: &accurate})
			Expect(err).To(BeNil())

			inaccurate := false
			correctedName := "Ambitious Card"
			_, err = svc.SubmitFeedback(context.TODO(), service.FeedbackForm{
				ItemID:          items[0].ID,
				IsAccurate:      &inaccurate,
				CorrectedFields: &model.CorrectedFields{Name: &correctedName},
			})
			Expect(err).To(BeNil())

			reviews, err := svc.ListReviews(context.TODO())
			Expect(err).To(BeNil())
			Expect(reviews).To(HaveLen(1))
			Expect(reviews[0].Status).To(Equal(service.ReviewStatusCorrected))
		})

		It("rejects feedback for an unknown item", func() {
			svc := service.NewTrainingService(s, &fakeEnqueuer{}, 10)
			_, err := svc.SubmitFeedback(context.TODO(), service.FeedbackForm{ItemID: uuid.New()})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrResourceNotFound{}))
		})

		It("computes accuracy stats", func() {
			items := newItems(4)
			svc := service.NewTrainingService(s, &fakeEnqueuer{}, 10)
			reviewItems(svc, items[:3], true)
			reviewItems(svc, items[3:], false)

			stats, err := svc.Stats(context.TODO())
			Expect(err).To(BeNil())
			Expect(stats.TotalItems).To(Equal(int64(4)))
			Expect(stats.ReviewedItems).To(Equal(int64(4)))
			Expect(stats.AccurateItems).To(Equal(int64(3)))
			Expect(stats.AccuracyRate).To(BeNumerically("~", 0.75, 0.001))
			Expect(stats.ReadyForTraining).To(BeFalse())
		})
	})

	Context("dataset lifecycle", func() {
		It("keeps a new dataset building below the review threshold", func() {
			svc := service.NewTrainingService(s, &fakeEnqueuer{}, 10)

			dataset, err := svc.CreateDataset(context.TODO(), "first")
			Expect(err).To(BeNil())
			Expect(dataset.Status).To(Equal(model.DatasetStatusBuilding))
		})

		It("promotes a building dataset to ready once enough reviews exist", func() {
			items := newItems(3)
			svc := service.NewTrainingService(s, &fakeEnqueuer{}, 3)

			dataset, err := svc.CreateDataset(context.TODO(), "first")
			Expect(err).To(BeNil())
			Expect(dataset.Status).To(Equal(model.DatasetStatusBuilding))

			reviewItems(svc, items, true)

			dataset, err = svc.GetDataset(context.TODO(), dataset.ID)
			Expect(err).To(BeNil())
			Expect(dataset.Status).To(Equal(model.DatasetStatusReady))
			Expect(dataset.ReviewedItems).To(Equal(3))
		})

		It("refuses to retrain below the review threshold", func() {
			items := newItems(2)
			svc := service.NewTrainingService(s, &fakeEnqueuer{}, 3)
			reviewItems(svc, items, true)

			dataset, err := svc.CreateDataset(context.TODO(), "first")
			Expect(err).To(BeNil())

			_, err = svc.Retrain(context.TODO(), dataset.ID, jobs.RetrainingArgs{})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrInsufficientReviews{}))
		})

		It("moves the dataset to training and records the job", func() {
			items := newItems(3)
			queue := &fakeEnqueuer{}
			svc := service.NewTrainingService(s, queue, 3)
			reviewItems(svc, items, true)

			dataset, err := svc.CreateDataset(context.TODO(), "first")
			Expect(err).To(BeNil())

			jobID, err := svc.Retrain(context.TODO(), dataset.ID, jobs.RetrainingArgs{Epochs: 5})
			Expect(err).To(BeNil())
			Expect(queue.retrainings).To(HaveLen(1))
			Expect(queue.retrainings[0].DatasetID).To(Equal(dataset.ID))
			Expect(queue.retrainings[0].Epochs).To(Equal(5))

			dataset, err = svc.GetDataset(context.TODO(), dataset.ID)
			Expect(err).To(BeNil())
			Expect(dataset.Status).To(Equal(model.DatasetStatusTraining))
			Expect(dataset.ActiveJobID).NotTo(BeNil())
			Expect(*dataset.ActiveJobID).To(Equal(jobID))
		})

		It("rejects retraining a dataset that is already training", func() {
			items := newItems(3)
			svc := service.NewTrainingService(s, &fakeEnqueuer{}, 3)
			reviewItems(svc, items, true)

			dataset, err := svc.CreateDataset(context.TODO(), "first")
			Expect(err).To(BeNil())
			_, err = svc.Retrain(context.TODO(), dataset.ID, jobs.RetrainingArgs{})
			Expect(err).To(BeNil())

			_, err = svc.Retrain(context.TODO(), dataset.ID, jobs.RetrainingArgs{})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrDatasetAlreadyTraining{}))
		})

		It("reverts the status when the queue is unavailable", func() {
			items := newItems(3)
			svc := service.NewTrainingService(s, &fakeEnqueuer{err: errQueueDown}, 3)

			reviewer := service.NewTrainingService(s, &fakeEnqueuer{}, 3)
			reviewItems(reviewer, items, true)

			dataset, err := svc.CreateDataset(context.TODO(), "first")
			Expect(err).To(BeNil())

			_, err = svc.Retrain(context.TODO(), dataset.ID, jobs.RetrainingArgs{})
			Expect(err).To(BeAssignableToTypeOf(&service.ErrQueueUnavailable{}))

			dataset, err = svc.GetDataset(context.TODO(), dataset.ID)
			Expect(err).To(BeNil())
			Expect(dataset.Status).To(Equal(model.DatasetStatusReady))
			Expect(dataset.ActiveJobID).To(BeNil())
		})
	})

	Context("activation", func() {
		markTrained := func(id uuid.UUID) {
			dataset, err := s.Dataset().Get(context.TODO(), id)
			Expect(err).To(BeNil())
			dataset.Status = model.DatasetStatusTrained
			dataset.ModelVersion = "20260101.000000"
			_, err = s.Dataset().Update(context.TODO(), dataset)
			Expect(err).To(BeNil())
		}

		It("rejects activating an untrained dataset", func() {
			svc := service.NewTrainingService(s, &fakeEnqueuer{}, 10)
			dataset, err := svc.CreateDataset(context.TODO(), "first")
			Expect(err).To(BeNil())

			_, err = svc.ActivateDataset(context.TODO(), dataset.ID)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrDatasetNotTrained{}))
		})

		It("activates a trained dataset and deactivates the previous one", func() {
			svc := service.NewTrainingService(s, &fakeEnqueuer{}, 10)

			first, err := svc.CreateDataset(context.TODO(), "first")
			Expect(err).To(BeNil())
			second, err := svc.CreateDataset(context.TODO(), "second")
			Expect(err).To(BeNil())
			markTrained(first.ID)
			markTrained(second.ID)

			activated, err := svc.ActivateDataset(context.TODO(), first.ID)
			Expect(err).To(BeNil())
			Expect(activated.IsActive).To(BeTrue())
			Expect(activated.Status).To(Equal(model.DatasetStatusDeployed))

			activated, err = svc.ActivateDataset(context.TODO(), second.ID)
			Expect(err).To(BeNil())
			Expect(activated.IsActive).To(BeTrue())

			datasets, err := svc.ListDatasets(context.TODO())
			Expect(err).To(BeNil())
			active := 0
			for _, dataset := range datasets {
				if dataset.IsActive {
					active++
					Expect(dataset.ID).To(Equal(second.ID))
				}
			}
			Expect(active).To(Equal(1))
		})
	})
})
