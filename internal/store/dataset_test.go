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

var _ = Describe("dataset store", Ordered, func() {
	var (
		store  st.Store
		gormDB *gorm.DB
	)

	BeforeAll(func() {
		store, gormDB = newTestStore("dataset")
	})

	AfterAll(func() {
		store.Close()
	})

	AfterEach(func() {
		gormDB.Exec("DELETE FROM training_datasets;")
	})

	newDataset := func(name, status string) *model.TrainingDataset {
		dataset, err := store.Dataset().Create(context.TODO(), model.TrainingDataset{
			ID:     uuid.New(),
			Name:   name,
			Status: status,
		})
		Expect(err).To(BeNil())
		return dataset
	}

	Context("create", func() {
		It("rejects a duplicate name", func() {
			newDataset("v1", model.DatasetStatusBuilding)
			_, err := store.Dataset().Create(context.TODO(), model.TrainingDataset{
				ID:     uuid.New(),
				Name:   "v1",
				Status: model.DatasetStatusBuilding,
			})
			Expect(err).To(Equal(st.ErrDuplicateKey))
		})
	})

	Context("update", func() {
		It("persists lifecycle fields", func() {
			dataset := newDataset("v1", model.DatasetStatusTraining)

			jobID := int64(7)
			dataset.Status = model.DatasetStatusTrained
			dataset.ModelVersion = "20260828.120000"
			dataset.AccuracyRate = 0.91
			dataset.ActiveJobID = &jobID
			updated, err := store.Dataset().Update(context.TODO(), dataset)
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.DatasetStatusTrained))

			stored, err := store.Dataset().Get(context.TODO(), dataset.ID)
			Expect(err).To(BeNil())
			Expect(stored.ModelVersion).To(Equal("20260828.120000"))
			Expect(stored.AccuracyRate).To(Equal(0.91))
			Expect(stored.ActiveJobID).NotTo(BeNil())
		})
	})

	Context("mark training", func() {
		It("claims the dataset exactly once", func() {
			dataset := newDataset("v1", model.DatasetStatusReady)

			claimed, err := store.Dataset().MarkTraining(context.TODO(), dataset.ID, 12, 40)
			Expect(err).To(BeNil())
			Expect(claimed.Status).To(Equal(model.DatasetStatusTraining))
			Expect(claimed.ReviewedItems).To(Equal(12))
			Expect(claimed.TotalItems).To(Equal(40))

			// a second claim loses the race
			_, err = store.Dataset().MarkTraining(context.TODO(), dataset.ID, 12, 40)
			Expect(err).To(Equal(st.ErrRecordNotFound))
		})

		It("fails for an unknown dataset", func() {
			_, err := store.Dataset().MarkTraining(context.TODO(), uuid.New(), 0, 0)
			Expect(err).To(Equal(st.ErrRecordNotFound))
		})
	})

	Context("activate", func() {
		It("deploys the dataset and deactivates the rest", func() {
			first := newDataset("v1", model.DatasetStatusTrained)
			second := newDataset("v2", model.DatasetStatusTrained)

			activated, err := store.Dataset().Activate(context.TODO(), first.ID)
			Expect(err).To(BeNil())
			Expect(activated.IsActive).To(BeTrue())
			Expect(activated.Status).To(Equal(model.DatasetStatusDeployed))

			activated, err = store.Dataset().Activate(context.TODO(), second.ID)
			Expect(err).To(BeNil())
			Expect(activated.IsActive).To(BeTrue())

			count := 0
			err = gormDB.Raw("SELECT COUNT(*) FROM training_datasets WHERE is_active = true;").Scan(&count).Error
			Expect(err).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("fails for an unknown dataset", func() {
			_, err := store.Dataset().Activate(context.TODO(), uuid.New())
			Expect(err).To(Equal(st.ErrRecordNotFound))
		})
	})
})
