package service_test

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/riverqueue/river/rivertype"
	"gorm.io/gorm"

	"github.com/shelfwise/cataloger/internal/jobs"
	"github.com/shelfwise/cataloger/internal/service"
	"github.com/shelfwise/cataloger/internal/store"
	"github.com/shelfwise/cataloger/internal/store/model"
)

var _ = Describe("job service", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		s, gormdb = newTestStore("job_service")
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM river_job;")
	})

	insertJob := func(id int64, queue string, state rivertype.JobState, meta model.JobMetadata, finalizedAt *time.Time) {
		metadataJSON, err := json.Marshal(meta)
		Expect(err).To(BeNil())
		tx := gormdb.Create(&store.JobRow{
			ID:           id,
			State:        state,
			Queue:        queue,
			Kind:         "job",
			ArgsJSON:     []byte("{}"),
			MetadataJSON: metadataJSON,
			FinalizedAt:  finalizedAt,
		})
		Expect(tx.Error).To(BeNil())
	}

	Context("pipeline status", func() {
		It("folds the chained classification job into the status", func() {
			documentID := uuid.New()
			parentID := int64(1)
			chainedID := int64(2)
			insertJob(1, jobs.QueueExtraction, rivertype.JobStateCompleted,
				model.JobMetadata{Progress: 100, DocumentID: &documentID, Source: model.JobSourcePipeline, ChainedJobID: &chainedID}, nil)
			insertJob(2, jobs.QueueClassification, rivertype.JobStateRunning,
				model.JobMetadata{Progress: 60, DocumentID: &documentID, Source: model.JobSourcePipeline, ParentJobID: &parentID}, nil)

			svc := service.NewJobService(s, &fakeController{})
			status, err := svc.GetPipelineStatus(context.TODO(), 1)
			Expect(err).To(BeNil())
			Expect(status.State).To(Equal(service.JobStateStarted))
			Expect(status.Progress).To(Equal(80))
			Expect(status.DocumentID).NotTo(BeNil())
			Expect(*status.DocumentID).To(Equal(documentID))
			Expect(status.Chained).NotTo(BeNil())
			Expect(status.Chained.JobID).To(Equal(int64(2)))
			Expect(status.Chained.ParentJobID).NotTo(BeNil())
			Expect(*status.Chained.ParentJobID).To(Equal(parentID))
		})

		It("links a chained job back to its parent when polled directly", func() {
			documentID := uuid.New()
			parentID := int64(1)
			chainedID := int64(2)
			insertJob(1, jobs.QueueExtraction, rivertype.JobStateCompleted,
				model.JobMetadata{Progress: 100, DocumentID: &documentID, Source: model.JobSourcePipeline, ChainedJobID: &chainedID}, nil)
			insertJob(2, jobs.QueueClassification, rivertype.JobStateRunning,
				model.JobMetadata{Progress: 60, DocumentID: &documentID, Source: model.JobSourcePipeline, ParentJobID: &parentID}, nil)

			svc := service.NewJobService(s, &fakeController{})
			status, err := svc.GetPipelineStatus(context.TODO(), 2)
			Expect(err).To(BeNil())
			Expect(status.Primary.JobID).To(Equal(int64(2)))
			Expect(status.Primary.ParentJobID).NotTo(BeNil())
			Expect(*status.Primary.ParentJobID).To(Equal(parentID))
		})

		It("returns not found for an unknown job", func() {
			svc := service.NewJobService(s, &fakeController{})
			_, err := svc.GetPipelineStatus(context.TODO(), 999)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrJobNotFound{}))
		})
	})

	Context("list", func() {
		It("filters by queue and caller-facing state", func() {
			insertJob(1, jobs.QueueExtraction, rivertype.JobStateAvailable, model.JobMetadata{}, nil)
			insertJob(2, jobs.QueueExtraction, rivertype.JobStateRunning, model.JobMetadata{}, nil)
			insertJob(3, jobs.QueueClassification, rivertype.JobStateRunning, model.JobMetadata{}, nil)

			svc := service.NewJobService(s, &fakeController{})

			statuses, err := svc.ListJobs(context.TODO(), jobs.QueueExtraction)
			Expect(err).To(BeNil())
			Expect(statuses).To(HaveLen(2))

			statuses, err = svc.ListJobs(context.TODO(), jobs.QueueExtraction, service.JobStateStarted)
			Expect(err).To(BeNil())
			Expect(statuses).To(HaveLen(1))
			Expect(statuses[0].JobID).To(Equal(int64(2)))

			statuses, err = svc.ListJobs(context.TODO(), "", service.JobStateQueued)
			Expect(err).To(BeNil())
			Expect(statuses).To(HaveLen(1))
			Expect(statuses[0].JobID).To(Equal(int64(1)))
		})
	})

	Context("cancel", func() {
		It("cancels the job and its chained job", func() {
			chainedID := int64(2)
			insertJob(1, jobs.QueueExtraction, rivertype.JobStateRunning, model.JobMetadata{ChainedJobID: &chainedID}, nil)
			insertJob(2, jobs.QueueClassification, rivertype.JobStateAvailable, model.JobMetadata{}, nil)

			controller := &fakeController{}
			svc := service.NewJobService(s, controller)

			_, err := svc.CancelJob(context.TODO(), 1)
			Expect(err).To(BeNil())
			Expect(controller.cancelled).To(Equal([]int64{1, 2}))
		})

		It("rejects cancelling a finished job", func() {
			insertJob(1, jobs.QueueExtraction, rivertype.JobStateCompleted, model.JobMetadata{}, nil)

			svc := service.NewJobService(s, &fakeController{})
			_, err := svc.CancelJob(context.TODO(), 1)
			Expect(err).To(BeAssignableToTypeOf(&service.ErrJobAlreadyCompleted{}))
		})
	})

	Context("purge", func() {
		It("removes old terminal jobs and keeps the rest", func() {
			old := time.Now().Add(-48 * time.Hour)
			recent := time.Now()
			insertJob(1, jobs.QueueExtraction, rivertype.JobStateCompleted, model.JobMetadata{}, &old)
			insertJob(2, jobs.QueueExtraction, rivertype.JobStateCompleted, model.JobMetadata{}, &recent)
			insertJob(3, jobs.QueueExtraction, rivertype.JobStateRunning, model.JobMetadata{}, nil)

			svc := service.NewJobService(s, &fakeController{})
			purged, err := svc.PurgeTerminalJobs(context.TODO(), 24*time.Hour)
			Expect(err).To(BeNil())
			Expect(purged).To(Equal(int64(1)))

			rows, err := s.Job().List(context.TODO(), nil)
			Expect(err).To(BeNil())
			Expect(rows).To(HaveLen(2))
		})
	})
})
