package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/shelfwise/cataloger/internal/jobs"
	"github.com/shelfwise/cataloger/internal/store"
	"github.com/shelfwise/cataloger/internal/store/model"
	"github.com/shelfwise/cataloger/pkg/log"
)

// Review statuses derived from a feedback record.
const (
	ReviewStatusPending   = "pending"
	ReviewStatusApproved  = "approved"
	ReviewStatusRejected  = "rejected"
	ReviewStatusCorrected = "corrected"
)

type FeedbackForm struct {
	ItemID          uuid.UUID
	IsAccurate      *bool
	CorrectedFields *model.CorrectedFields
	UseForTraining  *bool
}

// Review is a feedback record joined with its catalog item.
type Review struct {
	Item     model.CatalogItem    `json:"item"`
	Feedback model.FeedbackRecord `json:"feedback"`
	Status   string               `json:"status"`
}

type TrainingStats struct {
	TotalItems       int64   `json:"total_items"`
	ReviewedItems    int64   `json:"reviewed_items"`
	AccurateItems    int64   `json:"accurate_items"`
	AccuracyRate     float64 `json:"accuracy_rate"`
	MinReviewedItems int     `json:"min_reviewed_items"`
	ReadyForTraining bool    `json:"ready_for_training"`
}

type TrainingService struct {
	store            store.Store
	queue            Enqueuer
	minReviewedItems int
	logger           *log.StructuredLogger
}

func NewTrainingService(s store.Store, queue Enqueuer, minReviewedItems int) *TrainingService {
	return &TrainingService{
		store:            s,
		queue:            queue,
		minReviewedItems: minReviewedItems,
		logger:           log.NewDebugLogger("training_service"),
	}
}

// SubmitFeedback records a review verdict for a catalog item. One record per
// item; resubmitting overwrites. Datasets still building are refreshed and
// promoted to ready once enough reviews accumulate.
func (s *TrainingService) SubmitFeedback(ctx context.Context, form FeedbackForm) (*model.FeedbackRecord, error) {
	tracer := s.logger.WithContext(ctx).Operation("submit_feedback").WithParam("item_id", form.ItemID).Build()

	if _, err := s.store.CatalogItem().Get(ctx, form.ItemID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrCatalogItemNotFound(form.ItemID)
		}
		return nil, err
	}

	record := model.FeedbackRecord{
		ID:             uuid.New(),
		ItemID:         form.ItemID,
		IsAccurate:     form.IsAccurate,
		UseForTraining: true,
	}
	if form.UseForTraining != nil {
		record.UseForTraining = *form.UseForTraining
	}
	if form.CorrectedFields != nil {
		record.CorrectedFields = model.MakeJSONField(*form.CorrectedFields)
	}

	saved, err := s.store.Feedback().Upsert(ctx, record)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	if err := s.refreshBuildingDatasets(ctx); err != nil {
		tracer.Error(err).Step("refresh_datasets").Log()
	}

	tracer.Success().Log()
	return saved, nil
}

// ListReviews joins feedback records with their items and derives the review
// status: pending, approved, rejected or corrected.
func (s *TrainingService) ListReviews(ctx context.Context) ([]Review, error) {
	records, err := s.store.Feedback().List(ctx)
	if err != nil {
		return nil, err
	}

	reviews := make([]Review, 0, len(records))
	for _, record := range records {
		item, err := s.store.CatalogItem().Get(ctx, record.ItemID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				// the item was replaced by a reprocessing run
				continue
			}
			return nil, err
		}
		reviews = append(reviews, Review{
			Item:     *item,
			Feedback: record,
			Status:   reviewStatus(record),
		})
	}
	return reviews, nil
}

func (s *TrainingService) Stats(ctx context.Context) (*TrainingStats, error) {
	totalItems, err := s.store.CatalogItem().Count(ctx)
	if err != nil {
		return nil, err
	}
	reviewed, err := s.store.Feedback().CountReviewed(ctx)
	if err != nil {
		return nil, err
	}
	accurate, err := s.store.Feedback().CountAccurate(ctx)
	if err != nil {
		return nil, err
	}

	stats := &TrainingStats{
		TotalItems:       totalItems,
		ReviewedItems:    reviewed,
		AccurateItems:    accurate,
		MinReviewedItems: s.minReviewedItems,
		ReadyForTraining: reviewed >= int64(s.minReviewedItems),
	}
	if reviewed > 0 {
		stats.AccuracyRate = float64(accurate) / float64(reviewed)
	}
	return stats, nil
}

func (s *TrainingService) CreateDataset(ctx context.Context, name string) (*model.TrainingDataset, error) {
	dataset, err := s.store.Dataset().Create(ctx, model.TrainingDataset{
		ID:     uuid.New(),
		Name:   name,
		Status: model.DatasetStatusBuilding,
	})
	if err != nil {
		return nil, err
	}

	// a dataset created after enough reviews exist is ready immediately
	if err := s.refreshBuildingDatasets(ctx); err != nil {
		return dataset, nil
	}
	return s.GetDataset(ctx, dataset.ID)
}

func (s *TrainingService) ListDatasets(ctx context.Context) (model.TrainingDatasetList, error) {
	return s.store.Dataset().List(ctx)
}

func (s *TrainingService) GetDataset(ctx context.Context, id uuid.UUID) (*model.TrainingDataset, error) {
	dataset, err := s.store.Dataset().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrDatasetNotFound(id)
		}
		return nil, err
	}
	return dataset, nil
}

// Retrain moves the dataset to training and enqueues the training job. A
// dataset already training is rejected; trained, failed and deployed datasets
// may be retrained again.
func (s *TrainingService) Retrain(ctx context.Context, id uuid.UUID, params jobs.RetrainingArgs) (int64, error) {
	tracer := s.logger.WithContext(ctx).Operation("retrain").WithParam("dataset_id", id).Build()

	dataset, err := s.GetDataset(ctx, id)
	if err != nil {
		return 0, err
	}
	if dataset.Status == model.DatasetStatusTraining {
		return 0, NewErrDatasetAlreadyTraining(id)
	}

	reviewed, err := s.store.Feedback().CountReviewed(ctx)
	if err != nil {
		return 0, err
	}
	if reviewed < int64(s.minReviewedItems) {
		return 0, NewErrInsufficientReviews(reviewed, s.minReviewedItems)
	}
	totalItems, err := s.store.CatalogItem().Count(ctx)
	if err != nil {
		return 0, err
	}

	previousStatus := dataset.Status
	dataset, err = s.store.Dataset().MarkTraining(ctx, id, int(reviewed), int(totalItems))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			// a concurrent retrain claimed the dataset first
			return 0, NewErrDatasetAlreadyTraining(id)
		}
		tracer.Error(err).Log()
		return 0, err
	}

	params.DatasetID = id
	jobID, err := s.queue.EnqueueRetraining(ctx, params)
	if err != nil {
		dataset.Status = previousStatus
		if _, revertErr := s.store.Dataset().Update(ctx, dataset); revertErr != nil {
			tracer.Error(revertErr).Step("revert_status").Log()
		}
		tracer.Error(err).Log()
		return 0, NewErrQueueUnavailable(err)
	}

	dataset.ActiveJobID = &jobID
	if _, err := s.store.Dataset().Update(ctx, dataset); err != nil {
		tracer.Error(err).Step("record_job_id").Log()
	}

	tracer.Success().WithParam("job_id", jobID).Log()
	return jobID, nil
}

// ActivateDataset deploys a trained dataset's model. At most one dataset is
// active; activation atomically deactivates the rest.
func (s *TrainingService) ActivateDataset(ctx context.Context, id uuid.UUID) (*model.TrainingDataset, error) {
	tracer := s.logger.WithContext(ctx).Operation("activate_dataset").WithParam("dataset_id", id).Build()

	dataset, err := s.GetDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	if dataset.Status != model.DatasetStatusTrained {
		return nil, NewErrDatasetNotTrained(id, dataset.Status)
	}

	ctx, err = s.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, err
	}

	activated, err := s.store.Dataset().Activate(ctx, id)
	if err != nil {
		_, _ = store.Rollback(ctx)
		tracer.Error(err).Log()
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		return nil, err
	}

	tracer.Success().Log()
	return activated, nil
}

// refreshBuildingDatasets recounts reviews for datasets still building and
// promotes them to ready once the threshold is met.
func (s *TrainingService) refreshBuildingDatasets(ctx context.Context) error {
	reviewed, err := s.store.Feedback().CountReviewed(ctx)
	if err != nil {
		return err
	}
	totalItems, err := s.store.CatalogItem().Count(ctx)
	if err != nil {
		return err
	}

	datasets, err := s.store.Dataset().List(ctx)
	if err != nil {
		return err
	}

	for i := range datasets {
		dataset := &datasets[i]
		if dataset.Status != model.DatasetStatusBuilding && dataset.Status != model.DatasetStatusReady {
			continue
		}

		dataset.ReviewedItems = int(reviewed)
		dataset.TotalItems = int(totalItems)
		if dataset.Status == model.DatasetStatusBuilding && reviewed >= int64(s.minReviewedItems) {
			dataset.Status = model.DatasetStatusReady
		}
		if _, err := s.store.Dataset().Update(ctx, dataset); err != nil {
			return err
		}
	}
	return nil
}

func reviewStatus(record model.FeedbackRecord) string {
	switch {
	case record.IsAccurate == nil:
		return ReviewStatusPending
	case *record.IsAccurate:
		return ReviewStatusApproved
	case record.CorrectedFields != nil:
		return ReviewStatusCorrected
	default:
		return ReviewStatusRejected
	}
}
