package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/shelfwise/cataloger/internal/classifier"
	"github.com/shelfwise/cataloger/internal/events"
	"github.com/shelfwise/cataloger/internal/store"
	"github.com/shelfwise/cataloger/internal/store/model"
	"github.com/shelfwise/cataloger/pkg/log"
	"github.com/shelfwise/cataloger/pkg/metrics"
)

const RetrainingTimeout = 60 * time.Minute

// RetrainingWorker runs a model training pass over a dataset. The dataset is
// moved to training by the service before the job is enqueued; the worker
// only drives it to trained or failed.
type RetrainingWorker struct {
	river.WorkerDefaults[RetrainingArgs]
	store   store.Store
	trainer classifier.Trainer
	events  EventWriter
}

func NewRetrainingWorker(s store.Store, trainer classifier.Trainer, ew EventWriter) *RetrainingWorker {
	return &RetrainingWorker{
		store:   s,
		trainer: trainer,
		events:  ew,
	}
}

func (w *RetrainingWorker) Timeout(job *river.Job[RetrainingArgs]) time.Duration {
	return RetrainingTimeout
}

// RetrainingOutput is recorded on the job row on success.
type RetrainingOutput struct {
	ModelVersion string  `json:"model_version"`
	Accuracy     float64 `json:"accuracy"`
}

func (w *RetrainingWorker) Work(ctx context.Context, job *river.Job[RetrainingArgs]) error {
	output, err := w.process(ctx, job.ID, job.Args)
	if err != nil {
		metrics.IncreaseJobsProcessedMetric(QueueRetraining, "failure")
		return err
	}

	metrics.IncreaseJobsProcessedMetric(QueueRetraining, "success")
	return river.RecordOutput(ctx, output)
}

func (w *RetrainingWorker) process(ctx context.Context, jobID int64, args RetrainingArgs) (*RetrainingOutput, error) {
	logger := log.NewDebugLogger("retraining_worker").
		WithContext(ctx).
		Operation("retrain_model").
		WithParam("job_id", jobID).
		WithParam("dataset_id", args.DatasetID).
		Build()

	// Check for cancellation before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dataset, err := w.store.Dataset().Get(ctx, args.DatasetID)
	if err != nil {
		logger.Error(err).Step("get_dataset").Log()
		return nil, fmt.Errorf("dataset not found or has been deleted: %w", err)
	}
	if dataset.Status != model.DatasetStatusTraining {
		err := fmt.Errorf("dataset is not in a trainable state: %s", dataset.Status)
		logger.Error(err).Step("check_dataset_status").Log()
		return nil, err
	}
	logger.Step("dataset_verified").WithInt("reviewed_items", dataset.ReviewedItems).Log()

	w.setMetadata(ctx, jobID, model.JobMetadata{
		Progress:  5,
		Message:   "training started",
		DatasetID: &args.DatasetID,
	}, logger)

	params := classifier.TrainingParams{
		ValidationSplit: args.ValidationSplit,
		Epochs:          args.Epochs,
		LearningRate:    args.LearningRate,
	}
	result, err := w.trainer.Train(ctx, params, func(pct int, message string) {
		w.setMetadata(ctx, jobID, model.JobMetadata{
			Progress:  pct,
			Message:   message,
			DatasetID: &args.DatasetID,
		}, logger)
	})
	if err != nil {
		w.failDataset(ctx, dataset, err, logger)
		w.setMetadata(ctx, jobID, model.JobMetadata{
			DatasetID: &args.DatasetID,
			ErrorKind: model.ErrorKindTrainingFailed,
			Error:     err.Error(),
		}, logger)
		return nil, fmt.Errorf("training failed: %w", err)
	}

	dataset.Status = model.DatasetStatusTrained
	dataset.ModelVersion = result.ModelVersion
	dataset.AccuracyRate = result.Accuracy
	dataset.ActiveJobID = nil
	dataset.LastError = ""
	if _, err := w.store.Dataset().Update(ctx, dataset); err != nil {
		logger.Error(err).Step("mark_trained").Log()
		return nil, fmt.Errorf("failed to record training result: %w", err)
	}

	w.setMetadata(ctx, jobID, model.JobMetadata{
		Progress:  100,
		Message:   "training completed",
		DatasetID: &args.DatasetID,
	}, logger)

	emitEvent(ctx, w.events, events.TrainingCompletedKind, events.TrainingCompletedEvent{
		DatasetID:    args.DatasetID.String(),
		ModelVersion: result.ModelVersion,
		Accuracy:     result.Accuracy,
	})

	logger.Success().WithString("model_version", result.ModelVersion).WithParam("accuracy", result.Accuracy).Log()
	return &RetrainingOutput{ModelVersion: result.ModelVersion, Accuracy: result.Accuracy}, nil
}

// failDataset moves the dataset to failed and keeps the cause. Failed
// datasets may be retrained once the underlying issue is fixed.
func (w *RetrainingWorker) failDataset(ctx context.Context, dataset *model.TrainingDataset, cause error, logger *log.OperationLogger) {
	dataset.Status = model.DatasetStatusFailed
	dataset.LastError = cause.Error()
	dataset.ActiveJobID = nil
	if _, err := w.store.Dataset().Update(ctx, dataset); err != nil {
		logger.Error(err).Step("mark_failed").Log()
	}
}

func (w *RetrainingWorker) setMetadata(ctx context.Context, jobID int64, meta model.JobMetadata, logger *log.OperationLogger) {
	if err := w.store.Job().UpdateMetadata(ctx, jobID, meta); err != nil {
		logger.Error(err).Step("update_metadata").Log()
	}
}
