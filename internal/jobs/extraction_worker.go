package jobs

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/shelfwise/cataloger/internal/events"
	"github.com/shelfwise/cataloger/internal/extractor"
	"github.com/shelfwise/cataloger/internal/store"
	"github.com/shelfwise/cataloger/internal/store/model"
	"github.com/shelfwise/cataloger/pkg/log"
	"github.com/shelfwise/cataloger/pkg/metrics"
)

const ExtractionTimeout = 10 * time.Minute

// ExtractionWorker runs stage 1 of the pipeline: pull the document's text
// out of its source file, persist it and chain a classification job.
type ExtractionWorker struct {
	river.WorkerDefaults[ExtractionArgs]
	store         store.Store
	extractor     extractor.TextExtractor
	events        EventWriter
	minTextLength int
}

func NewExtractionWorker(s store.Store, textExtractor extractor.TextExtractor, ew EventWriter, minTextLength int) *ExtractionWorker {
	return &ExtractionWorker{
		store:         s,
		extractor:     textExtractor,
		events:        ew,
		minTextLength: minTextLength,
	}
}

func (w *ExtractionWorker) Timeout(job *river.Job[ExtractionArgs]) time.Duration {
	return ExtractionTimeout
}

// ExtractionOutput is recorded on the job row on success.
type ExtractionOutput struct {
	CharacterCount int    `json:"character_count"`
	ChainedJobID   *int64 `json:"chained_job_id,omitempty"`
}

// chainFunc enqueues the follow-up classification job. In production it goes
// through the river client taken from the work context.
type chainFunc func(ctx context.Context, args ClassificationArgs) (int64, error)

func (w *ExtractionWorker) Work(ctx context.Context, job *river.Job[ExtractionArgs]) error {
	chain := func(ctx context.Context, args ClassificationArgs) (int64, error) {
		client, err := river.ClientFromContextSafely[pgx.Tx](ctx)
		if err != nil {
			return 0, err
		}
		result, err := client.Insert(ctx, args, nil)
		if err != nil {
			return 0, err
		}
		return result.Job.ID, nil
	}

	output, err := w.process(ctx, job.ID, job.Args, chain)
	if err != nil {
		metrics.IncreaseJobsProcessedMetric(QueueExtraction, "failure")
		return err
	}

	metrics.IncreaseJobsProcessedMetric(QueueExtraction, "success")
	return river.RecordOutput(ctx, output)
}

func (w *ExtractionWorker) process(ctx context.Context, jobID int64, args ExtractionArgs, chain chainFunc) (*ExtractionOutput, error) {
	logger := log.NewDebugLogger("extraction_worker").
		WithContext(ctx).
		Operation("extract_document").
		WithParam("job_id", jobID).
		WithParam("document_id", args.DocumentID).
		Build()

	// Check for cancellation before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	document, err := w.store.Document().Get(ctx, args.DocumentID)
	if err != nil {
		logger.Error(err).Step("get_document").Log()
		return nil, fmt.Errorf("document not found or has been deleted: %w", err)
	}
	logger.Step("document_verified").WithString("source_location", document.SourceLocation).Log()

	meta := model.JobMetadata{
		Progress:   10,
		Message:    "extracting text",
		DocumentID: &args.DocumentID,
		Source:     args.Source,
	}
	w.setMetadata(ctx, jobID, meta, logger)

	result, err := w.extractor.Extract(ctx, document.SourceLocation)
	if err != nil {
		meta.ErrorKind = model.ErrorKindExtractionFailed
		meta.Error = err.Error()
		w.setMetadata(ctx, jobID, meta, logger)
		w.emitFailure(ctx, args.DocumentID, model.ErrorKindExtractionFailed, err)
		logger.Error(err).Step("extract_text").Log()
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	logger.Step("extracted_text").WithInt("character_count", utf8.RuneCountInString(result.Text)).Log()

	// Check for cancellation before persisting results
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := w.store.Document().SetExtractionResult(ctx, args.DocumentID, result.Text, result.Confidence); err != nil {
		meta.ErrorKind = model.ErrorKindExtractionFailed
		meta.Error = err.Error()
		w.setMetadata(ctx, jobID, meta, logger)
		logger.Error(err).Step("persist_extraction").Log()
		return nil, fmt.Errorf("failed to persist extraction result: %w", err)
	}
	metrics.IncreaseDocumentsProcessedMetric()

	charCount := utf8.RuneCountInString(result.Text)
	if charCount < w.minTextLength {
		meta.Progress = 100
		meta.Message = "extracted text too short to classify"
		meta.ErrorKind = model.ErrorKindInsufficientContent
		w.setMetadata(ctx, jobID, meta, logger)
		w.emitFailure(ctx, args.DocumentID, model.ErrorKindInsufficientContent,
			fmt.Errorf("extracted %d characters, need at least %d", charCount, w.minTextLength))
		logger.Step("insufficient_content").WithInt("character_count", charCount).Log()

		// The job itself completed; the pipeline outcome is on the metadata.
		return &ExtractionOutput{CharacterCount: charCount}, nil
	}

	meta.Progress = 80
	meta.Message = "queueing classification"
	w.setMetadata(ctx, jobID, meta, logger)

	chainedJobID, err := chain(ctx, ClassificationArgs{DocumentID: args.DocumentID, Source: args.Source, ParentJobID: &jobID})
	if err != nil {
		meta.ErrorKind = model.ErrorKindExtractionFailed
		meta.Error = err.Error()
		w.setMetadata(ctx, jobID, meta, logger)
		logger.Error(err).Step("chain_classification").Log()
		return nil, fmt.Errorf("failed to enqueue classification job: %w", err)
	}

	// Seed the chained job's metadata so a poll on its id links back to this
	// job while it is still queued.
	w.setMetadata(ctx, chainedJobID, model.JobMetadata{
		Message:     "waiting for classification",
		DocumentID:  &args.DocumentID,
		Source:      args.Source,
		ParentJobID: &jobID,
	}, logger)

	meta.Progress = 100
	meta.Message = "classification queued"
	meta.ChainedJobID = &chainedJobID
	w.setMetadata(ctx, jobID, meta, logger)

	logger.Success().WithParam("chained_job_id", chainedJobID).Log()
	return &ExtractionOutput{CharacterCount: charCount, ChainedJobID: &chainedJobID}, nil
}

func (w *ExtractionWorker) setMetadata(ctx context.Context, jobID int64, meta model.JobMetadata, logger *log.OperationLogger) {
	if err := w.store.Job().UpdateMetadata(ctx, jobID, meta); err != nil {
		logger.Error(err).Step("update_metadata").Log()
	}
}

func (w *ExtractionWorker) emitFailure(ctx context.Context, documentID uuid.UUID, errorKind string, err error) {
	emitEvent(ctx, w.events, events.PipelineFailedKind, events.PipelineFailedEvent{
		DocumentID: documentID.String(),
		Stage:      "extraction",
		ErrorKind:  errorKind,
		Error:      err.Error(),
	})
}
