package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/shelfwise/cataloger/internal/classifier"
	"github.com/shelfwise/cataloger/internal/events"
	"github.com/shelfwise/cataloger/internal/similarity"
	"github.com/shelfwise/cataloger/internal/store"
	"github.com/shelfwise/cataloger/internal/store/model"
	"github.com/shelfwise/cataloger/pkg/log"
	"github.com/shelfwise/cataloger/pkg/metrics"
)

const ClassificationTimeout = 10 * time.Minute

// ClassificationWorker runs stage 2 of the pipeline: classify the stored
// text into catalog items and rebuild the document's cross-references. The
// catalog swap is atomic: old items, new items and recomputed edges all land
// in one transaction, so reprocessing converges instead of duplicating.
type ClassificationWorker struct {
	river.WorkerDefaults[ClassificationArgs]
	store      store.Store
	classifier classifier.ItemClassifier
	engine     *similarity.Engine
	events     EventWriter
}

func NewClassificationWorker(s store.Store, itemClassifier classifier.ItemClassifier, engine *similarity.Engine, ew EventWriter) *ClassificationWorker {
	return &ClassificationWorker{
		store:      s,
		classifier: itemClassifier,
		engine:     engine,
		events:     ew,
	}
}

func (w *ClassificationWorker) Timeout(job *river.Job[ClassificationArgs]) time.Duration {
	return ClassificationTimeout
}

// ClassificationOutput is recorded on the job row on success.
type ClassificationOutput struct {
	ItemCount           int `json:"item_count"`
	CrossReferenceCount int `json:"cross_reference_count"`
}

func (w *ClassificationWorker) Work(ctx context.Context, job *river.Job[ClassificationArgs]) error {
	output, err := w.process(ctx, job.ID, job.Args)
	if err != nil {
		metrics.IncreaseJobsProcessedMetric(QueueClassification, "failure")
		return err
	}

	metrics.IncreaseJobsProcessedMetric(QueueClassification, "success")
	return river.RecordOutput(ctx, output)
}

func (w *ClassificationWorker) process(ctx context.Context, jobID int64, args ClassificationArgs) (*ClassificationOutput, error) {
	logger := log.NewDebugLogger("classification_worker").
		WithContext(ctx).
		Operation("classify_document").
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
	if !document.HasExtractedText() {
		err := errors.New("document has no extracted text")
		w.failPipeline(ctx, jobID, args, err, logger)
		return nil, err
	}
	logger.Step("document_verified").WithInt("character_count", document.CharacterCount).Log()

	meta := model.JobMetadata{
		Progress:    10,
		Message:     "classifying text",
		DocumentID:  &args.DocumentID,
		ParentJobID: args.ParentJobID,
		Source:      args.Source,
	}
	w.setMetadata(ctx, jobID, meta, logger)

	detected, err := w.classifier.Classify(ctx, *document.ExtractedText)
	if err != nil {
		w.failPipeline(ctx, jobID, args, err, logger)
		return nil, fmt.Errorf("failed to classify document: %w", err)
	}
	logger.Step("classified_text").WithInt("detected_items", len(detected)).Log()

	meta.Progress = 60
	meta.Message = "rebuilding catalog entries"
	w.setMetadata(ctx, jobID, meta, logger)

	// Check for cancellation before the catalog swap
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	output, err := w.replaceCatalogEntries(ctx, args.DocumentID, detected)
	if err != nil {
		w.failPipeline(ctx, jobID, args, err, logger)
		return nil, err
	}

	meta.Progress = 100
	meta.Message = "catalog updated"
	w.setMetadata(ctx, jobID, meta, logger)

	w.updateCatalogMetrics(ctx, logger)
	emitEvent(ctx, w.events, events.DocumentProcessedKind, events.DocumentProcessedEvent{
		DocumentID:          args.DocumentID.String(),
		Title:               document.Title,
		ItemCount:           output.ItemCount,
		CrossReferenceCount: output.CrossReferenceCount,
	})

	logger.Success().WithInt("item_count", output.ItemCount).WithInt("cross_reference_count", output.CrossReferenceCount).Log()
	return output, nil
}

// replaceCatalogEntries swaps the document's catalog items and recomputes
// cross-references in a single transaction.
func (w *ClassificationWorker) replaceCatalogEntries(ctx context.Context, documentID uuid.UUID, detected []classifier.DetectedItem) (*ClassificationOutput, error) {
	txCtx, err := w.store.NewTransactionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	if err := w.store.CrossReference().DeleteByDocumentID(txCtx, documentID); err != nil {
		_, _ = store.Rollback(txCtx)
		return nil, fmt.Errorf("failed to delete stale cross-references: %w", err)
	}
	if err := w.store.CatalogItem().DeleteByDocumentID(txCtx, documentID); err != nil {
		_, _ = store.Rollback(txCtx)
		return nil, fmt.Errorf("failed to delete stale catalog items: %w", err)
	}

	fresh := make([]model.CatalogItem, 0, len(detected))
	for _, d := range detected {
		category, err := w.store.Category().GetOrCreate(txCtx, d.Category)
		if err != nil {
			_, _ = store.Rollback(txCtx)
			return nil, fmt.Errorf("failed to resolve category %q: %w", d.Category, err)
		}

		locationStart, locationEnd := d.LocationStart, d.LocationEnd
		fresh = append(fresh, model.CatalogItem{
			ID:            uuid.New(),
			DocumentID:    documentID,
			CategoryID:    category.ID,
			Name:          d.Name,
			Description:   d.Description,
			Difficulty:    d.Difficulty,
			Confidence:    d.Confidence,
			LocationStart: &locationStart,
			LocationEnd:   &locationEnd,
		})
	}

	if err := w.store.CatalogItem().CreateBatch(txCtx, fresh); err != nil {
		_, _ = store.Rollback(txCtx)
		return nil, fmt.Errorf("failed to insert catalog items: %w", err)
	}

	// The document's old items are already gone, so the listing is exactly
	// the rest of the catalog.
	catalog, err := w.store.CatalogItem().List(txCtx, nil)
	if err != nil {
		_, _ = store.Rollback(txCtx)
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}
	rest := make([]model.CatalogItem, 0, len(catalog))
	for _, item := range catalog {
		if item.DocumentID != documentID {
			rest = append(rest, item)
		}
	}

	edges := w.engine.Edges(fresh, rest)
	if err := w.store.CrossReference().CreateBatch(txCtx, edges); err != nil {
		_, _ = store.Rollback(txCtx)
		return nil, fmt.Errorf("failed to insert cross-references: %w", err)
	}

	if _, err := store.Commit(txCtx); err != nil {
		return nil, fmt.Errorf("failed to commit catalog swap: %w", err)
	}

	return &ClassificationOutput{ItemCount: len(fresh), CrossReferenceCount: len(edges)}, nil
}

func (w *ClassificationWorker) failPipeline(ctx context.Context, jobID int64, args ClassificationArgs, cause error, logger *log.OperationLogger) {
	meta := model.JobMetadata{
		DocumentID:  &args.DocumentID,
		ParentJobID: args.ParentJobID,
		Source:      args.Source,
		ErrorKind:   model.ErrorKindClassificationFailed,
		Error:       cause.Error(),
	}
	w.setMetadata(ctx, jobID, meta, logger)
	emitEvent(ctx, w.events, events.PipelineFailedKind, events.PipelineFailedEvent{
		DocumentID: args.DocumentID.String(),
		Stage:      "classification",
		ErrorKind:  model.ErrorKindClassificationFailed,
		Error:      cause.Error(),
	})
	logger.Error(cause).Log()
}

func (w *ClassificationWorker) setMetadata(ctx context.Context, jobID int64, meta model.JobMetadata, logger *log.OperationLogger) {
	if err := w.store.Job().UpdateMetadata(ctx, jobID, meta); err != nil {
		logger.Error(err).Step("update_metadata").Log()
	}
}

func (w *ClassificationWorker) updateCatalogMetrics(ctx context.Context, logger *log.OperationLogger) {
	itemCount, err := w.store.CatalogItem().Count(ctx)
	if err != nil {
		logger.Error(err).Step("count_catalog_items").Log()
		return
	}
	refCount, err := w.store.CrossReference().Count(ctx)
	if err != nil {
		logger.Error(err).Step("count_cross_references").Log()
		return
	}
	metrics.UpdateCatalogItemsCountMetric(int(itemCount))
	metrics.UpdateCrossReferencesCountMetric(int(refCount))
}
