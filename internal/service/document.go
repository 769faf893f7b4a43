package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shelfwise/cataloger/internal/jobs"
	"github.com/shelfwise/cataloger/internal/store"
	"github.com/shelfwise/cataloger/internal/store/model"
	"github.com/shelfwise/cataloger/pkg/log"
)

// Enqueuer is the slice of the job client the services need. Satisfied by
// jobs.Client; tests substitute a fake.
type Enqueuer interface {
	EnqueueExtraction(ctx context.Context, documentID uuid.UUID, source string) (int64, error)
	EnqueueClassification(ctx context.Context, documentID uuid.UUID, source string) (int64, error)
	EnqueueRetraining(ctx context.Context, args jobs.RetrainingArgs) (int64, error)
}

type DocumentRegistrationForm struct {
	Title          string
	SourceLocation string
}

type DocumentService struct {
	store         store.Store
	queue         Enqueuer
	minTextLength int
	logger        *log.StructuredLogger
}

func NewDocumentService(s store.Store, queue Enqueuer, minTextLength int) *DocumentService {
	return &DocumentService{
		store:         s,
		queue:         queue,
		minTextLength: minTextLength,
		logger:        log.NewDebugLogger("document_service"),
	}
}

// CreateDocument registers a document and starts the processing pipeline.
// Registration is atomic from the caller's view: if the extraction job cannot
// be enqueued the document is removed again.
func (s *DocumentService) CreateDocument(ctx context.Context, form DocumentRegistrationForm) (*model.Document, int64, error) {
	tracer := s.logger.WithContext(ctx).Operation("create_document").WithString("title", form.Title).Build()

	if form.Title == "" {
		return nil, 0, fmt.Errorf("title is required")
	}
	if form.SourceLocation == "" {
		return nil, 0, fmt.Errorf("source location is required")
	}

	document, err := s.store.Document().Create(ctx, model.Document{
		ID:             uuid.New(),
		Title:          form.Title,
		SourceLocation: form.SourceLocation,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, 0, NewErrDuplicateSourceLocation(form.SourceLocation)
		}
		tracer.Error(err).Log()
		return nil, 0, err
	}

	jobID, err := s.queue.EnqueueExtraction(ctx, document.ID, model.JobSourcePipeline)
	if err != nil {
		tracer.Error(err).Step("enqueue_extraction").Log()
		if delErr := s.store.Document().Delete(ctx, document.ID); delErr != nil {
			tracer.Error(delErr).Step("rollback_document").Log()
		}
		return nil, 0, NewErrQueueUnavailable(err)
	}

	tracer.Success().WithParam("document_id", document.ID).WithParam("job_id", jobID).Log()
	return document, jobID, nil
}

func (s *DocumentService) ListDocuments(ctx context.Context, processed *bool) (model.DocumentList, error) {
	filter := store.NewDocumentQueryFilter()
	if processed != nil {
		filter = filter.ByProcessed(*processed)
	}
	return s.store.Document().List(ctx, filter)
}

func (s *DocumentService) GetDocument(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	document, err := s.store.Document().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrDocumentNotFound(id)
		}
		return nil, err
	}
	return document, nil
}

// DeleteDocument removes the document, its catalog items and every
// cross-reference touching them in one transaction.
func (s *DocumentService) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	tracer := s.logger.WithContext(ctx).Operation("delete_document").WithParam("document_id", id).Build()

	if _, err := s.GetDocument(ctx, id); err != nil {
		return err
	}

	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}

	if err := s.store.CrossReference().DeleteByDocumentID(ctx, id); err != nil {
		_, _ = store.Rollback(ctx)
		tracer.Error(err).Log()
		return err
	}
	if err := s.store.Document().Delete(ctx, id); err != nil {
		_, _ = store.Rollback(ctx)
		tracer.Error(err).Log()
		return err
	}

	if _, err := store.Commit(ctx); err != nil {
		return err
	}

	tracer.Success().Log()
	return nil
}

// ReprocessDocument re-runs classification on the stored text. Extraction is
// not repeated; preconditions are checked synchronously so the caller gets an
// immediate verdict instead of a failed job.
func (s *DocumentService) ReprocessDocument(ctx context.Context, id uuid.UUID) (int64, error) {
	tracer := s.logger.WithContext(ctx).Operation("reprocess_document").WithParam("document_id", id).Build()

	document, err := s.GetDocument(ctx, id)
	if err != nil {
		return 0, err
	}
	if !document.HasExtractedText() {
		return 0, NewErrNoExtractedText(id)
	}
	if document.CharacterCount < s.minTextLength {
		return 0, NewErrInsufficientContent(id, document.CharacterCount, s.minTextLength)
	}

	jobID, err := s.queue.EnqueueClassification(ctx, id, model.JobSourceReprocess)
	if err != nil {
		tracer.Error(err).Log()
		return 0, NewErrQueueUnavailable(err)
	}

	tracer.Success().WithParam("job_id", jobID).Log()
	return jobID, nil
}
