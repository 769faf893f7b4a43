package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrDocumentNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "document")
}

func NewErrCatalogItemNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "catalog item")
}

func NewErrDatasetNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "dataset")
}

type ErrJobNotFound struct {
	error
}

func NewErrJobNotFound(jobID int64) *ErrJobNotFound {
	return &ErrJobNotFound{fmt.Errorf("job %d not found", jobID)}
}

type ErrJobAlreadyCompleted struct {
	error
}

func NewErrJobAlreadyCompleted(jobID int64) *ErrJobAlreadyCompleted {
	return &ErrJobAlreadyCompleted{fmt.Errorf("job %d has already finished", jobID)}
}

type ErrDuplicateSourceLocation struct {
	error
}

func NewErrDuplicateSourceLocation(sourceLocation string) *ErrDuplicateSourceLocation {
	return &ErrDuplicateSourceLocation{fmt.Errorf("a document with source location %q is already registered", sourceLocation)}
}

type ErrNoExtractedText struct {
	error
}

func NewErrNoExtractedText(id uuid.UUID) *ErrNoExtractedText {
	return &ErrNoExtractedText{fmt.Errorf("document %s has no extracted text", id)}
}

type ErrInsufficientContent struct {
	error
}

func NewErrInsufficientContent(id uuid.UUID, have, want int) *ErrInsufficientContent {
	return &ErrInsufficientContent{fmt.Errorf("document %s has %d extracted characters, need at least %d", id, have, want)}
}

type ErrQueueUnavailable struct {
	error
}

func NewErrQueueUnavailable(cause error) *ErrQueueUnavailable {
	return &ErrQueueUnavailable{fmt.Errorf("job queue unavailable: %w", cause)}
}

type ErrDatasetNotReady struct {
	error
}

func NewErrDatasetNotReady(id uuid.UUID, status string) *ErrDatasetNotReady {
	return &ErrDatasetNotReady{fmt.Errorf("dataset %s is not ready for training: status is %s", id, status)}
}

type ErrDatasetAlreadyTraining struct {
	error
}

func NewErrDatasetAlreadyTraining(id uuid.UUID) *ErrDatasetAlreadyTraining {
	return &ErrDatasetAlreadyTraining{fmt.Errorf("dataset %s is already training", id)}
}

type ErrDatasetNotTrained struct {
	error
}

func NewErrDatasetNotTrained(id uuid.UUID, status string) *ErrDatasetNotTrained {
	return &ErrDatasetNotTrained{fmt.Errorf("dataset %s cannot be deployed: status is %s", id, status)}
}

type ErrInsufficientReviews struct {
	error
}

func NewErrInsufficientReviews(have int64, want int) *ErrInsufficientReviews {
	return &ErrInsufficientReviews{fmt.Errorf("only %d reviewed feedback records, need at least %d", have, want)}
}
