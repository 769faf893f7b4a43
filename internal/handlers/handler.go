package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/shelfwise/cataloger/internal/service"
)

// Handler wires the service layer to the router. Handlers are glue only:
// decode, call the service, map errors to status codes.
type Handler struct {
	documents *service.DocumentService
	jobs      *service.JobService
	catalog   *service.CatalogService
	training  *service.TrainingService
}

func New(
	documents *service.DocumentService,
	jobs *service.JobService,
	catalog *service.CatalogService,
	training *service.TrainingService,
) *Handler {
	return &Handler{
		documents: documents,
		jobs:      jobs,
		catalog:   catalog,
		training:  training,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", h.CreateDocument)
			r.Get("/", h.ListDocuments)
			r.Get("/{id}", h.GetDocument)
			r.Delete("/{id}", h.DeleteDocument)
			r.Post("/{id}/reprocess", h.ReprocessDocument)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.ListJobs)
			r.Delete("/", h.PurgeJobs)
			r.Get("/{id}", h.GetPipelineStatus)
			r.Delete("/{id}", h.CancelJob)
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/items", h.ListCatalogItems)
			r.Get("/items/{id}", h.GetCatalogItem)
			r.Get("/items/{id}/cross-references", h.ListItemCrossReferences)
			r.Get("/categories", h.ListCategories)
			r.Get("/cross-references", h.ListCrossReferences)
		})

		r.Post("/feedback", h.SubmitFeedback)
		r.Get("/reviews", h.ListReviews)

		r.Route("/training", func(r chi.Router) {
			r.Get("/stats", h.TrainingStats)
			r.Route("/datasets", func(r chi.Router) {
				r.Post("/", h.CreateDataset)
				r.Get("/", h.ListDatasets)
				r.Get("/{id}", h.GetDataset)
				r.Post("/{id}/retrain", h.RetrainDataset)
				r.Post("/{id}/activate", h.ActivateDataset)
			})
		})
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type errorReply struct {
	Error string `json:"error"`
}

func (e errorReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	_ = render.Render(w, r, errorReply{Error: err.Error()})
}

// renderServiceError maps the service error taxonomy to HTTP status codes.
func renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound        *service.ErrResourceNotFound
		jobNotFound     *service.ErrJobNotFound
		jobCompleted    *service.ErrJobAlreadyCompleted
		duplicate       *service.ErrDuplicateSourceLocation
		noText          *service.ErrNoExtractedText
		shortText       *service.ErrInsufficientContent
		queueDown       *service.ErrQueueUnavailable
		alreadyTraining *service.ErrDatasetAlreadyTraining
		notTrained      *service.ErrDatasetNotTrained
		fewReviews      *service.ErrInsufficientReviews
	)

	switch {
	case errors.As(err, &notFound), errors.As(err, &jobNotFound):
		renderError(w, r, http.StatusNotFound, err)
	case errors.As(err, &duplicate), errors.As(err, &jobCompleted), errors.As(err, &alreadyTraining):
		renderError(w, r, http.StatusConflict, err)
	case errors.As(err, &noText), errors.As(err, &shortText), errors.As(err, &notTrained), errors.As(err, &fewReviews):
		renderError(w, r, http.StatusUnprocessableEntity, err)
	case errors.As(err, &queueDown):
		renderError(w, r, http.StatusServiceUnavailable, err)
	default:
		renderError(w, r, http.StatusInternalServerError, err)
	}
}

func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}
