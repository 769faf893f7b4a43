package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/shelfwise/cataloger/internal/service"
	"github.com/shelfwise/cataloger/internal/store/model"
)

type createDocumentRequest struct {
	Title          string `json:"title"`
	SourceLocation string `json:"source_location"`
}

func (c *createDocumentRequest) Bind(r *http.Request) error {
	return nil
}

type documentReply struct {
	Document *model.Document `json:"document"`
	JobID    int64           `json:"job_id,omitempty"`
}

func (d documentReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type documentListReply struct {
	Documents model.DocumentList `json:"documents"`
}

func (d documentListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type jobAcceptedReply struct {
	JobID int64 `json:"job_id"`
}

func (j jobAcceptedReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	request := &createDocumentRequest{}
	if err := render.Bind(r, request); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	document, jobID, err := h.documents.CreateDocument(r.Context(), service.DocumentRegistrationForm{
		Title:          request.Title,
		SourceLocation: request.SourceLocation,
	})
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	_ = render.Render(w, r, documentReply{Document: document, JobID: jobID})
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	var processed *bool
	if raw := r.URL.Query().Get("processed"); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, err)
			return
		}
		processed = &value
	}

	documents, err := h.documents.ListDocuments(r.Context(), processed)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, documentListReply{Documents: documents})
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	document, err := h.documents.GetDocument(r.Context(), id)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, documentReply{Document: document})
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	if err := h.documents.DeleteDocument(r.Context(), id); err != nil {
		renderServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ReprocessDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	jobID, err := h.documents.ReprocessDocument(r.Context(), id)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	_ = render.Render(w, r, jobAcceptedReply{JobID: jobID})
}
