package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/shelfwise/cataloger/internal/service"
)

const defaultJobRetention = 24 * time.Hour

type jobListReply struct {
	Jobs []service.StageStatus `json:"jobs"`
}

func (j jobListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type purgeReply struct {
	Purged int64 `json:"purged"`
}

func (p purgeReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type pipelineStatusReply struct {
	*service.PipelineStatus
}

func (p pipelineStatusReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (h *Handler) GetPipelineStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	status, err := h.jobs.GetPipelineStatus(r.Context(), jobID)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, pipelineStatusReply{status})
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	queue := r.URL.Query().Get("queue")
	var states []string
	if state := r.URL.Query().Get("state"); state != "" {
		states = append(states, state)
	}

	statuses, err := h.jobs.ListJobs(r.Context(), queue, states...)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, jobListReply{Jobs: statuses})
}

func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	status, err := h.jobs.CancelJob(r.Context(), jobID)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, pipelineStatusReply{status})
}

func (h *Handler) PurgeJobs(w http.ResponseWriter, r *http.Request) {
	retention := defaultJobRetention
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, err)
			return
		}
		retention = parsed
	}

	purged, err := h.jobs.PurgeTerminalJobs(r.Context(), retention)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, purgeReply{Purged: purged})
}
