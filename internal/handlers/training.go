package handlers

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/shelfwise/cataloger/internal/jobs"
	"github.com/shelfwise/cataloger/internal/service"
	"github.com/shelfwise/cataloger/internal/store/model"
)

type feedbackRequest struct {
	ItemID          string                 `json:"item_id"`
	IsAccurate      *bool                  `json:"is_accurate"`
	CorrectedFields *model.CorrectedFields `json:"corrected_fields"`
	UseForTraining  *bool                  `json:"use_for_training"`
}

func (f *feedbackRequest) Bind(r *http.Request) error {
	return nil
}

type feedbackReply struct {
	Feedback *model.FeedbackRecord `json:"feedback"`
}

func (f feedbackReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type reviewListReply struct {
	Reviews []service.Review `json:"reviews"`
}

func (l reviewListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type trainingStatsReply struct {
	*service.TrainingStats
}

func (t trainingStatsReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type createDatasetRequest struct {
	Name string `json:"name"`
}

func (c *createDatasetRequest) Bind(r *http.Request) error {
	return nil
}

type datasetReply struct {
	Dataset *model.TrainingDataset `json:"dataset"`
}

func (d datasetReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type datasetListReply struct {
	Datasets model.TrainingDatasetList `json:"datasets"`
}

func (d datasetListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type retrainRequest struct {
	ValidationSplit float64 `json:"validation_split"`
	Epochs          int     `json:"epochs"`
	LearningRate    float64 `json:"learning_rate"`
}

func (rr *retrainRequest) Bind(r *http.Request) error {
	return nil
}

func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	request := &feedbackRequest{}
	if err := render.Bind(r, request); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}
	itemID, err := uuid.Parse(request.ItemID)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	record, err := h.training.SubmitFeedback(r.Context(), service.FeedbackForm{
		ItemID:          itemID,
		IsAccurate:      request.IsAccurate,
		CorrectedFields: request.CorrectedFields,
		UseForTraining:  request.UseForTraining,
	})
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	_ = render.Render(w, r, feedbackReply{Feedback: record})
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.training.ListReviews(r.Context())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, reviewListReply{Reviews: reviews})
}

func (h *Handler) TrainingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.training.Stats(r.Context())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, trainingStatsReply{stats})
}

func (h *Handler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	request := &createDatasetRequest{}
	if err := render.Bind(r, request); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	dataset, err := h.training.CreateDataset(r.Context(), request.Name)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	_ = render.Render(w, r, datasetReply{Dataset: dataset})
}

func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.training.ListDatasets(r.Context())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, datasetListReply{Datasets: datasets})
}

func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	dataset, err := h.training.GetDataset(r.Context(), id)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, datasetReply{Dataset: dataset})
}

func (h *Handler) RetrainDataset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	request := &retrainRequest{}
	if err := render.Bind(r, request); err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	jobID, err := h.training.Retrain(r.Context(), id, jobs.RetrainingArgs{
		ValidationSplit: request.ValidationSplit,
		Epochs:          request.Epochs,
		LearningRate:    request.LearningRate,
	})
	if err != nil {
		renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	_ = render.Render(w, r, jobAcceptedReply{JobID: jobID})
}

func (h *Handler) ActivateDataset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	dataset, err := h.training.ActivateDataset(r.Context(), id)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, datasetReply{Dataset: dataset})
}
