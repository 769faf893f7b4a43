package handlers

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/shelfwise/cataloger/internal/service"
	"github.com/shelfwise/cataloger/internal/store/model"
)

type catalogItemReply struct {
	Item *model.CatalogItem `json:"item"`
}

func (c catalogItemReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type catalogItemListReply struct {
	Items model.CatalogItemList `json:"items"`
}

func (c catalogItemListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type categoryListReply struct {
	Categories []model.Category `json:"categories"`
}

func (c categoryListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type crossReferenceListReply struct {
	CrossReferences model.CrossReferenceList `json:"cross_references"`
}

func (c crossReferenceListReply) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

func (h *Handler) ListCatalogItems(w http.ResponseWriter, r *http.Request) {
	filter := service.CatalogFilter{NameQuery: r.URL.Query().Get("q")}

	if raw := r.URL.Query().Get("document_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, err)
			return
		}
		filter.DocumentID = &id
	}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			renderError(w, r, http.StatusBadRequest, err)
			return
		}
		filter.CategoryID = &id
	}

	items, err := h.catalog.ListItems(r.Context(), filter)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, catalogItemListReply{Items: items})
}

func (h *Handler) GetCatalogItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, catalogItemReply{Item: item})
}

func (h *Handler) ListItemCrossReferences(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err)
		return
	}

	refs, err := h.catalog.ListCrossReferences(r.Context(), id)
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, crossReferenceListReply{CrossReferences: refs})
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, categoryListReply{Categories: categories})
}

func (h *Handler) ListCrossReferences(w http.ResponseWriter, r *http.Request) {
	refs, err := h.catalog.ListAllCrossReferences(r.Context())
	if err != nil {
		renderServiceError(w, r, err)
		return
	}
	_ = render.Render(w, r, crossReferenceListReply{CrossReferences: refs})
}
