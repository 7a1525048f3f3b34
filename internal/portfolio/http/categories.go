package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/service"
	"github.com/dmorocode/portfolio-sistema/pkg/httpx"
	"github.com/dmorocode/portfolio-sistema/pkg/slogx"
)

type CategoryHandler struct {
	CategoryService *service.CategoryService
}

type categoryResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func toCategoryResponse(c domain.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// HandleList handles GET /v1/categories.
func (h *CategoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.CategoryService.List(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list categories", "err", err)
		writeServerError(w)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

// HandleCreate handles POST /v1/categories. Admin only.
func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entry, ok := sessionFromContext(ctx)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	category, err := h.CategoryService.Create(ctx, entry.Username, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toCategoryResponse(category))
}

// HandleDelete handles DELETE /v1/categories/{id}. Admin only.
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entry, ok := sessionFromContext(ctx)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	if err := h.CategoryService.Delete(ctx, entry.Username, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
