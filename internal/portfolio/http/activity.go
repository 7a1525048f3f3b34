package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/service"
	"github.com/dmorocode/portfolio-sistema/pkg/httpx"
	"github.com/dmorocode/portfolio-sistema/pkg/slogx"
)

type ActivityHandler struct {
	ActivityService *service.ActivityService
}

type activityResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
	CreatedAt string `json:"created_at"`
}

// HandleList handles GET /v1/activity?limit=N. Admin only.
func (h *ActivityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.ActivityService.ListRecent(ctx, limit)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list activity", "err", err)
		writeServerError(w)
		return
	}

	out := make([]activityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityResponse{
			ID:        e.ID,
			Username:  e.Username,
			Action:    string(e.Action),
			Details:   e.Details,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, out)
}
