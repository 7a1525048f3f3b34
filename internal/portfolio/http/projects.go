package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmorocode/portfolio-sistema/internal/portfolio/domain"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/service"
	"github.com/dmorocode/portfolio-sistema/internal/portfolio/upload"
	"github.com/dmorocode/portfolio-sistema/pkg/httpx"
	"github.com/dmorocode/portfolio-sistema/pkg/slogx"
)

// maxUploadSize bounds multipart request bodies (artifact plus cover).
const maxUploadSize = 100 << 20 // 100 MiB

// ProjectHandler covers project CRUD, artifact download and cover
// serving.
type ProjectHandler struct {
	ProjectService *service.ProjectService
}

type projectResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CategoryID  *string `json:"category_id"`
	HasCover    bool    `json:"has_cover"`
	Downloads   int64   `json:"downloads"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func toProjectResponse(p domain.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		HasCover:    p.CoverImage != nil,
		Downloads:   p.Downloads,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

// HandleList handles GET /v1/projects. Supports ?search= and
// ?category= filters.
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projects, err := h.ProjectService.List(ctx, domain.ProjectFilter{
		Search:     r.URL.Query().Get("search"),
		CategoryID: r.URL.Query().Get("category"),
	})
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list projects", "err", err)
		writeServerError(w)
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /v1/projects/{id}.
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	project, err := h.ProjectService.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toProjectResponse(project))
}

// HandleCreate handles POST /v1/projects (multipart: file, cover,
// title, description, category_id).
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	entry, ok := sessionFromContext(ctx)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeBadRequest(w, "Invalid multipart body")
		return
	}

	artifact, artifactHeader, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "A project file is required")
		return
	}
	defer artifact.Close()

	params := service.CreateProjectParams{
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		CategoryID:   optionalFormValue(r, "category_id"),
		OwnerID:      entry.UserID,
		ArtifactName: artifactHeader.Filename,
		Artifact:     artifact,
	}

	if cover, coverHeader, err := r.FormFile("cover"); err == nil {
		defer cover.Close()
		params.Cover = cover
		params.CoverName = coverHeader.Filename
	}

	project, err := h.ProjectService.Create(ctx, entry.Username, params)
	if err != nil {
		if isClientError(err) {
			writeServiceError(w, err)
			return
		}
		log.Error("failed to create project", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toProjectResponse(project))
}

// HandleUpdate handles PUT /v1/projects/{id} (multipart; cover optional).
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	entry, ok := sessionFromContext(ctx)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeBadRequest(w, "Invalid multipart body")
		return
	}

	params := service.UpdateProjectParams{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		CategoryID:  optionalFormValue(r, "category_id"),
	}

	if cover, coverHeader, err := r.FormFile("cover"); err == nil {
		defer cover.Close()
		params.Cover = cover
		params.CoverName = coverHeader.Filename
	}

	project, err := h.ProjectService.Update(ctx, entry.Username, r.PathValue("id"), params)
	if err != nil {
		if isClientError(err) {
			writeServiceError(w, err)
			return
		}
		log.Error("failed to update project", "err", err)
		writeServerError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toProjectResponse(project))
}

// HandleDelete handles DELETE /v1/projects/{id}.
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entry, ok := sessionFromContext(ctx)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	if err := h.ProjectService.Delete(ctx, entry.Username, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDownload handles GET /v1/projects/{id}/download.
func (h *ProjectHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	entry, ok := sessionFromContext(ctx)
	if !ok {
		writeUnauthenticated(w)
		return
	}

	project, f, _, err := h.ProjectService.OpenArtifact(ctx, entry.Username, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			writeNotFound(w)
			return
		}
		writeServiceError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", project.Title+"_"+project.Filename))
	http.ServeContent(w, r, project.Filename, project.UpdatedAt, f)
}

// HandleCover handles GET /v1/projects/{id}/cover. Public: covers are
// displayed on the portfolio page.
func (h *ProjectHandler) HandleCover(w http.ResponseWriter, r *http.Request) {
	f, _, err := h.ProjectService.OpenCover(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, upload.ErrNotFound) {
			writeNotFound(w)
			return
		}
		writeServiceError(w, err)
		return
	}
	defer f.Close()

	http.ServeContent(w, r, "cover", time.Time{}, f)
}

func optionalFormValue(r *http.Request, key string) *string {
	v := r.FormValue(key)
	if v == "" {
		return nil
	}
	return &v
}

func isClientError(err error) bool {
	return errors.Is(err, service.ErrInvalidProject) ||
		errors.Is(err, service.ErrUnknownCategory)
}
