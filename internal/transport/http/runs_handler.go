package http

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "switchrecon/internal/errors"
	"switchrecon/internal/exporter"
	"switchrecon/internal/middleware"
	"switchrecon/internal/operations"
	"switchrecon/internal/reconcile"
	"switchrecon/internal/services"
	"switchrecon/internal/websocket"
)

// Form fields of a run submission. File fields are named after input roles.
const (
	FieldHighlightIn  = "highlight_in"
	FieldHighlightOut = "highlight_out"
)

// UploadRoles lists the multipart file fields a submission may carry
var UploadRoles = []string{
	reconcile.RolePrimary,
	reconcile.RoleCurrent,
	reconcile.RolePrevious,
	reconcile.RoleFunding,
	reconcile.RoleBrokerage,
	reconcile.RoleSchemeMaster,
}

const (
	defaultPageSize = 500
	maxPageSize     = 10000

	// multipartMemory is how much of a submission is buffered in memory;
	// the rest spills to temporary files.
	multipartMemory = 32 << 20
)

// RunsHandler serves the run API
type RunsHandler struct {
	runs         *services.RunService
	ws           *websocket.Server
	validator    *middleware.Validator
	errorHandler *apperrors.ErrorHandler
	logger       *slog.Logger
}

// NewRunsHandler creates a runs handler
func NewRunsHandler(runs *services.RunService, ws *websocket.Server, validator *middleware.Validator, errorHandler *apperrors.ErrorHandler, logger *slog.Logger) *RunsHandler {
	return &RunsHandler{
		runs:         runs,
		ws:           ws,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "runs")),
	}
}

// Routes returns a chi router for the run endpoints
func (h *RunsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.validator.ContentType("multipart/form-data")).Post("/", h.CreateRun)
	r.Get("/", h.ListRuns)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetRun)
		r.Delete("/", h.CancelRun)
		r.Get("/records", h.GetRecords)
		r.Get("/download", h.Download)
		r.Get("/ws", h.Subscribe)
	})
	return r
}

// CreateRun handles POST /api/v1/runs
func (h *RunsHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	nr := services.NewRun{
		HighlightIn:  r.FormValue(FieldHighlightIn),
		HighlightOut: r.FormValue(FieldHighlightOut),
	}

	for field := range r.MultipartForm.File {
		if !slices.Contains(UploadRoles, field) {
			h.errorHandler.HandleError(w, r, apperrors.ErrValidation(field,
				fmt.Sprintf("unknown file field; expected one of: %s", strings.Join(UploadRoles, ", "))))
			return
		}
	}

	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, role := range UploadRoles {
		for _, fh := range r.MultipartForm.File[role] {
			u := services.Upload{Role: role, Name: filepath.Base(fh.Filename)}
			if err := h.validator.Struct(u); err != nil {
				h.errorHandler.HandleError(w, r, err)
				return
			}
			f, err := fh.Open()
			if err != nil {
				h.errorHandler.HandleError(w, r, apperrors.InvalidRequestWithError(err))
				return
			}
			opened = append(opened, f)
			u.Body = f
			nr.Uploads = append(nr.Uploads, u)
		}
	}

	run, err := h.runs.CreateRun(r.Context(), nr)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+run.ID)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, run)
}

// ListRuns handles GET /api/v1/runs
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs := h.runs.List()
	if runs == nil {
		runs = []operations.Run{}
	}
	render.JSON(w, r, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun handles GET /api/v1/runs/{id}
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, run)
}

// CancelRun handles DELETE /api/v1/runs/{id}
func (h *RunsHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.runs.Cancel(id); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	run, err := h.runs.Get(id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, run)
}

// GetRecords handles GET /api/v1/runs/{id}/records
func (h *RunsHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	offset, err := h.validator.QueryInt(r, "offset", 0, 1<<31-1, 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	limit, err := h.validator.QueryInt(r, "limit", 1, maxPageSize, defaultPageSize)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	page, err := h.runs.Records(chi.URLParam(r, "id"), offset, limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

// Download handles GET /api/v1/runs/{id}/download
func (h *RunsHandler) Download(w http.ResponseWriter, r *http.Request) {
	name, err := h.validator.QueryEnum(r, "format",
		[]string{string(exporter.FormatXLSX), string(exporter.FormatCSV)}, string(exporter.FormatXLSX))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	format := exporter.Format(name)

	id := chi.URLParam(r, "id")
	path, err := h.runs.Report(r.Context(), id, format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="switchrecon-%s%s"`, id, format.Ext()))
	http.ServeFile(w, r, path)
}

// Subscribe handles GET /api/v1/runs/{id}/ws. The first frame is the
// current snapshot of the run.
func (h *RunsHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	run, err := h.runs.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	initial, err := websocket.EncodeRun(run)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	// Upgrade failures are answered by the upgrader itself
	_ = h.ws.Serve(w, r, run.ID, initial)
}
