package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"depositbeta/internal/config"
	apierrors "depositbeta/internal/errors"
	"depositbeta/internal/infrastructure"
	"depositbeta/internal/services"
	"depositbeta/pkg/contracts/domain"
)

// Handler serves the panel API.
type Handler struct {
	service  *services.PanelService
	logger   *slog.Logger
	validate *validator.Validate
	metrics  *infrastructure.PipelineMetrics
}

// NewHandler creates the API handler.
func NewHandler(service *services.PanelService, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:  service,
		logger:   logger.With(slog.String("component", "api_handler")),
		validate: validator.New(),
		metrics:  metrics,
	}
}

// Routes returns the API routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/institutions", h.ListInstitutions)
	r.Get("/institutions/{institution}", h.GetInstitution)
	r.Post("/model", h.FitModel)
	r.Post("/build", h.RunBuild)

	return r
}

// renderError writes a structured API error.
func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	render.Render(w, r, apierrors.NewErrorResponse(apiErr))
}

// mapError converts service errors to API errors.
func (h *Handler) mapError(err error) *apierrors.APIError {
	if apiErr, ok := err.(*apierrors.APIError); ok {
		return apiErr
	}
	return apierrors.NewWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR",
		"Internal server error", err.Error())
}

// ListInstitutions handles GET /api/institutions.
func (h *Handler) ListInstitutions(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.Institutions(r.Context())
	if err != nil {
		h.renderError(w, r, h.mapError(err))
		return
	}
	render.JSON(w, r, map[string]any{
		"success":      true,
		"institutions": summaries,
	})
}

// panelRowView is the JSON shape of one panel row.
type panelRowView struct {
	Date   string                  `json:"date"`
	Values map[string]domain.Value `json:"values"`
}

// GetInstitution handles GET /api/institutions/{institution}.
func (h *Handler) GetInstitution(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseInstitutionID(chi.URLParam(r, "institution"))
	if err != nil {
		h.renderError(w, r, apierrors.ErrValidation("institution", err.Error()))
		return
	}

	rows, err := h.service.InstitutionRows(r.Context(), id)
	if err != nil {
		h.renderError(w, r, h.mapError(err))
		return
	}

	views := make([]panelRowView, 0, len(rows))
	for _, row := range rows {
		views = append(views, panelRowView{
			Date:   row.Period.Time().Format("2006-01-02"),
			Values: row.Values,
		})
	}
	render.JSON(w, r, map[string]any{
		"success":     true,
		"institution": id.String(),
		"rows":        views,
	})
}

// ModelRequest is the POST /api/model payload.
type ModelRequest struct {
	Institution string `json:"institution" validate:"required"`
	RateColumn  string `json:"rate_column" validate:"required"`
}

// Bind implements render.Binder.
func (req *ModelRequest) Bind(r *http.Request) error {
	return nil
}

// FitModel handles POST /api/model.
func (h *Handler) FitModel(w http.ResponseWriter, r *http.Request) {
	var req ModelRequest
	if err := render.Bind(r, &req); err != nil {
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		var fields []apierrors.ValidationError
		for _, fe := range err.(validator.ValidationErrors) {
			fields = append(fields, apierrors.ValidationError{
				Field:   fe.Field(),
				Message: "failed " + fe.Tag() + " validation",
			})
		}
		h.renderError(w, r, apierrors.NewValidationErrors(fields))
		return
	}

	id, err := domain.ParseInstitutionID(req.Institution)
	if err != nil {
		h.renderError(w, r, apierrors.ErrValidation("institution", err.Error()))
		return
	}
	if !validRateColumn(req.RateColumn) {
		h.renderError(w, r, apierrors.ErrValidation("rate_column", "unknown rate column "+req.RateColumn))
		return
	}

	fit, err := h.service.FitModel(r.Context(), id, req.RateColumn)
	if err != nil {
		if apiErr, ok := err.(*apierrors.APIError); ok {
			h.renderError(w, r, apiErr)
		} else {
			h.renderError(w, r, apierrors.ModelFitError(err))
		}
		return
	}

	if h.metrics != nil {
		h.metrics.ModelFitsTotal.Add(r.Context(), 1)
	}
	render.JSON(w, r, map[string]any{
		"success":     true,
		"institution": id.String(),
		"rate_column": req.RateColumn,
		"fit":         fit,
	})
}

// RunBuild handles POST /api/build. The build runs synchronously; quarterly
// refreshes are rare enough that callers can wait.
func (h *Handler) RunBuild(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.RunBuild(r.Context())
	if err != nil {
		h.renderError(w, r, apierrors.BuildError(err))
		return
	}
	render.JSON(w, r, map[string]any{
		"success": true,
		"summary": summary,
	})
}

// HealthHandler serves GET /healthz.
func HealthHandler(startTime time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"status":  "healthy",
			"app":     config.AppName,
			"version": config.AppVersion,
			"uptime":  time.Since(startTime).Round(time.Second).String(),
		})
	}
}

func validRateColumn(name string) bool {
	for _, f := range config.RateFields {
		if f == name {
			return true
		}
	}
	return false
}
