package provider

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trimrx/trimrx/internal/domain/assessment"
	"github.com/trimrx/trimrx/internal/platform/auth"
	"github.com/trimrx/trimrx/pkg/pagination"
)

// Handler provides the review dashboard endpoints. All routes require the
// provider role.
type Handler struct {
	svc *Service
}

// NewHandler creates a provider handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the review endpoints on the authenticated group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/provider", auth.RequireRole(auth.RoleProvider))
	g.GET("/assessments", h.List)
	g.GET("/assessments/export", h.Export)
	g.POST("/assessments/:id/approve", h.Approve)
	g.POST("/assessments/:id/deny", h.Deny)
	g.POST("/assessments/:id/reset", h.Reset)
}

func statusParam(c echo.Context) (assessment.Status, error) {
	raw := c.QueryParam("status")
	if raw == "" {
		raw = string(assessment.StatusCompleted)
	}
	status, err := assessment.ParseStatus(raw)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return status, nil
}

func (h *Handler) List(c echo.Context) error {
	status, err := statusParam(c)
	if err != nil {
		return err
	}
	params := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), status, params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}

// Export streams the full review queue for a status as a CSV download.
func (h *Handler) Export(c echo.Context) error {
	status, err := statusParam(c)
	if err != nil {
		return err
	}
	// Exports are unpaginated; pull everything in one read.
	items, _, err := h.svc.List(c.Request().Context(), status, exportBatchLimit, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	filename := ExportFilename(status, time.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK, "text/csv", []byte(ExportCSV(items)))
}

const exportBatchLimit = 10000

func (h *Handler) decide(c echo.Context, run func(uuid.UUID) (*Decision, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := run(id)
	if err != nil {
		switch {
		case errors.Is(err, assessment.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "assessment not found")
		case errors.Is(err, assessment.ErrDenialReasonRequired):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, assessment.ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Approve(c echo.Context) error {
	return h.decide(c, func(id uuid.UUID) (*Decision, error) {
		return h.svc.Approve(c.Request().Context(), id)
	})
}

func (h *Handler) Deny(c echo.Context) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.decide(c, func(id uuid.UUID) (*Decision, error) {
		return h.svc.Deny(c.Request().Context(), id, req.Reason)
	})
}

func (h *Handler) Reset(c echo.Context) error {
	return h.decide(c, func(id uuid.UUID) (*Decision, error) {
		return h.svc.Reset(c.Request().Context(), id)
	})
}
