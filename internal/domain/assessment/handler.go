package assessment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/trimrx/trimrx/internal/domain/pricing"
	"github.com/trimrx/trimrx/internal/platform/auth"
)

// Handler provides the patient-facing draft endpoints.
type Handler struct {
	svc       *Service
	autosaver *Autosaver
}

// NewHandler creates an assessment handler.
func NewHandler(svc *Service, autosaver *Autosaver) *Handler {
	return &Handler{svc: svc, autosaver: autosaver}
}

// RegisterRoutes registers the intake endpoints. All routes require an
// authenticated session.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/plans", h.ListPlans)
	api.GET("/assessments", h.ListMine)
	api.GET("/assessments/draft", h.GetDraft)
	api.POST("/assessments/draft", h.EnsureDraft)
	api.GET("/assessments/:id", h.Get)
	api.PATCH("/assessments/:id", h.SaveDraft)
	api.POST("/assessments/:id/autosave", h.Autosave)
	api.PUT("/assessments/:id/plan", h.SelectPlan)
}

// ListPlans returns the full plan catalog with derived amounts.
func (h *Handler) ListPlans(c echo.Context) error {
	return c.JSON(http.StatusOK, pricing.Plans())
}

func (h *Handler) ListMine(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	items, err := h.svc.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetDraft(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	draft, err := h.svc.LoadDraft(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no active draft")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, draft)
}

func (h *Handler) EnsureDraft(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	draft, err := h.svc.EnsureDraft(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, draft)
}

// owned fetches the assessment and enforces that it belongs to the caller.
// Providers and admins may read any assessment.
func (h *Handler) owned(c echo.Context, write bool) (*Assessment, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "assessment not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	ctx := c.Request().Context()
	role := auth.RoleFromContext(ctx)
	if a.UserID != auth.UserIDFromContext(ctx) {
		if write || (role != auth.RoleProvider && role != auth.RoleAdmin) {
			return nil, echo.NewHTTPError(http.StatusForbidden, "not your assessment")
		}
	}
	return a, nil
}

func (h *Handler) Get(c echo.Context) error {
	a, err := h.owned(c, false)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) SaveDraft(c echo.Context) error {
	a, err := h.owned(c, true)
	if err != nil {
		return err
	}
	var patch DraftPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.SaveDraft(c.Request().Context(), a.ID, patch)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}

// Autosave queues a debounced save and returns immediately. The write lands
// once input has been quiet for the debounce window.
func (h *Handler) Autosave(c echo.Context) error {
	a, err := h.owned(c, true)
	if err != nil {
		return err
	}
	var patch DraftPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.autosaver.Queue(a.ID, patch)
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) SelectPlan(c echo.Context) error {
	a, err := h.owned(c, true)
	if err != nil {
		return err
	}
	var req struct {
		Medication string `json:"medication"`
		PlanType   string `json:"plan_type"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.SelectPlan(c.Request().Context(), a.ID, req.Medication, req.PlanType)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidSelection) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if errors.Is(err, ErrInvalidTransition) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}
