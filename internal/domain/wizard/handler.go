package wizard

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trimrx/trimrx/internal/domain/assessment"
	"github.com/trimrx/trimrx/internal/platform/auth"
	"github.com/trimrx/trimrx/internal/platform/payment"
)

// Handler provides the wizard endpoints. The draft is always resolved from
// the session, never from a client-sent id.
type Handler struct {
	svc *Service
}

// NewHandler creates a wizard handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the wizard endpoints on the authenticated group.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/wizard")
	g.GET("/state", h.Enter)
	g.POST("/advance", h.Advance)
	g.POST("/retreat", h.Retreat)
	g.POST("/checkout", h.Checkout)
	g.POST("/exit", h.SaveAndExit)
}

func (h *Handler) Enter(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	state, err := h.svc.Enter(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) bindStep(c echo.Context) (Step, error) {
	var req struct {
		Step string `json:"step"`
	}
	if err := c.Bind(&req); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	step, err := ParseStep(req.Step)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return step, nil
}

func (h *Handler) Advance(c echo.Context) error {
	step, err := h.bindStep(c)
	if err != nil {
		return err
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	state, err := h.svc.Advance(c.Request().Context(), userID, step)
	if err != nil {
		return wizardError(err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) Retreat(c echo.Context) error {
	step, err := h.bindStep(c)
	if err != nil {
		return err
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	state, err := h.svc.Retreat(c.Request().Context(), userID, step)
	if err != nil {
		return wizardError(err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) Checkout(c echo.Context) error {
	var card CardInput
	if err := c.Bind(&card); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	state, err := h.svc.Checkout(c.Request().Context(), userID, card)
	if err != nil {
		var declined *payment.CaptureError
		switch {
		case errors.As(err, &declined):
			return echo.NewHTTPError(http.StatusPaymentRequired, declined.Message)
		case errors.Is(err, payment.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrStepIncomplete):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, assessment.ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, assessment.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "no active draft")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) SaveAndExit(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.SaveAndExit(c.Request().Context(), userID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func wizardError(err error) error {
	switch {
	case errors.Is(err, ErrStepIncomplete):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrBackDisabled):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, assessment.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "no active draft")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
