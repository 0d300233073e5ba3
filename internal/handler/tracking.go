package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/aircargo/internal/models"
	"github.com/dharmasatrya/aircargo/internal/tracking"
)

type TrackingHandler struct {
	backend BookingBackend
}

func NewTrackingHandler(b BookingBackend) *TrackingHandler {
	return &TrackingHandler{backend: b}
}

func (h *TrackingHandler) Get(c echo.Context) error {
	refID := refIDParam(c)
	if refID == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "refId is required",
			Code:    http.StatusBadRequest,
		})
	}

	b, err := h.backend.GetBooking(c.Request().Context(), refID)
	if err != nil {
		return bookingLookupError(c, refID, err)
	}

	return c.JSON(http.StatusOK, tracking.Track(*b))
}

func refIDParam(c echo.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("refId")))
}
