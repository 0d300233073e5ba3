package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/aircargo/internal/auth"
	"github.com/dharmasatrya/aircargo/internal/backend"
	"github.com/dharmasatrya/aircargo/internal/booking"
	"github.com/dharmasatrya/aircargo/internal/cache"
	"github.com/dharmasatrya/aircargo/internal/itinerary"
	"github.com/dharmasatrya/aircargo/internal/metrics"
	"github.com/dharmasatrya/aircargo/internal/models"
)

type BookingSubmitter interface {
	Submit(ctx context.Context, cred booking.Credential, legs []models.FlightLeg, cargo models.CargoInput) (models.BookingOutcome, models.BookingRequest, error)
}

// BookingBackend is the lookup and cancellation side of the cargo API.
type BookingBackend interface {
	GetBooking(ctx context.Context, refID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, token, refID string) (*backend.CancelResult, error)
}

type BookingHandler struct {
	submitter BookingSubmitter
	backend   BookingBackend
	pending   cache.PendingStore
	metrics   *metrics.Metrics
	validate  *validator.Validate
	now       func() time.Time
}

func NewBookingHandler(s BookingSubmitter, b BookingBackend, p cache.PendingStore, m *metrics.Metrics) *BookingHandler {
	return &BookingHandler{
		submitter: s,
		backend:   b,
		pending:   p,
		metrics:   m,
		validate:  validator.New(),
		now:       time.Now,
	}
}

func outcomeStatus(kind models.OutcomeKind) int {
	switch kind {
	case models.OutcomeConfirmed:
		return http.StatusCreated
	case models.OutcomeCapacityConflict:
		return http.StatusConflict
	case models.OutcomeTransientOverload:
		return http.StatusServiceUnavailable
	case models.OutcomeValidationError:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (h *BookingHandler) Create(c echo.Context) error {
	cred, err := auth.CredentialFrom(c)
	if err != nil {
		return unauthorized(c)
	}

	var req models.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "legs, pieces and weight_kg are required and must be positive",
			Code:    http.StatusBadRequest,
		})
	}

	ctx := c.Request().Context()
	outcome, bookingReq, err := h.submitter.Submit(ctx, cred, req.Legs, models.CargoInput{
		Pieces:   req.Pieces,
		WeightKg: req.WeightKg,
	})
	switch {
	case errors.Is(err, booking.ErrSubmissionInFlight):
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "submission_in_flight",
			Message: err.Error(),
			Code:    http.StatusConflict,
		})
	case errors.Is(err, booking.ErrMissingUser):
		return unauthorized(c)
	case errors.Is(err, itinerary.ErrEmptyRoute):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	case err != nil:
		c.Logger().Errorf("booking submission failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "booking_error",
			Message: "Failed to submit booking",
			Code:    http.StatusInternalServerError,
		})
	}

	h.metrics.IncBookingOutcome(string(outcome.Kind))

	if outcome.Confirmed() && h.pending != nil {
		if err := h.pending.Delete(ctx, cred.UserID); err != nil {
			c.Logger().Warnf("failed to clear pending booking for %s: %v", cred.UserID, err)
		}
	}

	return c.JSON(outcomeStatus(outcome.Kind), models.BookingResponse{
		Outcome: outcome,
		Request: &bookingReq,
	})
}

func (h *BookingHandler) SavePending(c echo.Context) error {
	cred, err := auth.CredentialFrom(c)
	if err != nil {
		return unauthorized(c)
	}

	var req models.SavePendingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "at least one leg is required",
			Code:    http.StatusBadRequest,
		})
	}

	p := models.PendingBooking{
		Legs:    req.Legs,
		Cargo:   req.Cargo,
		SavedAt: h.now().UTC(),
	}
	if err := h.pending.Save(c.Request().Context(), cred.UserID, p); err != nil {
		c.Logger().Errorf("failed to save pending booking for %s: %v", cred.UserID, err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "storage_error",
			Message: "Failed to save pending booking",
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, p)
}

func (h *BookingHandler) GetPending(c echo.Context) error {
	cred, err := auth.CredentialFrom(c)
	if err != nil {
		return unauthorized(c)
	}

	p, ok, err := h.pending.Load(c.Request().Context(), cred.UserID)
	if err != nil {
		c.Logger().Errorf("failed to load pending booking for %s: %v", cred.UserID, err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "storage_error",
			Message: "Failed to load pending booking",
			Code:    http.StatusInternalServerError,
		})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "No pending booking",
			Code:    http.StatusNotFound,
		})
	}

	route, err := itinerary.Normalize(p.Legs)
	if err != nil {
		c.Logger().Warnf("discarding unreadable pending booking for %s: %v", cred.UserID, err)
		if err := h.pending.Delete(c.Request().Context(), cred.UserID); err != nil {
			c.Logger().Warnf("failed to clear pending booking for %s: %v", cred.UserID, err)
		}
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "No pending booking",
			Code:    http.StatusNotFound,
		})
	}

	h.metrics.IncPendingResume()
	return c.JSON(http.StatusOK, models.PendingResponse{Pending: *p, Route: route})
}

func (h *BookingHandler) DeletePending(c echo.Context) error {
	cred, err := auth.CredentialFrom(c)
	if err != nil {
		return unauthorized(c)
	}

	if err := h.pending.Delete(c.Request().Context(), cred.UserID); err != nil {
		c.Logger().Errorf("failed to delete pending booking for %s: %v", cred.UserID, err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "storage_error",
			Message: "Failed to delete pending booking",
			Code:    http.StatusInternalServerError,
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// Cancel checks the current status before asking the cargo API, which
// enforces the same rule.
func (h *BookingHandler) Cancel(c echo.Context) error {
	cred, err := auth.CredentialFrom(c)
	if err != nil {
		return unauthorized(c)
	}

	refID := refIDParam(c)
	ctx := c.Request().Context()

	b, err := h.backend.GetBooking(ctx, refID)
	if err != nil {
		return bookingLookupError(c, refID, err)
	}
	if !b.Status.Cancellable() {
		return c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "not_cancellable",
			Message: "Cannot cancel booking with status " + string(b.Status),
			Code:    http.StatusConflict,
		})
	}

	res, err := h.backend.CancelBooking(ctx, cred.Token, refID)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			return c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "not_cancellable",
				Message: apiErr.Detail,
				Code:    http.StatusConflict,
			})
		}
		return bookingLookupError(c, refID, err)
	}

	return c.JSON(http.StatusOK, models.CancelResponse{
		RefID:   refID,
		Status:  res.Status,
		Message: res.Message,
	})
}

func bookingLookupError(c echo.Context, refID string, err error) error {
	if errors.Is(err, backend.ErrBookingNotFound) {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "not_found",
			Message: "Booking " + refID + " not found",
			Code:    http.StatusNotFound,
		})
	}
	c.Logger().Errorf("booking %s lookup failed: %v", refID, err)
	return upstreamError(c, "booking_error", "Failed to reach booking service", err)
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "Sign in to continue",
		Code:    http.StatusUnauthorized,
	})
}
