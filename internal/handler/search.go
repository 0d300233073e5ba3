package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/aircargo/internal/backend"
	"github.com/dharmasatrya/aircargo/internal/models"
)

type RouteSearcher interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
}

type SearchHandler struct {
	searcher RouteSearcher
}

func NewSearchHandler(s RouteSearcher) *SearchHandler {
	return &SearchHandler{searcher: s}
}

func (h *SearchHandler) Search(c echo.Context) error {
	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	resp, err := h.searcher.Search(c.Request().Context(), req)
	if err != nil {
		c.Logger().Errorf("route search %s-%s failed: %v", req.Origin, req.Destination, err)
		return upstreamError(c, "search_error", "Failed to search routes", err)
	}

	return c.JSON(http.StatusOK, resp)
}

// upstreamError maps a failed cargo API call onto a gateway response.
func upstreamError(c echo.Context, code, message string, err error) error {
	status := http.StatusBadGateway
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		message += ": " + apiErr.Detail
	}

	return c.JSON(status, models.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	})
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
