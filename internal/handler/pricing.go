package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/aircargo/internal/models"
	"github.com/dharmasatrya/aircargo/internal/pricing"
	"github.com/dharmasatrya/aircargo/pkg/currency"
)

type PricingHandler struct {
	calculator pricing.Calculator
	currency   string
	validate   *validator.Validate
}

func NewPricingHandler(calc pricing.Calculator, currencyCode string) *PricingHandler {
	return &PricingHandler{
		calculator: calc,
		currency:   currencyCode,
		validate:   validator.New(),
	}
}

// Quote prices a weight at a route's per-kg rate. The review panel calls it
// as the weight field changes, so a missing or non-positive weight is a zero
// quote rather than an error.
func (h *PricingHandler) Quote(c echo.Context) error {
	var req models.QuoteRequest
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
			Message: "rate_per_kg must be greater than zero",
			Code:    http.StatusBadRequest,
		})
	}

	b := h.calculator.Compute(req.RatePerKg, req.WeightKg).Rounded()

	return c.JSON(http.StatusOK, models.QuoteResponse{
		RatePerKg: req.RatePerKg,
		WeightKg:  req.WeightKg,
		TaxRate:   h.calculator.TaxRate,
		Currency:  h.currency,
		Subtotal:  h.money(b.Subtotal),
		Tax:       h.money(b.Tax),
		Total:     h.money(b.Total),
	})
}

func (h *PricingHandler) money(amount float64) models.Money {
	return models.Money{
		Amount:    amount,
		Formatted: currency.Format(amount, h.currency),
	}
}
