package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/aircargo/internal/auth"
	"github.com/dharmasatrya/aircargo/internal/backend"
	"github.com/dharmasatrya/aircargo/internal/booking"
	"github.com/dharmasatrya/aircargo/internal/cache"
	"github.com/dharmasatrya/aircargo/internal/models"
	"github.com/dharmasatrya/aircargo/internal/pricing"
)

const testSecret = "handler-secret"

type stubSearcher struct {
	resp *models.SearchResponse
	err  error
	got  models.SearchRequest
}

func (s *stubSearcher) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	s.got = req
	return s.resp, s.err
}

type stubSubmitter struct {
	outcome models.BookingOutcome
	err     error
	cred    booking.Credential
	calls   int
}

func (s *stubSubmitter) Submit(ctx context.Context, cred booking.Credential, legs []models.FlightLeg, cargo models.CargoInput) (models.BookingOutcome, models.BookingRequest, error) {
	s.calls++
	s.cred = cred
	return s.outcome, models.BookingRequest{RefID: "ABC123DEF456", UserID: cred.UserID}, s.err
}

type stubBackend struct {
	booking    *models.Booking
	getErr     error
	cancelErr  error
	cancelled  bool
	cancelAuth string
	gotRef     string
	cancelRef  string
}

func (b *stubBackend) GetBooking(ctx context.Context, refID string) (*models.Booking, error) {
	b.gotRef = refID
	if b.getErr != nil {
		return nil, b.getErr
	}
	return b.booking, nil
}

func (b *stubBackend) CancelBooking(ctx context.Context, token, refID string) (*backend.CancelResult, error) {
	if b.cancelErr != nil {
		return nil, b.cancelErr
	}
	b.cancelled = true
	b.cancelAuth = token
	b.cancelRef = refID
	return &backend.CancelResult{Message: "Booking cancelled", Status: models.StatusCancelled}, nil
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.Sign(testSecret, userID, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return token
}

func do(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestSearchHandler(t *testing.T) {
	s := &stubSearcher{resp: &models.SearchResponse{Routes: []models.Route{{Origin: "DEL"}}}}
	e := echo.New()
	e.POST("/routes/search", NewSearchHandler(s).Search)

	rec := do(e, http.MethodPost, "/routes/search", `{"origin":"DEL","destination":"LHR","date":"2023-10-15"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if s.got.SortBy != "best_value" || s.got.SortOrder != "asc" {
		t.Errorf("defaults not applied: %+v", s.got)
	}
}

func TestSearchHandlerValidation(t *testing.T) {
	e := echo.New()
	e.POST("/routes/search", NewSearchHandler(&stubSearcher{}).Search)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{`, "invalid_request"},
		{"missing origin", `{"destination":"LHR","date":"2023-10-15"}`, "validation_error"},
		{"bad date", `{"origin":"DEL","destination":"LHR","date":"15/10/2023"}`, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/routes/search", tt.body, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := decode[models.ErrorResponse](t, rec); got.Error != tt.want {
				t.Fatalf("error = %q, want %q", got.Error, tt.want)
			}
		})
	}
}

func TestSearchHandlerUpstreamError(t *testing.T) {
	s := &stubSearcher{err: &backend.APIError{Endpoint: "routes", StatusCode: 500, Detail: "db down"}}
	e := echo.New()
	e.POST("/routes/search", NewSearchHandler(s).Search)

	rec := do(e, http.MethodPost, "/routes/search", `{"origin":"DEL","destination":"LHR","date":"2023-10-15"}`, "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[models.ErrorResponse](t, rec); !strings.Contains(got.Message, "db down") {
		t.Fatalf("message = %q", got.Message)
	}
}

func TestQuote(t *testing.T) {
	e := echo.New()
	e.POST("/pricing/quote", NewPricingHandler(pricing.NewCalculator(0.18), "USD").Quote)

	rec := do(e, http.MethodPost, "/pricing/quote", `{"rate_per_kg":215,"weight_kg":10}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	q := decode[models.QuoteResponse](t, rec)
	if q.Subtotal.Amount != 2150 || q.Tax.Amount != 387 || q.Total.Amount != 2537 {
		t.Fatalf("quote = %+v", q)
	}
	if q.Total.Formatted != "$2,537.00" {
		t.Errorf("formatted total = %q", q.Total.Formatted)
	}
}

func TestQuoteZeroWeight(t *testing.T) {
	e := echo.New()
	e.POST("/pricing/quote", NewPricingHandler(pricing.NewCalculator(0.18), "USD").Quote)

	rec := do(e, http.MethodPost, "/pricing/quote", `{"rate_per_kg":215,"weight_kg":-3}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if q := decode[models.QuoteResponse](t, rec); q.Total.Amount != 0 {
		t.Fatalf("total = %v, want 0", q.Total.Amount)
	}

	rec = do(e, http.MethodPost, "/pricing/quote", `{"rate_per_kg":0,"weight_kg":3}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero rate status = %d, want 400", rec.Code)
	}
}

func bookingServer(h *BookingHandler) *echo.Echo {
	e := echo.New()
	g := e.Group("", auth.JWT(testSecret))
	g.POST("/bookings", h.Create)
	g.PUT("/bookings/pending", h.SavePending)
	g.GET("/bookings/pending", h.GetPending)
	g.DELETE("/bookings/pending", h.DeletePending)
	g.POST("/bookings/:refId/cancel", h.Cancel)
	return e
}

const createBody = `{"legs":[{"flight_id":"AI101","airline_name":"Air India","origin":"DEL","destination":"LHR","departure_datetime":"2023-10-15T06:00:00","arrival_datetime":"2023-10-15T15:30:00","base_price_per_kg":250}],"pieces":2,"weight_kg":10}`

func TestCreateBookingOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		outcome models.BookingOutcome
		err     error
		want    int
	}{
		{"confirmed", booking.Confirmed("ABC123DEF456"), nil, http.StatusCreated},
		{"capacity", models.BookingOutcome{Kind: models.OutcomeCapacityConflict, Action: models.RecoveryEditInput}, nil, http.StatusConflict},
		{"overload", models.BookingOutcome{Kind: models.OutcomeTransientOverload, Action: models.RecoveryRetry}, nil, http.StatusServiceUnavailable},
		{"validation", models.BookingOutcome{Kind: models.OutcomeValidationError, Message: "bad", Action: models.RecoveryEditInput}, nil, http.StatusBadRequest},
		{"unknown", booking.Unknown(""), nil, http.StatusBadGateway},
		{"in flight", models.BookingOutcome{}, booking.ErrSubmissionInFlight, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &stubSubmitter{outcome: tt.outcome, err: tt.err}
			e := bookingServer(NewBookingHandler(sub, &stubBackend{}, cache.NewMemoryPendingStore(time.Hour), nil))

			token := bearer(t, "user-1")
			rec := do(e, http.MethodPost, "/bookings", createBody, token)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.want, rec.Body.String())
			}
			if sub.cred.UserID != "user-1" || sub.cred.Token != token {
				t.Errorf("credential = %+v", sub.cred)
			}
			if tt.err == nil {
				if got := decode[models.BookingResponse](t, rec); got.Outcome.Kind != tt.outcome.Kind {
					t.Errorf("outcome = %+v", got.Outcome)
				}
			}
		})
	}
}

func TestCreateBookingRequiresAuthAndValidInput(t *testing.T) {
	sub := &stubSubmitter{outcome: booking.Confirmed("X")}
	e := bookingServer(NewBookingHandler(sub, &stubBackend{}, cache.NewMemoryPendingStore(time.Hour), nil))

	if rec := do(e, http.MethodPost, "/bookings", createBody, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/bookings", `{"legs":[],"pieces":2,"weight_kg":10}`, bearer(t, "u")); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty legs status = %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/bookings", strings.Replace(createBody, `"weight_kg":10`, `"weight_kg":0`, 1), bearer(t, "u")); rec.Code != http.StatusBadRequest {
		t.Fatalf("zero weight status = %d", rec.Code)
	}
	if sub.calls != 0 {
		t.Fatalf("submitter called %d times", sub.calls)
	}
}

func TestPendingBookingLifecycle(t *testing.T) {
	store := cache.NewMemoryPendingStore(time.Hour)
	sub := &stubSubmitter{outcome: booking.Confirmed("ABC123DEF456")}
	e := bookingServer(NewBookingHandler(sub, &stubBackend{}, store, nil))
	token := bearer(t, "user-1")

	if rec := do(e, http.MethodGet, "/bookings/pending", "", token); rec.Code != http.StatusNotFound {
		t.Fatalf("empty pending status = %d", rec.Code)
	}

	if rec := do(e, http.MethodPut, "/bookings/pending", createBody, token); rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec := do(e, http.MethodGet, "/bookings/pending", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d", rec.Code)
	}
	got := decode[models.PendingResponse](t, rec)
	if got.Route.TotalPrice != 250 || got.Route.Kind != models.RouteDirect {
		t.Fatalf("pending route = %+v", got.Route)
	}

	if rec := do(e, http.MethodGet, "/bookings/pending", "", bearer(t, "user-2")); rec.Code != http.StatusNotFound {
		t.Fatalf("other user status = %d", rec.Code)
	}

	if rec := do(e, http.MethodPost, "/bookings", createBody, token); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/bookings/pending", "", token); rec.Code != http.StatusNotFound {
		t.Fatalf("pending should be cleared after confirmation, status = %d", rec.Code)
	}
}

type brokenDeleteStore struct {
	*cache.MemoryPendingStore
	deletes int
}

func (s *brokenDeleteStore) Delete(ctx context.Context, userID string) error {
	s.deletes++
	return errors.New("connection reset")
}

func TestGetPendingUnreadable(t *testing.T) {
	store := &brokenDeleteStore{MemoryPendingStore: cache.NewMemoryPendingStore(time.Hour)}
	if err := store.Save(context.Background(), "user-1", models.PendingBooking{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	e := bookingServer(NewBookingHandler(&stubSubmitter{}, &stubBackend{}, store, nil))

	rec := do(e, http.MethodGet, "/bookings/pending", "", bearer(t, "user-1"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if store.deletes != 1 {
		t.Fatalf("deletes = %d, want 1", store.deletes)
	}
}

func TestDeletePending(t *testing.T) {
	store := cache.NewMemoryPendingStore(time.Hour)
	e := bookingServer(NewBookingHandler(&stubSubmitter{}, &stubBackend{}, store, nil))
	token := bearer(t, "user-1")

	do(e, http.MethodPut, "/bookings/pending", createBody, token)
	if rec := do(e, http.MethodDelete, "/bookings/pending", "", token); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if _, ok, _ := store.Load(context.Background(), "user-1"); ok {
		t.Fatal("pending booking still stored")
	}
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name          string
		backend       *stubBackend
		want          int
		wantCancelled bool
	}{
		{"booked", &stubBackend{booking: &models.Booking{Status: models.StatusBooked}}, http.StatusOK, true},
		{"delivered", &stubBackend{booking: &models.Booking{Status: models.StatusDelivered}}, http.StatusConflict, false},
		{"already cancelled", &stubBackend{booking: &models.Booking{Status: models.StatusCancelled}}, http.StatusConflict, false},
		{"not found", &stubBackend{getErr: backend.ErrBookingNotFound}, http.StatusNotFound, false},
		{"refused upstream", &stubBackend{
			booking:   &models.Booking{Status: models.StatusDeparted},
			cancelErr: &backend.APIError{Endpoint: "bookings", StatusCode: 400, Detail: "Cannot cancel"},
		}, http.StatusConflict, false},
		{"upstream down", &stubBackend{getErr: errors.New("dial tcp: refused")}, http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := bookingServer(NewBookingHandler(&stubSubmitter{}, tt.backend, cache.NewMemoryPendingStore(time.Hour), nil))
			token := bearer(t, "user-1")

			rec := do(e, http.MethodPost, "/bookings/ABC123DEF456/cancel", "", token)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.want, rec.Body.String())
			}
			if tt.backend.cancelled != tt.wantCancelled {
				t.Fatalf("cancelled = %v", tt.backend.cancelled)
			}
			if tt.wantCancelled && tt.backend.cancelAuth != token {
				t.Errorf("token not forwarded")
			}
		})
	}
}

func TestCancelNormalizesRefID(t *testing.T) {
	b := &stubBackend{booking: &models.Booking{Status: models.StatusBooked}}
	e := bookingServer(NewBookingHandler(&stubSubmitter{}, b, cache.NewMemoryPendingStore(time.Hour), nil))

	rec := do(e, http.MethodPost, "/bookings/abc123def456/cancel", "", bearer(t, "user-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if b.gotRef != "ABC123DEF456" || b.cancelRef != "ABC123DEF456" {
		t.Fatalf("refs = %q, %q", b.gotRef, b.cancelRef)
	}
	if got := decode[models.CancelResponse](t, rec); got.RefID != "ABC123DEF456" {
		t.Fatalf("response ref = %q", got.RefID)
	}
}

func TestTrackingHandler(t *testing.T) {
	b := &stubBackend{booking: &models.Booking{RefID: "ABC123DEF456", Status: models.StatusDeparted}}
	e := echo.New()
	e.GET("/bookings/:refId", NewTrackingHandler(b).Get)

	rec := do(e, http.MethodGet, "/bookings/abc123def456", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[models.TrackingResponse](t, rec)
	if got.Timeline.CurrentStep != 1 || !got.Cancellable || len(got.Timeline.Steps) != 4 {
		t.Fatalf("tracking = %+v", got)
	}

	b.getErr = backend.ErrBookingNotFound
	if rec := do(e, http.MethodGet, "/bookings/NOPE", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing booking status = %d", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	e := echo.New()
	e.GET("/health", HealthHandler)
	if rec := do(e, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
