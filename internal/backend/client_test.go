package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dharmasatrya/aircargo/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "localhost:8000"}); err == nil {
		t.Fatal("expected error for url without scheme")
	}
}

func TestSearchRoutes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/route" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("origin") != "DEL" || q.Get("destination") != "BOM" || q.Get("date") != "2023-10-15" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `[[{"flight_id":"F1","flight_number":"AI101","airline_name":"Air India",
			"departure_datetime":"2023-10-15T10:00:00","arrival_datetime":"2023-10-15T12:00:00",
			"origin":"DEL","destination":"BOM","max_weight_kg":5000,"booked_weight_kg":1000,"base_price_per_kg":5.0}]]`)
	})

	routes, err := c.SearchRoutes(context.Background(), "DEL", "BOM", "2023-10-15")
	if err != nil {
		t.Fatalf("SearchRoutes: %v", err)
	}
	if len(routes) != 1 || len(routes[0]) != 1 {
		t.Fatalf("routes = %+v", routes)
	}
	if got := routes[0][0]; got.ID != "F1" || got.BasePricePerKg != 5 || got.MaxWeightKg != 5000 {
		t.Fatalf("leg = %+v", got)
	}
}

func TestSearchRoutesServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"detail":"upstream down"}`)
	})

	_, err := c.SearchRoutes(context.Background(), "DEL", "BOM", "2023-10-15")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Detail != "upstream down" || !apiErr.Temporary() {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestSubmitBooking(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/bookings" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req["ref_id"] != "REF1" || req["user_id"] != "u1" {
			t.Errorf("body = %v", req)
		}
		if ids, _ := req["flight_ids"].([]any); len(ids) != 2 {
			t.Errorf("flight_ids = %v", req["flight_ids"])
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"Flight F2 does not have enough capacity"}`)
	})

	status, body, err := c.SubmitBooking(context.Background(), "tok", models.BookingRequest{
		RefID: "REF1", UserID: "u1", Origin: "DEL", Destination: "LHR",
		Pieces: 1, WeightKg: 10, LegIDs: []string{"F1", "F2"},
	})
	if err != nil {
		t.Fatalf("SubmitBooking: %v", err)
	}
	if status != http.StatusBadRequest || len(body) == 0 {
		t.Fatalf("status = %d body = %s", status, body)
	}
}

func TestGetBooking(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bookings/REF123":
			_, _ = io.WriteString(w, `{"ref_id":"REF123","origin":"DEL","destination":"BOM","pieces":10,
				"weight_kg":100,"status":"DEPARTED","flight_ids":["F1"],
				"created_at":"2023-10-15T10:00:00Z","updated_at":"2023-10-15T12:00:00Z",
				"events":[{"booking_ref_id":"REF123","status":"BOOKED","timestamp":"2023-10-15T10:00:00Z"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"detail":"Booking not found"}`)
		}
	})

	b, err := c.GetBooking(context.Background(), "REF123")
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if b.Status != models.StatusDeparted || len(b.Events) != 1 {
		t.Fatalf("booking = %+v", b)
	}

	if _, err := c.GetBooking(context.Background(), "MISSING"); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("error = %v, want ErrBookingNotFound", err)
	}
}

func TestCancelBooking(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bookings/ARRIVED1/cancel" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"detail":"Cannot cancel booking that has already arrived or been delivered"}`)
			return
		}
		_, _ = io.WriteString(w, `{"message":"Booking cancelled","status":"CANCELLED"}`)
	})

	res, err := c.CancelBooking(context.Background(), "tok", "REF123")
	if err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	if res.Status != models.StatusCancelled {
		t.Fatalf("status = %q", res.Status)
	}

	_, err = c.CancelBooking(context.Background(), "tok", "ARRIVED1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest || apiErr.Temporary() {
		t.Fatalf("error = %v", err)
	}
}
