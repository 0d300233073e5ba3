// Package backend is the HTTP client for the remote cargo API: route query,
// booking submission, booking lookup and cancellation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dharmasatrya/aircargo/internal/models"
	"github.com/dharmasatrya/aircargo/internal/ratelimit"
)

var ErrBookingNotFound = errors.New("booking not found")

// maxBodyBytes caps how much of a reply is read.
const maxBodyBytes = 1 << 20

type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RateLimiter *ratelimit.EndpointLimiter
	HTTPClient  *http.Client
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	limiter *ratelimit.EndpointLimiter
}

func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse cargo api url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("cargo api url %q must be absolute", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		hc = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		baseURL: base,
		http:    hc,
		limiter: cfg.RateLimiter,
	}, nil
}

// SearchRoutes returns candidate itineraries, each an ordered list of legs.
func (c *Client) SearchRoutes(ctx context.Context, origin, destination, date string) ([][]models.FlightLeg, error) {
	q := url.Values{}
	q.Set("origin", origin)
	q.Set("destination", destination)
	q.Set("date", date)

	status, body, err := c.do(ctx, ratelimit.EndpointRoutes, http.MethodGet, "/route", q, "", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, newAPIError(ratelimit.EndpointRoutes, status, body)
	}

	var itineraries [][]models.FlightLeg
	if err := json.Unmarshal(body, &itineraries); err != nil {
		return nil, fmt.Errorf("decode route response: %w", err)
	}
	return itineraries, nil
}

// SubmitBooking posts req and hands back the raw status and body for the
// caller to classify. Only transport failures are returned as errors.
func (c *Client) SubmitBooking(ctx context.Context, token string, req models.BookingRequest) (int, []byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return 0, nil, fmt.Errorf("encode booking request: %w", err)
	}
	return c.do(ctx, ratelimit.EndpointBookings, http.MethodPost, "/bookings", nil, token, payload)
}

func (c *Client) GetBooking(ctx context.Context, refID string) (*models.Booking, error) {
	status, body, err := c.do(ctx, ratelimit.EndpointTracking, http.MethodGet, "/bookings/"+url.PathEscape(refID), nil, "", nil)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, ErrBookingNotFound
	case status != http.StatusOK:
		return nil, newAPIError(ratelimit.EndpointTracking, status, body)
	}

	var b models.Booking
	if err := json.Unmarshal(body, &b); err != nil {
		return nil, fmt.Errorf("decode booking: %w", err)
	}
	return &b, nil
}

type CancelResult struct {
	Message string               `json:"message"`
	Status  models.BookingStatus `json:"status"`
}

func (c *Client) CancelBooking(ctx context.Context, token, refID string) (*CancelResult, error) {
	status, body, err := c.do(ctx, ratelimit.EndpointBookings, http.MethodPost, "/bookings/"+url.PathEscape(refID)+"/cancel", nil, token, nil)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, ErrBookingNotFound
	case status != http.StatusOK:
		return nil, newAPIError(ratelimit.EndpointBookings, status, body)
	}

	var res CancelResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode cancel response: %w", err)
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path string, query url.Values, token string, payload []byte) (int, []byte, error) {
	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return 0, nil, err
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	return resp.StatusCode, data, nil
}
