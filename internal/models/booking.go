package models

import "time"

type CargoInput struct {
	Pieces   int     `json:"pieces"`
	WeightKg float64 `json:"weight_kg"`
}

// BookingRequest is the body sent to the booking submission service.
type BookingRequest struct {
	RefID       string   `json:"ref_id"`
	UserID      string   `json:"user_id"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Pieces      int      `json:"pieces"`
	WeightKg    float64  `json:"weight_kg"`
	LegIDs      []string `json:"flight_ids"`
}

type OutcomeKind string

const (
	OutcomeConfirmed         OutcomeKind = "confirmed"
	OutcomeCapacityConflict  OutcomeKind = "capacity_conflict"
	OutcomeTransientOverload OutcomeKind = "transient_overload"
	OutcomeValidationError   OutcomeKind = "validation_error"
	OutcomeUnknownError      OutcomeKind = "unknown_error"
)

type RecoveryAction string

const (
	RecoveryNone      RecoveryAction = "none"
	RecoveryRetry     RecoveryAction = "retry"
	RecoveryEditInput RecoveryAction = "edit_input"
)

// BookingOutcome is the classified result of one submission attempt.
// RefID is set only for confirmed bookings, Message only for the two error
// kinds that carry backend detail.
type BookingOutcome struct {
	Kind    OutcomeKind    `json:"kind"`
	RefID   string         `json:"ref_id,omitempty"`
	Message string         `json:"message,omitempty"`
	Action  RecoveryAction `json:"action"`
}

func (o BookingOutcome) Confirmed() bool {
	return o.Kind == OutcomeConfirmed
}

type BookingStatus string

const (
	StatusBooked    BookingStatus = "BOOKED"
	StatusDeparted  BookingStatus = "DEPARTED"
	StatusArrived   BookingStatus = "ARRIVED"
	StatusDelivered BookingStatus = "DELIVERED"
	StatusCancelled BookingStatus = "CANCELLED"
)

// Cancellable mirrors the backend rule that arrived or delivered cargo cannot
// be cancelled. Cancelling twice is refused as well.
func (s BookingStatus) Cancellable() bool {
	switch s {
	case StatusArrived, StatusDelivered, StatusCancelled:
		return false
	default:
		return true
	}
}

type BookingEvent struct {
	ID           string         `json:"id,omitempty"`
	BookingRefID string         `json:"booking_ref_id"`
	Status       BookingStatus  `json:"status"`
	Location     *string        `json:"location,omitempty"`
	FlightID     *string        `json:"flight_id,omitempty"`
	Timestamp    Timestamp      `json:"timestamp"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Booking is the lookup service's view of a booking; the gateway passes it
// through untouched.
type Booking struct {
	RefID       string         `json:"ref_id"`
	UserID      string         `json:"user_id,omitempty"`
	Origin      string         `json:"origin"`
	Destination string         `json:"destination"`
	Pieces      int            `json:"pieces"`
	WeightKg    float64        `json:"weight_kg"`
	Status      BookingStatus  `json:"status"`
	FlightIDs   []string       `json:"flight_ids"`
	CreatedAt   Timestamp      `json:"created_at"`
	UpdatedAt   Timestamp      `json:"updated_at"`
	Events      []BookingEvent `json:"events,omitempty"`
}

// PendingBooking is the itinerary a signed-out user picked before being sent
// to log in; it is restored once they come back.
type PendingBooking struct {
	Legs    []FlightLeg `json:"legs"`
	Cargo   *CargoInput `json:"cargo,omitempty"`
	SavedAt time.Time   `json:"saved_at"`
}

type TimelineStep struct {
	Status      BookingStatus `json:"status"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Location    *string       `json:"location,omitempty"`
	Timestamp   *time.Time    `json:"timestamp,omitempty"`
	Reached     bool          `json:"reached"`
}

type Timeline struct {
	CurrentStatus BookingStatus  `json:"current_status"`
	CurrentStep   int            `json:"current_step"`
	Cancelled     bool           `json:"cancelled"`
	Steps         []TimelineStep `json:"steps"`
}

type TrackingResponse struct {
	Booking     Booking  `json:"booking"`
	Timeline    Timeline `json:"timeline"`
	Cancellable bool     `json:"cancellable"`
}

type SavePendingRequest struct {
	Legs  []FlightLeg `json:"legs" validate:"required,min=1"`
	Cargo *CargoInput `json:"cargo,omitempty"`
}

// PendingResponse returns the saved itinerary with its route recomputed for
// the review panel.
type PendingResponse struct {
	Pending PendingBooking `json:"pending"`
	Route   Route          `json:"route"`
}

type BookingResponse struct {
	Outcome BookingOutcome  `json:"outcome"`
	Request *BookingRequest `json:"request,omitempty"`
}

type CancelResponse struct {
	RefID   string        `json:"ref_id"`
	Status  BookingStatus `json:"status"`
	Message string        `json:"message"`
}
