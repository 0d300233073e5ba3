package tracking

import (
	"github.com/dharmasatrya/aircargo/internal/models"
)

type step struct {
	status      models.BookingStatus
	title       string
	description string
}

var journey = []step{
	{models.StatusBooked, "Booked", "Shipment details received"},
	{models.StatusDeparted, "Departed", "In transit"},
	{models.StatusArrived, "Arrived", "Arrived at destination airport"},
	{models.StatusDelivered, "Delivered", "Delivered to consignee"},
}

func stepIndex(s models.BookingStatus) int {
	for i, st := range journey {
		if st.status == s {
			return i
		}
	}
	return -1
}

// Build lays the booking's events over the four journey steps. A step is
// reached when an event for it exists or a later step is current.
func Build(b models.Booking) models.Timeline {
	first := make(map[models.BookingStatus]models.BookingEvent, len(b.Events))
	latest := 0
	for _, e := range b.Events {
		if _, seen := first[e.Status]; !seen {
			first[e.Status] = e
		}
		if i := stepIndex(e.Status); i > latest {
			latest = i
		}
	}

	cancelled := b.Status == models.StatusCancelled
	current := stepIndex(b.Status)
	if current < 0 {
		current = latest
	}

	t := models.Timeline{
		CurrentStatus: b.Status,
		CurrentStep:   current,
		Cancelled:     cancelled,
		Steps:         make([]models.TimelineStep, len(journey)),
	}

	for i, st := range journey {
		ts := models.TimelineStep{
			Status:      st.status,
			Title:       st.title,
			Description: st.description,
			Reached:     i <= current,
		}
		if e, ok := first[st.status]; ok {
			ts.Reached = true
			ts.Location = e.Location
			if !e.Timestamp.IsZero() {
				at := e.Timestamp.Time
				ts.Timestamp = &at
			}
			if d, ok := e.Metadata["description"].(string); ok && d != "" {
				ts.Description = d
			}
		}
		t.Steps[i] = ts
	}

	return t
}

// Track wraps a booking for display.
func Track(b models.Booking) models.TrackingResponse {
	return models.TrackingResponse{
		Booking:     b,
		Timeline:    Build(b),
		Cancellable: b.Status.Cancellable(),
	}
}
