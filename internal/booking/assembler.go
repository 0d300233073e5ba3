// Package booking assembles booking submissions and classifies what the
// booking service says about them.
package booking

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/dharmasatrya/aircargo/internal/itinerary"
	"github.com/dharmasatrya/aircargo/internal/models"
)

var ErrMissingUser = errors.New("user id is required to submit a booking")

// RefIDLength is the number of characters in a generated reference id.
const RefIDLength = 12

// RefIDFunc produces client-side booking reference ids.
type RefIDFunc func() string

// NewRefID returns an uppercase alphanumeric token taken from a random UUID.
// Uniqueness is enforced by the booking service.
func NewRefID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:RefIDLength])
}

type Assembler struct {
	refID RefIDFunc
}

func NewAssembler(refID RefIDFunc) *Assembler {
	if refID == nil {
		refID = NewRefID
	}
	return &Assembler{refID: refID}
}

// BuildRequest builds the submission body for cargo on route. It never
// authenticates; callers must resolve userID before calling.
func (a *Assembler) BuildRequest(route models.Route, cargo models.CargoInput, userID string) (models.BookingRequest, error) {
	if strings.TrimSpace(userID) == "" {
		return models.BookingRequest{}, ErrMissingUser
	}
	if len(route.Legs) == 0 {
		return models.BookingRequest{}, itinerary.ErrEmptyRoute
	}

	return models.BookingRequest{
		RefID:       a.refID(),
		UserID:      userID,
		Origin:      route.Legs[0].Departure.Airport,
		Destination: route.Legs[len(route.Legs)-1].Arrival.Airport,
		Pieces:      cargo.Pieces,
		WeightKg:    cargo.WeightKg,
		LegIDs:      route.LegIDs(),
	}, nil
}

// BuildRequest uses the default reference id generator.
func BuildRequest(route models.Route, cargo models.CargoInput, userID string) (models.BookingRequest, error) {
	return NewAssembler(nil).BuildRequest(route, cargo, userID)
}
