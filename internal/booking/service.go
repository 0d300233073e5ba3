package booking

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/dharmasatrya/aircargo/internal/itinerary"
	"github.com/dharmasatrya/aircargo/internal/models"
)

var ErrSubmissionInFlight = errors.New("a booking for this itinerary is already being submitted")

// Credential is the identity handed over by the session provider. Both values
// are opaque here.
type Credential struct {
	UserID string
	Token  string
}

type Submitter interface {
	SubmitBooking(ctx context.Context, token string, req models.BookingRequest) (int, []byte, error)
}

// Guard serializes submissions for the same user and itinerary.
type Guard interface {
	Acquire(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Service struct {
	assembler *Assembler
	submitter Submitter
	guard     Guard
}

func NewService(a *Assembler, s Submitter, g Guard) *Service {
	if a == nil {
		a = NewAssembler(nil)
	}
	return &Service{assembler: a, submitter: s, guard: g}
}

// Submit normalizes legs, builds the booking request and sends it once. It
// never retries: TransientOverload and UnknownError are returned for the user
// to retry explicitly.
func (s *Service) Submit(ctx context.Context, cred Credential, legs []models.FlightLeg, cargo models.CargoInput) (models.BookingOutcome, models.BookingRequest, error) {
	route, err := itinerary.Normalize(legs)
	if err != nil {
		return models.BookingOutcome{}, models.BookingRequest{}, err
	}

	req, err := s.assembler.BuildRequest(route, cargo, cred.UserID)
	if err != nil {
		return models.BookingOutcome{}, models.BookingRequest{}, err
	}

	if s.guard != nil {
		key := guardKey(req)
		acquired, err := s.guard.Acquire(ctx, key)
		switch {
		case err != nil:
			log.Printf("In-flight guard unavailable for %s: %v", key, err)
		case !acquired:
			return models.BookingOutcome{}, req, ErrSubmissionInFlight
		default:
			defer func() {
				if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
					log.Printf("Failed to release in-flight guard %s: %v", key, err)
				}
			}()
		}
	}

	status, body, err := s.submitter.SubmitBooking(ctx, cred.Token, req)
	if err != nil {
		log.Printf("Booking %s submission failed: %v", req.RefID, err)
		return Unknown("booking service is unreachable"), req, nil
	}

	outcome := ClassifyResponse(status, body)
	if outcome.Confirmed() && outcome.RefID == "" {
		outcome.RefID = req.RefID
	}
	return outcome, req, nil
}

func guardKey(req models.BookingRequest) string {
	return req.UserID + ":" + strings.Join(req.LegIDs, ",")
}
