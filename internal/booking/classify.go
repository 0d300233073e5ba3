package booking

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dharmasatrya/aircargo/internal/models"
)

const genericFailure = "booking could not be completed"

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type confirmedBody struct {
	RefID string `json:"ref_id"`
}

// FastAPI reports request validation failures as a list of these.
type detailItem struct {
	Msg string `json:"msg"`
}

// ClassifyResponse maps a booking service reply onto an outcome. The service
// reuses 400 for capacity races and plain validation failures, so the detail
// text tells them apart. body may be nil or not JSON.
func ClassifyResponse(status int, body []byte) models.BookingOutcome {
	switch {
	case status >= 200 && status < 300:
		var ok confirmedBody
		_ = json.Unmarshal(body, &ok)
		return Confirmed(ok.RefID)

	case status == http.StatusServiceUnavailable:
		return models.BookingOutcome{
			Kind:   models.OutcomeTransientOverload,
			Action: models.RecoveryRetry,
		}

	case status == http.StatusBadRequest:
		detail := parseDetail(body)
		if strings.Contains(strings.ToLower(detail), "capacity") {
			return models.BookingOutcome{
				Kind:   models.OutcomeCapacityConflict,
				Action: models.RecoveryEditInput,
			}
		}
		return models.BookingOutcome{
			Kind:    models.OutcomeValidationError,
			Message: detail,
			Action:  models.RecoveryEditInput,
		}

	default:
		return Unknown(parseDetail(body))
	}
}

func Confirmed(refID string) models.BookingOutcome {
	return models.BookingOutcome{
		Kind:   models.OutcomeConfirmed,
		RefID:  refID,
		Action: models.RecoveryNone,
	}
}

// Unknown is a terminal failure; message falls back to a generic text.
func Unknown(message string) models.BookingOutcome {
	if message == "" {
		message = genericFailure
	}
	return models.BookingOutcome{
		Kind:    models.OutcomeUnknownError,
		Message: message,
		Action:  models.RecoveryRetry,
	}
}

func parseDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}

	var items []detailItem
	if err := json.Unmarshal(eb.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return strings.Trim(string(eb.Detail), `"`)
}
