package timezone

import (
	"strings"
	"time"
)

var airportTimezones = map[string]string{
	// India
	"DEL": "Asia/Kolkata", // New Delhi - Indira Gandhi
	"BOM": "Asia/Kolkata", // Mumbai - Chhatrapati Shivaji
	"BLR": "Asia/Kolkata", // Bengaluru - Kempegowda
	"HYD": "Asia/Kolkata", // Hyderabad - Rajiv Gandhi
	"MAA": "Asia/Kolkata", // Chennai
	"CCU": "Asia/Kolkata", // Kolkata

	// Middle East
	"DXB": "Asia/Dubai", // Dubai
	"DOH": "Asia/Qatar", // Doha - Hamad

	// Europe
	"LHR": "Europe/London", // London - Heathrow
	"FRA": "Europe/Berlin", // Frankfurt
	"AMS": "Europe/Amsterdam",

	// Americas
	"JFK": "America/New_York", // New York - John F. Kennedy
	"ORD": "America/Chicago",

	// East Asia
	"HKG": "Asia/Hong_Kong", // Hong Kong
	"SIN": "Asia/Singapore",
}

// Fixed offsets used when the host has no tzdata installed.
var fallbackOffsets = map[string]int{
	"Asia/Kolkata":     5*60*60 + 30*60,
	"Asia/Dubai":       4 * 60 * 60,
	"Asia/Qatar":       3 * 60 * 60,
	"Europe/London":    0,
	"Europe/Berlin":    1 * 60 * 60,
	"Europe/Amsterdam": 1 * 60 * 60,
	"America/New_York": -5 * 60 * 60,
	"America/Chicago":  -6 * 60 * 60,
	"Asia/Hong_Kong":   8 * 60 * 60,
	"Asia/Singapore":   8 * 60 * 60,
}

func GetTimezoneByAirport(code string) string {
	code = strings.ToUpper(code)
	if tz, ok := airportTimezones[code]; ok {
		return tz
	}
	return "UTC"
}

func GetLocationByAirport(code string) *time.Location {
	name := GetTimezoneByAirport(code)
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	if off, ok := fallbackOffsets[name]; ok {
		return time.FixedZone(name, off)
	}
	return time.UTC
}

// ParseTimestamp parses a backend timestamp. Values without an offset are
// UTC. The result is always in UTC.
func ParseTimestamp(timeStr string) (time.Time, error) {
	timeStr = strings.TrimSpace(timeStr)

	zoned := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05-0700", // Without colon
		"2006-01-02 15:04:05-07:00",
	}
	for _, format := range zoned {
		if t, err := time.Parse(format, timeStr); err == nil {
			return t.UTC(), nil
		}
	}

	naive := []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
	}
	for _, format := range naive {
		if t, err := time.ParseInLocation(format, timeStr, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, &time.ParseError{
		Value:   timeStr,
		Message: "unable to parse time string",
	}
}

func ConvertToTimezone(t time.Time, airportCode string) time.Time {
	return t.In(GetLocationByAirport(airportCode))
}

// LocalClock renders t as the airport's wall clock, e.g. "2024-01-20 14:30".
func LocalClock(t time.Time, airportCode string) string {
	return ConvertToTimezone(t, airportCode).Format("2006-01-02 15:04")
}
