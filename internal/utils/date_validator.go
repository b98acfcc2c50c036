package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type DateFormat string

const (
	FormatRFC3339Nano DateFormat = time.RFC3339Nano
	FormatRFC3339     DateFormat = time.RFC3339
	FormatISO8601Date DateFormat = "2006-01-02"
	FormatUnixTime    DateFormat = "unix"
)

var supportedFormats = []DateFormat{
	FormatRFC3339Nano,
	FormatRFC3339,
	FormatISO8601Date,
	FormatUnixTime,
}

// ParseTimeParam parses a query-string time. Plain dates are read as
// midnight in loc; RFC3339 values keep their own offset.
func ParseTimeParam(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, format := range supportedFormats {
		if format == FormatUnixTime {
			seconds, err := strconv.ParseInt(value, 10, 64)
			if err == nil {
				return time.Unix(seconds, 0).UTC(), nil
			}
			continue
		}

		if parsed, err := time.ParseInLocation(string(format), value, loc); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date %q, expected RFC3339, YYYY-MM-DD or unix seconds", value)
}

// ParseOptionalTimeParam returns nil for an empty value.
func ParseOptionalTimeParam(value string, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := ParseTimeParam(value, loc)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
