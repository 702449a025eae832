package vocab

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedLiteral is returned when a typed literal cannot be parsed
// into its structured value.
var ErrMalformedLiteral = errors.New("malformed literal")

// dateTimeLayouts are tried in order. Fractional seconds are accepted by
// time.Parse after a seconds field even when the layout omits them.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02Z07:00",
	"2006-01-02",
	"2006-01",
	"2006",
}

// ParseDateTime parses an ISO-8601 date or date-time literal as used by
// xsd:date, xsd:dateTime and Dublin Core dates. Values without a zone are
// interpreted as UTC.
func ParseDateTime(lexical string) (time.Time, error) {
	value := strings.TrimSpace(lexical)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrMalformedLiteral)
	}

	for _, layout := range dateTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q is not an ISO-8601 date", ErrMalformedLiteral, lexical)
}

// FormatDateTime renders t as an xsd:dateTime lexical value.
func FormatDateTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// IsDateDatatype reports whether datatype is one of the XSD date types.
func IsDateDatatype(datatype string) bool {
	return datatype == XSDDate || datatype == XSDDateTime
}
