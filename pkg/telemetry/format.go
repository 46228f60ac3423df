package telemetry

import "github.com/pkg/errors"

// EventFormat selects how console-bound spans are rendered. It is a pure
// formatting policy; remote collectors use their own wire encoding and
// reject it.
type EventFormat int

const (
	// FormatJSON renders each span as a single JSON document.
	FormatJSON EventFormat = iota
	// FormatCompact renders single-line JSON without timestamps.
	FormatCompact
	// FormatPretty renders indented JSON.
	FormatPretty
)

const (
	formatJSONLiteral    = "json"
	formatCompactLiteral = "compact"
	formatPrettyLiteral  = "pretty"
)

func (f EventFormat) String() string {
	switch f {
	case FormatJSON:
		return formatJSONLiteral
	case FormatCompact:
		return formatCompactLiteral
	case FormatPretty:
		return formatPrettyLiteral
	default:
		return "unknown"
	}
}

// ParseEventFormat converts a format literal, one of "json", "compact", or
// "pretty", into an EventFormat.
func ParseEventFormat(value string) (EventFormat, error) {
	switch value {
	case formatJSONLiteral:
		return FormatJSON, nil
	case formatCompactLiteral:
		return FormatCompact, nil
	case formatPrettyLiteral:
		return FormatPretty, nil
	default:
		return 0, errors.Errorf("telemetry: invalid event format %q", value)
	}
}
