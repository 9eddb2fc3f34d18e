package bill

import (
	"fmt"
	"time"
	"unicode"
)

// Formatter localizes record fields for display. Both methods may fail for
// malformed input; the Lister recovers per field.
type Formatter interface {
	FormatDate(raw string) (string, error)
	FormatStatus(raw Status) (string, error)
}

var frenchMonths = [12]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// FrenchFormatter renders dates like "4 Avr. 04" and the French status
// labels shown in the bills table.
type FrenchFormatter struct{}

func (FrenchFormatter) FormatDate(raw string) (string, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, raw); err != nil {
			return "", fmt.Errorf("bill: format date %q: %w", raw, err)
		}
	}

	// Three-letter month prefix, capitalized, with a trailing dot. June and
	// July both truncate to "Jui", matching the original renderer.
	month := []rune(frenchMonths[t.Month()-1])
	if len(month) > 3 {
		month = month[:3]
	}
	month[0] = unicode.ToUpper(month[0])

	return fmt.Sprintf("%d %s. %02d", t.Day(), string(month), t.Year()%100), nil
}

func (FrenchFormatter) FormatStatus(raw Status) (string, error) {
	switch raw {
	case StatusPending:
		return "En attente", nil
	case StatusAccepted:
		return "Accepté", nil
	case StatusRefused:
		return "Refusé", nil
	}
	return "", fmt.Errorf("bill: unknown status %q", raw)
}

// formatOr returns the formatted value, or the raw value when formatting
// fails. No error escapes the mapping step.
func formatOr(raw string, format func(string) (string, error)) string {
	v, err := format(raw)
	if err != nil {
		return raw
	}
	return v
}
