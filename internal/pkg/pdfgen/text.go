package pdfgen

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/halcyonlabel/backend/internal/pkg/splits"
)

const ellipsis = "..."

// CollapseSpace trims s and folds every run of whitespace into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate collapses whitespace and cuts the result to at most max runes,
// ending in an ellipsis when anything was dropped.
func Truncate(s string, max int) string {
	s = CollapseSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= len(ellipsis) {
		return string(runes[:max])
	}
	return strings.TrimRight(string(runes[:max-len(ellipsis)]), " ") + ellipsis
}

// Wrap packs words greedily into lines of at most lineChars runes and keeps
// the first maxLines of them. Words longer than a line are split. Overflow is
// dropped silently.
func Wrap(s string, lineChars, maxLines int) []string {
	if lineChars <= 0 || maxLines <= 0 {
		return nil
	}

	var lines []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			lines = append(lines, string(current))
			current = current[:0]
		}
	}

	for _, word := range strings.Fields(s) {
		w := []rune(word)
		for len(w) > lineChars {
			flush()
			lines = append(lines, string(w[:lineChars]))
			w = w[lineChars:]
		}
		switch {
		case len(current) == 0:
			current = append(current, w...)
		case len(current)+1+len(w) <= lineChars:
			current = append(current, ' ')
			current = append(current, w...)
		default:
			flush()
			current = append(current, w...)
		}
		if len(lines) >= maxLines {
			break
		}
	}
	flush()

	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// FormatDate normalises a date string to YYYY-MM-DD, or returns the
// placeholder when it is empty or unparsable.
func FormatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return splits.Placeholder
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return splits.Placeholder
}

// FormatTime renders an optional timestamp as YYYY-MM-DD.
func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return splits.Placeholder
	}
	return t.Format("2006-01-02")
}

// FormatPercent renders a percentage with at most two decimals: 62.5 -> "62.5%".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(roundTo(v, 2), 'f', -1, 64) + "%"
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// AgreementReference returns the supplied reference, or builds
// PREFIX-YEAR-IDPREFIX from the contract id and creation time.
func AgreementReference(supplied, prefix, contractID string, createdAt time.Time) string {
	if s := CollapseSpace(supplied); s != "" {
		return s
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	id := strings.ToUpper(strings.ReplaceAll(contractID, "-", ""))
	if utf8.RuneCountInString(id) > 8 {
		id = string([]rune(id)[:8])
	}
	if prefix == "" {
		prefix = "AGR"
	}
	return fmt.Sprintf("%s-%d-%s", prefix, createdAt.Year(), id)
}
