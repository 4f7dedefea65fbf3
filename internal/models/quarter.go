package models

import (
	"fmt"
	"regexp"
	"strings"
)

// QuarterLabel identifies a fiscal reporting period as published on the
// disclosures page, e.g. "2T25" for the second quarter of 2025.
// Labels are compared by exact string equality.
type QuarterLabel string

var quarterLabelPattern = regexp.MustCompile(`^[1-4]T\d{2}$`)

// ParseQuarterLabel normalizes and validates a raw label string.
// Returns ErrNoQuarterDetected when the input is empty or does not
// match the expected quarter-digit + "T" + two-digit-year shape.
func ParseQuarterLabel(raw string) (QuarterLabel, error) {
	label := strings.ToUpper(strings.TrimSpace(raw))
	if label == "" {
		return "", ErrNoQuarterDetected
	}
	if !quarterLabelPattern.MatchString(label) {
		return "", fmt.Errorf("unparseable quarter label %q: %w", raw, ErrNoQuarterDetected)
	}
	return QuarterLabel(label), nil
}

// String returns the label as a plain string.
func (q QuarterLabel) String() string {
	return string(q)
}

// IsValid reports whether the label has the expected shape.
func (q QuarterLabel) IsValid() bool {
	return quarterLabelPattern.MatchString(string(q))
}

// Year returns the four-digit year, e.g. "2025" for "2T25".
func (q QuarterLabel) Year() string {
	if !q.IsValid() {
		return ""
	}
	return "20" + string(q)[2:]
}

// Period returns the quarter directory token, e.g. "T2" for "2T25".
func (q QuarterLabel) Period() string {
	if !q.IsValid() {
		return ""
	}
	return "T" + string(q)[:1]
}
