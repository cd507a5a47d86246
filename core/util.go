package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// NewRecordID returns a human-friendly record identifier like "RES-1A2B3C4D".
func NewRecordID(prefix string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return prefix + "-" + strings.ToUpper(id[:8])
}

// DocumentString returns doc[key] when it holds a string.
func DocumentString(doc Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

// DocumentTime reads a date field written by any of the stores, or by hand as an RFC 3339 / ISO date string.
// The zero time is returned when the field is missing or unreadable.
func DocumentTime(doc Document, key string) time.Time {
	switch v := doc[key].(type) {
	case time.Time:
		return v
	case interface{ Time() time.Time }: // primitive.DateTime
		return v.Time().UTC()
	case string:
		if t, err := ParseDate(v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseDate parses an RFC 3339 timestamp or a plain YYYY-MM-DD date (as UTC midnight).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// ParseOptionalDate is ParseDate for optional fields: blank input gives nil.
func ParseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
