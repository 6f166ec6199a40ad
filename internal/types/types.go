package types

import (
	"strconv"
	"strings"
)

// StringPtr converts a string to a pointer to a string
func StringPtr(s string) *string {
	return &s
}

// StringOrNil returns a pointer to the trimmed string, or nil when it is empty.
// Staging columns encode null as the empty string.
func StringOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// SafeString returns a safe string from a pointer to a string
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Int64Ptr converts an int64 to a pointer to an int64
func Int64Ptr(v int64) *int64 {
	return &v
}

// FloatOrNil parses the string as a float, returning nil when it is empty or
// not numeric. Mirrors the warehouse's SAFE_CAST semantics: bad input becomes
// null rather than an error.
func FloatOrNil(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
