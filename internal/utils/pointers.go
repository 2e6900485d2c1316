package utils

import (
	"strings"
	"time"
)

func StringPtr(s string) *string {
	return &s
}

// StringPtrOrNil returns nil for blank strings so optional columns stay NULL.
func StringPtrOrNil(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func PtrTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}

	return *t
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
