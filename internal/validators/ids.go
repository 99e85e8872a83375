package validators

import (
	"strconv"
	"strings"

	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
)

// ParseID converts a path parameter into a positive id.
func ParseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// RequiredID parses a submitted form value. An empty value fails with
// requiredCode, anything that is not a positive integer with invalidCode.
func RequiredID(raw, requiredCode, invalidCode string) (uint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, httperr.ErrBusiness(requiredCode)
	}
	id, ok := ParseID(raw)
	if !ok {
		return 0, httperr.ErrBusiness(invalidCode)
	}
	return id, nil
}

// OptionalID returns nil for an empty value.
func OptionalID(raw, invalidCode string) (*uint, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, ok := ParseID(raw)
	if !ok {
		return nil, httperr.ErrBusiness(invalidCode)
	}
	return &id, nil
}
