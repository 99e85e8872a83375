package timezone

import (
	"sync"
	"time"
)

const DefaultTimezone = "UTC"

var (
	mu      sync.RWMutex
	current = DefaultTimezone
)

// SetDefault installs the clinic timezone read from config.
// Unknown names are ignored and the previous zone stays in effect.
func SetDefault(tz string) bool {
	if !IsValid(tz) {
		return false
	}
	mu.Lock()
	current = tz
	mu.Unlock()
	return true
}

func Default() string {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func IsValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func Location(tz string) *time.Location {
	if loc, err := time.LoadLocation(tz); err == nil && tz != "" {
		return loc
	}

	loc, err := time.LoadLocation(Default())
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clinic is the location of the configured clinic timezone.
func Clinic() *time.Location {
	return Location(Default())
}

func Now() time.Time {
	return time.Now().In(Clinic())
}

// ParseDate reads a YYYY-MM-DD day in the clinic timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, Clinic())
}

// ParseDateTime accepts RFC3339 or a local "2006-01-02T15:04" value.
func ParseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04", s, Clinic())
}
