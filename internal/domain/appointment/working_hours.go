package appointment

import (
	"time"

	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

// Window is one day's bookable range with an optional lunch break.
type Window struct {
	Start, End           time.Time
	LunchStart, LunchEnd time.Time
	HasLunch             bool
}

// DayWindow places the working hours on the calendar day of date,
// in date's location. ok is false for inactive or incomplete rows.
func DayWindow(wh *models.WorkingHours, date time.Time) (w Window, ok bool) {
	if wh == nil || !wh.Active || wh.StartTime == "" || wh.EndTime == "" {
		return Window{}, false
	}

	parseHM := func(hm string) (time.Time, bool) {
		t, err := time.Parse("15:04", hm)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(
			date.Year(), date.Month(), date.Day(),
			t.Hour(), t.Minute(), 0, 0,
			date.Location(),
		), true
	}

	var okStart, okEnd bool
	w.Start, okStart = parseHM(wh.StartTime)
	w.End, okEnd = parseHM(wh.EndTime)
	if !okStart || !okEnd || !w.Start.Before(w.End) {
		return Window{}, false
	}

	if wh.LunchStart != "" && wh.LunchEnd != "" {
		ls, ok1 := parseHM(wh.LunchStart)
		le, ok2 := parseHM(wh.LunchEnd)
		if ok1 && ok2 && ls.Before(le) {
			w.LunchStart, w.LunchEnd, w.HasLunch = ls, le, true
		}
	}

	return w, true
}

// Fits reports whether [start, end) is inside the window and clear of lunch.
func (w Window) Fits(start, end time.Time) bool {
	if start.Before(w.Start) || end.After(w.End) {
		return false
	}
	if w.HasLunch && Overlaps(start, end, w.LunchStart, w.LunchEnd) {
		return false
	}
	return true
}

// IsWithinWorkingHours checks a booking against the row for its weekday.
func IsWithinWorkingHours(wh *models.WorkingHours, start, end time.Time) bool {
	w, ok := DayWindow(wh, start)
	return ok && w.Fits(start, end)
}
