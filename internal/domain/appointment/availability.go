package appointment

import (
	"time"

	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type AvailabilityInput struct {
	StaffID   uint
	ServiceID uint
	Date      time.Time
}

type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FreeSlots walks the window in steps of the service duration and keeps
// the slots that avoid lunch and every booked appointment.
// booked must be sorted by start time.
func FreeSlots(w Window, duration time.Duration, booked []models.Appointment) []TimeSlot {
	slots := []TimeSlot{}
	if duration <= 0 {
		return slots
	}

	apIdx := 0
	for cur := w.Start; !cur.Add(duration).After(w.End); cur = cur.Add(duration) {
		slotStart := cur
		slotEnd := cur.Add(duration)

		if w.HasLunch && Overlaps(slotStart, slotEnd, w.LunchStart, w.LunchEnd) {
			continue
		}

		for apIdx < len(booked) && !booked[apIdx].EndTime.After(slotStart) {
			apIdx++
		}

		conflict := false
		for i := apIdx; i < len(booked) && booked[i].StartTime.Before(slotEnd); i++ {
			if Overlaps(slotStart, slotEnd, booked[i].StartTime, booked[i].EndTime) {
				conflict = true
				break
			}
		}

		if !conflict {
			slots = append(slots, TimeSlot{
				Start: slotStart.Format("15:04"),
				End:   slotEnd.Format("15:04"),
			})
		}
	}

	return slots
}
