package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/clinic-pos/internal/httperr"
	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

func at(h, m int) time.Time {
	return time.Date(2025, 3, 10, h, m, 0, 0, time.UTC) // a Monday
}

func TestTransitions(t *testing.T) {
	now := at(12, 0)
	ap := &models.Appointment{Status: string(InitialStatus())}

	require.NoError(t, Confirm(ap))
	assert.True(t, httperr.IsBusiness(Confirm(ap), "invalid_state"))

	require.NoError(t, Complete(ap, now))
	assert.Equal(t, now, *ap.CompletedAt)
	assert.True(t, httperr.IsBusiness(Cancel(ap, now), "invalid_state"))
	assert.True(t, httperr.IsBusiness(Complete(ap, now), "invalid_state"))

	pending := &models.Appointment{Status: string(StatusPending)}
	require.NoError(t, Cancel(pending, now))
	assert.Equal(t, string(StatusCancelled), pending.Status)
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps(at(10, 0), at(11, 0), at(10, 30), at(11, 30)))
	assert.True(t, Overlaps(at(10, 0), at(12, 0), at(10, 30), at(11, 0)))
	assert.False(t, Overlaps(at(10, 0), at(11, 0), at(11, 0), at(12, 0)))
	assert.False(t, Overlaps(at(9, 0), at(10, 0), at(10, 0), at(11, 0)))
}

func TestIsWithinWorkingHours(t *testing.T) {
	wh := &models.WorkingHours{
		Weekday: 1, StartTime: "09:00", EndTime: "18:00",
		LunchStart: "12:00", LunchEnd: "13:00", Active: true,
	}

	assert.True(t, IsWithinWorkingHours(wh, at(9, 0), at(10, 0)))
	assert.True(t, IsWithinWorkingHours(wh, at(13, 0), at(14, 0)))
	assert.False(t, IsWithinWorkingHours(wh, at(8, 30), at(9, 30)))
	assert.False(t, IsWithinWorkingHours(wh, at(11, 30), at(12, 30)))
	assert.False(t, IsWithinWorkingHours(wh, at(17, 30), at(18, 30)))

	wh.Active = false
	assert.False(t, IsWithinWorkingHours(wh, at(9, 0), at(10, 0)))
	assert.False(t, IsWithinWorkingHours(nil, at(9, 0), at(10, 0)))
}

func TestFreeSlots(t *testing.T) {
	wh := &models.WorkingHours{StartTime: "09:00", EndTime: "13:00", LunchStart: "11:00", LunchEnd: "12:00", Active: true}
	w, ok := DayWindow(wh, at(0, 0))
	require.True(t, ok)

	booked := []models.Appointment{{StartTime: at(10, 0), EndTime: at(11, 0)}}
	slots := FreeSlots(w, time.Hour, booked)

	assert.Equal(t, []TimeSlot{
		{Start: "09:00", End: "10:00"},
		{Start: "12:00", End: "13:00"},
	}, slots)

	assert.Empty(t, FreeSlots(w, 0, nil))
}
