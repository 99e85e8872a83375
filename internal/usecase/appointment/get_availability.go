package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/clinic-pos/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-pos/internal/timezone"
)

type GetAvailability struct {
	repo domain.Repository
}

func NewGetAvailability(repo domain.Repository) *GetAvailability {
	return &GetAvailability{repo: repo}
}

func (uc *GetAvailability) Execute(
	ctx context.Context,
	in domain.AvailabilityInput,
) ([]domain.TimeSlot, error) {

	service, err := uc.repo.GetActiveService(ctx, in.ServiceID)
	if err != nil {
		return nil, notFound(err, "service_not_found")
	}

	if _, err := uc.repo.GetActiveStaff(ctx, in.StaffID); err != nil {
		return nil, notFound(err, "staff_not_found")
	}

	date := in.Date.In(timezone.Clinic())

	wh, err := uc.repo.GetWorkingHours(ctx, in.StaffID, int(date.Weekday()))
	if err != nil {
		return []domain.TimeSlot{}, nil
	}

	w, ok := domain.DayWindow(wh, date)
	if !ok {
		return []domain.TimeSlot{}, nil
	}

	booked, err := uc.repo.ListAppointmentsForDay(ctx, in.StaffID, w.Start, w.End)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(service.DurationMin) * time.Minute
	return domain.FreeSlots(w, duration, booked), nil
}
