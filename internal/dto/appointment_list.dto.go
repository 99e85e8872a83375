package dto

import (
	"time"

	"github.com/BruksfildServices01/clinic-pos/internal/models"
)

type AppointmentListDTO struct {
	ID          uint      `json:"id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"`
	ClientName  string    `json:"client_name"`
	ServiceName string    `json:"service_name"`
	StaffName   string    `json:"staff_name"`
}

func NewAppointmentListDTO(ap models.Appointment, loc *time.Location) AppointmentListDTO {
	out := AppointmentListDTO{
		ID:        ap.ID,
		StartTime: ap.StartTime.In(loc),
		EndTime:   ap.EndTime.In(loc),
		Status:    ap.Status,
	}
	if ap.Client != nil {
		out.ClientName = ap.Client.FullName()
	}
	if ap.Service != nil {
		out.ServiceName = ap.Service.Name
	}
	if ap.Staff != nil {
		out.StaffName = ap.Staff.FullName()
	}
	return out
}
