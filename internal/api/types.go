package api

import (
	"github.com/hackgods/hospital-appointments/internal/appointment"
)

type CreateAppointmentResponse struct {
	Success     bool                     `json:"success"`
	Appointment *appointment.Appointment `json:"appointment"`
	Message     string                   `json:"message"`
}

type ListAppointmentsResponse struct {
	Success      bool                      `json:"success"`
	Appointments []appointment.Appointment `json:"appointments"`
}

type UpdateAppointmentResponse struct {
	Success            bool                     `json:"success"`
	UpdatedAppointment *appointment.Appointment `json:"updatedAppointment"`
	Message            string                   `json:"message"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}
