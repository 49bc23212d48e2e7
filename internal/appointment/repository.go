package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrDoctorNotFound      = errors.New("doctor not found in the specified department")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository is the record store. Every method is a single round trip;
// nothing is cached between calls.
type Repository interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindDoctor(ctx context.Context, firstName, lastName, department string) (*User, error)
	CreateUser(ctx context.Context, u *User) error

	// For conflict checks
	SlotTaken(ctx context.Context, doctorID uuid.UUID, date, clock string) (bool, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAppointments(ctx context.Context) ([]Appointment, error)

	// Creation and updates. CreateAppointment returns ErrSlotAlreadyBooked
	// when the store's uniqueness constraint rejects the insert.
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error

	Ping(ctx context.Context) error
}
