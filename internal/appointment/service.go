package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-appointments/internal/auth"
	redisclient "github.com/hackgods/hospital-appointments/internal/redis"
)

const (
	EventAppointmentCreated = "APPOINTMENT_CREATED"
	EventAppointmentUpdated = "APPOINTMENT_UPDATED"
	EventAppointmentDeleted = "APPOINTMENT_DELETED"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthenticated   = errors.New("authentication required")
	ErrForbidden         = errors.New("access denied")
	ErrSlotAlreadyBooked = errors.New("this slot is already booked, please select another slot")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
)

type Service struct {
	repo   Repository
	locker redisclient.Locker
	log    zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		log:    logger,
	}
}

// CreateAppointment books a slot with a doctor for the calling patient.
// The existence check and the insert run under a per slot lock; the store's
// unique index on (doctor, date, time) catches anything that slips past it,
// including bookings made while Redis is unreachable.
func (s *Service) CreateAppointment(ctx context.Context, caller *auth.Identity, req BookingRequest) (*Appointment, error) {
	if missing := req.missingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: all fields are required, missing %s", ErrValidation, strings.Join(missing, ", "))
	}

	doctor, err := s.resolveDoctor(ctx, req)
	if err != nil {
		return nil, err
	}

	if caller == nil {
		return nil, ErrUnauthenticated
	}

	var created *Appointment

	book := func(lockCtx context.Context) error {
		taken, err := s.repo.SlotTaken(lockCtx, doctor.ID, req.AppointmentDate, req.AppointmentTime)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if taken {
			return ErrSlotAlreadyBooked
		}

		appt, err := s.repo.CreateAppointment(lockCtx, &Appointment{
			FirstName:       req.FirstName,
			LastName:        req.LastName,
			Email:           req.Email,
			Phone:           req.Phone,
			NIC:             req.NIC,
			DOB:             req.DOB,
			Gender:          req.Gender,
			AppointmentDate: req.AppointmentDate,
			AppointmentTime: req.AppointmentTime,
			Department:      req.Department,
			Doctor:          DoctorName{FirstName: doctor.FirstName, LastName: doctor.LastName},
			HasVisited:      req.HasVisited,
			Address:         req.Address,
			DoctorID:        doctor.ID,
			PatientID:       caller.UserID,
			Status:          StatusPending,
		})
		if err != nil {
			if errors.Is(err, ErrSlotAlreadyBooked) {
				return err
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentCreated, map[string]any{
			"doctor_id":        doctor.ID.String(),
			"patient_id":       caller.UserID.String(),
			"appointment_date": appt.AppointmentDate,
			"appointment_time": appt.AppointmentTime,
		})

		return nil
	}

	slotKey := redisclient.SlotKey(doctor.ID, req.AppointmentDate, req.AppointmentTime)
	err = s.locker.WithSlotLock(ctx, slotKey, book)
	if errors.Is(err, redisclient.ErrLockUnavailable) {
		// the store's unique index still rejects a double booking
		s.log.Warn().Err(err).Str("slot", slotKey).Msg("slot lock unavailable, booking without it")
		err = book(ctx)
	}

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// resolveDoctor finds the doctor by id when one is given, otherwise by
// name within the department. Name collisions inside a department resolve
// to whichever record the store returns first.
func (s *Service) resolveDoctor(ctx context.Context, req BookingRequest) (*User, error) {
	if req.DoctorID != nil {
		u, err := s.repo.GetUserByID(ctx, *req.DoctorID)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return nil, ErrDoctorNotFound
			}
			return nil, fmt.Errorf("load doctor: %w", err)
		}
		if u.Role != auth.RoleDoctor || u.DoctorDepartment != req.Department {
			return nil, ErrDoctorNotFound
		}
		if !nameMatches(req.DoctorFirstName, u.FirstName) || !nameMatches(req.DoctorLastName, u.LastName) {
			return nil, ErrDoctorNotFound
		}
		return u, nil
	}

	u, err := s.repo.FindDoctor(ctx, req.DoctorFirstName, req.DoctorLastName, req.Department)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	return u, nil
}

// nameMatches treats a blank requested name as unspecified.
func nameMatches(requested, actual string) bool {
	requested = strings.TrimSpace(requested)
	return requested == "" || requested == actual
}

// authorizeAdmin gates every administrative operation.
func authorizeAdmin(caller *auth.Identity, action string) error {
	if caller == nil {
		return ErrUnauthenticated
	}
	if !caller.Is(auth.RoleAdmin) {
		return fmt.Errorf("%w: only admins can %s", ErrForbidden, action)
	}
	return nil
}

// ListAppointments returns every appointment, unfiltered.
func (s *Service) ListAppointments(ctx context.Context, caller *auth.Identity) ([]Appointment, error) {
	if err := authorizeAdmin(caller, "view all appointments"); err != nil {
		return nil, err
	}

	appointments, err := s.repo.ListAppointments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	if appointments == nil {
		appointments = []Appointment{}
	}
	return appointments, nil
}

// UpdateAppointment merges patch into the stored appointment and re-runs
// validation before persisting. Status is free-form. A department change
// must match the booked doctor's department.
func (s *Service) UpdateAppointment(ctx context.Context, caller *auth.Identity, id uuid.UUID, patch AppointmentPatch) (*Appointment, error) {
	if err := authorizeAdmin(caller, "update appointment status"); err != nil {
		return nil, err
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if patch.Department != nil && *patch.Department != appt.Department {
		if err := s.checkDoctorDepartment(ctx, appt.DoctorID, *patch.Department); err != nil {
			return nil, err
		}
	}

	patch.Apply(appt)
	if missing := appt.Validate(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s cannot be empty", ErrValidation, strings.Join(missing, ", "))
	}

	updated, err := s.repo.UpdateAppointment(ctx, appt)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) || errors.Is(err, ErrSlotAlreadyBooked) {
			return nil, err
		}
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentUpdated, map[string]any{
		"status":     updated.Status,
		"updated_by": caller.UserID.String(),
	})

	return updated, nil
}

// checkDoctorDepartment keeps an appointment's department in line with the
// doctor it is booked with.
func (s *Service) checkDoctorDepartment(ctx context.Context, doctorID uuid.UUID, department string) error {
	doctor, err := s.repo.GetUserByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("%w: booked doctor no longer exists", ErrValidation)
		}
		return fmt.Errorf("load doctor: %w", err)
	}
	if doctor.DoctorDepartment != department {
		return fmt.Errorf("%w: doctor %s %s does not work in %s", ErrValidation, doctor.FirstName, doctor.LastName, department)
	}
	return nil
}

// DeleteAppointment hard deletes the record. Nothing cascades.
func (s *Service) DeleteAppointment(ctx context.Context, caller *auth.Identity, id uuid.UUID) error {
	if err := authorizeAdmin(caller, "delete appointments"); err != nil {
		return err
	}

	if _, err := s.repo.GetAppointmentByID(ctx, id); err != nil {
		return fmt.Errorf("load appointment: %w", err)
	}

	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}

	s.logEvent(ctx, id, EventAppointmentDeleted, map[string]any{
		"deleted_by": caller.UserID.String(),
	})

	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).
			Str("event", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("insert event log")
	}
}
