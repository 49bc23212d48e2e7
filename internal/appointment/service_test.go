package appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-appointments/internal/auth"
	redisclient "github.com/hackgods/hospital-appointments/internal/redis"
)

// -- Mock Repository --

type mockRepo struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*User
	appointments map[uuid.UUID]*Appointment
	events       []EventLog

	inserts int
	updates int
	deletes int
	reads   int

	// simulates the unique index rejecting an insert that passed SlotTaken
	uniqueViolation bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		users:        make(map[uuid.UUID]*User),
		appointments: make(map[uuid.UUID]*Appointment),
	}
}

func (m *mockRepo) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepo) FindDoctor(_ context.Context, firstName, lastName, department string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.FirstName == firstName && u.LastName == lastName &&
			u.Role == auth.RoleDoctor && u.DoctorDepartment == department {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (m *mockRepo) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockRepo) SlotTaken(_ context.Context, doctorID uuid.UUID, date, clock string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.AppointmentDate == date && a.AppointmentTime == clock {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) ListAppointments(_ context.Context) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	var out []Appointment
	for _, a := range m.appointments {
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockRepo) CreateAppointment(_ context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uniqueViolation {
		return nil, ErrSlotAlreadyBooked
	}
	m.inserts++
	cp := *a
	cp.ID = uuid.New()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	m.appointments[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockRepo) UpdateAppointment(_ context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[a.ID]; !ok {
		return nil, ErrAppointmentNotFound
	}
	m.updates++
	cp := *a
	cp.UpdatedAt = time.Now()
	m.appointments[a.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockRepo) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appointments[id]; !ok {
		return ErrAppointmentNotFound
	}
	m.deletes++
	delete(m.appointments, id)
	return nil
}

func (m *mockRepo) InsertEvent(_ context.Context, ev EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockRepo) Ping(context.Context) error { return nil }

func (m *mockRepo) mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inserts + m.updates + m.deletes
}

// -- Mock Locker --

type mockLocker struct {
	mu   sync.Mutex
	held map[string]bool
	busy bool
	down bool
	keys []string
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]bool)}
}

func (l *mockLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	if l.down {
		l.mu.Unlock()
		return fmt.Errorf("acquire slot lock: %w: %w", redisclient.ErrLockUnavailable, errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"))
	}
	if l.busy || l.held[key] {
		l.mu.Unlock()
		return redisclient.ErrLockNotAcquired
	}
	l.held[key] = true
	l.keys = append(l.keys, key)
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}()
	return fn(ctx)
}

// -- Fixtures --

type fixture struct {
	svc     *Service
	repo    *mockRepo
	locker  *mockLocker
	doctor  *User
	patient *auth.Identity
	admin   *auth.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepo()
	locker := newMockLocker()

	doctor := &User{FirstName: "Jane", LastName: "Smith", Email: "jane@hospital.test", Role: auth.RoleDoctor, DoctorDepartment: "Cardiology"}
	patient := &User{FirstName: "Pat", LastName: "Doe", Email: "pat@example.test", Role: auth.RolePatient}
	admin := &User{FirstName: "Ada", LastName: "Min", Email: "admin@hospital.test", Role: auth.RoleAdmin}
	for _, u := range []*User{doctor, patient, admin} {
		if err := repo.CreateUser(context.Background(), u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	return &fixture{
		svc:     NewService(repo, locker, zerolog.Nop()),
		repo:    repo,
		locker:  locker,
		doctor:  doctor,
		patient: &auth.Identity{UserID: patient.ID, Role: auth.RolePatient},
		admin:   &auth.Identity{UserID: admin.ID, Role: auth.RoleAdmin},
	}
}

func validBooking() BookingRequest {
	return BookingRequest{
		FirstName:       "Pat",
		LastName:        "Doe",
		Email:           "pat@example.test",
		Phone:           "03001234567",
		NIC:             "4210112345678",
		DOB:             "1990-01-01",
		Gender:          "Female",
		AppointmentDate: "2024-05-01",
		AppointmentTime: "10:00",
		Department:      "Cardiology",
		DoctorFirstName: "Jane",
		DoctorLastName:  "Smith",
		Address:         "12 Main Street",
	}
}

func (f *fixture) book(t *testing.T) *Appointment {
	t.Helper()
	appt, err := f.svc.CreateAppointment(context.Background(), f.patient, validBooking())
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return appt
}

// -- Booking --

func TestCreateAppointment(t *testing.T) {
	f := newFixture(t)

	appt := f.book(t)

	if appt.ID == uuid.Nil {
		t.Fatal("expected generated id")
	}
	if appt.DoctorID != f.doctor.ID {
		t.Errorf("doctor id = %s, want %s", appt.DoctorID, f.doctor.ID)
	}
	if appt.PatientID != f.patient.UserID {
		t.Errorf("patient id = %s, want %s", appt.PatientID, f.patient.UserID)
	}
	if appt.Doctor != (DoctorName{FirstName: "Jane", LastName: "Smith"}) {
		t.Errorf("unexpected doctor snapshot %+v", appt.Doctor)
	}
	if appt.Status != StatusPending {
		t.Errorf("status = %q, want %q", appt.Status, StatusPending)
	}
	if f.repo.inserts != 1 {
		t.Errorf("inserts = %d, want 1", f.repo.inserts)
	}
	if len(f.repo.events) != 1 || f.repo.events[0].EventType != EventAppointmentCreated {
		t.Errorf("expected one created event, got %+v", f.repo.events)
	}
	want := redisclient.SlotKey(f.doctor.ID, "2024-05-01", "10:00")
	if len(f.locker.keys) != 1 || f.locker.keys[0] != want {
		t.Errorf("lock keys = %v, want [%s]", f.locker.keys, want)
	}
}

func TestCreateAppointmentMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *BookingRequest)
	}{
		{"first name", func(r *BookingRequest) { r.FirstName = "" }},
		{"last name", func(r *BookingRequest) { r.LastName = "" }},
		{"email", func(r *BookingRequest) { r.Email = "" }},
		{"phone", func(r *BookingRequest) { r.Phone = "" }},
		{"nic", func(r *BookingRequest) { r.NIC = "" }},
		{"dob", func(r *BookingRequest) { r.DOB = "" }},
		{"gender", func(r *BookingRequest) { r.Gender = "" }},
		{"date", func(r *BookingRequest) { r.AppointmentDate = "" }},
		{"time", func(r *BookingRequest) { r.AppointmentTime = "" }},
		{"department", func(r *BookingRequest) { r.Department = "" }},
		{"doctor first name", func(r *BookingRequest) { r.DoctorFirstName = "" }},
		{"doctor last name", func(r *BookingRequest) { r.DoctorLastName = "   " }},
		{"address", func(r *BookingRequest) { r.Address = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validBooking()
			tt.mutate(&req)

			_, err := f.svc.CreateAppointment(context.Background(), f.patient, req)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if f.repo.inserts != 0 {
				t.Errorf("inserts = %d, want 0", f.repo.inserts)
			}
		})
	}
}

func TestCreateAppointmentHasVisitedOptional(t *testing.T) {
	f := newFixture(t)
	req := validBooking()
	req.HasVisited = true

	appt, err := f.svc.CreateAppointment(context.Background(), f.patient, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !appt.HasVisited {
		t.Error("hasVisited should be carried over")
	}
}

func TestCreateAppointmentDoctorNotFound(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *BookingRequest)
	}{
		{"unknown name", func(r *BookingRequest) { r.DoctorFirstName = "John" }},
		{"wrong department", func(r *BookingRequest) { r.Department = "Neurology" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validBooking()
			tt.mutate(&req)

			_, err := f.svc.CreateAppointment(context.Background(), f.patient, req)
			if !errors.Is(err, ErrDoctorNotFound) {
				t.Fatalf("expected ErrDoctorNotFound, got %v", err)
			}
			if f.repo.inserts != 0 {
				t.Errorf("inserts = %d, want 0", f.repo.inserts)
			}
		})
	}
}

func TestCreateAppointmentNonDoctorByName(t *testing.T) {
	f := newFixture(t)
	req := validBooking()
	req.DoctorFirstName, req.DoctorLastName = "Ada", "Min"

	_, err := f.svc.CreateAppointment(context.Background(), f.patient, req)
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestCreateAppointmentByDoctorID(t *testing.T) {
	f := newFixture(t)

	req := validBooking()
	req.DoctorID = &f.doctor.ID
	appt, err := f.svc.CreateAppointment(context.Background(), f.patient, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if appt.DoctorID != f.doctor.ID {
		t.Errorf("doctor id = %s", appt.DoctorID)
	}

	unknown := uuid.New()
	req = validBooking()
	req.AppointmentTime = "11:00"
	req.DoctorID = &unknown
	if _, err := f.svc.CreateAppointment(context.Background(), f.patient, req); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("unknown id: expected ErrDoctorNotFound, got %v", err)
	}

	req = validBooking()
	req.AppointmentTime = "12:00"
	req.DoctorID = &f.patient.UserID
	if _, err := f.svc.CreateAppointment(context.Background(), f.patient, req); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("non-doctor id: expected ErrDoctorNotFound, got %v", err)
	}

	req = validBooking()
	req.AppointmentTime = "13:00"
	req.Department = "Neurology"
	req.DoctorID = &f.doctor.ID
	if _, err := f.svc.CreateAppointment(context.Background(), f.patient, req); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("department mismatch: expected ErrDoctorNotFound, got %v", err)
	}
}

func TestCreateAppointmentByDoctorIDNames(t *testing.T) {
	tests := []struct {
		name      string
		first     string
		last      string
		wantError error
	}{
		{"names omitted", "", "", nil},
		{"names match", "Jane", "Smith", nil},
		{"first name only", "Jane", "", nil},
		{"other doctor's name", "John", "Smith", ErrDoctorNotFound},
		{"last name differs", "Jane", "Doe", ErrDoctorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validBooking()
			req.DoctorID = &f.doctor.ID
			req.DoctorFirstName, req.DoctorLastName = tt.first, tt.last

			appt, err := f.svc.CreateAppointment(context.Background(), f.patient, req)
			if tt.wantError != nil {
				if !errors.Is(err, tt.wantError) {
					t.Fatalf("expected %v, got %v", tt.wantError, err)
				}
				if f.repo.inserts != 0 {
					t.Errorf("inserts = %d, want 0", f.repo.inserts)
				}
				return
			}
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if appt.Doctor != (DoctorName{FirstName: "Jane", LastName: "Smith"}) {
				t.Errorf("doctor snapshot = %+v", appt.Doctor)
			}
		})
	}
}

func TestCreateAppointmentUnauthenticated(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateAppointment(context.Background(), nil, validBooking())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if f.repo.inserts != 0 {
		t.Errorf("inserts = %d, want 0", f.repo.inserts)
	}
}

func TestCreateAppointmentDoctorCheckedBeforeAuth(t *testing.T) {
	f := newFixture(t)
	req := validBooking()
	req.DoctorFirstName = "Nobody"

	_, err := f.svc.CreateAppointment(context.Background(), nil, req)
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}

func TestCreateAppointmentDuplicateSlot(t *testing.T) {
	f := newFixture(t)
	f.book(t)

	_, err := f.svc.CreateAppointment(context.Background(), f.patient, validBooking())
	if !errors.Is(err, ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}
	if f.repo.inserts != 1 {
		t.Errorf("inserts = %d, want 1", f.repo.inserts)
	}

	// same doctor, other time is fine
	req := validBooking()
	req.AppointmentTime = "10:30"
	if _, err := f.svc.CreateAppointment(context.Background(), f.patient, req); err != nil {
		t.Fatalf("other time: %v", err)
	}
}

func TestCreateAppointmentLockContended(t *testing.T) {
	f := newFixture(t)
	f.locker.busy = true

	_, err := f.svc.CreateAppointment(context.Background(), f.patient, validBooking())
	if !errors.Is(err, ErrSlotBeingBooked) {
		t.Fatalf("expected ErrSlotBeingBooked, got %v", err)
	}
	if f.repo.inserts != 0 {
		t.Errorf("inserts = %d, want 0", f.repo.inserts)
	}
}

func TestCreateAppointmentLockUnavailable(t *testing.T) {
	f := newFixture(t)
	f.locker.down = true

	appt, err := f.svc.CreateAppointment(context.Background(), f.patient, validBooking())
	if err != nil {
		t.Fatalf("create without redis: %v", err)
	}
	if appt.Status != StatusPending || f.repo.inserts != 1 {
		t.Errorf("unexpected result %+v, inserts = %d", appt, f.repo.inserts)
	}

	// the existence check still runs
	_, err = f.svc.CreateAppointment(context.Background(), f.patient, validBooking())
	if !errors.Is(err, ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}

	// and the unique index still catches a race
	f.repo.uniqueViolation = true
	req := validBooking()
	req.AppointmentTime = "11:00"
	_, err = f.svc.CreateAppointment(context.Background(), f.patient, req)
	if !errors.Is(err, ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked from the store, got %v", err)
	}
	if f.repo.inserts != 1 {
		t.Errorf("inserts = %d, want 1", f.repo.inserts)
	}
}

func TestCreateAppointmentUniqueIndexBackstop(t *testing.T) {
	f := newFixture(t)
	f.repo.uniqueViolation = true

	_, err := f.svc.CreateAppointment(context.Background(), f.patient, validBooking())
	if !errors.Is(err, ErrSlotAlreadyBooked) {
		t.Fatalf("expected ErrSlotAlreadyBooked, got %v", err)
	}
}

func TestCreateAppointmentConcurrentSameSlot(t *testing.T) {
	f := newFixture(t)

	const n = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateAppointment(context.Background(), f.patient, validBooking())
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrSlotAlreadyBooked) && !errors.Is(err, ErrSlotBeingBooked) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successes = %d, want 1", successes)
	}
	if f.repo.inserts != 1 {
		t.Errorf("inserts = %d, want 1", f.repo.inserts)
	}
}

// -- Administrative operations --

func TestAdminOperationsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	status := "Accepted"

	doctor := &auth.Identity{UserID: f.doctor.ID, Role: auth.RoleDoctor}

	callers := []struct {
		name   string
		caller *auth.Identity
		want   error
	}{
		{"anonymous", nil, ErrUnauthenticated},
		{"patient", f.patient, ErrForbidden},
		{"doctor", doctor, ErrForbidden},
	}

	for _, c := range callers {
		t.Run(c.name, func(t *testing.T) {
			before := f.repo.mutations()
			reads := f.repo.reads

			if _, err := f.svc.ListAppointments(context.Background(), c.caller); !errors.Is(err, c.want) {
				t.Errorf("list: expected %v, got %v", c.want, err)
			}
			if _, err := f.svc.UpdateAppointment(context.Background(), c.caller, appt.ID, AppointmentPatch{Status: &status}); !errors.Is(err, c.want) {
				t.Errorf("update: expected %v, got %v", c.want, err)
			}
			if err := f.svc.DeleteAppointment(context.Background(), c.caller, appt.ID); !errors.Is(err, c.want) {
				t.Errorf("delete: expected %v, got %v", c.want, err)
			}

			if f.repo.mutations() != before {
				t.Error("store was mutated")
			}
			if f.repo.reads != reads {
				t.Error("store was read before authorization")
			}
		})
	}

	stored, _ := f.repo.GetAppointmentByID(context.Background(), appt.ID)
	if stored.Status != StatusPending {
		t.Errorf("status changed to %q", stored.Status)
	}
}

func TestListAppointments(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.ListAppointments(context.Background(), f.admin)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}

	f.book(t)
	req := validBooking()
	req.AppointmentTime = "11:00"
	if _, err := f.svc.CreateAppointment(context.Background(), f.patient, req); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err = f.svc.ListAppointments(context.Background(), f.admin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestUpdateAppointmentStatus(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	status := "Accepted"

	updated, err := f.svc.UpdateAppointment(context.Background(), f.admin, appt.ID, AppointmentPatch{Status: &status})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != "Accepted" {
		t.Errorf("status = %q, want Accepted", updated.Status)
	}
	if updated.FirstName != appt.FirstName || updated.DoctorID != appt.DoctorID {
		t.Error("untouched fields changed")
	}

	last := f.repo.events[len(f.repo.events)-1]
	if last.EventType != EventAppointmentUpdated {
		t.Errorf("last event = %s", last.EventType)
	}
}

func TestUpdateAppointmentPartialFields(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	visited := true
	phone := "03111111111"

	updated, err := f.svc.UpdateAppointment(context.Background(), f.admin, appt.ID, AppointmentPatch{HasVisited: &visited, Phone: &phone})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.HasVisited || updated.Phone != phone {
		t.Errorf("patch not applied: %+v", updated)
	}
	if updated.Status != StatusPending {
		t.Errorf("status = %q, want %q", updated.Status, StatusPending)
	}
}

func TestUpdateAppointmentRevalidates(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	empty := ""

	for name, patch := range map[string]AppointmentPatch{
		"blank status": {Status: &empty},
		"blank email":  {Email: &empty},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.UpdateAppointment(context.Background(), f.admin, appt.ID, patch)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
	if f.repo.updates != 0 {
		t.Errorf("updates = %d, want 0", f.repo.updates)
	}
}

func TestUpdateAppointmentDepartment(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)
	neurology := "Neurology"

	_, err := f.svc.UpdateAppointment(context.Background(), f.admin, appt.ID, AppointmentPatch{Department: &neurology})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if f.repo.updates != 0 {
		t.Errorf("updates = %d, want 0", f.repo.updates)
	}

	// unchanged department needs no doctor lookup
	cardiology := "Cardiology"
	if _, err := f.svc.UpdateAppointment(context.Background(), f.admin, appt.ID, AppointmentPatch{Department: &cardiology}); err != nil {
		t.Fatalf("same department: %v", err)
	}

	// the doctor moved, so the appointment may follow
	f.repo.mu.Lock()
	f.repo.users[f.doctor.ID].DoctorDepartment = neurology
	f.repo.mu.Unlock()

	updated, err := f.svc.UpdateAppointment(context.Background(), f.admin, appt.ID, AppointmentPatch{Department: &neurology})
	if err != nil {
		t.Fatalf("move department: %v", err)
	}
	if updated.Department != neurology {
		t.Errorf("department = %q, want %q", updated.Department, neurology)
	}
}

func TestUpdateAppointmentNotFound(t *testing.T) {
	f := newFixture(t)
	status := "Accepted"

	_, err := f.svc.UpdateAppointment(context.Background(), f.admin, uuid.New(), AppointmentPatch{Status: &status})
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestDeleteAppointmentTwice(t *testing.T) {
	f := newFixture(t)
	appt := f.book(t)

	if err := f.svc.DeleteAppointment(context.Background(), f.admin, appt.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	err := f.svc.DeleteAppointment(context.Background(), f.admin, appt.ID)
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("second delete: expected ErrAppointmentNotFound, got %v", err)
	}
	if f.repo.deletes != 1 {
		t.Errorf("deletes = %d, want 1", f.repo.deletes)
	}

	// the slot is free again
	if _, err := f.svc.CreateAppointment(context.Background(), f.patient, validBooking()); err != nil {
		t.Fatalf("rebook: %v", err)
	}
}
