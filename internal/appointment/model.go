package appointment

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/hospital-appointments/internal/auth"
)

const StatusPending = "Pending"

type User struct {
	ID               uuid.UUID `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Role             auth.Role `json:"role"`
	DoctorDepartment string    `json:"doctorDepartment,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// DoctorName is the doctor's name as it was when the appointment was booked.
type DoctorName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type Appointment struct {
	ID              uuid.UUID  `json:"id"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	NIC             string     `json:"nic"`
	DOB             string     `json:"dob"`
	Gender          string     `json:"gender"`
	AppointmentDate string     `json:"appointment_date"`
	AppointmentTime string     `json:"appointment_time"`
	Department      string     `json:"department"`
	Doctor          DoctorName `json:"doctor"`
	HasVisited      bool       `json:"hasVisited"`
	Address         string     `json:"address"`
	DoctorID        uuid.UUID  `json:"doctorId"`
	PatientID       uuid.UUID  `json:"patientId"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type requiredField struct {
	name  string
	value string
}

func blankFields(fields []requiredField) []string {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Validate returns the names of required fields that are blank.
func (a *Appointment) Validate() []string {
	return blankFields([]requiredField{
		{"firstName", a.FirstName},
		{"lastName", a.LastName},
		{"email", a.Email},
		{"phone", a.Phone},
		{"nic", a.NIC},
		{"dob", a.DOB},
		{"gender", a.Gender},
		{"appointment_date", a.AppointmentDate},
		{"appointment_time", a.AppointmentTime},
		{"department", a.Department},
		{"doctor.firstName", a.Doctor.FirstName},
		{"doctor.lastName", a.Doctor.LastName},
		{"address", a.Address},
		{"status", a.Status},
	})
}

// BookingRequest carries everything a patient submits to book a slot.
// DoctorID is optional; when set it replaces the name lookup and the doctor
// names become optional, but any name given must match that doctor.
type BookingRequest struct {
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	NIC             string     `json:"nic"`
	DOB             string     `json:"dob"`
	Gender          string     `json:"gender"`
	AppointmentDate string     `json:"appointment_date"`
	AppointmentTime string     `json:"appointment_time"`
	Department      string     `json:"department"`
	DoctorFirstName string     `json:"doctor_firstName"`
	DoctorLastName  string     `json:"doctor_lastName"`
	DoctorID        *uuid.UUID `json:"doctorId,omitempty"`
	HasVisited      bool       `json:"hasVisited"`
	Address         string     `json:"address"`
}

func (r BookingRequest) missingFields() []string {
	fields := []requiredField{
		{"firstName", r.FirstName},
		{"lastName", r.LastName},
		{"email", r.Email},
		{"phone", r.Phone},
		{"nic", r.NIC},
		{"dob", r.DOB},
		{"gender", r.Gender},
		{"appointment_date", r.AppointmentDate},
		{"appointment_time", r.AppointmentTime},
		{"department", r.Department},
		{"address", r.Address},
	}
	if r.DoctorID == nil {
		fields = append(fields,
			requiredField{"doctor_firstName", r.DoctorFirstName},
			requiredField{"doctor_lastName", r.DoctorLastName},
		)
	}
	return blankFields(fields)
}

// AppointmentPatch is a partial update. Nil fields are left untouched.
// Doctor, patient and id are not patchable.
type AppointmentPatch struct {
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	NIC             *string `json:"nic"`
	DOB             *string `json:"dob"`
	Gender          *string `json:"gender"`
	AppointmentDate *string `json:"appointment_date"`
	AppointmentTime *string `json:"appointment_time"`
	Department      *string `json:"department"`
	HasVisited      *bool   `json:"hasVisited"`
	Address         *string `json:"address"`
	Status          *string `json:"status"`
}

func (p AppointmentPatch) Apply(a *Appointment) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&a.FirstName, p.FirstName)
	set(&a.LastName, p.LastName)
	set(&a.Email, p.Email)
	set(&a.Phone, p.Phone)
	set(&a.NIC, p.NIC)
	set(&a.DOB, p.DOB)
	set(&a.Gender, p.Gender)
	set(&a.AppointmentDate, p.AppointmentDate)
	set(&a.AppointmentTime, p.AppointmentTime)
	set(&a.Department, p.Department)
	set(&a.Address, p.Address)
	set(&a.Status, p.Status)
	if p.HasVisited != nil {
		a.HasVisited = *p.HasVisited
	}
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
