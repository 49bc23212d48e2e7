package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hackgods/hospital-appointments/internal/auth"
	"github.com/hackgods/hospital-appointments/internal/db"
)

// MongoRepository stores users and appointments as documents. Ids are
// uuid strings so both stores hand out the same kind of identifier.
type MongoRepository struct {
	database     *mongo.Database
	users        *mongo.Collection
	appointments *mongo.Collection
	events       *mongo.Collection
}

func NewMongoRepository(database *mongo.Database) *MongoRepository {
	return &MongoRepository{
		database:     database,
		users:        database.Collection(db.UsersCollection),
		appointments: database.Collection(db.AppointmentsCollection),
		events:       database.Collection(db.EventsCollection),
	}
}

type userDoc struct {
	ID               string    `bson:"_id"`
	FirstName        string    `bson:"firstName"`
	LastName         string    `bson:"lastName"`
	Email            string    `bson:"email"`
	Role             string    `bson:"role"`
	DoctorDepartment string    `bson:"doctorDepartment,omitempty"`
	CreatedAt        time.Time `bson:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt"`
}

type doctorNameDoc struct {
	FirstName string `bson:"firstName"`
	LastName  string `bson:"lastName"`
}

type appointmentDoc struct {
	ID              string        `bson:"_id"`
	FirstName       string        `bson:"firstName"`
	LastName        string        `bson:"lastName"`
	Email           string        `bson:"email"`
	Phone           string        `bson:"phone"`
	NIC             string        `bson:"nic"`
	DOB             string        `bson:"dob"`
	Gender          string        `bson:"gender"`
	AppointmentDate string        `bson:"appointment_date"`
	AppointmentTime string        `bson:"appointment_time"`
	Department      string        `bson:"department"`
	Doctor          doctorNameDoc `bson:"doctor"`
	HasVisited      bool          `bson:"hasVisited"`
	Address         string        `bson:"address"`
	DoctorID        string        `bson:"doctorId"`
	PatientID       string        `bson:"patientId"`
	Status          string        `bson:"status"`
	CreatedAt       time.Time     `bson:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt"`
}

type eventDoc struct {
	EventType     string    `bson:"eventType"`
	AppointmentID string    `bson:"appointmentId,omitempty"`
	Payload       string    `bson:"payload,omitempty"`
	CreatedAt     time.Time `bson:"createdAt"`
}

// Helpers

func (d userDoc) toUser() (*User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("decode user id %q: %w", d.ID, err)
	}
	role, err := auth.ParseRole(d.Role)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:               id,
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		Email:            d.Email,
		Role:             role,
		DoctorDepartment: d.DoctorDepartment,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

func (d appointmentDoc) toAppointment() (*Appointment, error) {
	var ids [3]uuid.UUID
	for i, raw := range []string{d.ID, d.DoctorID, d.PatientID} {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("decode appointment id %q: %w", raw, err)
		}
		ids[i] = id
	}

	return &Appointment{
		ID:              ids[0],
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Email:           d.Email,
		Phone:           d.Phone,
		NIC:             d.NIC,
		DOB:             d.DOB,
		Gender:          d.Gender,
		AppointmentDate: d.AppointmentDate,
		AppointmentTime: d.AppointmentTime,
		Department:      d.Department,
		Doctor:          DoctorName{FirstName: d.Doctor.FirstName, LastName: d.Doctor.LastName},
		HasVisited:      d.HasVisited,
		Address:         d.Address,
		DoctorID:        ids[1],
		PatientID:       ids[2],
		Status:          d.Status,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

func newAppointmentDoc(a *Appointment) appointmentDoc {
	return appointmentDoc{
		ID:              a.ID.String(),
		FirstName:       a.FirstName,
		LastName:        a.LastName,
		Email:           a.Email,
		Phone:           a.Phone,
		NIC:             a.NIC,
		DOB:             a.DOB,
		Gender:          a.Gender,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		Department:      a.Department,
		Doctor:          doctorNameDoc{FirstName: a.Doctor.FirstName, LastName: a.Doctor.LastName},
		HasVisited:      a.HasVisited,
		Address:         a.Address,
		DoctorID:        a.DoctorID.String(),
		PatientID:       a.PatientID.String(),
		Status:          a.Status,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (r *MongoRepository) findUser(ctx context.Context, filter bson.M, notFound error) (*User, error) {
	var doc userDoc
	err := r.users.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, err
	}
	return doc.toUser()
}

// Interface methods

func (r *MongoRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.findUser(ctx, bson.M{"_id": id.String()}, ErrUserNotFound)
}

func (r *MongoRepository) FindDoctor(ctx context.Context, firstName, lastName, department string) (*User, error) {
	return r.findUser(ctx, bson.M{
		"firstName":        firstName,
		"lastName":         lastName,
		"role":             string(auth.RoleDoctor),
		"doctorDepartment": department,
	}, ErrDoctorNotFound)
}

func (r *MongoRepository) CreateUser(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := r.users.InsertOne(ctx, userDoc{
		ID:               u.ID.String(),
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Role:             string(u.Role),
		DoctorDepartment: u.DoctorDepartment,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *MongoRepository) SlotTaken(ctx context.Context, doctorID uuid.UUID, date, clock string) (bool, error) {
	n, err := r.appointments.CountDocuments(ctx, bson.M{
		"doctorId":         doctorID.String(),
		"appointment_date": date,
		"appointment_time": clock,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *MongoRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var doc appointmentDoc
	err := r.appointments.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return doc.toAppointment()
}

func (r *MongoRepository) ListAppointments(ctx context.Context) ([]Appointment, error) {
	cur, err := r.appointments.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var result []Appointment
	for cur.Next(ctx) {
		var doc appointmentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		a, err := doc.toAppointment()
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *MongoRepository) CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	created := *a
	created.ID = uuid.New()
	now := time.Now().UTC()
	created.CreatedAt, created.UpdatedAt = now, now

	if _, err := r.appointments.InsertOne(ctx, newAppointmentDoc(&created)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrSlotAlreadyBooked
		}
		return nil, err
	}
	return &created, nil
}

func (r *MongoRepository) UpdateAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	update := bson.M{"$set": bson.M{
		"firstName":        a.FirstName,
		"lastName":         a.LastName,
		"email":            a.Email,
		"phone":            a.Phone,
		"nic":              a.NIC,
		"dob":              a.DOB,
		"gender":           a.Gender,
		"appointment_date": a.AppointmentDate,
		"appointment_time": a.AppointmentTime,
		"department":       a.Department,
		"hasVisited":       a.HasVisited,
		"address":          a.Address,
		"status":           a.Status,
		"updatedAt":        time.Now().UTC(),
	}}

	var doc appointmentDoc
	err := r.appointments.FindOneAndUpdate(ctx,
		bson.M{"_id": a.ID.String()},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAppointmentNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrSlotAlreadyBooked
		}
		return nil, err
	}
	return doc.toAppointment()
}

func (r *MongoRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	res, err := r.appointments.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *MongoRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	doc := eventDoc{
		EventType: ev.EventType,
		Payload:   string(ev.Payload),
		CreatedAt: ev.CreatedAt,
	}
	if ev.AppointmentID != nil {
		doc.AppointmentID = ev.AppointmentID.String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if _, err := r.events.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.database.Client().Ping(ctx, readpref.Primary())
}
