package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	UsersCollection        = "users"
	AppointmentsCollection = "appointments"
	EventsCollection       = "event_logs"
)

// ConnectMongo dials the cluster and returns a handle to the named database.
func ConnectMongo(ctx context.Context, uri, dbName string, pool PoolOptions) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second)
	if pool.MaxConns > 0 {
		opts.SetMaxPoolSize(uint64(pool.MaxConns))
	}
	if pool.MinConns > 0 {
		opts.SetMinPoolSize(uint64(pool.MinConns))
	}
	if pool.MaxConnIdleTime > 0 {
		opts.SetMaxConnIdleTime(pool.MaxConnIdleTime)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, client.Database(dbName), nil
}

// EnsureMongoIndexes creates the slot uniqueness index and the doctor lookup index.
func EnsureMongoIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(AppointmentsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "doctorId", Value: 1},
			{Key: "appointment_date", Value: 1},
			{Key: "appointment_time", Value: 1},
		},
		Options: options.Index().SetName("appointments_slot_key").SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create appointment slot index: %w", err)
	}

	_, err = database.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "firstName", Value: 1},
				{Key: "lastName", Value: 1},
				{Key: "role", Value: 1},
				{Key: "doctorDepartment", Value: 1},
			},
			Options: options.Index().SetName("users_doctor_lookup"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("users_email").SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	return nil
}
