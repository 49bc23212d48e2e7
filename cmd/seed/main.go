package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-appointments/internal/appointment"
	"github.com/hackgods/hospital-appointments/internal/auth"
	"github.com/hackgods/hospital-appointments/internal/config"
)

const (
	doctorsPerDepartment = 3
	patientCount         = 50
	tokenTTL             = 24 * time.Hour
)

var departments = []string{
	"Pediatrics",
	"Orthopedics",
	"Cardiology",
	"Neurology",
	"Oncology",
	"Radiology",
	"Physical Therapy",
	"Dermatology",
	"ENT",
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	logger.Info().Msg("seed starting")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo, closeStore, err := appointment.OpenRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	defer closeStore()

	gofakeit.Seed(time.Now().UnixNano())

	admin, err := createUser(ctx, repo, auth.RoleAdmin, "")
	if err != nil {
		logger.Fatal().Err(err).Msg("seed admin")
	}

	if err := seedDoctors(ctx, repo, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}

	var patient *appointment.User
	for i := 0; i < patientCount; i++ {
		u, err := createUser(ctx, repo, auth.RolePatient, "")
		if err != nil {
			logger.Fatal().Err(err).Msg("seed patients")
		}
		if patient == nil {
			patient = u
		}
	}
	logger.Info().Int("count", patientCount).Msg("patients seeded")

	for _, u := range []*appointment.User{admin, patient} {
		tok, err := auth.MakeToken(u.ID, cfg.JWTSecret, tokenTTL)
		if err != nil {
			logger.Fatal().Err(err).Msg("sign token")
		}
		fmt.Printf("%s\t%s\t%s\n", u.Role, u.ID, tok)
	}

	logger.Info().Msg("seed complete")
}

func seedDoctors(ctx context.Context, repo appointment.Repository, logger zerolog.Logger) error {
	for _, dept := range departments {
		for i := 0; i < doctorsPerDepartment; i++ {
			u, err := createUser(ctx, repo, auth.RoleDoctor, dept)
			if err != nil {
				return err
			}
			logger.Debug().Str("department", dept).Str("doctor", u.FirstName+" "+u.LastName).Msg("doctor created")
		}
	}
	logger.Info().Int("count", len(departments)*doctorsPerDepartment).Msg("doctors seeded")
	return nil
}

func createUser(ctx context.Context, repo appointment.Repository, role auth.Role, department string) (*appointment.User, error) {
	u := &appointment.User{
		FirstName:        gofakeit.FirstName(),
		LastName:         gofakeit.LastName(),
		Email:            gofakeit.Email(),
		Role:             role,
		DoctorDepartment: department,
	}
	if err := repo.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create %s: %w", role, err)
	}
	return u, nil
}
