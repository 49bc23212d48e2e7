package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/hospital-appointments/internal/appointment"
	"github.com/hackgods/hospital-appointments/internal/auth"
	"github.com/hackgods/hospital-appointments/internal/config"
)

const simDepartment = "Cardiology"

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	UpdateRatio  float64
	ListRatio    float64
	Doctors      int
	Patients     int
	Days         int
}

// DataPool holds the users the run books as, and the appointments it created.
type DataPool struct {
	Doctors       []*appointment.User
	PatientTokens []string
	AdminToken    string

	mu           sync.RWMutex
	appointments []uuid.UUID
}

func (dp *DataPool) AddAppointment(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) RandomAppointment(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return uuid.Nil, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95, max time.Duration) {
	om.mu.Lock()
	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	n := len(latencies)
	return sum / time.Duration(n), latencies[n*50/100], latencies[min(n*95/100, n-1)], latencies[n-1]
}

type Metrics struct {
	Booking OperationMetrics
	Update  OperationMetrics
	List    OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	logger  zerolog.Logger
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	baseCfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	cfg := loadConfig()
	if cfg.Workers <= 0 || cfg.Duration <= 0 || cfg.Doctors <= 0 || cfg.Patients <= 0 || cfg.Days <= 0 {
		logger.Fatal().Interface("config", cfg).Msg("SIM_WORKERS, SIM_DURATION, SIM_DOCTORS, SIM_PATIENTS and SIM_DAYS must be > 0")
	}

	logger.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("booking", cfg.BookingRatio).
		Float64("update", cfg.UpdateRatio).
		Float64("list", cfg.ListRatio).
		Msg("simulator starting")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, closeStore, err := appointment.OpenRepository(ctx, baseCfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open store")
	}
	defer closeStore()

	pool, err := buildDataPool(ctx, repo, baseCfg.JWTSecret, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("build data pool")
	}
	logger.Info().Int("doctors", len(pool.Doctors)).Int("patients", len(pool.PatientTokens)).Msg("users ready")

	sim := &Simulator{
		config: cfg,
		pool:   pool,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.6),
		UpdateRatio:  getFloat("SIM_UPDATE_RATIO", 0.2),
		ListRatio:    getFloat("SIM_LIST_RATIO", 0.2),
		Doctors:      getInt("SIM_DOCTORS", 5),
		Patients:     getInt("SIM_PATIENTS", 100),
		Days:         getInt("SIM_DAYS", 3),
	}

	total := cfg.BookingRatio + cfg.UpdateRatio + cfg.ListRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.UpdateRatio /= total
		cfg.ListRatio /= total
	}
	return cfg
}

// buildDataPool registers a fresh admin, doctors and patients for this run
// and signs a token for each caller.
func buildDataPool(ctx context.Context, repo appointment.Repository, secret string, cfg SimConfig) (*DataPool, error) {
	run := uuid.NewString()[:8]
	dp := &DataPool{}

	newUser := func(role auth.Role, first, dept string) (*appointment.User, error) {
		u := &appointment.User{
			FirstName:        first,
			LastName:         "Sim" + run,
			Email:            fmt.Sprintf("%s.%s@sim.local", strings.ToLower(first), uuid.NewString()[:8]),
			Role:             role,
			DoctorDepartment: dept,
		}
		if err := repo.CreateUser(ctx, u); err != nil {
			return nil, fmt.Errorf("create %s: %w", role, err)
		}
		return u, nil
	}

	admin, err := newUser(auth.RoleAdmin, "Admin", "")
	if err != nil {
		return nil, err
	}
	if dp.AdminToken, err = auth.MakeToken(admin.ID, secret, cfg.Duration+time.Hour); err != nil {
		return nil, err
	}

	for i := 0; i < cfg.Doctors; i++ {
		d, err := newUser(auth.RoleDoctor, "Doctor"+strconv.Itoa(i), simDepartment)
		if err != nil {
			return nil, err
		}
		dp.Doctors = append(dp.Doctors, d)
	}

	for i := 0; i < cfg.Patients; i++ {
		p, err := newUser(auth.RolePatient, "Patient"+strconv.Itoa(i), "")
		if err != nil {
			return nil, err
		}
		tok, err := auth.MakeToken(p.ID, secret, cfg.Duration+time.Hour)
		if err != nil {
			return nil, err
		}
		dp.PatientTokens = append(dp.PatientTokens, tok)
	}

	return dp, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}
	wg.Wait()
	s.logger.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < s.config.BookingRatio:
			s.doBooking(ctx, rng)
		case r < s.config.BookingRatio+s.config.UpdateRatio:
			s.doUpdate(ctx, rng)
		default:
			s.doList(ctx)
		}
	}
}

// doBooking picks from a small slot space on purpose so workers collide.
func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	doctor := s.pool.Doctors[rng.Intn(len(s.pool.Doctors))]
	day := time.Now().AddDate(0, 0, 1+rng.Intn(s.config.Days))
	doctorID := doctor.ID

	body := appointment.BookingRequest{
		FirstName:       "Sim",
		LastName:        "Patient",
		Email:           "sim.patient@sim.local",
		Phone:           "03000000000",
		NIC:             "0000000000000",
		DOB:             "1990-01-01",
		Gender:          "Male",
		AppointmentDate: day.Format("2006-01-02"),
		AppointmentTime: fmt.Sprintf("%02d:00", 9+rng.Intn(8)),
		Department:      simDepartment,
		DoctorFirstName: doctor.FirstName,
		DoctorLastName:  doctor.LastName,
		DoctorID:        &doctorID,
		Address:         "Simulation Ward",
	}
	token := s.pool.PatientTokens[rng.Intn(len(s.pool.PatientTokens))]

	var out struct {
		Appointment struct {
			ID uuid.UUID `json:"id"`
		} `json:"appointment"`
		Error string `json:"error"`
	}
	status, latency, err := s.call(ctx, http.MethodPost, "/api/v1/appointments", token, body, &out)
	if ctx.Err() != nil {
		return
	}

	success := err == nil && status == http.StatusCreated
	if success && out.Appointment.ID != uuid.Nil {
		s.pool.AddAppointment(out.Appointment.ID)
	}
	conflict := out.Error == "slot_already_booked" || out.Error == "slot_being_booked"
	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doUpdate(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomAppointment(rng)
	if !ok {
		return
	}
	statuses := []string{"Accepted", "Rejected", "Pending"}
	body := map[string]string{"status": statuses[rng.Intn(len(statuses))]}

	status, latency, err := s.call(ctx, http.MethodPut, "/api/v1/appointments/"+id.String(), s.pool.AdminToken, body, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Update.Record(latency, err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doList(ctx context.Context) {
	status, latency, err := s.call(ctx, http.MethodGet, "/api/v1/appointments", s.pool.AdminToken, nil, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.List.Record(latency, err == nil && status == http.StatusOK, false)
}

func (s *Simulator) call(ctx context.Context, method, path, token string, in, out any) (int, time.Duration, error) {
	var buf bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&buf).Encode(in); err != nil {
			return 0, 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, &buf)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, latency, err
	}
	defer resp.Body.Close()

	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, latency, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n\n", s.config.Workers)

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Status update", &s.metrics.Update)
	printOperationReport("Admin list", &s.metrics.List)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}
	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)
	avg, p50, p95, max := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s p50=%s p95=%s max=%s\n\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond),
		p95.Round(time.Millisecond), max.Round(time.Millisecond))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
