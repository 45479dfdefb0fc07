// Package services – CalendarService
//
// CalendarService validates creation requests, persists new calendars,
// hands them to the generation queue and serves the read-only progress
// projection that clients poll.
package services

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/pet-calendar-backend/internal/domain"
	"github.com/tbourn/pet-calendar-backend/internal/jobs"
	"github.com/tbourn/pet-calendar-backend/internal/observability"
	"github.com/tbourn/pet-calendar-backend/internal/repo"
)

// IdempotencyScopeCreate scopes Idempotency-Key records of calendar creation.
const IdempotencyScopeCreate = "calendars.create"

// Enqueuer submits generation jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, j jobs.Job) error
}

// CreateInput is a raw creation request.
type CreateInput struct {
	PetName        string
	PetType        string
	Photo          []byte
	IdempotencyKey string
}

// Progress is the poll view of a calendar. The photo payload is never part
// of it.
type Progress struct {
	domain.Calendar
	Months         []domain.CalendarMonth `json:"months"`
	GeneratedCount int                    `json:"generatedCount"`
	TotalMonths    int                    `json:"totalMonths"`
}

// MonthsView is the month list with its generated count.
type MonthsView struct {
	Months         []domain.CalendarMonth `json:"months"`
	GeneratedCount int                    `json:"generatedCount"`
}

// CalendarService provides calendar creation and progress reads.
type CalendarService struct {
	DB    *gorm.DB
	Queue Enqueuer

	// MaxPhotoBytes caps uploaded photos; <= 0 disables the check.
	MaxPhotoBytes int64
	// IdempotencyTTL is how long a creation can be replayed by key.
	IdempotencyTTL time.Duration
}

// NewCalendarService constructs a CalendarService with default limits.
func NewCalendarService(db *gorm.DB, q Enqueuer) *CalendarService {
	return &CalendarService{
		DB:             db,
		Queue:          q,
		MaxPhotoBytes:  10 << 20,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Create validates the request, stores a pending calendar and enqueues its
// generation. When IdempotencyKey matches an earlier successful creation the
// earlier calendar is returned with replayed=true and nothing is written.
func (s *CalendarService) Create(ctx context.Context, in CreateInput) (cal *domain.Calendar, replayed bool, err error) {
	ctx, span := otel.Tracer("services/CalendarService").Start(ctx, "Create")
	defer span.End()

	if in.IdempotencyKey != "" {
		if prev := s.replay(ctx, in.IdempotencyKey); prev != nil {
			span.SetAttributes(attribute.Bool("idempotency.replayed", true))
			return prev, true, nil
		}
	}

	name, petType, mime, err := s.validate(in)
	if err != nil {
		return nil, false, err
	}

	cal, err = repo.CreateCalendar(ctx, s.DB, name, petType, base64.StdEncoding.EncodeToString(in.Photo), mime)
	if err != nil {
		return nil, false, err
	}
	span.SetAttributes(attribute.Int("calendar.id", int(cal.ID)))

	if err := s.Queue.Enqueue(ctx, jobs.Job{CalendarID: cal.ID, EnqueuedAt: time.Now().UTC()}); err != nil {
		switch {
		case errors.Is(err, jobs.ErrQueueFull):
			observability.ObserveEnqueue("full")
		default:
			observability.ObserveEnqueue("error")
		}
		return nil, false, errors.Join(ErrQueueUnavailable, err)
	}
	observability.ObserveEnqueue("ok")

	if in.IdempotencyKey != "" {
		// best effort; a lost race only means the key is not replayable
		_, _ = repo.CreateIdempotency(ctx, s.DB, IdempotencyScopeCreate, in.IdempotencyKey, cal.ID, 200, s.IdempotencyTTL)
	}
	return cal, false, nil
}

func (s *CalendarService) replay(ctx context.Context, key string) *domain.Calendar {
	rec, err := repo.GetIdempotency(ctx, s.DB, IdempotencyScopeCreate, key, time.Now().UTC())
	if err != nil || rec == nil {
		return nil
	}
	prev, err := repo.GetCalendarSummary(ctx, s.DB, rec.CalendarID)
	if err != nil {
		return nil
	}
	return prev
}

// validate applies creation rules in the order clients expect their errors:
// photo presence first, then name and type, then content checks.
func (s *CalendarService) validate(in CreateInput) (string, domain.PetType, string, error) {
	if len(in.Photo) == 0 {
		return "", "", "", ErrPhotoRequired
	}
	name := normalizePetName(in.PetName)
	if name == "" || in.PetType == "" {
		return "", "", "", ErrPetDetailsRequired
	}
	petType, ok := domain.ParsePetType(in.PetType)
	if !ok {
		return "", "", "", ErrInvalidPetType
	}
	if petNameTooLong(name) {
		return "", "", "", ErrPetNameTooLong
	}
	if s.MaxPhotoBytes > 0 && int64(len(in.Photo)) > s.MaxPhotoBytes {
		return "", "", "", ErrPhotoTooLarge
	}
	mime, err := DetectPhoto(in.Photo)
	if err != nil {
		return "", "", "", err
	}
	return name, petType, mime, nil
}

// Progress returns the projection polled by clients.
func (s *CalendarService) Progress(ctx context.Context, id uint) (*Progress, error) {
	ctx, span := otel.Tracer("services/CalendarService").Start(ctx, "Progress",
		trace.WithAttributes(attribute.Int("calendar.id", int(id))),
	)
	defer span.End()
	return project(ctx, s.DB, id)
}

// Months returns the sorted month list and its generated count.
func (s *CalendarService) Months(ctx context.Context, id uint) (*MonthsView, error) {
	if _, err := repo.GetCalendarSummary(ctx, s.DB, id); err != nil {
		return nil, mapNotFound(err)
	}
	months, err := repo.ListMonths(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	return &MonthsView{Months: months, GeneratedCount: countGenerated(months)}, nil
}

// Version returns the state tuple that identifies the current projection,
// used for conditional GETs.
func (s *CalendarService) Version(ctx context.Context, id uint) (*repo.CalendarVersion, error) {
	v, err := repo.CalendarStats(ctx, s.DB, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return v, nil
}

// project reads a calendar and its months. Months come back sorted by
// month number and GeneratedCount is derived from the same rows.
func project(ctx context.Context, db *gorm.DB, id uint) (*Progress, error) {
	cal, err := repo.GetCalendarSummary(ctx, db, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	months, err := repo.ListMonths(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return &Progress{
		Calendar:       *cal,
		Months:         months,
		GeneratedCount: countGenerated(months),
		TotalMonths:    domain.TotalMonths,
	}, nil
}

func countGenerated(months []domain.CalendarMonth) int {
	n := 0
	for _, m := range months {
		if m.Generated {
			n++
		}
	}
	return n
}

func mapNotFound(err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrCalendarNotFound
	}
	return err
}
