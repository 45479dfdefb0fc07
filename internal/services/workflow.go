// Package services – Workflow
//
// Workflow turns one pending calendar into twelve best-effort month images.
// Months are attempted strictly in order 1..12 on the calling goroutine.
// A failed month is recorded in the run's Report and skipped; it never
// aborts the batch, and the calendar always ends the run as ready.
//
// A calendar whose run is interrupted (process exit, cancelled context)
// stays in generating. There is no resume logic.
package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/pet-calendar-backend/internal/artifacts"
	"github.com/tbourn/pet-calendar-backend/internal/domain"
	"github.com/tbourn/pet-calendar-backend/internal/observability"
	"github.com/tbourn/pet-calendar-backend/internal/repo"
	"github.com/tbourn/pet-calendar-backend/internal/synth"
)

// Synthesizer produces one edited image from a photo and a prompt.
type Synthesizer interface {
	Edit(ctx context.Context, req synth.EditRequest) (synth.Image, error)
}

// GenerationInput is everything a run needs about the calendar.
type GenerationInput struct {
	CalendarID uint
	PetName    string
	PetType    domain.PetType
	Photo      []byte
	PhotoMime  string
}

// Result is the outcome of one month attempt.
type Result struct {
	Month    int
	Holiday  string
	ImageURL string
	Err      error
}

// OK reports whether the month produced an image.
func (r Result) OK() bool { return r.Err == nil }

// Report aggregates the twelve month results of a run.
type Report struct {
	CalendarID uint
	Results    []Result
	Duration   time.Duration
}

// Generated returns how many months produced an image.
func (r *Report) Generated() int {
	n := 0
	for _, res := range r.Results {
		if res.OK() {
			n++
		}
	}
	return n
}

// FailedMonths lists the month numbers that did not produce an image.
func (r *Report) FailedMonths() []int {
	var out []int
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res.Month)
		}
	}
	return out
}

// Workflow runs calendar generation.
type Workflow struct {
	DB    *gorm.DB
	Synth Synthesizer
	Store artifacts.Store
	Log   zerolog.Logger
}

// Handle loads a calendar and runs generation for it. Its signature matches
// jobs.HandlerFunc so it can be handed to a worker pool.
func (w *Workflow) Handle(ctx context.Context, calendarID uint) error {
	cal, err := repo.GetCalendar(ctx, w.DB, calendarID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCalendarNotFound
		}
		return err
	}
	photo, err := base64.StdEncoding.DecodeString(cal.PhotoData)
	if err != nil {
		return fmt.Errorf("decode photo for calendar %d: %w", calendarID, err)
	}

	rep, err := w.Run(ctx, GenerationInput{
		CalendarID: cal.ID,
		PetName:    cal.PetName,
		PetType:    cal.PetType,
		Photo:      photo,
		PhotoMime:  cal.PhotoMime,
	})
	if err != nil {
		return err
	}

	w.Log.Info().
		Uint("calendar_id", rep.CalendarID).
		Int("generated", rep.Generated()).
		Ints("failed_months", rep.FailedMonths()).
		Dur("duration", rep.Duration).
		Msg("calendar generation finished")
	return nil
}

// Run executes the generation sequence for a calendar that is pending.
// An error is returned only when the run could not start (the calendar is
// missing or not pending) or was interrupted by ctx; per-month failures are
// reported in the Report instead.
func (w *Workflow) Run(ctx context.Context, in GenerationInput) (*Report, error) {
	tr := otel.Tracer("services/Workflow")
	ctx, span := tr.Start(ctx, "Run",
		trace.WithAttributes(attribute.Int("calendar.id", int(in.CalendarID))),
	)
	defer span.End()

	lg := w.Log.With().Uint("calendar_id", in.CalendarID).Logger()

	if err := repo.TransitionStatus(ctx, w.DB, in.CalendarID, domain.StatusGenerating); err != nil {
		span.SetStatus(codes.Error, "start")
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrCalendarNotFound
		}
		return nil, fmt.Errorf("start generation for calendar %d: %w", in.CalendarID, err)
	}

	done := observability.StartGeneration()
	defer done()
	start := time.Now()

	prepErr := w.Store.Prepare(ctx, in.CalendarID)
	if prepErr != nil {
		lg.Error().Err(prepErr).Msg("artifact storage unavailable, months will be recorded without images")
	}

	rep := &Report{CalendarID: in.CalendarID, Results: make([]Result, 0, domain.TotalMonths)}
	for _, m := range domain.Months() {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "interrupted")
			lg.Warn().Int("month", m.Month).Msg("generation interrupted, calendar left generating")
			return rep, err
		}

		res := w.month(ctx, in, m, prepErr)
		if res.OK() {
			observability.ObserveMonth(observability.OutcomeGenerated)
		} else {
			observability.ObserveMonth(observability.OutcomeFailed)
			lg.Error().Err(res.Err).
				Int("month", m.Month).
				Str("holiday", m.Holiday).
				Msg("month generation failed")
		}
		rep.Results = append(rep.Results, res)
	}

	if err := repo.TransitionStatus(ctx, w.DB, in.CalendarID, domain.StatusReady); err != nil {
		span.SetStatus(codes.Error, "finish")
		return rep, fmt.Errorf("finish generation for calendar %d: %w", in.CalendarID, err)
	}
	rep.Duration = time.Since(start)
	span.SetAttributes(attribute.Int("calendar.generated", rep.Generated()))
	return rep, nil
}

// month creates the month record and attempts synthesis for it. The record
// exists even when synthesis fails.
func (w *Workflow) month(ctx context.Context, in GenerationInput, m domain.MonthTheme, prepErr error) Result {
	ctx, span := otel.Tracer("services/Workflow").Start(ctx, "Month",
		trace.WithAttributes(attribute.Int("month", m.Month)),
	)
	defer span.End()

	res := Result{Month: m.Month, Holiday: m.Holiday}
	fail := func(err error) Result {
		span.RecordError(err)
		span.SetStatus(codes.Error, "month failed")
		res.Err = err
		return res
	}

	rec, err := repo.CreateMonth(ctx, w.DB, in.CalendarID, m.Month, m.Holiday)
	if err != nil {
		return fail(fmt.Errorf("create month record: %w", err))
	}
	if prepErr != nil {
		return fail(fmt.Errorf("prepare storage: %w", prepErr))
	}

	img, err := w.Synth.Edit(ctx, synth.EditRequest{
		Image:    in.Photo,
		MimeType: in.PhotoMime,
		Prompt:   BuildPrompt(in.PetName, in.PetType, m.Scene),
	})
	if err != nil {
		return fail(fmt.Errorf("synthesize: %w", err))
	}
	if len(img.Bytes) == 0 {
		return fail(synth.ErrNoImage)
	}

	url, err := w.Store.Put(ctx, in.CalendarID, m.Month, img.Bytes, img.MimeType)
	if err != nil {
		return fail(fmt.Errorf("store image: %w", err))
	}
	if err := repo.MarkMonthGenerated(ctx, w.DB, rec.ID, url); err != nil {
		return fail(fmt.Errorf("mark generated: %w", err))
	}
	res.ImageURL = url
	return res
}
