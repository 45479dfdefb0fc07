package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tbourn/pet-calendar-backend/internal/domain"
	"github.com/tbourn/pet-calendar-backend/internal/repo"
	"github.com/tbourn/pet-calendar-backend/internal/synth"
)

func newWorkflow(t *testing.T, s *fakeSynth, st *fakeStore) (*Workflow, *domain.Calendar) {
	t.Helper()
	db := newSvcDB(t)
	cal := seedCalendar(t, db, domain.StatusPending)
	return &Workflow{DB: db, Synth: s, Store: st, Log: zerolog.Nop()}, cal
}

func inputFor(cal *domain.Calendar) GenerationInput {
	return GenerationInput{CalendarID: cal.ID, PetName: cal.PetName, PetType: cal.PetType, Photo: []byte("photo"), PhotoMime: "image/png"}
}

func TestWorkflow_Run_AllMonthsGenerated(t *testing.T) {
	fs, st := &fakeSynth{}, &fakeStore{}
	w, cal := newWorkflow(t, fs, st)
	ctx := context.Background()

	rep, err := w.Run(ctx, inputFor(cal))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Generated() != domain.TotalMonths || len(rep.FailedMonths()) != 0 {
		t.Fatalf("report generated=%d failed=%v", rep.Generated(), rep.FailedMonths())
	}

	got, _ := repo.GetCalendarSummary(ctx, w.DB, cal.ID)
	if got.Status != domain.StatusReady {
		t.Fatalf("status = %s; want ready", got.Status)
	}
	months, _ := repo.ListMonths(ctx, w.DB, cal.ID)
	if len(months) != domain.TotalMonths {
		t.Fatalf("months = %d; want 12", len(months))
	}
	for i, m := range months {
		if m.Month != i+1 {
			t.Fatalf("months[%d].Month = %d", i, m.Month)
		}
		if !m.Generated || m.ImageURL == nil || *m.ImageURL == "" {
			t.Fatalf("month %d not generated: %+v", m.Month, m)
		}
	}
	for i, month := range st.puts {
		if month != i+1 {
			t.Fatalf("puts out of order: %v", st.puts)
		}
	}
}

func TestWorkflow_Run_SingleMonthFailureContinues(t *testing.T) {
	const k = 5
	fs := &fakeSynth{failFor: map[int]error{k: errors.New("upstream 500")}}
	w, cal := newWorkflow(t, fs, &fakeStore{})
	ctx := context.Background()

	rep, err := w.Run(ctx, inputFor(cal))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f := rep.FailedMonths(); len(f) != 1 || f[0] != k {
		t.Fatalf("failed months = %v; want [%d]", f, k)
	}

	got, _ := repo.GetCalendarSummary(ctx, w.DB, cal.ID)
	if got.Status != domain.StatusReady {
		t.Fatalf("status = %s; want ready", got.Status)
	}
	months, _ := repo.ListMonths(ctx, w.DB, cal.ID)
	if len(months) != domain.TotalMonths {
		t.Fatalf("months = %d; want 12", len(months))
	}
	for _, m := range months {
		if m.Month == k {
			if m.Generated || m.ImageURL != nil {
				t.Fatalf("month %d should be ungenerated: %+v", k, m)
			}
			continue
		}
		if !m.Generated {
			t.Fatalf("month %d should be generated", m.Month)
		}
	}
}

func TestWorkflow_Run_MissingPayloadIsFailure(t *testing.T) {
	fs := &fakeSynth{empty: map[int]bool{1: true}}
	w, cal := newWorkflow(t, fs, &fakeStore{})

	rep, err := w.Run(context.Background(), inputFor(cal))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Generated() != 11 || !errors.Is(rep.Results[0].Err, synth.ErrNoImage) {
		t.Fatalf("generated=%d first=%v", rep.Generated(), rep.Results[0].Err)
	}
}

func TestWorkflow_Run_PrepareFailureRecordsMonths(t *testing.T) {
	fs := &fakeSynth{}
	w, cal := newWorkflow(t, fs, &fakeStore{prepareErr: errors.New("disk full")})
	ctx := context.Background()

	rep, err := w.Run(ctx, inputFor(cal))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Generated() != 0 || len(fs.prompts) != 0 {
		t.Fatalf("expected no synthesis, got generated=%d calls=%d", rep.Generated(), len(fs.prompts))
	}
	months, _ := repo.ListMonths(ctx, w.DB, cal.ID)
	if len(months) != domain.TotalMonths {
		t.Fatalf("months = %d; want 12", len(months))
	}
	got, _ := repo.GetCalendarSummary(ctx, w.DB, cal.ID)
	if got.Status != domain.StatusReady {
		t.Fatalf("status = %s; want ready", got.Status)
	}
}

func TestWorkflow_Run_RejectsNonPending(t *testing.T) {
	db := newSvcDB(t)
	cal := seedCalendar(t, db, domain.StatusReady)
	w := &Workflow{DB: db, Synth: &fakeSynth{}, Store: &fakeStore{}, Log: zerolog.Nop()}

	if _, err := w.Run(context.Background(), inputFor(cal)); !errors.Is(err, repo.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	n, _ := repo.CountGeneratedMonths(context.Background(), db, cal.ID)
	if n != 0 {
		t.Fatalf("no months should be generated")
	}
}

func TestWorkflow_Run_UnknownCalendar(t *testing.T) {
	w := &Workflow{DB: newSvcDB(t), Synth: &fakeSynth{}, Store: &fakeStore{}, Log: zerolog.Nop()}
	if _, err := w.Run(context.Background(), GenerationInput{CalendarID: 999}); !errors.Is(err, ErrCalendarNotFound) {
		t.Fatalf("expected ErrCalendarNotFound, got %v", err)
	}
}

func TestWorkflow_Run_InterruptedLeavesGenerating(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fs := &fakeSynth{onCall: func(n int) {
		if n == 3 {
			cancel()
		}
	}}
	w, cal := newWorkflow(t, fs, &fakeStore{})

	if _, err := w.Run(ctx, inputFor(cal)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	got, _ := repo.GetCalendarSummary(context.Background(), w.DB, cal.ID)
	if got.Status != domain.StatusGenerating {
		t.Fatalf("status = %s; want generating", got.Status)
	}
	if len(fs.prompts) != 3 {
		t.Fatalf("synth calls = %d; want 3", len(fs.prompts))
	}
}

func TestWorkflow_Handle_LoadsPhotoAndBuildsPrompts(t *testing.T) {
	db := newSvcDB(t)
	ctx := context.Background()
	photo := pngBytes(t)
	cal, err := repo.CreateCalendar(ctx, db, "Mittens", domain.PetCat, base64.StdEncoding.EncodeToString(photo), "image/png")
	if err != nil {
		t.Fatal(err)
	}
	fs := &fakeSynth{}
	w := &Workflow{DB: db, Synth: fs, Store: &fakeStore{}, Log: zerolog.Nop()}

	if err := w.Handle(ctx, cal.ID); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(fs.prompts) != domain.TotalMonths {
		t.Fatalf("prompts = %d", len(fs.prompts))
	}
	for i, m := range domain.Months() {
		p := fs.prompts[i]
		if !strings.Contains(p, "a cat named Mittens "+m.Scene) {
			t.Fatalf("prompt %d = %q", i+1, p)
		}
		if fs.mimes[i] != "image/png" {
			t.Fatalf("mime = %q", fs.mimes[i])
		}
	}
	if err := w.Handle(ctx, 12345); !errors.Is(err, ErrCalendarNotFound) {
		t.Fatalf("expected ErrCalendarNotFound, got %v", err)
	}
}
