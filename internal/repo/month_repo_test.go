package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/pet-calendar-backend/internal/domain"
)

func TestMonths_CreateMarkListCount(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	c, _ := CreateCalendar(ctx, db, "Buddy", domain.PetDog, "x", "image/png")

	// insert out of order to prove ListMonths sorts
	var ids = map[int]uint{}
	themes := domain.Months()
	for _, n := range []int{3, 1, 2} {
		theme := themes[n-1]
		m, err := CreateMonth(ctx, db, c.ID, n, theme.Holiday)
		if err != nil {
			t.Fatalf("CreateMonth(%d): %v", n, err)
		}
		if m.Generated || m.ImageURL != nil {
			t.Fatalf("new month must be ungenerated: %+v", m)
		}
		ids[n] = m.ID
	}
	if _, err := CreateMonth(ctx, db, c.ID, 1, "dup"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for repeated month, got %v", err)
	}

	if err := MarkMonthGenerated(ctx, db, ids[2], "/generated/1/2.png"); err != nil {
		t.Fatalf("MarkMonthGenerated: %v", err)
	}
	if err := MarkMonthGenerated(ctx, db, 9999, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	ms, err := ListMonths(ctx, db, c.ID)
	if err != nil || len(ms) != 3 {
		t.Fatalf("ListMonths: %d %v", len(ms), err)
	}
	for i, m := range ms {
		if m.Month != i+1 {
			t.Fatalf("months not sorted: %+v", ms)
		}
	}
	if !ms[1].Generated || ms[1].ImageURL == nil || *ms[1].ImageURL != "/generated/1/2.png" {
		t.Fatalf("month 2 not marked: %+v", ms[1])
	}

	n, err := CountGeneratedMonths(ctx, db, c.ID)
	if err != nil || n != 1 {
		t.Fatalf("CountGeneratedMonths = %d, %v", n, err)
	}

	v, err := CalendarStats(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("CalendarStats: %v", err)
	}
	if v.Months != 3 || v.Generated != 1 || v.Status != domain.StatusPending || v.UpdatedAt.IsZero() {
		t.Fatalf("unexpected version: %+v", v)
	}
	if _, err := CalendarStats(ctx, db, 4242); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
