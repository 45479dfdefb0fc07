package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/pet-calendar-backend/internal/domain"
	"github.com/tbourn/pet-calendar-backend/internal/jobs"
	"github.com/tbourn/pet-calendar-backend/internal/notify"
	"github.com/tbourn/pet-calendar-backend/internal/payments"
	"github.com/tbourn/pet-calendar-backend/internal/repo"
	"github.com/tbourn/pet-calendar-backend/internal/synth"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func seedCalendar(t *testing.T, db *gorm.DB, status domain.CalendarStatus) *domain.Calendar {
	t.Helper()
	ctx := context.Background()
	c, err := repo.CreateCalendar(ctx, db, "Buddy", domain.PetDog, "cGhvdG8=", "image/png")
	if err != nil {
		t.Fatalf("create calendar: %v", err)
	}
	path := []domain.CalendarStatus{domain.StatusGenerating, domain.StatusReady, domain.StatusPurchased}
	for _, st := range path {
		if c.Status == status {
			break
		}
		if st == domain.StatusPurchased {
			if _, err := repo.MarkPurchased(ctx, db, c.ID, "seed@example.com", "cs_seed"); err != nil {
				t.Fatalf("seed purchased: %v", err)
			}
		} else if err := repo.TransitionStatus(ctx, db, c.ID, st); err != nil {
			t.Fatalf("seed %s: %v", st, err)
		}
		c.Status = st
	}
	return c
}

// fakeSynth returns a fixed image unless failFor says otherwise.
type fakeSynth struct {
	mu      sync.Mutex
	prompts []string
	mimes   []string
	failFor map[int]error // keyed by call number (1-based)
	empty   map[int]bool
	onCall  func(n int)
}

func (f *fakeSynth) Edit(_ context.Context, req synth.EditRequest) (synth.Image, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, req.Prompt)
	f.mimes = append(f.mimes, req.MimeType)
	n := len(f.prompts)
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall(n)
	}
	if err := f.failFor[n]; err != nil {
		return synth.Image{}, err
	}
	if f.empty[n] {
		return synth.Image{}, nil
	}
	return synth.Image{Bytes: []byte("img"), MimeType: "image/png"}, nil
}

type fakeStore struct {
	prepareErr error
	putErr     error
	puts       []int
}

func (f *fakeStore) Prepare(context.Context, uint) error { return f.prepareErr }

func (f *fakeStore) Put(_ context.Context, calendarID uint, month int, _ []byte, _ string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.puts = append(f.puts, month)
	return fmt.Sprintf("/generated/%d/%d.png", calendarID, month), nil
}

type fakeQueue struct {
	err  error
	jobs []jobs.Job
}

func (f *fakeQueue) Enqueue(_ context.Context, j jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, j)
	return nil
}

type fakeGateway struct {
	sessions  map[string]*payments.Session
	event     *payments.Event
	parseErr  error
	checkouts []payments.CheckoutRequest
}

func (f *fakeGateway) CreateCheckout(_ context.Context, req payments.CheckoutRequest) (*payments.Checkout, error) {
	f.checkouts = append(f.checkouts, req)
	return &payments.Checkout{SessionID: "cs_new", URL: "https://checkout.example/cs_new"}, nil
}

func (f *fakeGateway) GetSession(_ context.Context, id string) (*payments.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such session %q", id)
	}
	return s, nil
}

func (f *fakeGateway) ParseWebhook([]byte, string) (*payments.Event, error) {
	if f.parseErr != nil {
		return nil, f.parseErr
	}
	return f.event, nil
}

func (f *fakeGateway) PublishableKey() string { return "pk_test_123" }

type fakeNotifier struct {
	sent []notify.Receipt
}

func (f *fakeNotifier) SendReceipt(_ context.Context, r notify.Receipt) error {
	f.sent = append(f.sent, r)
	return nil
}
