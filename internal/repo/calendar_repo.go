// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Calendar
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Error semantics:
//   - When a calendar is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - A status write that would move a calendar backwards or skip a state
//     returns ErrInvalidTransition and leaves the row untouched.
//   - On other DB errors the raw gorm error is propagated.
//
// Status writes are conditional updates (UPDATE ... WHERE status IN (...)),
// so two writers racing on the same row can never regress it: a late
// "ready" cannot overwrite "purchased" and vice versa.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/pet-calendar-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrInvalidTransition is returned when a status update is not allowed from
// the calendar's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// calendarColumns lists every column except the photo payload.
var calendarColumns = []string{
	"id", "pet_name", "pet_type", "photo_mime", "status",
	"customer_email", "stripe_session_id", "created_at", "updated_at",
}

// CreateCalendar inserts a new pending calendar. photoData is the base64
// encoded source photo.
func CreateCalendar(ctx context.Context, db *gorm.DB, petName string, petType domain.PetType, photoData, photoMime string) (*domain.Calendar, error) {
	now := time.Now().UTC()
	c := &domain.Calendar{
		PetName:   petName,
		PetType:   petType,
		PhotoData: photoData,
		PhotoMime: photoMime,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetCalendar fetches a calendar including its photo payload. Only the
// generation workflow needs the photo; read paths use GetCalendarSummary.
func GetCalendar(ctx context.Context, db *gorm.DB, id uint) (*domain.Calendar, error) {
	var c domain.Calendar
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCalendarSummary fetches a calendar without loading the photo payload.
func GetCalendarSummary(ctx context.Context, db *gorm.DB, id uint) (*domain.Calendar, error) {
	var c domain.Calendar
	err := db.WithContext(ctx).
		Select(calendarColumns).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCalendarBySession looks up the calendar paid for by a checkout session.
func GetCalendarBySession(ctx context.Context, db *gorm.DB, sessionID string) (*domain.Calendar, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrNotFound
	}
	var c domain.Calendar
	err := db.WithContext(ctx).
		Select(calendarColumns).
		Where("stripe_session_id = ?", sessionID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TransitionStatus moves calendar id to next if, and only if, its current
// status is a legal predecessor of next.
func TransitionStatus(ctx context.Context, db *gorm.DB, id uint, next domain.CalendarStatus) error {
	from := domain.PredecessorsOf(next)
	if len(from) == 0 {
		return ErrInvalidTransition
	}
	res := db.WithContext(ctx).
		Model(&domain.Calendar{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{"status": next, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return missingOrConflict(ctx, db, id)
	}
	return nil
}

// MarkPurchased records a confirmed payment. The first confirmation moves a
// ready calendar to purchased and reports changed=true; confirming an
// already purchased calendar re-applies the same fields and reports
// changed=false. Any other status yields ErrInvalidTransition.
func MarkPurchased(ctx context.Context, db *gorm.DB, id uint, email, sessionID string) (changed bool, err error) {
	fields := map[string]any{
		"status":            domain.StatusPurchased,
		"stripe_session_id": sessionID,
		"updated_at":        time.Now().UTC(),
	}
	if strings.TrimSpace(email) != "" {
		fields["customer_email"] = email
	}

	res := db.WithContext(ctx).
		Model(&domain.Calendar{}).
		Where("id = ? AND status = ?", id, domain.StatusReady).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	res = db.WithContext(ctx).
		Model(&domain.Calendar{}).
		Where("id = ? AND status = ?", id, domain.StatusPurchased).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return false, nil
	}
	return false, missingOrConflict(ctx, db, id)
}

// missingOrConflict distinguishes a missing row from a rejected transition
// after a conditional update matched nothing.
func missingOrConflict(ctx context.Context, db *gorm.DB, id uint) error {
	var n int64
	if err := db.WithContext(ctx).Model(&domain.Calendar{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrInvalidTransition
}
