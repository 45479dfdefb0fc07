// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/pet-calendar-backend/internal/domain"
)

// CalendarVersion is the minimal state that changes whenever the progress
// projection of a calendar changes.
type CalendarVersion struct {
	Status    domain.CalendarStatus
	UpdatedAt time.Time
	Months    int64
	Generated int64
}

// CalendarStats returns the version tuple of a calendar without loading
// its photo or month rows. ErrNotFound if the calendar does not exist.
//
// Return values:
//   - Status / UpdatedAt: from the calendar row
//   - Months:            month records created so far
//   - Generated:         month records with an image
func CalendarStats(ctx context.Context, db *gorm.DB, id uint) (*CalendarVersion, error) {
	var row struct {
		Status    domain.CalendarStatus
		UpdatedAt time.Time
	}
	err := db.WithContext(ctx).
		Model(&domain.Calendar{}).
		Select("status", "updated_at").
		Where("id = ?", id).
		Take(&row).Error
	if err != nil {
		return nil, err
	}

	v := &CalendarVersion{Status: row.Status, UpdatedAt: row.UpdatedAt}
	if err := db.WithContext(ctx).
		Model(&domain.CalendarMonth{}).
		Where("calendar_id = ?", id).
		Count(&v.Months).Error; err != nil {
		return nil, err
	}
	if v.Generated, err = CountGeneratedMonths(ctx, db, id); err != nil {
		return nil, err
	}
	return v, nil
}
