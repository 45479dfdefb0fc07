// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// CalendarMonth model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/pet-calendar-backend/internal/domain"
)

// CreateMonth inserts the record for one month before synthesis is
// attempted. The (calendar_id, month) pair is unique.
func CreateMonth(ctx context.Context, db *gorm.DB, calendarID uint, month int, holiday string) (*domain.CalendarMonth, error) {
	m := &domain.CalendarMonth{
		CalendarID: calendarID,
		Month:      month,
		Holiday:    holiday,
	}
	if err := db.WithContext(ctx).Omit("Calendar").Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return m, nil
}

// MarkMonthGenerated stores the artifact reference and flips the generated
// flag. Returns ErrNotFound if the month row does not exist.
func MarkMonthGenerated(ctx context.Context, db *gorm.DB, monthID uint, imageURL string) error {
	res := db.WithContext(ctx).
		Model(&domain.CalendarMonth{}).
		Where("id = ?", monthID).
		Updates(map[string]any{"image_url": imageURL, "generated": true})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListMonths returns the month records of a calendar ordered by month number.
func ListMonths(ctx context.Context, db *gorm.DB, calendarID uint) ([]domain.CalendarMonth, error) {
	var out []domain.CalendarMonth
	err := db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Order("month asc").
		Find(&out).Error
	if out == nil {
		out = []domain.CalendarMonth{}
	}
	return out, err
}

// CountGeneratedMonths returns how many months of a calendar have an image.
func CountGeneratedMonths(ctx context.Context, db *gorm.DB, calendarID uint) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.CalendarMonth{}).
		Where("calendar_id = ? AND generated = ?", calendarID, true).
		Count(&n).Error
	return n, err
}
