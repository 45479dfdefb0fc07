// Package domain defines the persistence models for calendars and their
// per-month generation records. These types are mapped with GORM and form
// the core data layer of the pet calendar service.
package domain

import (
	"strings"
	"time"
)

// TotalMonths is the fixed number of months in every calendar.
const TotalMonths = 12

// CalendarStatus is the lifecycle state of a Calendar. It only ever moves
// forward: pending -> generating -> ready -> purchased.
type CalendarStatus string

const (
	StatusPending    CalendarStatus = "pending"
	StatusGenerating CalendarStatus = "generating"
	StatusReady      CalendarStatus = "ready"
	StatusPurchased  CalendarStatus = "purchased"
)

var statusRank = map[CalendarStatus]int{
	StatusPending:    0,
	StatusGenerating: 1,
	StatusReady:      2,
	StatusPurchased:  3,
}

// CanTransition reports whether a calendar may move from s to next. Every
// step is a single move forward; purchased may be re-applied to itself so
// payment confirmation stays idempotent.
func (s CalendarStatus) CanTransition(next CalendarStatus) bool {
	from, ok1 := statusRank[s]
	to, ok2 := statusRank[next]
	if !ok1 || !ok2 {
		return false
	}
	if s == StatusPurchased && next == StatusPurchased {
		return true
	}
	return to == from+1
}

// PredecessorsOf returns the statuses from which next may be entered.
func PredecessorsOf(next CalendarStatus) []CalendarStatus {
	var out []CalendarStatus
	for _, s := range []CalendarStatus{StatusPending, StatusGenerating, StatusReady, StatusPurchased} {
		if s.CanTransition(next) {
			out = append(out, s)
		}
	}
	return out
}

// PetType is the kind of animal shown in the calendar.
type PetType string

const (
	PetDog PetType = "dog"
	PetCat PetType = "cat"
)

// ParsePetType normalizes a user supplied pet type. ok is false for
// anything other than dog or cat.
func ParsePetType(s string) (PetType, bool) {
	switch PetType(strings.ToLower(strings.TrimSpace(s))) {
	case PetDog:
		return PetDog, true
	case PetCat:
		return PetCat, true
	}
	return "", false
}

// Calendar represents one pet calendar order and its lifecycle status.
//
// Fields:
//   - ID: auto-increment primary key.
//   - PetName / PetType: subject of every generated month.
//   - PhotoData: base64 encoded source photo; never serialized to clients.
//   - PhotoMime: content type of the decoded photo (image/png, image/jpeg, image/webp).
//   - Status: pending|generating|ready|purchased (enforced by DB constraint).
//   - CustomerEmail / StripeSessionID: set on payment confirmation.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Calendar struct {
	ID              uint           `json:"id"                        gorm:"primaryKey;autoIncrement"`
	PetName         string         `json:"petName"                   gorm:"type:varchar(64);not null"`
	PetType         PetType        `json:"petType"                   gorm:"type:varchar(8);not null;check:pet_type IN ('dog','cat')"`
	PhotoData       string         `json:"-"                         gorm:"type:text;not null"`
	PhotoMime       string         `json:"-"                         gorm:"type:varchar(32);not null;default:'image/png'"`
	Status          CalendarStatus `json:"status"                    gorm:"type:varchar(16);not null;default:'pending';index;check:status IN ('pending','generating','ready','purchased')"`
	CustomerEmail   *string        `json:"customerEmail,omitempty"   gorm:"type:varchar(320)"`
	StripeSessionID *string        `json:"stripeSessionId,omitempty" gorm:"type:varchar(255);index"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// TableName returns the database table name for Calendar.
func (Calendar) TableName() string { return "calendars" }

// CalendarMonth tracks the generation outcome for one month of a calendar.
// A month with no row is queued, a row with Generated=false is pending or
// failed, and Generated=true means ImageURL points at the artifact.
type CalendarMonth struct {
	ID         uint    `json:"id"                 gorm:"primaryKey;autoIncrement"`
	CalendarID uint    `json:"calendarId"         gorm:"not null;uniqueIndex:ux_calendar_month,priority:1"`
	Month      int     `json:"month"              gorm:"not null;uniqueIndex:ux_calendar_month,priority:2;check:month BETWEEN 1 AND 12"`
	Holiday    string  `json:"holidayName"        gorm:"column:holiday_name;type:varchar(64);not null"`
	ImageURL   *string `json:"imageUrl,omitempty" gorm:"type:text"`
	Generated  bool    `json:"generated"          gorm:"not null;default:false"`

	// Calendar is the owning order. Months are cascade-deleted with it.
	Calendar Calendar `json:"-" gorm:"foreignKey:CalendarID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for CalendarMonth.
func (CalendarMonth) TableName() string { return "calendar_months" }
