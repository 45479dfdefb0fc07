// Package services holds the application logic for calendars: creation and
// validation, the background generation workflow, the progress projection
// and purchase confirmation.
//
// This file centralizes service-level error values. Translation into
// user-facing messages and HTTP status codes happens in the handler layer.
package services

import "errors"

// ErrInvalidInput is the parent of every validation error; callers can test
// errors.Is(err, ErrInvalidInput) to map any of them to a client error.
var ErrInvalidInput = errors.New("invalid input")

// Validation errors for calendar creation.
var (
	ErrPhotoRequired      = invalid("photo is required")
	ErrPetDetailsRequired = invalid("pet name and type are required")
	ErrInvalidPetType     = invalid("pet type must be dog or cat")
	ErrPetNameTooLong     = invalid("pet name is too long")
	ErrPhotoTooLarge      = invalid("photo is too large")
	ErrUnsupportedPhoto   = invalid("photo must be a PNG, JPEG or WebP image")
)

// Calendar and purchase errors.
var (
	// ErrCalendarNotFound indicates the requested calendar does not exist.
	ErrCalendarNotFound = errors.New("calendar not found")

	// ErrQueueUnavailable is returned when a new calendar could not be handed
	// to the generation workers.
	ErrQueueUnavailable = errors.New("generation queue unavailable")

	// ErrPaymentsDisabled is returned by purchase operations when no payment
	// gateway is configured.
	ErrPaymentsDisabled = errors.New("payments are not configured")

	// ErrNotReady is returned when checkout or confirmation is attempted
	// before the calendar has finished generating.
	ErrNotReady = errors.New("calendar is not ready")

	// ErrAlreadyPurchased is returned when checkout is requested for a
	// calendar that has already been paid for.
	ErrAlreadyPurchased = errors.New("calendar already purchased")

	// ErrSessionMismatch is returned when a checkout session belongs to a
	// different calendar than the one being confirmed.
	ErrSessionMismatch = errors.New("checkout session does not belong to this calendar")
)

type invalidError struct{ msg string }

func invalid(msg string) error { return &invalidError{msg: msg} }

func (e *invalidError) Error() string        { return e.msg }
func (e *invalidError) Is(target error) bool { return target == ErrInvalidInput }
