// Calendar HTTP handlers.
//
// This file exposes REST endpoints for calendar resources:
//   - POST /calendars             (create from a pet photo, enqueues generation)
//   - GET  /calendars/{id}        (progress projection, ETag support)
//   - GET  /calendars/{id}/months (month list only)
//
// Handlers are transport-thin: they parse input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pet-calendar-backend/internal/domain"
	"github.com/tbourn/pet-calendar-backend/internal/http/middleware"
	"github.com/tbourn/pet-calendar-backend/internal/payments"
	"github.com/tbourn/pet-calendar-backend/internal/repo"
	"github.com/tbourn/pet-calendar-backend/internal/services"
	"github.com/tbourn/pet-calendar-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// CalendarService defines calendar creation and progress reads consumed by
// HTTP handlers.
type CalendarService interface {
	// Create validates and stores a calendar and enqueues its generation.
	Create(ctx context.Context, in services.CreateInput) (*domain.Calendar, bool, error)
	// Progress returns the poll projection of a calendar.
	Progress(ctx context.Context, id uint) (*services.Progress, error)
	// Months returns the sorted month list and generated count.
	Months(ctx context.Context, id uint) (*services.MonthsView, error)
	// Version returns the state tuple used to build ETags.
	Version(ctx context.Context, id uint) (*repo.CalendarVersion, error)
}

// PurchaseService defines checkout and payment confirmation operations.
type PurchaseService interface {
	Enabled() bool
	PublishableKey() (string, error)
	CreateCheckout(ctx context.Context, calendarID uint, email string) (*payments.Checkout, error)
	Verify(ctx context.Context, calendarID uint, sessionID string) (*services.Verification, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for calendars and purchases.
type Handlers struct {
	calSvc      CalendarService
	purchaseSvc PurchaseService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(calSvc CalendarService, purchaseSvc PurchaseService) *Handlers {
	return &Handlers{calSvc: calSvc, purchaseSvc: purchaseSvc}
}

//
// DTOs
//

// CreateCalendarResponse is returned when a calendar is accepted.
type CreateCalendarResponse struct {
	ID     uint                  `json:"id"     example:"42"`
	Status domain.CalendarStatus `json:"status" example:"pending"`
}

//
// Helpers
//

// calendarID parses the :id path parameter, failing the request with 400
// when it is not a positive integer.
func calendarID(c *gin.Context) (uint, bool) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid calendar ID")
	}
	return id, valid
}

// readPhoto returns the bytes of the "photo" form file. A missing file
// yields nil so the service reports the validation error.
func readPhoto(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return readFormFile(fh)
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func calendarETag(id uint, v *repo.CalendarVersion) string {
	return fmt.Sprintf(`W/"calendar:%d:%s:%d:%d:%d"`, id, v.Status, v.UpdatedAt.UnixNano(), v.Months, v.Generated)
}

//
// Handlers
//

// CreateCalendar godoc
// @ID          createCalendar
// @Summary     Create a calendar
// @Description Accepts a pet photo and details, stores a pending calendar and starts generating its twelve months in the background.
// @Tags        Calendars
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       Idempotency-Key  header    string  false "Replay-safe key"  example(5b1f3c1e-create)
// @Param       photo            formData  file    true  "Pet photo (PNG, JPEG or WebP)"
// @Param       petName          formData  string  true  "Pet name"          example(Buddy)
// @Param       petType          formData  string  true  "dog or cat"        Enums(dog, cat)
//
// @Success     201  {object}  handlers.CreateCalendarResponse
// @Success     200  {object}  handlers.CreateCalendarResponse  "Idempotent replay"
// @Header      200  {string}  Idempotency-Replayed  "true on replay"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     413  {object}  handlers.ErrorResponse  "Photo too large"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Failure     503  {object}  handlers.ErrorResponse  "Generation queue unavailable"
// @Router      /calendars [post]
func (h *Handlers) CreateCalendar(c *gin.Context) {
	photo, err := readPhoto(c)
	if err != nil {
		if isTooLarge(err) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Photo is too large")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid multipart form")
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	cal, replayed, err := h.calSvc.Create(c.Request.Context(), services.CreateInput{
		PetName:        c.PostForm("petName"),
		PetType:        c.PostForm("petType"),
		Photo:          photo,
		IdempotencyKey: key,
	})
	switch {
	case err == nil:
	case errors.Is(err, services.ErrPhotoRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Photo is required")
		return
	case errors.Is(err, services.ErrPetDetailsRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Pet name and type are required")
		return
	case errors.Is(err, services.ErrPhotoTooLarge):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Photo is too large")
		return
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrQueueUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeQueueUnavailable, "Calendar generation is busy, please try again shortly")
		return
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("create calendar")
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "Failed to create calendar")
		return
	}

	resp := CreateCalendarResponse{ID: cal.ID, Status: cal.Status}
	if replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
		ok(c, http.StatusOK, resp)
		return
	}
	ok(c, http.StatusCreated, resp)
}

// GetCalendar godoc
// @ID          getCalendar
// @Summary     Get calendar progress
// @Description Returns the calendar with its months sorted by month number, the generated count and the total month count. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Calendars
// @Produce     json
//
// @Param       id             path    int     true  "Calendar ID"  minimum(1)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object}  services.Progress
// @Header      200  {string}  ETag  "Weak ETag for current progress"
// @Success     304  {string}  string "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Calendar not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /calendars/{id} [get]
func (h *Handlers) GetCalendar(c *gin.Context) {
	id, valid := calendarID(c)
	if !valid {
		return
	}
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if v, err := h.calSvc.Version(ctx, id); err == nil {
		etag := calendarETag(id, v)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	p, err := h.calSvc.Progress(ctx, id)
	switch {
	case err == nil:
		ok(c, http.StatusOK, p)
	case errors.Is(err, services.ErrCalendarNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Calendar not found")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Uint("calendar_id", id).Msg("load calendar")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to load calendar")
	}
}

// GetCalendarMonths godoc
// @ID          getCalendarMonths
// @Summary     List calendar months
// @Description Returns the month records of a calendar sorted by month number and the generated count.
// @Tags        Calendars
// @Produce     json
//
// @Param       id  path  int  true  "Calendar ID"  minimum(1)
//
// @Success     200  {object}  services.MonthsView
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse "Calendar not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /calendars/{id}/months [get]
func (h *Handlers) GetCalendarMonths(c *gin.Context) {
	id, valid := calendarID(c)
	if !valid {
		return
	}
	mv, err := h.calSvc.Months(c.Request.Context(), id)
	switch {
	case err == nil:
		ok(c, http.StatusOK, mv)
	case errors.Is(err, services.ErrCalendarNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Calendar not found")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Uint("calendar_id", id).Msg("list months")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "Failed to load calendar months")
	}
}
