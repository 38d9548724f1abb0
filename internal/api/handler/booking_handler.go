package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tolkmarket/booking-be/internal/api/dto"
	"github.com/tolkmarket/booking-be/internal/booking"
	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "id must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

// CreateBooking handles POST /api/v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.svc.Create(c.Request.Context(), user, booking.CreateRequest{
		FromLanguageID:       req.FromLanguageID,
		Immediate:            req.Immediate,
		DueDate:              req.DueDate,
		DueTime:              req.DueTime,
		Duration:             req.Duration,
		CustomerPhoneType:    req.CustomerPhoneType,
		CustomerPhysicalType: req.CustomerPhysicalType,
		JobFor:               req.JobFor,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CreateBookingResponse{
		Status:       dto.StatusSuccess,
		ID:           result.ID,
		Type:         result.Type,
		JobFor:       result.JobFor,
		CustomerTown: result.CustomerTown,
		CustomerType: result.CustomerType,
	})
}

// FinalizeBooking handles POST /api/v1/bookings/:id/email
// Completes a booking with contact details and broadcasts it to translators.
func (h *BookingHandler) FinalizeBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req dto.FinalizeBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	job, err := h.svc.FinalizeJob(c.Request.Context(), booking.FinalizeRequest{
		JobID:        id,
		UserEmail:    req.UserEmail,
		Reference:    req.Reference,
		Address:      req.Address,
		Instructions: req.Instructions,
		Town:         req.Town,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{
		Status: dto.StatusSuccess,
		ID:     job.ID,
	})
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	jobs, err := h.svc.ListJobs(c.Request.Context(), booking.JobFilter{IDs: []int64{id}})
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(jobs) == 0 {
		h.respondError(c, domain.ErrJobNotFound)
		return
	}

	c.JSON(http.StatusOK, toBookingDTO(&jobs[0]))
}

// UpdateBooking handles PUT /api/v1/bookings/:id
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req dto.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	var due time.Time
	if req.Due != "" {
		parsed, err := time.ParseInLocation(time.DateTime, req.Due, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "due must be formatted as YYYY-MM-DD HH:MM:SS",
			})
			return
		}
		due = parsed
	}

	result, err := h.svc.Update(c.Request.Context(), id, booking.UpdateRequest{
		Status:          req.Status,
		AdminComments:   req.AdminComments,
		Due:             due,
		FromLanguageID:  req.FromLanguageID,
		TranslatorID:    req.TranslatorID,
		TranslatorEmail: req.TranslatorEmail,
		Reference:       req.Reference,
		SessionTime:     req.SessionTime,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{
		Status:  dto.StatusSuccess,
		Message: result.Message,
	})
}

// ListBookings handles GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	filter, req, ok := h.parseListFilter(c)
	if !ok {
		return
	}

	jobs, err := h.svc.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.writeBookingPage(c, jobs, req.PageSize)
}

// ListAlerts handles GET /api/v1/bookings/alerts
// Lists completed bookings whose session ran suspiciously long.
func (h *BookingHandler) ListAlerts(c *gin.Context) {
	filter, req, ok := h.parseListFilter(c)
	if !ok {
		return
	}

	jobs, err := h.svc.SessionAlerts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.writeBookingPage(c, jobs, req.PageSize)
}

// ListExpiring handles GET /api/v1/bookings/expiring
func (h *BookingHandler) ListExpiring(c *gin.Context) {
	filter, req, ok := h.parseListFilter(c)
	if !ok {
		return
	}

	jobs, err := h.svc.ExpiringPending(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.writeBookingPage(c, jobs, req.PageSize)
}

func (h *BookingHandler) parseListFilter(c *gin.Context) (booking.JobFilter, dto.ListBookingsRequest, bool) {
	var req dto.ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return booking.JobFilter{}, req, false
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeBookingCursor(req.Cursor)
	if err != nil {
		h.logger.Error("Invalid cursor", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return booking.JobFilter{}, req, false
	}

	filter := booking.JobFilter{
		IDs:              req.IDs,
		LanguageIDs:      req.LanguageIDs,
		Statuses:         req.Statuses,
		CustomerEmails:   req.CustomerEmails,
		TranslatorEmails: req.TranslatorEmails,
		ConsumerType:     req.ConsumerType,
		Physical:         req.Physical,
		Phone:            req.Phone,
		PageSize:         req.PageSize,
		Cursor:           cursor,
	}
	for _, t := range req.JobTypes {
		filter.JobTypes = append(filter.JobTypes, domain.JobType(t))
	}
	if req.TimeType == string(booking.TimeFieldDue) {
		filter.TimeType = booking.TimeFieldDue
	} else {
		filter.TimeType = booking.TimeFieldCreated
	}
	if t, err := time.ParseInLocation(time.DateOnly, req.From, time.Local); err == nil {
		filter.From = t
	}
	if t, err := time.ParseInLocation(time.DateOnly, req.To, time.Local); err == nil {
		// Make the upper bound inclusive of the whole day
		filter.To = t.Add(24*time.Hour - time.Second)
	}
	if t, err := time.ParseInLocation(time.DateOnly, req.ExpiryFrom, time.Local); err == nil {
		filter.WillExpireFrom = t
	}
	return filter, req, true
}

func (h *BookingHandler) writeBookingPage(c *gin.Context, jobs []domain.Job, pageSize int) {
	hasMore := len(jobs) > pageSize
	if hasMore {
		jobs = jobs[:pageSize]
	}

	bookings := make([]dto.BookingDTO, len(jobs))
	for i := range jobs {
		bookings[i] = toBookingDTO(&jobs[i])
	}

	var nextCursor string
	if hasMore {
		last := jobs[len(jobs)-1]
		nextCursor = EncodeBookingCursor(&booking.JobCursor{
			CreatedAt: last.CreatedAt,
			JobID:     last.ID,
		})
	}

	c.JSON(http.StatusOK, dto.ListBookingsResponse{
		Bookings:   bookings,
		NextCursor: nextCursor,
	})
}

func toBookingDTO(job *domain.Job) dto.BookingDTO {
	d := dto.BookingDTO{
		ID:                   job.ID,
		UserID:               job.UserID,
		FromLanguageID:       job.FromLanguageID,
		Immediate:            job.Immediate,
		Duration:             job.Duration,
		Status:               job.Status,
		Gender:               string(job.Gender),
		Certified:            string(job.Certified),
		Due:                  job.Due.Format(time.RFC3339),
		JobType:              string(job.JobType),
		CustomerPhoneType:    job.CustomerPhoneType,
		CustomerPhysicalType: job.CustomerPhysicalType,
		Town:                 job.Town,
		UserEmail:            job.UserEmail,
		Reference:            job.Reference,
		AdminComments:        job.AdminComments,
		SessionTime:          job.SessionTime,
		CreatedAt:            job.CreatedAt.Format(time.RFC3339),
		WillExpireAt:         job.WillExpireAt.Format(time.RFC3339),
	}
	if job.EndAt != nil {
		d.EndAt = job.EndAt.Format(time.RFC3339)
	}
	if job.WithdrawAt != nil {
		d.WithdrawAt = job.WithdrawAt.Format(time.RFC3339)
	}
	return d
}
