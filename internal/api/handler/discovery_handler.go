package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tolkmarket/booking-be/internal/api/dto"
	"github.com/tolkmarket/booking-be/internal/booking"
)

func callerID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "user_id must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

// ListPotential handles GET /api/v1/bookings/potential
// Lists the pending bookings the calling translator could accept.
func (h *BookingHandler) ListPotential(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}

	jobs, err := h.svc.PotentialJobs(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	bookings := make([]dto.BookingDTO, len(jobs))
	for i := range jobs {
		bookings[i] = toBookingDTO(&jobs[i])
	}
	c.JSON(http.StatusOK, dto.ListBookingsResponse{Bookings: bookings})
}

// ListMine handles GET /api/v1/bookings/mine
// Returns the caller's open bookings, emergency and scheduled separately.
func (h *BookingHandler) ListMine(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}

	result, err := h.svc.UserJobs(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := dto.UserBookingsResponse{
		UserType:      string(result.UserType),
		EmergencyJobs: make([]dto.BookingDTO, len(result.Emergency)),
		NormalJobs:    make([]dto.BookingDTO, len(result.Normal)),
	}
	for i := range result.Emergency {
		resp.EmergencyJobs[i] = toBookingDTO(&result.Emergency[i])
	}
	for i := range result.Normal {
		resp.NormalJobs[i] = toBookingDTO(&result.Normal[i])
	}
	c.JSON(http.StatusOK, resp)
}

// ListMineHistory handles GET /api/v1/bookings/mine/history
func (h *BookingHandler) ListMineHistory(c *gin.Context) {
	id, ok := callerID(c)
	if !ok {
		return
	}

	cursor, err := DecodeBookingCursor(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	if pageSize < 0 || pageSize > 100 {
		pageSize = 0
	}

	filter := booking.JobFilter{PageSize: pageSize, Cursor: cursor}
	jobs, err := h.svc.UserJobsHistory(c.Request.Context(), id, filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if pageSize <= 0 {
		pageSize = 15
	}
	h.writeBookingPage(c, jobs, pageSize)
}
