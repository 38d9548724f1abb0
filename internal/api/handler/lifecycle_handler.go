package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tolkmarket/booking-be/internal/api/dto"
	"github.com/tolkmarket/booking-be/internal/booking"
)

func (h *BookingHandler) bindActor(c *gin.Context) (int64, bool) {
	var req struct {
		UserID int64 `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return 0, false
	}
	return req.UserID, true
}

func (h *BookingHandler) writeAcceptResult(c *gin.Context, result *booking.AcceptResult) {
	status := dto.StatusFail
	if result.Accepted {
		status = dto.StatusSuccess
	}
	c.JSON(http.StatusOK, dto.StatusResponse{
		Status:  status,
		Message: result.Message,
	})
}

// AcceptBooking handles POST /api/v1/bookings/:id/accept
// A translator claims a pending booking from the job list.
func (h *BookingHandler) AcceptBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	userID, ok := h.bindActor(c)
	if !ok {
		return
	}

	translator, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.svc.Accept(c.Request.Context(), id, translator)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.writeAcceptResult(c, result)
}

// AcceptBookingByID handles POST /api/v1/bookings/:id/accept-by-id
// The deep-link accept triggered from a push notification.
func (h *BookingHandler) AcceptBookingByID(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	userID, ok := h.bindActor(c)
	if !ok {
		return
	}

	translator, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.svc.AcceptWithID(c.Request.Context(), id, translator)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.writeAcceptResult(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	userID, ok := h.bindActor(c)
	if !ok {
		return
	}

	caller, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.svc.Cancel(c.Request.Context(), id, caller); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: dto.StatusSuccess})
}

// EndBooking handles POST /api/v1/bookings/:id/end
func (h *BookingHandler) EndBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	userID, ok := h.bindActor(c)
	if !ok {
		return
	}

	if err := h.svc.EndJob(c.Request.Context(), id, userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: dto.StatusSuccess})
}

// CustomerNotCall handles POST /api/v1/bookings/:id/no-call
func (h *BookingHandler) CustomerNotCall(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	if err := h.svc.CustomerNotCall(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: dto.StatusSuccess})
}

// ReopenBooking handles POST /api/v1/bookings/:id/reopen
func (h *BookingHandler) ReopenBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	userID, ok := h.bindActor(c)
	if !ok {
		return
	}

	newID, err := h.svc.Reopen(c.Request.Context(), id, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{
		Status:  dto.StatusSuccess,
		Message: "Tolk cancelled!",
		ID:      newID,
	})
}

// IgnoreExpiring handles POST /api/v1/bookings/:id/ignore-expiring
func (h *BookingHandler) IgnoreExpiring(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	if err := h.svc.IgnoreExpiring(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: dto.StatusSuccess, Message: "Changes saved"})
}

// IgnoreExpired handles POST /api/v1/bookings/:id/ignore-expired
func (h *BookingHandler) IgnoreExpired(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	if err := h.svc.IgnoreExpired(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatusResponse{Status: dto.StatusSuccess, Message: "Changes saved"})
}
