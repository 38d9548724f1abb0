package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tolkmarket/booking-be/internal/api/dto"
	"github.com/tolkmarket/booking-be/internal/booking"
	"github.com/tolkmarket/booking-be/internal/booking/domain"
)

// UserDirectory resolves the acting user for a request. Authentication is
// terminated upstream; requests arrive carrying a trusted user id.
type UserDirectory interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

// HealthChecker reports backing-store readiness for the health endpoint.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger  *slog.Logger
	Service *booking.Service
	Users   UserDirectory
	DB      HealthChecker
}

// BookingHandler handles booking-related HTTP requests
type BookingHandler struct {
	logger *slog.Logger
	svc    *booking.Service
	users  UserDirectory
}

// NewBookingHandler creates a new BookingHandler instance
func NewBookingHandler(deps *Dependencies) *BookingHandler {
	return &BookingHandler{
		logger: deps.Logger,
		svc:    deps.Service,
		users:  deps.Users,
	}
}

// respondError translates service errors into the response envelope. Domain
// rejections come back as fail payloads with HTTP 200, matching what the
// booking clients expect; genuine faults surface as 404/500.
func (h *BookingHandler) respondError(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusOK, dto.StatusResponse{
			Status:    dto.StatusFail,
			Message:   vErr.Message,
			FieldName: vErr.Field,
		})
		return
	}
	var refusal *domain.PolicyRefusal
	if errors.As(err, &refusal) {
		c.JSON(http.StatusOK, dto.StatusResponse{
			Status:  dto.StatusFail,
			Message: refusal.Message,
		})
		return
	}
	if errors.Is(err, domain.ErrJobNotFound) || errors.Is(err, domain.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.logger.Error("request failed",
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
	})
}
