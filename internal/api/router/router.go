package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tolkmarket/booking-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			if err := deps.DB.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": "booking-api-service",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "booking-api-service",
		})
	})

	bookingHandler := handler.NewBookingHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		bookings := v1.Group("/bookings")
		{
			// POST /api/v1/bookings - Create a new booking
			bookings.POST("", bookingHandler.CreateBooking)

			// GET /api/v1/bookings - List bookings with filtering and pagination
			bookings.GET("", bookingHandler.ListBookings)

			// GET /api/v1/bookings/alerts - Session length alert report
			bookings.GET("/alerts", bookingHandler.ListAlerts)

			// GET /api/v1/bookings/expiring - Pending bookings close to timeout
			bookings.GET("/expiring", bookingHandler.ListExpiring)

			// GET /api/v1/bookings/potential - Pending bookings the caller could accept
			bookings.GET("/potential", bookingHandler.ListPotential)

			// GET /api/v1/bookings/mine - Caller's open bookings
			bookings.GET("/mine", bookingHandler.ListMine)

			// GET /api/v1/bookings/mine/history - Caller's finished bookings
			bookings.GET("/mine/history", bookingHandler.ListMineHistory)

			// GET /api/v1/bookings/:id - Get booking details
			bookings.GET("/:id", bookingHandler.GetBooking)

			// PUT /api/v1/bookings/:id - Admin edit of a booking
			bookings.PUT("/:id", bookingHandler.UpdateBooking)

			// POST /api/v1/bookings/:id/email - Finalize with contact details
			bookings.POST("/:id/email", bookingHandler.FinalizeBooking)

			// POST /api/v1/bookings/:id/accept - Translator claims the booking
			bookings.POST("/:id/accept", bookingHandler.AcceptBooking)

			// POST /api/v1/bookings/:id/accept-by-id - Accept from a push deep link
			bookings.POST("/:id/accept-by-id", bookingHandler.AcceptBookingByID)

			// POST /api/v1/bookings/:id/cancel - Cancel by either party
			bookings.POST("/:id/cancel", bookingHandler.CancelBooking)

			// POST /api/v1/bookings/:id/end - Close a started session
			bookings.POST("/:id/end", bookingHandler.EndBooking)

			// POST /api/v1/bookings/:id/no-call - Customer never called in
			bookings.POST("/:id/no-call", bookingHandler.CustomerNotCall)

			// POST /api/v1/bookings/:id/reopen - Put the booking back on the market
			bookings.POST("/:id/reopen", bookingHandler.ReopenBooking)

			// POST /api/v1/bookings/:id/ignore-expiring - Dismiss a session alert
			bookings.POST("/:id/ignore-expiring", bookingHandler.IgnoreExpiring)

			// POST /api/v1/bookings/:id/ignore-expired - Dismiss from expiring report
			bookings.POST("/:id/ignore-expired", bookingHandler.IgnoreExpired)
		}
	}

	return r
}
