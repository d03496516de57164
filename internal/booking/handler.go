package booking

import (
	"context"
	"net/http"

	"tutorslot/internal/api"
	"tutorslot/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateBooking godoc
// @Summary      Book a lesson
// @Description  Books a lesson at a start time returned by the slots endpoint. The slot is revalidated before the booking is stored.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body booking.CreateBookingRequest true "Lesson"
// @Success      201 {object} booking.Booking
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	studentID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	var req CreateBookingRequest
	if !api.BindJSON(c, &req) {
		return
	}

	b, err := h.service.Create(c.Request.Context(), studentID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// CreateForStudent godoc
// @Summary      Book a lesson for a student
// @Tags         tutor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body booking.PointOfSaleRequest true "Lesson"
// @Success      201 {object} booking.Booking
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /tutor/bookings [post]
func (h *Handler) CreateForStudent(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	var req PointOfSaleRequest
	if !api.BindJSON(c, &req) {
		return
	}

	b, err := h.service.CreateForStudent(c.Request.Context(), tutorID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// GetBooking godoc
// @Summary      Get booking
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Success      200 {object} booking.Booking
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /bookings/{bookingID} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	bookingID, ok := api.ParamInt(c, "bookingID")
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), userID, bookingID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// @Summary      List my bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} booking.Booking
// @Router       /bookings [get]
func (h *Handler) ListMine(c *gin.Context) {
	studentID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	bookings, err := h.service.ListForStudent(c.Request.Context(), studentID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// @Summary      List lessons booked with me
// @Tags         tutor
// @Produce      json
// @Security     BearerAuth
// @Param        date query string false "Only this date (YYYY-MM-DD)"
// @Success      200 {array} booking.Booking
// @Failure      400 {object} api.ErrorResponse
// @Router       /tutor/bookings [get]
func (h *Handler) ListForTutor(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	bookings, err := h.service.ListForTutor(c.Request.Context(), tutorID, c.Query("date"))
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// @Summary      Confirm a pending booking
// @Tags         tutor
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Success      200 {object} booking.Booking
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /tutor/bookings/{bookingID}/confirm [post]
func (h *Handler) Confirm(c *gin.Context) {
	h.change(c, h.service.Confirm)
}

// @Summary      Mark a confirmed booking completed
// @Tags         tutor
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Success      200 {object} booking.Booking
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /tutor/bookings/{bookingID}/complete [post]
func (h *Handler) Complete(c *gin.Context) {
	h.change(c, h.service.Complete)
}

// CancelBooking godoc
// @Summary      Cancel booking
// @Description  Either participant may cancel a pending or confirmed booking.
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Success      200 {object} booking.Booking
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	h.change(c, h.service.Cancel)
}

func (h *Handler) change(c *gin.Context, apply func(ctx context.Context, userID, bookingID int) (*Booking, error)) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	bookingID, ok := api.ParamInt(c, "bookingID")
	if !ok {
		return
	}

	b, err := apply(c.Request.Context(), userID, bookingID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
