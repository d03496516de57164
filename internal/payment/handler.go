package payment

import (
	"errors"
	"io"
	"net/http"

	"tutorslot/internal/api"
	"tutorslot/internal/auth"
	"tutorslot/internal/logger"

	"github.com/gin-gonic/gin"
)

// Providers cap webhook bodies well below this. A longer body is refused
// rather than truncated, since a cut payload can never verify.
const maxWebhookBody = 1 << 20

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Checkout godoc
// @Summary      Start paying for a booking
// @Description  Creates a Stripe PaymentIntent or a PayPal order for the booking price.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.CheckoutRequest true "Booking and provider"
// @Success      201 {object} payment.CheckoutResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /payments/checkout [post]
func (h *Handler) Checkout(c *gin.Context) {
	studentID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if !api.BindJSON(c, &req) {
		return
	}

	resp, err := h.service.Checkout(c.Request.Context(), studentID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Capture godoc
// @Summary      Capture an approved payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        provider path string true "stripe or paypal"
// @Param        request body payment.CaptureRequest true "Provider reference"
// @Success      200 {object} payment.Payment
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /payments/{provider}/capture [post]
func (h *Handler) Capture(c *gin.Context) {
	studentID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	var req CaptureRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Capture(c.Request.Context(), studentID, c.Param("provider"), req.ProviderRef)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      List my payments
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} payment.Payment
// @Router       /payments [get]
func (h *Handler) ListMine(c *gin.Context) {
	studentID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	payments, err := h.service.ListForStudent(c.Request.Context(), studentID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// @Summary      List payments for a booking
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Success      200 {array} payment.Payment
// @Failure      403 {object} api.ErrorResponse
// @Router       /bookings/{bookingID}/payments [get]
func (h *Handler) ListForBooking(c *gin.Context) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	bookingID, ok := api.ParamInt(c, "bookingID")
	if !ok {
		return
	}

	payments, err := h.service.ListForBooking(c.Request.Context(), userID, bookingID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// Webhook godoc
// @Summary      Provider webhook
// @Description  Signature-verified notification from Stripe or PayPal. Non-2xx answers make the provider redeliver.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        provider path string true "stripe or paypal"
// @Success      200 {object} payment.WebhookResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      413 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /webhooks/{provider} [post]
func (h *Handler) Webhook(c *gin.Context) {
	provider := c.Param("provider")
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unreadable body"})
		return
	}
	if len(payload) > maxWebhookBody {
		logger.Warn("webhook body too large", "provider", provider, "limit", maxWebhookBody)
		c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: "webhook body too large"})
		return
	}

	err = h.service.HandleWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, WebhookResponse{Received: true})
	case errors.Is(err, api.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrUnknownWebhook):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: err.Error()})
	default:
		logger.Error("webhook processing failed", "provider", provider, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "webhook processing failed"})
	}
}
