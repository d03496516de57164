package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"tutorslot/internal/api"
	"tutorslot/internal/booking"
	"tutorslot/internal/logger"

	"github.com/plutov/paypal/v4"
)

const (
	paypalCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	paypalCompleted        = "COMPLETED"
)

// PayPalGateway uses Orders v2. The SDK client fetches and refreshes its
// OAuth token itself.
type PayPalGateway struct {
	client    *paypal.Client
	webhookID string
}

func NewPayPalGateway(clientID, secret, baseURL, webhookID string) (*PayPalGateway, error) {
	c, err := paypal.NewClient(clientID, secret, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create paypal client: %w", err)
	}
	return &PayPalGateway{client: c, webhookID: webhookID}, nil
}

func (g *PayPalGateway) Provider() string { return ProviderPayPal }

func (g *PayPalGateway) CreateIntent(ctx context.Context, b *booking.Booking) (*Intent, error) {
	ref := strconv.Itoa(b.ID)
	units := []paypal.PurchaseUnitRequest{{
		ReferenceID: ref,
		CustomID:    ref,
		Description: fmt.Sprintf("Lesson on %s at %s", b.LessonDate, b.LessonTime),
		Amount: &paypal.PurchaseUnitAmount{
			Currency: b.Currency,
			Value:    formatMinor(b.PriceCents),
		},
	}}

	order, err := g.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, nil)
	if err != nil {
		return nil, upstream(ProviderPayPal, "create order", err)
	}

	intent := &Intent{ProviderRef: order.ID}
	for _, link := range order.Links {
		if link.Rel == "approve" || link.Rel == "payer-action" {
			intent.ApproveURL = link.Href
		}
	}
	return intent, nil
}

func (g *PayPalGateway) BookingOf(ctx context.Context, orderID string) (int, error) {
	order, err := g.client.GetOrder(ctx, orderID)
	if err != nil {
		return 0, upstream(ProviderPayPal, "get order", err)
	}
	for _, unit := range order.PurchaseUnits {
		if id, err := strconv.Atoi(unit.ReferenceID); err == nil {
			return id, nil
		}
	}
	return 0, ErrUnknownBooking
}

func (g *PayPalGateway) Capture(ctx context.Context, orderID string) (*Capture, error) {
	resp, err := g.client.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
	if err != nil {
		return nil, upstream(ProviderPayPal, "capture order", err)
	}
	if resp.Status != paypalCompleted {
		logger.Warn("paypal order not captured", "order", orderID, "status", resp.Status)
		return nil, ErrNotCompleted
	}

	for _, unit := range resp.PurchaseUnits {
		if unit.Payments == nil || len(unit.Payments.Captures) == 0 {
			continue
		}
		captured := unit.Payments.Captures[0]
		if captured.Amount == nil {
			continue
		}
		return captureFrom(unit.ReferenceID, captured.ID, captured.Amount.Currency, captured.Amount.Value)
	}
	return nil, ErrUnknownBooking
}

type paypalWebhookEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		CustomID string `json:"custom_id"`
		Amount   struct {
			CurrencyCode string `json:"currency_code"`
			Value        string `json:"value"`
		} `json:"amount"`
	} `json:"resource"`
}

// VerifyWebhook asks PayPal to check the transmission signature, then
// reads the capture out of the event body.
func (g *PayPalGateway) VerifyWebhook(ctx context.Context, payload []byte, header http.Header) (*Capture, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhooks/paypal", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header = header.Clone()

	result, err := g.client.VerifyWebhookSignature(ctx, req, g.webhookID)
	if err != nil {
		return nil, upstream(ProviderPayPal, "verify webhook", err)
	}
	if result.VerificationStatus != "SUCCESS" {
		logger.Warn("paypal webhook rejected", "status", result.VerificationStatus)
		return nil, ErrBadSignature
	}

	var event paypalWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrUnknownBooking
	}
	if event.EventType != paypalCaptureCompleted {
		logger.Debug("paypal webhook ignored", "event", event.ID, "type", event.EventType)
		return nil, nil
	}
	return captureFrom(event.Resource.CustomID, event.Resource.ID, event.Resource.Amount.CurrencyCode, event.Resource.Amount.Value)
}

func captureFrom(bookingRef, transactionID, currency, value string) (*Capture, error) {
	bookingID, err := strconv.Atoi(bookingRef)
	if err != nil {
		return nil, ErrUnknownBooking
	}
	cents, err := parseMinor(value)
	if err != nil {
		return nil, err
	}
	return &Capture{BookingID: bookingID, TransactionID: transactionID, AmountCents: cents, Currency: currency}, nil
}

// formatMinor renders cents as a two-decimal amount string.
func formatMinor(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

func parseMinor(value string) (int64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("malformed amount %q: %w", value, api.ErrInvalidInput)
	}
	return int64(math.Round(f * 100)), nil
}
