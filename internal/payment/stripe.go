package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"tutorslot/internal/booking"
	"tutorslot/internal/logger"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Capture(id string, params *stripe.PaymentIntentCaptureParams) (*stripe.PaymentIntent, error)
}

type StripeGateway struct {
	intents       intentAPI
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	sc := client.New(secretKey, nil)
	return &StripeGateway{intents: sc.PaymentIntents, webhookSecret: webhookSecret}
}

func (g *StripeGateway) Provider() string { return ProviderStripe }

func (g *StripeGateway) CreateIntent(ctx context.Context, b *booking.Booking) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(b.PriceCents),
		Currency: stripe.String(strings.ToLower(b.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", strconv.Itoa(b.ID))
	params.AddMetadata("student_id", strconv.Itoa(b.StudentID))

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, upstream(ProviderStripe, "create payment intent", err)
	}
	return &Intent{ProviderRef: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) BookingOf(ctx context.Context, providerRef string) (int, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.intents.Get(providerRef, params)
	if err != nil {
		return 0, upstream(ProviderStripe, "get payment intent", err)
	}
	return bookingFromMetadata(pi)
}

// Capture finishes a manual-capture intent; an intent the client already
// completed is returned as is.
func (g *StripeGateway) Capture(ctx context.Context, providerRef string) (*Capture, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := g.intents.Get(providerRef, params)
	if err != nil {
		return nil, upstream(ProviderStripe, "get payment intent", err)
	}

	if pi.Status == stripe.PaymentIntentStatusRequiresCapture {
		captureParams := &stripe.PaymentIntentCaptureParams{}
		captureParams.Context = ctx
		pi, err = g.intents.Capture(providerRef, captureParams)
		if err != nil {
			return nil, upstream(ProviderStripe, "capture payment intent", err)
		}
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		logger.Warn("stripe intent not captured", "intent", pi.ID, "status", pi.Status)
		return nil, ErrNotCompleted
	}
	return captureFromIntent(pi)
}

func (g *StripeGateway) VerifyWebhook(_ context.Context, payload []byte, header http.Header) (*Capture, error) {
	event, err := webhook.ConstructEventWithOptions(payload, header.Get("Stripe-Signature"), g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		logger.Warn("stripe webhook rejected", "error", err)
		return nil, ErrBadSignature
	}

	if event.Type != stripe.EventTypePaymentIntentSucceeded {
		logger.Debug("stripe webhook ignored", "event", event.ID, "type", event.Type)
		return nil, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, ErrUnknownBooking
	}
	return captureFromIntent(&pi)
}

func bookingFromMetadata(pi *stripe.PaymentIntent) (int, error) {
	bookingID, err := strconv.Atoi(pi.Metadata["booking_id"])
	if err != nil {
		return 0, ErrUnknownBooking
	}
	return bookingID, nil
}

func captureFromIntent(pi *stripe.PaymentIntent) (*Capture, error) {
	bookingID, err := bookingFromMetadata(pi)
	if err != nil {
		return nil, err
	}

	amount := pi.AmountReceived
	if amount == 0 {
		amount = pi.Amount
	}
	return &Capture{
		BookingID:     bookingID,
		TransactionID: pi.ID,
		AmountCents:   amount,
		Currency:      strings.ToUpper(string(pi.Currency)),
	}, nil
}
