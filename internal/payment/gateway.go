package payment

import (
	"context"
	"fmt"
	"net/http"

	"tutorslot/internal/api"
	"tutorslot/internal/booking"
)

var (
	ErrBadSignature   = fmt.Errorf("webhook signature verification failed: %w", api.ErrUnauthorized)
	ErrNotCompleted   = fmt.Errorf("payment has not completed: %w", api.ErrConflict)
	ErrUnknownBooking = fmt.Errorf("payment does not reference a booking: %w", api.ErrInvalidInput)
)

// Intent is a started payment the client still has to approve.
type Intent struct {
	ProviderRef  string
	ClientSecret string
	ApproveURL   string
}

// Capture is money the provider reports as received.
type Capture struct {
	BookingID     int
	TransactionID string
	AmountCents   int64
	Currency      string
}

// Gateway is one payment provider.
type Gateway interface {
	Provider() string
	CreateIntent(ctx context.Context, b *booking.Booking) (*Intent, error)
	// BookingOf reports which booking a provider reference pays for
	// without moving any money.
	BookingOf(ctx context.Context, providerRef string) (int, error)
	Capture(ctx context.Context, providerRef string) (*Capture, error)
	// VerifyWebhook authenticates a delivery and returns the capture it
	// announces. A nil capture means the event needs no action.
	VerifyWebhook(ctx context.Context, payload []byte, header http.Header) (*Capture, error)
}

func upstream(provider, op string, err error) error {
	return fmt.Errorf("%s %s: %w: %w", provider, op, api.ErrUpstream, err)
}
