package payment

import "time"

const (
	ProviderStripe = "stripe"
	ProviderPayPal = "paypal"

	StatusSucceeded = "succeeded"
)

// Payment is an append-only record of money received for a booking.
type Payment struct {
	ID                    int       `db:"id" json:"id"`
	BookingID             int       `db:"booking_id" json:"booking_id"`
	StudentID             int       `db:"student_id" json:"student_id"`
	AmountCents           int64     `db:"amount_cents" json:"amount_cents" example:"4000"`
	Currency              string    `db:"currency" json:"currency" example:"USD"`
	PaymentMethod         string    `db:"payment_method" json:"payment_method" example:"stripe"`
	ProviderTransactionID string    `db:"provider_transaction_id" json:"provider_transaction_id"`
	Status                string    `db:"status" json:"status" example:"succeeded"`
	PaymentDate           time.Time `db:"payment_date" json:"payment_date"`
}

type CheckoutRequest struct {
	BookingID int    `json:"booking_id" binding:"required,min=1" example:"12"`
	Provider  string `json:"provider" binding:"required,oneof=stripe paypal" example:"stripe"`
}

// CheckoutResponse carries what the client needs to finish paying:
// a Stripe client secret or a PayPal approval link.
type CheckoutResponse struct {
	Provider     string `json:"provider" example:"stripe"`
	ProviderRef  string `json:"provider_ref" example:"pi_3Nx..."`
	ClientSecret string `json:"client_secret,omitempty"`
	ApproveURL   string `json:"approve_url,omitempty"`
	AmountCents  int64  `json:"amount_cents" example:"4000"`
	Currency     string `json:"currency" example:"USD"`
}

type CaptureRequest struct {
	ProviderRef string `json:"provider_ref" binding:"required" example:"5O190127TN364715T"`
}

type WebhookResponse struct {
	Received bool `json:"received" example:"true"`
}
