package payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"tutorslot/internal/booking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payPalServer struct {
	*httptest.Server
	captures atomic.Int32
}

// fakePayPal answers the handful of REST calls the gateway makes and
// counts capture calls.
func fakePayPal(t *testing.T, captureStatus, verification string) *payPalServer {
	t.Helper()
	fake := &payPalServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token":"A21","token_type":"Bearer","expires_in":32400}`)
	})
	mux.HandleFunc("/v2/checkout/orders", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"reference_id":"12"`)
		assert.Contains(t, string(body), `"value":"40.00"`)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"ORDER1","status":"CREATED","links":[{"href":"https://paypal.test/checkoutnow?token=ORDER1","rel":"approve","method":"GET"}]}`)
	})
	mux.HandleFunc("/v2/checkout/orders/ORDER1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"ORDER1","status":"APPROVED","purchase_units":[{"reference_id":"12","amount":{"currency_code":"USD","value":"40.00"}}]}`)
	})
	mux.HandleFunc("/v2/checkout/orders/ORDER1/capture", func(w http.ResponseWriter, r *http.Request) {
		fake.captures.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"ORDER1","status":"`+captureStatus+`","purchase_units":[{"reference_id":"12","payments":{"captures":[{"id":"CAP1","status":"COMPLETED","amount":{"currency_code":"USD","value":"40.00"}}]}}]}`)
	})
	mux.HandleFunc("/v1/notifications/verify-webhook-signature", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"webhook_id":"WH-1"`)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"verification_status":"`+verification+`"}`)
	})
	fake.Server = httptest.NewServer(mux)
	t.Cleanup(fake.Close)
	return fake
}

func newPayPal(t *testing.T, srv *payPalServer) *PayPalGateway {
	g, err := NewPayPalGateway("client", "secret", srv.URL, "WH-1")
	require.NoError(t, err)
	return g
}

func TestPayPalGateway_CreateIntent(t *testing.T) {
	g := newPayPal(t, fakePayPal(t, "COMPLETED", "SUCCESS"))

	intent, err := g.CreateIntent(context.Background(), &booking.Booking{ID: 12, PriceCents: 4000, Currency: "USD", LessonDate: "2025-03-10", LessonTime: "10:00"})
	require.NoError(t, err)
	assert.Equal(t, "ORDER1", intent.ProviderRef)
	assert.Equal(t, "https://paypal.test/checkoutnow?token=ORDER1", intent.ApproveURL)
}

func TestPayPalGateway_BookingOf(t *testing.T) {
	srv := fakePayPal(t, "COMPLETED", "SUCCESS")
	g := newPayPal(t, srv)

	id, err := g.BookingOf(context.Background(), "ORDER1")
	require.NoError(t, err)
	assert.Equal(t, 12, id)
	assert.Equal(t, int32(0), srv.captures.Load())
}

func TestPayPalGateway_Capture(t *testing.T) {
	g := newPayPal(t, fakePayPal(t, "COMPLETED", "SUCCESS"))

	got, err := g.Capture(context.Background(), "ORDER1")
	require.NoError(t, err)
	assert.Equal(t, &Capture{BookingID: 12, TransactionID: "CAP1", AmountCents: 4000, Currency: "USD"}, got)

	pending := newPayPal(t, fakePayPal(t, "PAYER_ACTION_REQUIRED", "SUCCESS"))
	_, err = pending.Capture(context.Background(), "ORDER1")
	assert.ErrorIs(t, err, ErrNotCompleted)
}

const paypalCaptureEvent = `{"id":"WH-EVT-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP1","status":"COMPLETED","custom_id":"12","amount":{"currency_code":"USD","value":"40.00"}}}`

func paypalHeaders() http.Header {
	h := http.Header{}
	h.Set("Paypal-Transmission-Id", "tx-1")
	h.Set("Paypal-Transmission-Sig", "sig")
	h.Set("Paypal-Auth-Algo", "SHA256withRSA")
	return h
}

func TestPayPalGateway_VerifyWebhook(t *testing.T) {
	t.Run("verified capture", func(t *testing.T) {
		g := newPayPal(t, fakePayPal(t, "COMPLETED", "SUCCESS"))

		got, err := g.VerifyWebhook(context.Background(), []byte(paypalCaptureEvent), paypalHeaders())
		require.NoError(t, err)
		assert.Equal(t, &Capture{BookingID: 12, TransactionID: "CAP1", AmountCents: 4000, Currency: "USD"}, got)
	})

	t.Run("failed verification", func(t *testing.T) {
		g := newPayPal(t, fakePayPal(t, "COMPLETED", "FAILURE"))

		_, err := g.VerifyWebhook(context.Background(), []byte(paypalCaptureEvent), paypalHeaders())
		assert.ErrorIs(t, err, ErrBadSignature)
	})

	t.Run("unrelated event", func(t *testing.T) {
		g := newPayPal(t, fakePayPal(t, "COMPLETED", "SUCCESS"))
		event := strings.Replace(paypalCaptureEvent, "PAYMENT.CAPTURE.COMPLETED", "CHECKOUT.ORDER.APPROVED", 1)

		got, err := g.VerifyWebhook(context.Background(), []byte(event), paypalHeaders())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, "40.00", formatMinor(4000))
	assert.Equal(t, "0.05", formatMinor(5))
	assert.Equal(t, "16.67", formatMinor(1667))

	cents, err := parseMinor("16.67")
	require.NoError(t, err)
	assert.Equal(t, int64(1667), cents)

	_, err = parseMinor("abc")
	assert.Error(t, err)
}
