package payment

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"tutorslot/internal/api"
	"tutorslot/internal/booking"
	"tutorslot/internal/email"
	"tutorslot/internal/events"
	"tutorslot/internal/logger"
	"tutorslot/internal/metrics"
	"tutorslot/internal/user"
)

var (
	ErrProviderUnavailable = fmt.Errorf("payment provider not configured: %w", api.ErrInvalidInput)
	ErrNotOwner            = fmt.Errorf("booking belongs to another student: %w", api.ErrForbidden)
	ErrNotPayable          = fmt.Errorf("booking can no longer be paid: %w", api.ErrConflict)
	ErrAlreadyPaid         = fmt.Errorf("booking is already paid: %w", api.ErrConflict)
	ErrNothingToPay        = fmt.Errorf("booking has no price: %w", api.ErrInvalidInput)
	ErrUnknownWebhook      = fmt.Errorf("webhook provider %w", api.ErrNotFound)
)

type BookingReader interface {
	GetByID(ctx context.Context, id int) (*booking.Booking, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, userID int) (*user.User, error)
}

type Notifier interface {
	SendPaymentReceipt(ctx context.Context, to, name string, l email.Lesson, amount, provider string) error
}

type Service interface {
	Providers() []string
	Checkout(ctx context.Context, studentID int, req CheckoutRequest) (*CheckoutResponse, error)
	Capture(ctx context.Context, studentID int, provider, providerRef string) (*Payment, error)
	HandleWebhook(ctx context.Context, provider string, payload []byte, header http.Header) error
	ListForStudent(ctx context.Context, studentID int) ([]Payment, error)
	ListForBooking(ctx context.Context, userID, bookingID int) ([]Payment, error)
}

type service struct {
	repo      Repository
	bookings  BookingReader
	users     UserLookup
	notifier  Notifier
	publisher events.Publisher
	gateways  map[string]Gateway
}

// NewService serves every gateway passed in; providers left out are
// reported as unavailable.
func NewService(repo Repository, bookings BookingReader, users UserLookup, notifier Notifier, publisher events.Publisher, gateways ...Gateway) Service {
	s := &service{
		repo:      repo,
		bookings:  bookings,
		users:     users,
		notifier:  notifier,
		publisher: publisher,
		gateways:  make(map[string]Gateway, len(gateways)),
	}
	for _, g := range gateways {
		s.gateways[g.Provider()] = g
	}
	return s
}

func (s *service) Providers() []string {
	out := make([]string, 0, len(s.gateways))
	for name := range s.gateways {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *service) gateway(provider string) (Gateway, error) {
	g, ok := s.gateways[provider]
	if !ok {
		return nil, ErrProviderUnavailable
	}
	return g, nil
}

func (s *service) Checkout(ctx context.Context, studentID int, req CheckoutRequest) (*CheckoutResponse, error) {
	g, err := s.gateway(req.Provider)
	if err != nil {
		return nil, err
	}

	b, err := s.bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	switch {
	case b.StudentID != studentID:
		return nil, ErrNotOwner
	case !b.Live():
		return nil, ErrNotPayable
	case b.PaymentStatus == booking.PaymentPaid:
		return nil, ErrAlreadyPaid
	case b.PriceCents <= 0:
		return nil, ErrNothingToPay
	}

	intent, err := g.CreateIntent(ctx, b)
	if err != nil {
		metrics.RecordPayment(req.Provider, "failed")
		return nil, err
	}

	metrics.RecordPayment(req.Provider, "initiated")
	logger.Info("checkout started", "booking_id", b.ID, "provider", req.Provider, "ref", intent.ProviderRef)
	return &CheckoutResponse{
		Provider:     req.Provider,
		ProviderRef:  intent.ProviderRef,
		ClientSecret: intent.ClientSecret,
		ApproveURL:   intent.ApproveURL,
		AmountCents:  b.PriceCents,
		Currency:     b.Currency,
	}, nil
}

func (s *service) Capture(ctx context.Context, studentID int, provider, providerRef string) (*Payment, error) {
	g, err := s.gateway(provider)
	if err != nil {
		return nil, err
	}

	// Ownership is settled before the provider is asked to move money.
	bookingID, err := g.BookingOf(ctx, providerRef)
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.StudentID != studentID {
		return nil, ErrNotOwner
	}

	captured, err := g.Capture(ctx, providerRef)
	if err != nil {
		metrics.RecordPayment(provider, "failed")
		return nil, err
	}
	if captured.BookingID != b.ID {
		return nil, ErrUnknownBooking
	}
	return s.record(ctx, provider, b, captured)
}

// HandleWebhook processes one verified provider notification. Errors other
// than a bad signature should make the provider redeliver.
func (s *service) HandleWebhook(ctx context.Context, provider string, payload []byte, header http.Header) error {
	g, ok := s.gateways[provider]
	if !ok {
		metrics.RecordWebhook(provider, "rejected")
		return ErrUnknownWebhook
	}

	captured, err := g.VerifyWebhook(ctx, payload, header)
	if err != nil {
		metrics.RecordWebhook(provider, "rejected")
		return err
	}
	if captured == nil {
		metrics.RecordWebhook(provider, "ignored")
		return nil
	}

	b, err := s.bookings.GetByID(ctx, captured.BookingID)
	if err != nil {
		metrics.RecordWebhook(provider, "failed")
		return err
	}
	if _, err := s.record(ctx, provider, b, captured); err != nil {
		metrics.RecordWebhook(provider, "failed")
		return err
	}

	metrics.RecordWebhook(provider, "processed")
	return nil
}

func (s *service) record(ctx context.Context, provider string, b *booking.Booking, captured *Capture) (*Payment, error) {
	if captured.AmountCents != b.PriceCents {
		logger.Warn("captured amount differs from booking price",
			"booking_id", b.ID, "captured", captured.AmountCents, "price", b.PriceCents)
	}

	p, created, err := s.repo.Record(ctx, &Payment{
		BookingID:             b.ID,
		StudentID:             b.StudentID,
		AmountCents:           captured.AmountCents,
		Currency:              captured.Currency,
		PaymentMethod:         provider,
		ProviderTransactionID: captured.TransactionID,
		Status:                StatusSucceeded,
	})
	if err != nil {
		metrics.RecordPayment(provider, "failed")
		return nil, err
	}
	if !created {
		logger.Info("payment already recorded", "booking_id", b.ID, "provider", provider, "transaction", captured.TransactionID)
		return p, nil
	}

	metrics.RecordPayment(provider, StatusSucceeded)
	logger.Info("payment recorded", "booking_id", b.ID, "provider", provider, "amount_cents", p.AmountCents)

	err = s.publisher.Publish(ctx, events.Event{
		Type:      events.PaymentCaptured,
		BookingID: b.ID,
		TutorID:   b.TutorID,
		StudentID: b.StudentID,
		Attributes: map[string]string{
			"provider":     provider,
			"amount_cents": fmt.Sprint(p.AmountCents),
			"currency":     p.Currency,
		},
	})
	if err != nil {
		logger.Error("failed to publish payment event", "booking_id", b.ID, "error", err)
	}

	s.sendReceipt(ctx, b, p)
	return p, nil
}

func (s *service) sendReceipt(ctx context.Context, b *booking.Booking, p *Payment) {
	student, err := s.users.GetByID(ctx, b.StudentID)
	if err != nil {
		logger.Error("failed to load student for receipt", "booking_id", b.ID, "error", err)
		return
	}
	tutorUser, err := s.users.GetByID(ctx, b.TutorID)
	if err != nil {
		logger.Error("failed to load tutor for receipt", "booking_id", b.ID, "error", err)
		return
	}

	amount := formatMinor(p.AmountCents) + " " + p.Currency
	lesson := booking.LessonFor(b, tutorUser.Name, student.Name)
	if err := s.notifier.SendPaymentReceipt(ctx, student.Email, student.Name, lesson, amount, p.PaymentMethod); err != nil {
		logger.Error("failed to queue receipt", "booking_id", b.ID, "error", err)
	}
}

func (s *service) ListForStudent(ctx context.Context, studentID int) ([]Payment, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

func (s *service) ListForBooking(ctx context.Context, userID, bookingID int) ([]Payment, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.HasParticipant(userID) {
		return nil, booking.ErrNotParticipant
	}
	return s.repo.ListByBooking(ctx, bookingID)
}
