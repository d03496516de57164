package payment

import "context"

type Repository interface {
	// Record stores p and marks its booking paid in one transaction.
	// created is false when the provider transaction was already recorded.
	Record(ctx context.Context, p *Payment) (saved *Payment, created bool, err error)
	ListByStudent(ctx context.Context, studentID int) ([]Payment, error)
	ListByBooking(ctx context.Context, bookingID int) ([]Payment, error)
}
