package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tutorslot/internal/api"

	"github.com/jmoiron/sqlx"
)

var ErrBookingMissing = fmt.Errorf("paid booking %w", api.ErrNotFound)

const paymentColumns = `id, booking_id, student_id, amount_cents, currency, payment_method,
		provider_transaction_id, status, payment_date`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Record(ctx context.Context, p *Payment) (*Payment, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var saved Payment
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO payments (booking_id, student_id, amount_cents, currency, payment_method, provider_transaction_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (payment_method, provider_transaction_id) DO NOTHING
		 RETURNING `+paymentColumns,
		p.BookingID, p.StudentID, p.AmountCents, p.Currency, p.PaymentMethod, p.ProviderTransactionID, p.Status,
	).StructScan(&saved)
	if errors.Is(err, sql.ErrNoRows) {
		// Redelivery of a transaction we already hold.
		err = tx.QueryRowxContext(ctx,
			`SELECT `+paymentColumns+`
			 FROM payments
			 WHERE payment_method = $1 AND provider_transaction_id = $2`,
			p.PaymentMethod, p.ProviderTransactionID,
		).StructScan(&saved)
		if err != nil {
			return nil, false, err
		}
		return &saved, false, tx.Commit()
	}
	if err != nil {
		return nil, false, err
	}

	// Money already moved, so a booking cancelled in the meantime is still
	// marked paid; only pending bookings are confirmed.
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings
		 SET payment_status = 'paid',
		     status = CASE WHEN status = 'pending' THEN 'confirmed' ELSE status END,
		     updated_at = NOW()
		 WHERE id = $1`,
		p.BookingID,
	)
	if err != nil {
		return nil, false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if rows == 0 {
		return nil, false, ErrBookingMissing
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return &saved, true, nil
}

func (r *repository) ListByStudent(ctx context.Context, studentID int) ([]Payment, error) {
	payments := []Payment{}
	err := r.db.SelectContext(ctx, &payments,
		`SELECT `+paymentColumns+` FROM payments WHERE student_id = $1 ORDER BY payment_date DESC`,
		studentID,
	)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) ListByBooking(ctx context.Context, bookingID int) ([]Payment, error) {
	payments := []Payment{}
	err := r.db.SelectContext(ctx, &payments,
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 ORDER BY payment_date`,
		bookingID,
	)
	if err != nil {
		return nil, err
	}
	return payments, nil
}
