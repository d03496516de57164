package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tutorslot/internal/api"
	"tutorslot/internal/db"
	"tutorslot/internal/metrics"
	"tutorslot/internal/slots"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrBookingNotFound   = fmt.Errorf("booking %w", api.ErrNotFound)
	ErrSlotTaken         = fmt.Errorf("slot already booked: %w", api.ErrConflict)
	ErrInvalidTransition = fmt.Errorf("booking status does not allow this change: %w", api.ErrConflict)
)

const liveSlotIndex = "uq_bookings_live_slot"

const bookingColumns = `id, student_id, tutor_id,
		TO_CHAR(lesson_date, 'YYYY-MM-DD') AS lesson_date,
		TO_CHAR(lesson_time, 'HH24:MI') AS lesson_time,
		duration_minutes, status, payment_status, price_cents, currency, notes,
		created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, b *Booking) (*Booking, error) {
	query := `
		INSERT INTO bookings (student_id, tutor_id, lesson_date, lesson_time, duration_minutes, price_cents, currency, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + bookingColumns

	var created Booking
	err := r.db.GetContext(ctx, &created, query,
		b.StudentID, b.TutorID, b.LessonDate, b.LessonTime, b.DurationMinutes, b.PriceCents, b.Currency, b.Notes)
	if err != nil {
		if db.IsUniqueViolation(err, liveSlotIndex) {
			metrics.RecordBookingConflict()
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var b Booking
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) ListByStudent(ctx context.Context, studentID int) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE student_id = $1
		ORDER BY lesson_date DESC, lesson_time DESC`

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, studentID); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) ListByTutor(ctx context.Context, tutorID int, date *time.Time) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE tutor_id = $1 AND ($2::date IS NULL OR lesson_date = $2::date)
		ORDER BY lesson_date, lesson_time`

	var day interface{}
	if date != nil {
		day = date.Format(time.DateOnly)
	}

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, tutorID, day); err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListCommitments returns every non-cancelled booking the tutor holds on
// date, in the shape the slot computation consumes.
func (r *repository) ListCommitments(ctx context.Context, tutorID int, date time.Time) ([]slots.Commitment, error) {
	query := `
		SELECT TO_CHAR(lesson_time, 'HH24:MI') AS lesson_time, duration_minutes
		FROM bookings
		WHERE tutor_id = $1 AND lesson_date = $2 AND status <> 'cancelled'
		ORDER BY lesson_time`

	var rows []struct {
		LessonTime      string `db:"lesson_time"`
		DurationMinutes int    `db:"duration_minutes"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, tutorID, date.Format(time.DateOnly)); err != nil {
		return nil, err
	}

	commitments := make([]slots.Commitment, 0, len(rows))
	for _, row := range rows {
		commitments = append(commitments, slots.Commitment{LessonTime: row.LessonTime, DurationMinutes: row.DurationMinutes})
	}
	return commitments, nil
}

// UpdateStatus moves a booking to status to, but only while it is in one
// of the from states. A miss means the booking changed underneath us.
func (r *repository) UpdateStatus(ctx context.Context, id int, to string, from ...string) (*Booking, error) {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
		RETURNING ` + bookingColumns

	var b Booking
	if err := r.db.GetContext(ctx, &b, query, id, to, pq.Array(from)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	return &b, nil
}
