package booking

import (
	"context"
	"time"

	"tutorslot/internal/slots"
)

type Repository interface {
	Create(ctx context.Context, b *Booking) (*Booking, error)
	GetByID(ctx context.Context, id int) (*Booking, error)
	ListByStudent(ctx context.Context, studentID int) ([]Booking, error)
	ListByTutor(ctx context.Context, tutorID int, date *time.Time) ([]Booking, error)
	ListCommitments(ctx context.Context, tutorID int, date time.Time) ([]slots.Commitment, error)
	UpdateStatus(ctx context.Context, id int, to string, from ...string) (*Booking, error)
}
