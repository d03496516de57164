package booking

import (
	"context"
	"fmt"
	"time"

	"tutorslot/internal/api"
	"tutorslot/internal/email"
	"tutorslot/internal/events"
	"tutorslot/internal/logger"
	"tutorslot/internal/metrics"
	"tutorslot/internal/slots"
	"tutorslot/internal/tutor"
	"tutorslot/internal/user"
)

var (
	ErrSlotUnavailable = fmt.Errorf("slot is not available: %w", api.ErrConflict)
	ErrSlotInPast      = fmt.Errorf("cannot book a lesson in the past: %w", api.ErrInvalidInput)
	ErrSelfBooking     = fmt.Errorf("tutors cannot book themselves: %w", api.ErrInvalidInput)
	ErrNotParticipant  = fmt.Errorf("not a participant of this booking: %w", api.ErrForbidden)
)

// Availability is the slice of the tutor service that booking needs.
type Availability interface {
	GetProfile(ctx context.Context, tutorID int) (*tutor.Profile, error)
	IsSlotAvailable(ctx context.Context, tutorID int, date time.Time, lessonTime string, durationMinutes int) (bool, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, userID int) (*user.User, error)
}

type Notifier interface {
	SendBookingRequested(ctx context.Context, to, name string, l email.Lesson) error
	SendBookingConfirmation(ctx context.Context, to, name string, l email.Lesson) error
	SendCancellation(ctx context.Context, to, name string, l email.Lesson) error
}

type Service interface {
	Create(ctx context.Context, studentID int, req CreateBookingRequest) (*Booking, error)
	CreateForStudent(ctx context.Context, tutorID int, req PointOfSaleRequest) (*Booking, error)
	Get(ctx context.Context, userID, bookingID int) (*Booking, error)
	ListForStudent(ctx context.Context, studentID int) ([]Booking, error)
	ListForTutor(ctx context.Context, tutorID int, date string) ([]Booking, error)
	Confirm(ctx context.Context, tutorID, bookingID int) (*Booking, error)
	Complete(ctx context.Context, tutorID, bookingID int) (*Booking, error)
	Cancel(ctx context.Context, userID, bookingID int) (*Booking, error)
}

type service struct {
	repo            Repository
	tutors          Availability
	users           UserLookup
	notifier        Notifier
	publisher       events.Publisher
	location        *time.Location
	defaultDuration int
	now             func() time.Time
}

func NewService(
	repo Repository,
	tutors Availability,
	users UserLookup,
	notifier Notifier,
	publisher events.Publisher,
	location *time.Location,
	defaultDuration int,
) Service {
	if location == nil {
		location = time.UTC
	}
	return &service{
		repo:            repo,
		tutors:          tutors,
		users:           users,
		notifier:        notifier,
		publisher:       publisher,
		location:        location,
		defaultDuration: defaultDuration,
		now:             time.Now,
	}
}

func (s *service) Create(ctx context.Context, studentID int, req CreateBookingRequest) (*Booking, error) {
	return s.create(ctx, studentID, req.TutorID, req.LessonDate, req.LessonTime, req.DurationMinutes, req.Notes)
}

func (s *service) CreateForStudent(ctx context.Context, tutorID int, req PointOfSaleRequest) (*Booking, error) {
	if _, err := s.users.GetByID(ctx, req.StudentID); err != nil {
		return nil, err
	}
	return s.create(ctx, req.StudentID, tutorID, req.LessonDate, req.LessonTime, req.DurationMinutes, req.Notes)
}

func (s *service) create(ctx context.Context, studentID, tutorID int, date, lessonTime string, duration int, notes string) (*Booking, error) {
	if studentID == tutorID {
		return nil, ErrSelfBooking
	}
	if duration == 0 {
		duration = s.defaultDuration
	}

	day, err := slots.ParseDate(date)
	if err != nil {
		return nil, err
	}
	start, err := slots.ParseClock(lessonTime)
	if err != nil {
		return nil, err
	}

	startsAt := time.Date(day.Year(), day.Month(), day.Day(), 0, int(start), 0, 0, s.location)
	if startsAt.Before(s.now()) {
		return nil, ErrSlotInPast
	}

	profile, err := s.tutors.GetProfile(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	ok, err := s.tutors.IsSlotAvailable(ctx, tutorID, day, start.String(), duration)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.RecordBookingConflict()
		return nil, ErrSlotUnavailable
	}

	b, err := s.repo.Create(ctx, &Booking{
		StudentID:       studentID,
		TutorID:         tutorID,
		LessonDate:      day.Format(time.DateOnly),
		LessonTime:      start.String(),
		DurationMinutes: duration,
		PriceCents:      Price(profile.HourlyRateCents, duration),
		Currency:        profile.Currency,
		Notes:           notes,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("booking created", "booking_id", b.ID, "tutor_id", tutorID, "student_id", studentID, "date", b.LessonDate, "time", b.LessonTime)
	metrics.RecordBooking(StatusPending)
	s.publish(ctx, events.BookingCreated, b)
	s.notify(ctx, b, b.TutorID, s.notifier.SendBookingRequested)
	return b, nil
}

// Price charges the hourly rate pro rata, rounded to the nearest cent.
func Price(hourlyRateCents int64, durationMinutes int) int64 {
	return (hourlyRateCents*int64(durationMinutes) + 30) / 60
}

func (s *service) Get(ctx context.Context, userID, bookingID int) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return b, nil
}

func (s *service) ListForStudent(ctx context.Context, studentID int) ([]Booking, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

func (s *service) ListForTutor(ctx context.Context, tutorID int, date string) ([]Booking, error) {
	if date == "" {
		return s.repo.ListByTutor(ctx, tutorID, nil)
	}
	day, err := slots.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByTutor(ctx, tutorID, &day)
}

func (s *service) Confirm(ctx context.Context, tutorID, bookingID int) (*Booking, error) {
	b, err := s.transition(ctx, tutorID, bookingID, true, StatusConfirmed, StatusPending)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingConfirmed, b)
	s.notify(ctx, b, b.StudentID, s.notifier.SendBookingConfirmation)
	return b, nil
}

func (s *service) Complete(ctx context.Context, tutorID, bookingID int) (*Booking, error) {
	b, err := s.transition(ctx, tutorID, bookingID, true, StatusCompleted, StatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingCompleted, b)
	return b, nil
}

// Cancel is open to either participant. The other side is told.
func (s *service) Cancel(ctx context.Context, userID, bookingID int) (*Booking, error) {
	b, err := s.transition(ctx, userID, bookingID, false, StatusCancelled, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingCancelled, b)

	other := b.TutorID
	if userID == b.TutorID {
		other = b.StudentID
	}
	s.notify(ctx, b, other, s.notifier.SendCancellation)
	return b, nil
}

func (s *service) transition(ctx context.Context, userID, bookingID int, tutorOnly bool, to string, from ...string) (*Booking, error) {
	current, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if tutorOnly && current.TutorID != userID {
		return nil, ErrNotParticipant
	}
	if !current.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}

	allowed := false
	for _, f := range from {
		if current.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("cannot move booking from %s to %s: %w", current.Status, to, ErrInvalidTransition)
	}

	b, err := s.repo.UpdateStatus(ctx, bookingID, to, from...)
	if err != nil {
		return nil, err
	}

	logger.Info("booking status changed", "booking_id", b.ID, "from", current.Status, "to", to, "by", userID)
	metrics.RecordBooking(to)
	return b, nil
}

func (s *service) publish(ctx context.Context, eventType string, b *Booking) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:       eventType,
		BookingID:  b.ID,
		TutorID:    b.TutorID,
		StudentID:  b.StudentID,
		LessonDate: b.LessonDate,
		LessonTime: b.LessonTime,
		Attributes: map[string]string{"status": b.Status},
	})
	if err != nil {
		logger.Error("failed to publish booking event", "type", eventType, "booking_id", b.ID, "error", err)
	}
}

// notify mails recipientID about b. Failures are logged; the booking
// change has already been committed.
func (s *service) notify(ctx context.Context, b *Booking, recipientID int, send func(context.Context, string, string, email.Lesson) error) {
	tutorUser, err := s.users.GetByID(ctx, b.TutorID)
	if err != nil {
		logger.Error("failed to load tutor for email", "booking_id", b.ID, "error", err)
		return
	}
	student, err := s.users.GetByID(ctx, b.StudentID)
	if err != nil {
		logger.Error("failed to load student for email", "booking_id", b.ID, "error", err)
		return
	}

	to := student
	if recipientID == b.TutorID {
		to = tutorUser
	}
	if err := send(ctx, to.Email, to.Name, LessonFor(b, tutorUser.Name, student.Name)); err != nil {
		logger.Error("failed to queue booking email", "booking_id", b.ID, "error", err)
	}
}

// LessonFor renders b for notification bodies.
func LessonFor(b *Booking, tutorName, studentName string) email.Lesson {
	return email.Lesson{
		BookingID:       b.ID,
		TutorName:       tutorName,
		StudentName:     studentName,
		Date:            b.LessonDate,
		Time:            b.LessonTime,
		DurationMinutes: b.DurationMinutes,
	}
}
