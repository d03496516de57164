package homework

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tutorslot/internal/api"
	"tutorslot/internal/auth"
	"tutorslot/internal/booking"
	"tutorslot/internal/logger"
	"tutorslot/internal/user"
)

var (
	ErrNotStudent      = fmt.Errorf("homework can only be assigned to a student: %w", api.ErrInvalidInput)
	ErrForeignBooking  = fmt.Errorf("booking is not between this tutor and student: %w", api.ErrInvalidInput)
	ErrEmptySubmission = fmt.Errorf("submission needs content or a file: %w", api.ErrInvalidInput)
	ErrNotAssignee     = fmt.Errorf("assignment belongs to another student: %w", api.ErrForbidden)
	ErrNotAssigner     = fmt.Errorf("assignment belongs to another tutor: %w", api.ErrForbidden)
)

type BookingReader interface {
	GetByID(ctx context.Context, id int) (*booking.Booking, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, userID int) (*user.User, error)
}

type Notifier interface {
	SendHomeworkAssigned(ctx context.Context, to, name, title string, due *time.Time) error
}

type Service interface {
	Assign(ctx context.Context, tutorID int, req AssignRequest) (*Assignment, error)
	ListForStudent(ctx context.Context, studentID int) ([]Assignment, error)
	ListForTutor(ctx context.Context, tutorID int) ([]Assignment, error)
	Submit(ctx context.Context, studentID, assignmentID int, req SubmitRequest) (*Submission, error)
	Submissions(ctx context.Context, tutorID, assignmentID int) ([]Submission, error)
	Grade(ctx context.Context, tutorID, submissionID int, req GradeRequest) (*Submission, error)
}

type service struct {
	repo     Repository
	bookings BookingReader
	users    UserLookup
	notifier Notifier
}

func NewService(repo Repository, bookings BookingReader, users UserLookup, notifier Notifier) Service {
	return &service{repo: repo, bookings: bookings, users: users, notifier: notifier}
}

func (s *service) Assign(ctx context.Context, tutorID int, req AssignRequest) (*Assignment, error) {
	student, err := s.users.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if student.Role != auth.RoleStudent {
		return nil, ErrNotStudent
	}

	if req.BookingID != nil {
		b, err := s.bookings.GetByID(ctx, *req.BookingID)
		if err != nil {
			return nil, err
		}
		if b.TutorID != tutorID || b.StudentID != req.StudentID {
			return nil, ErrForeignBooking
		}
	}

	a, err := s.repo.CreateAssignment(ctx, &Assignment{
		TutorID:     tutorID,
		StudentID:   req.StudentID,
		BookingID:   req.BookingID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		FileURL:     optional(req.FileURL),
		DueAt:       req.DueAt,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("homework assigned", "assignment_id", a.ID, "tutor_id", tutorID, "student_id", a.StudentID)
	if err := s.notifier.SendHomeworkAssigned(ctx, student.Email, student.Name, a.Title, a.DueAt); err != nil {
		logger.Warn("failed to queue homework email", "assignment_id", a.ID, "error", err)
	}
	return a, nil
}

func (s *service) ListForStudent(ctx context.Context, studentID int) ([]Assignment, error) {
	return s.repo.ListByStudent(ctx, studentID)
}

func (s *service) ListForTutor(ctx context.Context, tutorID int) ([]Assignment, error) {
	return s.repo.ListByTutor(ctx, tutorID)
}

func (s *service) Submit(ctx context.Context, studentID, assignmentID int, req SubmitRequest) (*Submission, error) {
	if strings.TrimSpace(req.Content) == "" && req.FileURL == "" {
		return nil, ErrEmptySubmission
	}

	a, err := s.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.StudentID != studentID {
		return nil, ErrNotAssignee
	}

	sub, err := s.repo.CreateSubmission(ctx, &Submission{
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Content:      req.Content,
		FileURL:      optional(req.FileURL),
	})
	if err != nil {
		return nil, err
	}

	logger.Info("homework submitted", "submission_id", sub.ID, "assignment_id", assignmentID, "student_id", studentID)
	return sub, nil
}

func (s *service) owned(ctx context.Context, tutorID, assignmentID int) (*Assignment, error) {
	a, err := s.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if a.TutorID != tutorID {
		return nil, ErrNotAssigner
	}
	return a, nil
}

func (s *service) Submissions(ctx context.Context, tutorID, assignmentID int) ([]Submission, error) {
	if _, err := s.owned(ctx, tutorID, assignmentID); err != nil {
		return nil, err
	}
	return s.repo.ListSubmissions(ctx, assignmentID)
}

func (s *service) Grade(ctx context.Context, tutorID, submissionID int, req GradeRequest) (*Submission, error) {
	sub, err := s.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, tutorID, sub.AssignmentID); err != nil {
		return nil, err
	}

	graded, err := s.repo.Grade(ctx, submissionID, strings.TrimSpace(req.Grade), req.Feedback)
	if err != nil {
		return nil, err
	}

	logger.Info("homework graded", "submission_id", submissionID, "tutor_id", tutorID)
	return graded, nil
}
