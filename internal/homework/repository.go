package homework

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tutorslot/internal/api"

	"github.com/jmoiron/sqlx"
)

var (
	ErrAssignmentNotFound = fmt.Errorf("assignment %w", api.ErrNotFound)
	ErrSubmissionNotFound = fmt.Errorf("submission %w", api.ErrNotFound)
)

const (
	assignmentColumns = `id, tutor_id, student_id, booking_id, title, description, file_url, due_at, created_at`
	submissionColumns = `id, assignment_id, student_id, content, file_url, grade, feedback, submitted_at, graded_at`
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateAssignment(ctx context.Context, a *Assignment) (*Assignment, error) {
	query := `
		INSERT INTO homework_assignments (tutor_id, student_id, booking_id, title, description, file_url, due_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + assignmentColumns

	var created Assignment
	err := r.db.GetContext(ctx, &created, query,
		a.TutorID, a.StudentID, a.BookingID, a.Title, a.Description, a.FileURL, a.DueAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetAssignment(ctx context.Context, id int) (*Assignment, error) {
	var a Assignment
	err := r.db.GetContext(ctx, &a, `SELECT `+assignmentColumns+` FROM homework_assignments WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListByStudent(ctx context.Context, studentID int) ([]Assignment, error) {
	query := `SELECT ` + assignmentColumns + `
		FROM homework_assignments
		WHERE student_id = $1
		ORDER BY due_at NULLS LAST, created_at DESC`

	assignments := []Assignment{}
	if err := r.db.SelectContext(ctx, &assignments, query, studentID); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repository) ListByTutor(ctx context.Context, tutorID int) ([]Assignment, error) {
	query := `SELECT ` + assignmentColumns + `
		FROM homework_assignments
		WHERE tutor_id = $1
		ORDER BY created_at DESC`

	assignments := []Assignment{}
	if err := r.db.SelectContext(ctx, &assignments, query, tutorID); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repository) CreateSubmission(ctx context.Context, s *Submission) (*Submission, error) {
	query := `
		INSERT INTO homework_submissions (assignment_id, student_id, content, file_url)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + submissionColumns

	var created Submission
	if err := r.db.GetContext(ctx, &created, query, s.AssignmentID, s.StudentID, s.Content, s.FileURL); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *repository) GetSubmission(ctx context.Context, id int) (*Submission, error) {
	var s Submission
	err := r.db.GetContext(ctx, &s, `SELECT `+submissionColumns+` FROM homework_submissions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *repository) ListSubmissions(ctx context.Context, assignmentID int) ([]Submission, error) {
	query := `SELECT ` + submissionColumns + `
		FROM homework_submissions
		WHERE assignment_id = $1
		ORDER BY submitted_at DESC`

	submissions := []Submission{}
	if err := r.db.SelectContext(ctx, &submissions, query, assignmentID); err != nil {
		return nil, err
	}
	return submissions, nil
}

// Grade overwrites any earlier grade.
func (r *repository) Grade(ctx context.Context, submissionID int, grade, feedback string) (*Submission, error) {
	query := `
		UPDATE homework_submissions
		SET grade = $2, feedback = $3, graded_at = NOW()
		WHERE id = $1
		RETURNING ` + submissionColumns

	var s Submission
	if err := r.db.GetContext(ctx, &s, query, submissionID, grade, optional(feedback)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return &s, nil
}
