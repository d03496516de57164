package homework

import "context"

type Repository interface {
	CreateAssignment(ctx context.Context, a *Assignment) (*Assignment, error)
	GetAssignment(ctx context.Context, id int) (*Assignment, error)
	ListByStudent(ctx context.Context, studentID int) ([]Assignment, error)
	ListByTutor(ctx context.Context, tutorID int) ([]Assignment, error)

	CreateSubmission(ctx context.Context, s *Submission) (*Submission, error)
	GetSubmission(ctx context.Context, id int) (*Submission, error)
	ListSubmissions(ctx context.Context, assignmentID int) ([]Submission, error)
	Grade(ctx context.Context, submissionID int, grade, feedback string) (*Submission, error)
}
