package homework

import "time"

type Assignment struct {
	ID          int        `json:"id" db:"id"`
	TutorID     int        `json:"tutor_id" db:"tutor_id"`
	StudentID   int        `json:"student_id" db:"student_id"`
	BookingID   *int       `json:"booking_id,omitempty" db:"booking_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	FileURL     *string    `json:"file_url,omitempty" db:"file_url"`
	DueAt       *time.Time `json:"due_at,omitempty" db:"due_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

type Submission struct {
	ID           int        `json:"id" db:"id"`
	AssignmentID int        `json:"assignment_id" db:"assignment_id"`
	StudentID    int        `json:"student_id" db:"student_id"`
	Content      string     `json:"content" db:"content"`
	FileURL      *string    `json:"file_url,omitempty" db:"file_url"`
	Grade        *string    `json:"grade,omitempty" db:"grade"`
	Feedback     *string    `json:"feedback,omitempty" db:"feedback"`
	SubmittedAt  time.Time  `json:"submitted_at" db:"submitted_at"`
	GradedAt     *time.Time `json:"graded_at,omitempty" db:"graded_at"`
}

type AssignRequest struct {
	StudentID   int        `json:"student_id" binding:"required,min=1"`
	BookingID   *int       `json:"booking_id" binding:"omitempty,min=1"`
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description" binding:"max=5000"`
	FileURL     string     `json:"file_url" binding:"omitempty,url"`
	DueAt       *time.Time `json:"due_at"`
}

type SubmitRequest struct {
	Content string `json:"content" binding:"max=20000"`
	FileURL string `json:"file_url" binding:"omitempty,url"`
}

type GradeRequest struct {
	Grade    string `json:"grade" binding:"required,max=20"`
	Feedback string `json:"feedback" binding:"max=5000"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
