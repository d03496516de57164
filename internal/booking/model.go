package booking

import "time"

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"

	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

type Booking struct {
	ID              int       `db:"id" json:"id"`
	StudentID       int       `db:"student_id" json:"student_id"`
	TutorID         int       `db:"tutor_id" json:"tutor_id"`
	LessonDate      string    `db:"lesson_date" json:"lesson_date" example:"2025-03-10"`
	LessonTime      string    `db:"lesson_time" json:"lesson_time" example:"10:00"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes" example:"60"`
	Status          string    `db:"status" json:"status" example:"pending"`
	PaymentStatus   string    `db:"payment_status" json:"payment_status" example:"unpaid"`
	PriceCents      int64     `db:"price_cents" json:"price_cents" example:"4000"`
	Currency        string    `db:"currency" json:"currency" example:"USD"`
	Notes           string    `db:"notes" json:"notes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether userID is the student or the tutor.
func (b *Booking) HasParticipant(userID int) bool {
	return b.StudentID == userID || b.TutorID == userID
}

// Live bookings hold their slot.
func (b *Booking) Live() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

type CreateBookingRequest struct {
	TutorID         int    `json:"tutor_id" binding:"required,min=1" example:"4"`
	LessonDate      string `json:"lesson_date" binding:"required,date" example:"2025-03-10"`
	LessonTime      string `json:"lesson_time" binding:"required,clock" example:"10:00"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=15,max=480" example:"60"`
	Notes           string `json:"notes" binding:"max=2000"`
}

// PointOfSaleRequest is a booking a tutor enters on a student's behalf.
type PointOfSaleRequest struct {
	StudentID       int    `json:"student_id" binding:"required,min=1" example:"7"`
	LessonDate      string `json:"lesson_date" binding:"required,date" example:"2025-03-10"`
	LessonTime      string `json:"lesson_time" binding:"required,clock" example:"10:00"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=15,max=480" example:"60"`
	Notes           string `json:"notes" binding:"max=2000"`
}
