package tutor

import "time"

type Profile struct {
	UserID          int       `db:"user_id" json:"user_id"`
	Name            string    `db:"name" json:"name"`
	Bio             string    `db:"bio" json:"bio"`
	Subjects        string    `db:"subjects" json:"subjects"`
	HourlyRateCents int64     `db:"hourly_rate_cents" json:"hourly_rate_cents"`
	Currency        string    `db:"currency" json:"currency"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// AvailabilityRule is a recurring weekly window. Times are "HH:MM" in the
// schedule timezone.
type AvailabilityRule struct {
	ID          int       `db:"id" json:"id"`
	TutorID     int       `db:"tutor_id" json:"tutor_id"`
	DayOfWeek   int       `db:"day_of_week" json:"day_of_week"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type BlockedInterval struct {
	ID            int       `db:"id" json:"id"`
	TutorID       int       `db:"tutor_id" json:"tutor_id"`
	StartDatetime time.Time `db:"start_datetime" json:"start_datetime"`
	EndDatetime   time.Time `db:"end_datetime" json:"end_datetime"`
	Reason        string    `db:"reason" json:"reason"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type UpsertProfileRequest struct {
	Bio             string `json:"bio" binding:"max=4000"`
	Subjects        string `json:"subjects" binding:"max=1000"`
	HourlyRateCents int64  `json:"hourly_rate_cents" binding:"min=0"`
	Currency        string `json:"currency" binding:"omitempty,len=3,uppercase"`
}

type RuleRequest struct {
	DayOfWeek   *int   `json:"day_of_week" binding:"required,min=0,max=6"`
	StartTime   string `json:"start_time" binding:"required,clock"`
	EndTime     string `json:"end_time" binding:"required,clock"`
	IsAvailable *bool  `json:"is_available"`
}

type BlockedRequest struct {
	StartDatetime time.Time `json:"start_datetime" binding:"required"`
	EndDatetime   time.Time `json:"end_datetime" binding:"required"`
	Reason        string    `json:"reason" binding:"max=500"`
}

type SlotsResponse struct {
	TutorID         int      `json:"tutor_id"`
	Date            string   `json:"date"`
	DurationMinutes int      `json:"duration_minutes"`
	Slots           []string `json:"slots"`
}
