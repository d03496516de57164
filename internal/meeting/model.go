package meeting

import "time"

// Room is a video call tied to one booking. Signaling happens between the
// browsers; the server only tracks who is in the room.
type Room struct {
	ID        string    `json:"id" example:"0b9c1f7e-5d0a-4a47-9d7c-3f0f3f6b2a11"`
	BookingID int       `json:"booking_id" example:"12"`
	TutorID   int       `json:"tutor_id" example:"4"`
	StudentID int       `json:"student_id" example:"7"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Participant struct {
	UserID   int       `json:"user_id" example:"7"`
	JoinedAt time.Time `json:"joined_at"`
}

type RoomState struct {
	Room
	Participants []Participant `json:"participants"`
}

type CreateRequest struct {
	BookingID int `json:"booking_id" binding:"required,min=1" example:"12"`
}
