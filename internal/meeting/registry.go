package meeting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"tutorslot/internal/api"
	"tutorslot/internal/booking"
	"tutorslot/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrMeetingNotFound = fmt.Errorf("meeting %w", api.ErrNotFound)
	ErrNotParticipant  = fmt.Errorf("not a participant of this lesson: %w", api.ErrForbidden)
	ErrTutorOnly       = fmt.Errorf("only the tutor can end the meeting: %w", api.ErrForbidden)
	ErrBookingClosed   = fmt.Errorf("booking is not active: %w", api.ErrConflict)
)

type BookingReader interface {
	GetByID(ctx context.Context, id int) (*booking.Booking, error)
}

type Service interface {
	Create(ctx context.Context, userID, bookingID int) (*Room, error)
	Join(ctx context.Context, userID int, meetingID string) (*RoomState, error)
	Leave(ctx context.Context, userID int, meetingID string) error
	Participants(ctx context.Context, userID int, meetingID string) (*RoomState, error)
	End(ctx context.Context, userID int, meetingID string) error
}

// Registry keeps rooms in redis. Every key expires with the room, so a
// room nobody ends disappears on its own.
type Registry struct {
	redis    *redis.Client
	bookings BookingReader
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
}

func NewRegistry(rdb *redis.Client, bookings BookingReader, ttl time.Duration) *Registry {
	return &Registry{
		redis:    rdb,
		bookings: bookings,
		ttl:      ttl,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func roomKey(id string) string         { return "meeting:" + id }
func participantsKey(id string) string { return "meeting:" + id + ":participants" }
func bookingKey(bookingID int) string  { return "meeting:booking:" + strconv.Itoa(bookingID) }

// Create opens the room for a booking, or returns the one already open.
func (r *Registry) Create(ctx context.Context, userID, bookingID int) (*Room, error) {
	b, err := r.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	if !b.Live() {
		return nil, ErrBookingClosed
	}

	existing, err := r.redis.Get(ctx, bookingKey(bookingID)).Result()
	switch {
	case err == nil:
		room, err := r.load(ctx, existing)
		if err == nil {
			return room, nil
		}
		if !errors.Is(err, ErrMeetingNotFound) {
			return nil, err
		}
	case !errors.Is(err, redis.Nil):
		return nil, err
	}

	now := r.now().UTC().Truncate(time.Second)
	room := &Room{
		ID:        r.newID(),
		BookingID: b.ID,
		TutorID:   b.TutorID,
		StudentID: b.StudentID,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}

	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, roomKey(room.ID), map[string]interface{}{
			"booking_id": strconv.Itoa(room.BookingID),
			"tutor_id":   strconv.Itoa(room.TutorID),
			"student_id": strconv.Itoa(room.StudentID),
			"created_at": room.CreatedAt.Format(time.RFC3339),
			"expires_at": room.ExpiresAt.Format(time.RFC3339),
		})
		pipe.ExpireAt(ctx, roomKey(room.ID), room.ExpiresAt)
		pipe.Set(ctx, bookingKey(b.ID), room.ID, r.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store meeting: %w", err)
	}

	logger.Info("meeting created", "meeting_id", room.ID, "booking_id", room.BookingID, "by", userID)
	return room, nil
}

func (r *Registry) load(ctx context.Context, id string) (*Room, error) {
	fields, err := r.redis.HGetAll(ctx, roomKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrMeetingNotFound
	}

	room := &Room{ID: id}
	room.BookingID, _ = strconv.Atoi(fields["booking_id"])
	room.TutorID, _ = strconv.Atoi(fields["tutor_id"])
	room.StudentID, _ = strconv.Atoi(fields["student_id"])
	room.CreatedAt, _ = time.Parse(time.RFC3339, fields["created_at"])
	room.ExpiresAt, _ = time.Parse(time.RFC3339, fields["expires_at"])
	return room, nil
}

func (r *Registry) authorize(ctx context.Context, userID int, id string) (*Room, error) {
	room, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != room.TutorID && userID != room.StudentID {
		return nil, ErrNotParticipant
	}
	return room, nil
}

func (r *Registry) Join(ctx context.Context, userID int, meetingID string) (*RoomState, error) {
	room, err := r.authorize(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}

	key := participantsKey(meetingID)
	added, err := r.redis.HSet(ctx, key, strconv.Itoa(userID), r.now().UTC().Format(time.RFC3339)).Result()
	if err != nil {
		return nil, err
	}
	if err := r.redis.ExpireAt(ctx, key, room.ExpiresAt).Err(); err != nil {
		return nil, err
	}
	if added > 0 {
		logger.Debug("participant joined", "meeting_id", meetingID, "user_id", userID)
	}

	return r.state(ctx, room)
}

func (r *Registry) Leave(ctx context.Context, userID int, meetingID string) error {
	if _, err := r.authorize(ctx, userID, meetingID); err != nil {
		return err
	}

	removed, err := r.redis.HDel(ctx, participantsKey(meetingID), strconv.Itoa(userID)).Result()
	if err != nil {
		return err
	}
	if removed > 0 {
		logger.Debug("participant left", "meeting_id", meetingID, "user_id", userID)
	}
	return nil
}

func (r *Registry) Participants(ctx context.Context, userID int, meetingID string) (*RoomState, error) {
	room, err := r.authorize(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}
	return r.state(ctx, room)
}

func (r *Registry) state(ctx context.Context, room *Room) (*RoomState, error) {
	raw, err := r.redis.HGetAll(ctx, participantsKey(room.ID)).Result()
	if err != nil {
		return nil, err
	}

	participants := make([]Participant, 0, len(raw))
	for field, joined := range raw {
		id, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		at, _ := time.Parse(time.RFC3339, joined)
		participants = append(participants, Participant{UserID: id, JoinedAt: at})
	}
	sort.Slice(participants, func(i, j int) bool {
		if participants[i].JoinedAt.Equal(participants[j].JoinedAt) {
			return participants[i].UserID < participants[j].UserID
		}
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})

	return &RoomState{Room: *room, Participants: participants}, nil
}

// End evicts the room immediately instead of waiting for the TTL.
func (r *Registry) End(ctx context.Context, userID int, meetingID string) error {
	room, err := r.load(ctx, meetingID)
	if err != nil {
		return err
	}
	if room.TutorID != userID {
		return ErrTutorOnly
	}

	if err := r.redis.Del(ctx, roomKey(meetingID), participantsKey(meetingID), bookingKey(room.BookingID)).Err(); err != nil {
		return err
	}

	logger.Info("meeting ended", "meeting_id", meetingID, "booking_id", room.BookingID)
	return nil
}
