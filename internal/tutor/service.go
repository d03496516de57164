package tutor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tutorslot/internal/api"
	"tutorslot/internal/metrics"
	"tutorslot/internal/slots"
)

var ErrInvalidWindow = fmt.Errorf("end must be after start: %w", api.ErrInvalidInput)

// CommitmentLister supplies the live bookings a tutor already holds on a date.
type CommitmentLister interface {
	ListCommitments(ctx context.Context, tutorID int, date time.Time) ([]slots.Commitment, error)
}

type Service interface {
	UpsertProfile(ctx context.Context, tutorID int, req UpsertProfileRequest) (*Profile, error)
	GetProfile(ctx context.Context, tutorID int) (*Profile, error)
	ListTutors(ctx context.Context) ([]Profile, error)

	CreateRule(ctx context.Context, tutorID int, req RuleRequest) (*AvailabilityRule, error)
	UpdateRule(ctx context.Context, tutorID, ruleID int, req RuleRequest) (*AvailabilityRule, error)
	DeleteRule(ctx context.Context, tutorID, ruleID int) error
	ListRules(ctx context.Context, tutorID int) ([]AvailabilityRule, error)

	CreateBlocked(ctx context.Context, tutorID int, req BlockedRequest) (*BlockedInterval, error)
	DeleteBlocked(ctx context.Context, tutorID, blockedID int) error
	ListBlocked(ctx context.Context, tutorID int) ([]BlockedInterval, error)

	AvailableSlots(ctx context.Context, tutorID int, date string, durationMinutes int) (*SlotsResponse, error)
	IsSlotAvailable(ctx context.Context, tutorID int, date time.Time, lessonTime string, durationMinutes int) (bool, error)
}

type service struct {
	repo            Repository
	computer        *slots.Computer
	commitments     CommitmentLister
	defaultDuration int
}

func NewService(repo Repository, computer *slots.Computer, commitments CommitmentLister, defaultDuration int) Service {
	return &service{
		repo:            repo,
		computer:        computer,
		commitments:     commitments,
		defaultDuration: defaultDuration,
	}
}

func (s *service) UpsertProfile(ctx context.Context, tutorID int, req UpsertProfileRequest) (*Profile, error) {
	if req.Currency == "" {
		req.Currency = "USD"
	}
	return s.repo.UpsertProfile(ctx, tutorID, req)
}

func (s *service) GetProfile(ctx context.Context, tutorID int) (*Profile, error) {
	return s.repo.GetProfile(ctx, tutorID)
}

func (s *service) ListTutors(ctx context.Context) ([]Profile, error) {
	return s.repo.ListProfiles(ctx)
}

func ruleFromRequest(req RuleRequest) (AvailabilityRule, error) {
	start, err := slots.ParseClock(req.StartTime)
	if err != nil {
		return AvailabilityRule{}, err
	}
	end, err := slots.ParseClock(req.EndTime)
	if err != nil {
		return AvailabilityRule{}, err
	}
	if end <= start {
		return AvailabilityRule{}, ErrInvalidWindow
	}
	if req.DayOfWeek == nil || *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
		return AvailabilityRule{}, fmt.Errorf("day_of_week must be 0-6: %w", api.ErrInvalidInput)
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}
	return AvailabilityRule{
		DayOfWeek:   *req.DayOfWeek,
		StartTime:   start.String(),
		EndTime:     end.String(),
		IsAvailable: available,
	}, nil
}

func (s *service) CreateRule(ctx context.Context, tutorID int, req RuleRequest) (*AvailabilityRule, error) {
	rule, err := ruleFromRequest(req)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateRule(ctx, tutorID, rule)
}

func (s *service) UpdateRule(ctx context.Context, tutorID, ruleID int, req RuleRequest) (*AvailabilityRule, error) {
	rule, err := ruleFromRequest(req)
	if err != nil {
		return nil, err
	}
	rule.ID = ruleID
	return s.repo.UpdateRule(ctx, tutorID, rule)
}

func (s *service) DeleteRule(ctx context.Context, tutorID, ruleID int) error {
	return s.repo.DeleteRule(ctx, tutorID, ruleID)
}

func (s *service) ListRules(ctx context.Context, tutorID int) ([]AvailabilityRule, error) {
	return s.repo.ListRules(ctx, tutorID)
}

func (s *service) CreateBlocked(ctx context.Context, tutorID int, req BlockedRequest) (*BlockedInterval, error) {
	if !req.EndDatetime.After(req.StartDatetime) {
		return nil, ErrInvalidWindow
	}
	return s.repo.CreateBlocked(ctx, tutorID, req.StartDatetime, req.EndDatetime, req.Reason)
}

func (s *service) DeleteBlocked(ctx context.Context, tutorID, blockedID int) error {
	return s.repo.DeleteBlocked(ctx, tutorID, blockedID)
}

func (s *service) ListBlocked(ctx context.Context, tutorID int) ([]BlockedInterval, error) {
	return s.repo.ListBlocked(ctx, tutorID)
}

// snapshot loads everything the slot computation needs for one tutor and day.
func (s *service) snapshot(ctx context.Context, tutorID int, date time.Time) ([]slots.Rule, []slots.Interval, []slots.Commitment, error) {
	rules, err := s.repo.ListRules(ctx, tutorID)
	if err != nil {
		return nil, nil, nil, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.computer.Location)
	blocked, err := s.repo.ListBlockedBetween(ctx, tutorID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, nil, nil, err
	}

	commitments, err := s.commitments.ListCommitments(ctx, tutorID, date)
	if err != nil {
		return nil, nil, nil, err
	}

	out := make([]slots.Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, slots.Rule{DayOfWeek: r.DayOfWeek, Start: r.StartTime, End: r.EndTime, IsAvailable: r.IsAvailable})
	}
	intervals := make([]slots.Interval, 0, len(blocked))
	for _, b := range blocked {
		intervals = append(intervals, slots.Interval{Start: b.StartDatetime, End: b.EndDatetime})
	}
	return out, intervals, commitments, nil
}

func (s *service) AvailableSlots(ctx context.Context, tutorID int, date string, durationMinutes int) (*SlotsResponse, error) {
	if durationMinutes == 0 {
		durationMinutes = s.defaultDuration
	}
	day, err := slots.ParseDate(date)
	if err != nil {
		metrics.RecordSlotComputation("invalid")
		return nil, err
	}

	rules, blocked, commitments, err := s.snapshot(ctx, tutorID, day)
	if err != nil {
		metrics.RecordSlotComputation("error")
		return nil, err
	}

	free, err := s.computer.Compute(rules, blocked, commitments, day, durationMinutes)
	if err != nil {
		if errors.Is(err, api.ErrInvalidInput) {
			metrics.RecordSlotComputation("invalid")
		} else {
			metrics.RecordSlotComputation("error")
		}
		return nil, err
	}

	metrics.RecordSlotComputation("ok")
	return &SlotsResponse{
		TutorID:         tutorID,
		Date:            day.Format(time.DateOnly),
		DurationMinutes: durationMinutes,
		Slots:           free,
	}, nil
}

func (s *service) IsSlotAvailable(ctx context.Context, tutorID int, date time.Time, lessonTime string, durationMinutes int) (bool, error) {
	rules, blocked, commitments, err := s.snapshot(ctx, tutorID, date)
	if err != nil {
		return false, err
	}
	return s.computer.Fits(rules, blocked, commitments, date, lessonTime, durationMinutes)
}
