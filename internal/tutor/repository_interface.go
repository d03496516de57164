package tutor

import (
	"context"
	"time"
)

type Repository interface {
	UpsertProfile(ctx context.Context, userID int, req UpsertProfileRequest) (*Profile, error)
	GetProfile(ctx context.Context, userID int) (*Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)

	CreateRule(ctx context.Context, tutorID int, rule AvailabilityRule) (*AvailabilityRule, error)
	UpdateRule(ctx context.Context, tutorID int, rule AvailabilityRule) (*AvailabilityRule, error)
	DeleteRule(ctx context.Context, tutorID, ruleID int) error
	ListRules(ctx context.Context, tutorID int) ([]AvailabilityRule, error)

	CreateBlocked(ctx context.Context, tutorID int, start, end time.Time, reason string) (*BlockedInterval, error)
	DeleteBlocked(ctx context.Context, tutorID, blockedID int) error
	ListBlocked(ctx context.Context, tutorID int) ([]BlockedInterval, error)
	ListBlockedBetween(ctx context.Context, tutorID int, from, to time.Time) ([]BlockedInterval, error)
}
