package tutor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tutorslot/internal/api"

	"github.com/jmoiron/sqlx"
)

var (
	ErrTutorNotFound   = fmt.Errorf("tutor %w", api.ErrNotFound)
	ErrRuleNotFound    = fmt.Errorf("availability rule %w", api.ErrNotFound)
	ErrBlockedNotFound = fmt.Errorf("blocked interval %w", api.ErrNotFound)
)

// TIME columns come back from lib/pq as time.Time, so they are rendered
// to "HH:MM" in SQL.
const ruleColumns = `id, tutor_id, day_of_week,
		TO_CHAR(start_time, 'HH24:MI') AS start_time,
		TO_CHAR(end_time, 'HH24:MI') AS end_time,
		is_available, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) UpsertProfile(ctx context.Context, userID int, req UpsertProfileRequest) (*Profile, error) {
	query := `
		INSERT INTO tutor_profiles (user_id, bio, subjects, hourly_rate_cents, currency)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET bio = EXCLUDED.bio,
		    subjects = EXCLUDED.subjects,
		    hourly_rate_cents = EXCLUDED.hourly_rate_cents,
		    currency = EXCLUDED.currency,
		    updated_at = NOW()
		RETURNING user_id, bio, subjects, hourly_rate_cents, currency, updated_at
	`

	var p Profile
	if err := r.db.GetContext(ctx, &p, query, userID, req.Bio, req.Subjects, req.HourlyRateCents, req.Currency); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetProfile(ctx context.Context, userID int) (*Profile, error) {
	query := `
		SELECT p.user_id, u.name, p.bio, p.subjects, p.hourly_rate_cents, p.currency, p.updated_at
		FROM tutor_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
	`

	var p Profile
	if err := r.db.GetContext(ctx, &p, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTutorNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListProfiles(ctx context.Context) ([]Profile, error) {
	query := `
		SELECT p.user_id, u.name, p.bio, p.subjects, p.hourly_rate_cents, p.currency, p.updated_at
		FROM tutor_profiles p
		JOIN users u ON u.id = p.user_id
		ORDER BY u.name ASC
	`

	profiles := []Profile{}
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *repository) CreateRule(ctx context.Context, tutorID int, rule AvailabilityRule) (*AvailabilityRule, error) {
	query := `
		INSERT INTO availability_rules (tutor_id, day_of_week, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + ruleColumns

	var out AvailabilityRule
	err := r.db.GetContext(ctx, &out, query, tutorID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.IsAvailable)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *repository) UpdateRule(ctx context.Context, tutorID int, rule AvailabilityRule) (*AvailabilityRule, error) {
	query := `
		UPDATE availability_rules
		SET day_of_week = $3, start_time = $4, end_time = $5, is_available = $6
		WHERE id = $1 AND tutor_id = $2
		RETURNING ` + ruleColumns

	var out AvailabilityRule
	err := r.db.GetContext(ctx, &out, query, rule.ID, tutorID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.IsAvailable)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *repository) DeleteRule(ctx context.Context, tutorID, ruleID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM availability_rules WHERE id = $1 AND tutor_id = $2`, ruleID, tutorID)
	if err != nil {
		return err
	}
	return expectOne(res, ErrRuleNotFound)
}

func (r *repository) ListRules(ctx context.Context, tutorID int) ([]AvailabilityRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM availability_rules
		WHERE tutor_id = $1
		ORDER BY day_of_week, start_time
	`

	rules := []AvailabilityRule{}
	if err := r.db.SelectContext(ctx, &rules, query, tutorID); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) CreateBlocked(ctx context.Context, tutorID int, start, end time.Time, reason string) (*BlockedInterval, error) {
	query := `
		INSERT INTO blocked_intervals (tutor_id, start_datetime, end_datetime, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, tutor_id, start_datetime, end_datetime, reason, created_at
	`

	var b BlockedInterval
	if err := r.db.GetContext(ctx, &b, query, tutorID, start, end, reason); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) DeleteBlocked(ctx context.Context, tutorID, blockedID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blocked_intervals WHERE id = $1 AND tutor_id = $2`, blockedID, tutorID)
	if err != nil {
		return err
	}
	return expectOne(res, ErrBlockedNotFound)
}

func (r *repository) ListBlocked(ctx context.Context, tutorID int) ([]BlockedInterval, error) {
	query := `
		SELECT id, tutor_id, start_datetime, end_datetime, reason, created_at
		FROM blocked_intervals
		WHERE tutor_id = $1
		ORDER BY start_datetime ASC
	`

	blocked := []BlockedInterval{}
	if err := r.db.SelectContext(ctx, &blocked, query, tutorID); err != nil {
		return nil, err
	}
	return blocked, nil
}

// ListBlockedBetween returns intervals overlapping [from, to).
func (r *repository) ListBlockedBetween(ctx context.Context, tutorID int, from, to time.Time) ([]BlockedInterval, error) {
	query := `
		SELECT id, tutor_id, start_datetime, end_datetime, reason, created_at
		FROM blocked_intervals
		WHERE tutor_id = $1 AND start_datetime < $3 AND end_datetime > $2
		ORDER BY start_datetime ASC
	`

	blocked := []BlockedInterval{}
	if err := r.db.SelectContext(ctx, &blocked, query, tutorID, from, to); err != nil {
		return nil, err
	}
	return blocked, nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
