package services

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/app/repositories"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
	"github.com/campushub/miniapp/internal/pkg/helpers"
)

// ScheduleService defines the interface for system timetables and the copies bound to users
type ScheduleService interface {
	CreateSchedule(ctx context.Context, req *dto.CreateScheduleRequest) (*models.Schedule, error)
	ListSchedules(ctx context.Context, includeUserCopies bool) ([]models.Schedule, error)
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error

	AssignSchedule(ctx context.Context, userID models.UserID, scheduleID string) (*models.Schedule, error)
	GetUserSchedule(ctx context.Context, userID models.UserID) (*models.Schedule, error)
	RemoveUserSchedule(ctx context.Context, userID models.UserID) error
}

type scheduleServiceImpl struct {
	store  *repositories.Store
	clock  helpers.Clock
	logger zerolog.Logger
}

// NewScheduleService creates a new ScheduleService
func NewScheduleService(store *repositories.Store, clock helpers.Clock, logger zerolog.Logger) ScheduleService {
	return &scheduleServiceImpl{
		store:  store,
		clock:  clockOrDefault(clock),
		logger: logger,
	}
}

func isWeekday(day string) bool {
	for _, d := range models.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// normalizeDays lowercases day keys and rejects anything that is not a weekday
func normalizeDays(days map[string][]models.Lesson) (map[string][]models.Lesson, error) {
	out := make(map[string][]models.Lesson, len(days))
	for day, lessons := range days {
		key := strings.ToLower(strings.TrimSpace(day))
		if !isWeekday(key) {
			return nil, apperrors.NewValidationError("days", "unknown day "+day)
		}
		for _, l := range lessons {
			if strings.TrimSpace(l.Subject) == "" {
				return nil, apperrors.NewValidationError("days", "every lesson of "+key+" needs a subject")
			}
		}
		out[key] = append(out[key], lessons...)
	}
	return out, nil
}

// CreateSchedule stores a new system schedule
func (s *scheduleServiceImpl) CreateSchedule(ctx context.Context, req *dto.CreateScheduleRequest) (*models.Schedule, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name", "name is required")
	}
	days, err := normalizeDays(req.Days)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	schedule := &models.Schedule{
		ID:        helpers.NewTimeID(now),
		Name:      name,
		Days:      days,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created := *schedule
	err = s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		tx.PutSchedule(schedule)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("scheduleID", created.ID).Str("name", created.Name).Msg("Schedule created")
	return &created, nil
}

// ListSchedules returns system schedules by name, plus user copies when asked
func (s *scheduleServiceImpl) ListSchedules(ctx context.Context, includeUserCopies bool) ([]models.Schedule, error) {
	schedules := []models.Schedule{}
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		for _, sc := range tx.Schedules() {
			if sc.IsSystem() || includeUserCopies {
				schedules = append(schedules, *sc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(schedules, func(i, j int) bool {
		if schedules[i].IsSystem() != schedules[j].IsSystem() {
			return schedules[i].IsSystem()
		}
		return schedules[i].Name < schedules[j].Name
	})
	return schedules, nil
}

// GetSchedule retrieves a system schedule
func (s *scheduleServiceImpl) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	var schedule models.Schedule
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		sc, ok := tx.Schedule(id)
		if !ok || !sc.IsSystem() {
			return scheduleNotFound(id)
		}
		schedule = *sc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// DeleteSchedule removes a system schedule. User copies made from it stay.
func (s *scheduleServiceImpl) DeleteSchedule(ctx context.Context, id string) error {
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		sc, ok := tx.Schedule(id)
		if !ok || !sc.IsSystem() {
			return scheduleNotFound(id)
		}
		tx.DeleteSchedule(id)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("scheduleID", id).Msg("Schedule deleted")
	return nil
}

// AssignSchedule copies a system schedule to the user, replacing any earlier copy
func (s *scheduleServiceImpl) AssignSchedule(ctx context.Context, userID models.UserID, scheduleID string) (*models.Schedule, error) {
	if userID.IsZero() {
		return nil, apperrors.NewValidationError("userId", "userId is required")
	}

	now := s.clock()
	var assigned models.Schedule
	err := s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		source, ok := tx.Schedule(scheduleID)
		if !ok || !source.IsSystem() {
			return scheduleNotFound(scheduleID)
		}

		bound := &models.Schedule{
			ID:        helpers.NewTimeID(now),
			Name:      source.Name,
			Days:      source.CloneDays(),
			UserID:    userID,
			SourceID:  source.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if existing, ok := tx.UserSchedule(userID); ok {
			bound.ID = existing.ID
			bound.CreatedAt = existing.CreatedAt
		}

		tx.DeleteUserSchedules(userID)
		tx.PutSchedule(bound)
		assigned = *bound
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("userID", userID.String()).Str("scheduleID", scheduleID).Msg("Schedule assigned to user")
	return &assigned, nil
}

// GetUserSchedule returns the copy bound to the user
func (s *scheduleServiceImpl) GetUserSchedule(ctx context.Context, userID models.UserID) (*models.Schedule, error) {
	var schedule models.Schedule
	err := s.store.WithReadTransaction(ctx, func(tx *repositories.Tx) error {
		sc, ok := tx.UserSchedule(userID)
		if !ok {
			return scheduleNotFound("user " + userID.String())
		}
		schedule = *sc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// RemoveUserSchedule unbinds the user's schedule
func (s *scheduleServiceImpl) RemoveUserSchedule(ctx context.Context, userID models.UserID) error {
	return s.store.WithTransaction(ctx, func(tx *repositories.Tx) error {
		if tx.DeleteUserSchedules(userID) == 0 {
			return scheduleNotFound("user " + userID.String())
		}
		return nil
	})
}
