package services

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/campushub/miniapp/internal/app/models"
	"github.com/campushub/miniapp/internal/app/models/dto"
	"github.com/campushub/miniapp/internal/pkg/apperrors"
)

func newScheduleRequest(name string) *dto.CreateScheduleRequest {
	return &dto.CreateScheduleRequest{
		Name: name,
		Days: map[string][]models.Lesson{
			"Monday":    {{Time: "09:00", Subject: "Math", Room: "101"}},
			"wednesday": {{Time: "11:00", Subject: "Physics"}},
		},
	}
}

func TestAssignScheduleKeepsOneCopyPerUser(t *testing.T) {
	store := newTestStore(t)
	clock := newFakeClock()
	schedules := NewScheduleService(store, clock.Now, zerolog.Nop())
	ctx := context.Background()

	first, err := schedules.CreateSchedule(ctx, newScheduleRequest("Group A"))
	if err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	if _, ok := first.Days["monday"]; !ok {
		t.Errorf("day keys should be lowercased, got %v", first.Days)
	}
	second, _ := schedules.CreateSchedule(ctx, newScheduleRequest("Group B"))

	a, err := schedules.AssignSchedule(ctx, "42", first.ID)
	if err != nil {
		t.Fatalf("AssignSchedule: %v", err)
	}
	b, err := schedules.AssignSchedule(ctx, "42", second.ID)
	if err != nil {
		t.Fatalf("AssignSchedule again: %v", err)
	}
	if a.ID != b.ID {
		t.Errorf("reassignment should overwrite the user copy, ids %s and %s", a.ID, b.ID)
	}

	all, _ := schedules.ListSchedules(ctx, true)
	userCopies := 0
	for _, s := range all {
		if s.UserID == "42" {
			userCopies++
			if s.SourceID != second.ID || s.Name != "Group B" {
				t.Errorf("user copy = %+v", s)
			}
		}
	}
	if userCopies != 1 {
		t.Errorf("user copies = %d, want 1", userCopies)
	}

	public, _ := schedules.ListSchedules(ctx, false)
	if len(public) != 2 {
		t.Errorf("system schedules = %d, want 2", len(public))
	}

	got, err := schedules.GetUserSchedule(ctx, "42")
	if err != nil || got.SourceID != second.ID {
		t.Errorf("GetUserSchedule = %+v, %v", got, err)
	}

	// the copy does not alias its source
	got.Days["monday"][0].Subject = "changed"
	source, _ := schedules.GetSchedule(ctx, second.ID)
	if source.Days["monday"][0].Subject != "Math" {
		t.Error("user copy shares lessons with the system schedule")
	}

	if err := schedules.RemoveUserSchedule(ctx, "42"); err != nil {
		t.Fatalf("RemoveUserSchedule: %v", err)
	}
	if _, err := schedules.GetUserSchedule(ctx, "42"); !apperrors.Is(err, apperrors.ErrScheduleNotFound) {
		t.Errorf("err = %v, want schedule not found", err)
	}
}

func TestScheduleValidationAndMissing(t *testing.T) {
	store := newTestStore(t)
	schedules := NewScheduleService(store, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := schedules.CreateSchedule(ctx, &dto.CreateScheduleRequest{
		Name: "Bad",
		Days: map[string][]models.Lesson{"funday": {{Subject: "Nap"}}},
	})
	if !apperrors.Is(err, apperrors.ErrValidationFailed) {
		t.Errorf("err = %v, want validation failure", err)
	}

	if _, err := schedules.AssignSchedule(ctx, "1", "missing"); !apperrors.Is(err, apperrors.ErrScheduleNotFound) {
		t.Errorf("assign missing err = %v", err)
	}
	if err := schedules.DeleteSchedule(ctx, "missing"); !apperrors.Is(err, apperrors.ErrResourceNotFound) {
		t.Errorf("delete missing err = %v", err)
	}
}
