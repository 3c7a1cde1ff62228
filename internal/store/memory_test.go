package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryUsageStore_TryClaimCooldown(t *testing.T) {
	s := NewMemoryUsageStore()
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	claimed, err := s.TryClaim(ctx, userID, "wind_down_reminder", now, 20*time.Hour, 2)
	if err != nil || !claimed {
		t.Fatalf("first claim should succeed, got %v, %v", claimed, err)
	}

	claimed, err = s.TryClaim(ctx, userID, "wind_down_reminder", now.Add(time.Hour), 20*time.Hour, 2)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed {
		t.Fatal("claim inside the cooldown should be denied")
	}

	claimed, err = s.TryClaim(ctx, userID, "wind_down_reminder", now.Add(21*time.Hour), 20*time.Hour, 2)
	if err != nil || !claimed {
		t.Fatalf("claim after the cooldown should succeed, got %v, %v", claimed, err)
	}
}

func TestMemoryUsageStore_DailyCapAndRollover(t *testing.T) {
	s := NewMemoryUsageStore()
	ctx := context.Background()
	userID := uuid.New()
	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	// Two claims fill the cap for the day.
	for i := 0; i < 2; i++ {
		at := day.Add(time.Duration(i) * 2 * time.Hour)
		claimed, err := s.TryClaim(ctx, userID, "hydration_checkin", at, time.Hour, 2)
		if err != nil || !claimed {
			t.Fatalf("claim %d should succeed, got %v, %v", i, claimed, err)
		}
	}

	claimed, err := s.TryClaim(ctx, userID, "hydration_checkin", day.Add(5*time.Hour), time.Hour, 2)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed {
		t.Fatal("claim over the daily cap should be denied")
	}

	// The next day the counter resets.
	nextDay := day.Add(24 * time.Hour)
	claimed, err = s.TryClaim(ctx, userID, "hydration_checkin", nextDay, time.Hour, 2)
	if err != nil || !claimed {
		t.Fatalf("claim after day rollover should succeed, got %v, %v", claimed, err)
	}

	u, err := s.Get(ctx, userID, "hydration_checkin")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.UsesToday != 1 {
		t.Fatalf("rollover should reset uses_today to 1, got %d", u.UsesToday)
	}
	if u.TotalUses != 3 {
		t.Fatalf("expected 3 total uses, got %d", u.TotalUses)
	}
}

func TestMemoryUsageStore_ConcurrentClaimSingleWinner(t *testing.T) {
	s := NewMemoryUsageStore()
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	const goroutines = 32
	var wg sync.WaitGroup
	wins := make(chan bool, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := s.TryClaim(ctx, userID, "rest_day_prompt", now, 48*time.Hour, 1)
			if err != nil {
				t.Errorf("claim: %v", err)
				return
			}
			wins <- claimed
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for w := range wins {
		if w {
			winners++
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestMemoryUsageStore_UpdateOutcome(t *testing.T) {
	s := NewMemoryUsageStore()
	ctx := context.Background()
	userID := uuid.New()

	err := s.UpdateOutcome(ctx, userID, "morning_movement", 0.5, 0.5)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any claim, got %v", err)
	}

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if claimed, err := s.TryClaim(ctx, userID, "morning_movement", now, time.Hour, 1); err != nil || !claimed {
		t.Fatalf("claim should succeed, got %v, %v", claimed, err)
	}

	if err := s.UpdateOutcome(ctx, userID, "morning_movement", 0.9, 0.4); err != nil {
		t.Fatalf("update outcome: %v", err)
	}

	u, err := s.Get(ctx, userID, "morning_movement")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.Effectiveness != 0.9 || u.SuccessRate != 0.4 {
		t.Fatalf("unexpected EMA values: %f, %f", u.Effectiveness, u.SuccessRate)
	}
	if u.OutcomesRecorded != 1 {
		t.Fatalf("expected one recorded outcome, got %d", u.OutcomesRecorded)
	}
}

func TestMemoryUsageStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryUsageStore()
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	if _, err := s.Get(ctx, userID, "streak_celebration"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unused template, got %v", err)
	}

	if claimed, err := s.TryClaim(ctx, userID, "streak_celebration", now, time.Hour, 1); err != nil || !claimed {
		t.Fatalf("claim should succeed, got %v, %v", claimed, err)
	}

	u, err := s.Get(ctx, userID, "streak_celebration")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	u.TotalUses = 99

	again, err := s.Get(ctx, userID, "streak_celebration")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if again.TotalUses != 1 {
		t.Fatalf("mutating a returned usage should not affect the store, got %d", again.TotalUses)
	}
}
