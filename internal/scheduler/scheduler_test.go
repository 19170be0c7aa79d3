package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jdcera4/pruebaBot/internal/domain"
)

//
// Test fakes – only for this file.
//

type fakeExecutor struct {
	mu        sync.Mutex
	executed  []string
	scheduled []domain.Campaign
	fired     chan string
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{fired: make(chan string, 8)}
}

func (f *fakeExecutor) ExecuteScheduled(ctx context.Context, id string) error {
	f.mu.Lock()
	f.executed = append(f.executed, id)
	f.mu.Unlock()
	f.fired <- id
	return nil
}

func (f *fakeExecutor) GetScheduledCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	return f.scheduled, nil
}

func (f *fakeExecutor) executions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.executed...)
}

func waitForFire(t *testing.T, executor *fakeExecutor, want string) {
	t.Helper()
	select {
	case id := <-executor.fired:
		if id != want {
			t.Fatalf("expected campaign %s to fire, got %s", want, id)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for campaign %s to fire", want)
	}
}

//
// Tests
//

func TestSchedule_PastDueExecutesImmediately(t *testing.T) {
	executor := newFakeExecutor()
	s := NewScheduler(executor)
	defer s.Stop()

	if err := s.Schedule(context.Background(), "camp-1", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	// Past-due schedules run synchronously, no timer involved.
	if got := executor.executions(); len(got) != 1 || got[0] != "camp-1" {
		t.Fatalf("expected immediate execution, got %v", got)
	}
	if len(s.Scheduled()) != 0 {
		t.Errorf("no timer should be armed for a past-due schedule")
	}
}

func TestSchedule_FutureArmsTimerAndFires(t *testing.T) {
	executor := newFakeExecutor()
	s := NewScheduler(executor)
	defer s.Stop()

	if err := s.Schedule(context.Background(), "camp-1", time.Now().Add(20*time.Millisecond)); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	if ids := s.Scheduled(); len(ids) != 1 || ids[0] != "camp-1" {
		t.Fatalf("expected an armed timer for camp-1, got %v", ids)
	}

	waitForFire(t, executor, "camp-1")

	// Firing releases the timer handle.
	if len(s.Scheduled()) != 0 {
		t.Errorf("expected no armed timers after firing, got %v", s.Scheduled())
	}
}

func TestSchedule_ReplacesExistingTimer(t *testing.T) {
	executor := newFakeExecutor()
	s := NewScheduler(executor)
	defer s.Stop()

	if err := s.Schedule(context.Background(), "camp-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}
	if err := s.Schedule(context.Background(), "camp-1", time.Now().Add(20*time.Millisecond)); err != nil {
		t.Fatalf("rescheduling returned error: %v", err)
	}

	if ids := s.Scheduled(); len(ids) != 1 {
		t.Fatalf("rescheduling must not leave two timers, got %v", ids)
	}

	waitForFire(t, executor, "camp-1")

	if got := executor.executions(); len(got) != 1 {
		t.Errorf("expected exactly one execution after rescheduling, got %v", got)
	}
}

func TestCancel_StopsPendingTimer(t *testing.T) {
	executor := newFakeExecutor()
	s := NewScheduler(executor)
	defer s.Stop()

	if err := s.Schedule(context.Background(), "camp-1", time.Now().Add(30*time.Millisecond)); err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	if !s.Cancel("camp-1") {
		t.Fatal("expected Cancel to report an armed timer")
	}

	// Give the original deadline a chance to pass.
	time.Sleep(60 * time.Millisecond)

	if got := executor.executions(); len(got) != 0 {
		t.Fatalf("cancelled campaign must not execute, got %v", got)
	}
	if s.Cancel("camp-1") {
		t.Errorf("second Cancel should report no timer")
	}
}

func TestCancel_UnknownCampaign(t *testing.T) {
	s := NewScheduler(newFakeExecutor())
	defer s.Stop()

	if s.Cancel("ghost") {
		t.Error("expected false for a campaign that was never scheduled")
	}
}

func TestRestore_RearmsStoredSchedules(t *testing.T) {
	executor := newFakeExecutor()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	executor.scheduled = []domain.Campaign{
		{ID: "camp-past", Status: domain.CampaignScheduled, ScheduledFor: &past},
		{ID: "camp-future", Status: domain.CampaignScheduled, ScheduledFor: &future},
		{ID: "camp-broken", Status: domain.CampaignScheduled, ScheduledFor: nil},
	}

	s := NewScheduler(executor)
	defer s.Stop()

	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}

	// Past-due ran immediately, the future one is armed, the broken one skipped.
	if got := executor.executions(); len(got) != 1 || got[0] != "camp-past" {
		t.Fatalf("expected camp-past executed during restore, got %v", got)
	}
	if ids := s.Scheduled(); len(ids) != 1 || ids[0] != "camp-future" {
		t.Fatalf("expected only camp-future armed, got %v", ids)
	}
}

func TestStop_DisarmsAllTimers(t *testing.T) {
	executor := newFakeExecutor()
	s := NewScheduler(executor)

	_ = s.Schedule(context.Background(), "camp-1", time.Now().Add(time.Hour))
	_ = s.Schedule(context.Background(), "camp-2", time.Now().Add(time.Hour))

	s.Stop()

	if len(s.Scheduled()) != 0 {
		t.Fatalf("expected no timers after Stop, got %v", s.Scheduled())
	}
}
