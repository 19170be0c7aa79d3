package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/pkg/logger"
)

// campaignExecutor is a minimal internal interface for the scheduler. It
// matches CampaignService and lets us unit test with a small fake.
type campaignExecutor interface {
	ExecuteScheduled(ctx context.Context, id string) error
	GetScheduledCampaigns(ctx context.Context) ([]domain.Campaign, error)
}

// Scheduler holds one timer per scheduled campaign. Timers live only in
// memory; Restore rebuilds them from the store after a restart or whenever
// the transport session comes back.
type Scheduler struct {
	campaigns campaignExecutor

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewScheduler(campaigns campaignExecutor) *Scheduler {
	return &Scheduler{
		campaigns: campaigns,
		timers:    make(map[string]*time.Timer),
	}
}

// Schedule arms a timer for the campaign. A past or zero-delay schedule runs
// the campaign immediately and synchronously.
func (s *Scheduler) Schedule(ctx context.Context, id string, at time.Time) error {
	delay := time.Until(at)
	if delay <= 0 {
		logger.Warnf("Campaign %s scheduled in the past, executing now", id)
		return s.campaigns.ExecuteScheduled(ctx, id)
	}

	s.mu.Lock()
	if existing, ok := s.timers[id]; ok {
		existing.Stop()
	}
	s.timers[id] = time.AfterFunc(delay, func() {
		s.fire(id)
	})
	s.mu.Unlock()

	logger.Infof("Campaign %s scheduled for %s (in %v)", id, at.Format(time.RFC3339), delay.Round(time.Second))

	return nil
}

// fire drops the timer handle before executing so Cancel cannot race with a
// campaign that already started.
func (s *Scheduler) fire(id string) {
	s.mu.Lock()
	if _, ok := s.timers[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.mu.Unlock()

	logger.Infof("Schedule fired for campaign %s", id)

	if err := s.campaigns.ExecuteScheduled(context.Background(), id); err != nil {
		logger.Errorf("Scheduled execution of campaign %s failed: %v", id, err)
	}
}

// Cancel stops the timer for a campaign that has not fired yet. Returns false
// when no timer is armed, which means the campaign already started or was
// never scheduled here.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[id]
	if !ok {
		return false
	}

	timer.Stop()
	delete(s.timers, id)

	logger.Infof("Cancelled timer for campaign %s", id)

	return true
}

// Restore rescans the store and re-arms a timer for every campaign still in
// scheduled state. Past-due campaigns execute immediately.
func (s *Scheduler) Restore(ctx context.Context) error {
	campaigns, err := s.campaigns.GetScheduledCampaigns(ctx)
	if err != nil {
		return err
	}

	restored := 0
	for _, campaign := range campaigns {
		if campaign.ScheduledFor == nil {
			logger.Warnf("Scheduled campaign %s has no schedule time, skipping", campaign.ID)
			continue
		}

		if err := s.Schedule(ctx, campaign.ID, *campaign.ScheduledFor); err != nil {
			logger.Errorf("Failed to restore schedule for campaign %s: %v", campaign.ID, err)
			continue
		}
		restored++
	}

	logger.Infof("Restored %d scheduled campaigns", restored)

	return nil
}

// Scheduled returns the ids with an armed timer.
func (s *Scheduler) Scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.timers))
	for id := range s.timers {
		ids = append(ids, id)
	}

	return ids
}

// Stop disarms every timer without touching campaign state.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}

	logger.Infof("Scheduler stopped")
}
