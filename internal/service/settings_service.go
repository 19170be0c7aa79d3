package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jdcera4/pruebaBot/internal/domain"
)

type settingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Save(ctx context.Context, settings *domain.Settings) error
}

type SettingsService struct {
	repo settingsRepository
}

func NewSettingsService(repo settingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	return s.repo.Get(ctx)
}

func (s *SettingsService) Update(ctx context.Context, settings *domain.Settings) (*domain.Settings, error) {
	if settings.WorkingHours.Start != "" {
		if _, err := time.Parse("15:04", settings.WorkingHours.Start); err != nil {
			return nil, fmt.Errorf("invalid working hours start %q", settings.WorkingHours.Start)
		}
	}
	if settings.WorkingHours.End != "" {
		if _, err := time.Parse("15:04", settings.WorkingHours.End); err != nil {
			return nil, fmt.Errorf("invalid working hours end %q", settings.WorkingHours.End)
		}
	}
	if settings.Timezone != "" {
		if _, err := time.LoadLocation(settings.Timezone); err != nil {
			return nil, fmt.Errorf("unknown timezone %q", settings.Timezone)
		}
	}
	if settings.MessageDelayMS < 0 {
		return nil, fmt.Errorf("message delay cannot be negative")
	}

	if err := s.repo.Save(ctx, settings); err != nil {
		return nil, err
	}

	return settings, nil
}
