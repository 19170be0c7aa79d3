package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/pkg/logger"
)

type flowRepository interface {
	Save(ctx context.Context, f *domain.Flow) error
	GetByID(ctx context.Context, id string) (*domain.Flow, error)
	GetAll(ctx context.Context) ([]domain.Flow, error)
	GetActive(ctx context.Context) (*domain.Flow, error)
	DeactivateAll(ctx context.Context) error
	Delete(ctx context.Context, id string) error
}

// FlowService manages dialogue trees. Referential integrity is enforced when
// a flow is written; a dangling nextStepId that slipped in anyway surfaces as
// a step-not-found error at resolution.
type FlowService struct {
	repo flowRepository
}

func NewFlowService(repo flowRepository) *FlowService {
	return &FlowService{repo: repo}
}

// validateSteps rejects duplicate step ids and options pointing at steps that
// do not exist.
func validateSteps(steps []domain.Step) error {
	seen := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		if step.ID == "" {
			return fmt.Errorf("step without an id")
		}
		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("duplicate step id %q", step.ID)
		}
		seen[step.ID] = struct{}{}
	}

	for _, step := range steps {
		for _, option := range step.Options {
			if option.NextStepID == nil {
				continue
			}
			if _, ok := seen[*option.NextStepID]; !ok {
				return fmt.Errorf("option %q of step %q references unknown step %q",
					option.ID, step.ID, *option.NextStepID)
			}
		}
	}

	return nil
}

func (s *FlowService) CreateFlow(ctx context.Context, name, description string, steps []domain.Step) (*domain.Flow, error) {
	if err := validateSteps(steps); err != nil {
		return nil, err
	}

	now := time.Now()
	flow := &domain.Flow{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Steps:       steps,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Save(ctx, flow); err != nil {
		return nil, err
	}

	logger.Infof("Created flow %s (%s) with %d steps", flow.ID, flow.Name, len(steps))

	return flow, nil
}

func (s *FlowService) UpdateFlow(ctx context.Context, id, name, description string, steps []domain.Step) (*domain.Flow, error) {
	flow, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if flow == nil {
		return nil, domain.ErrFlowNotFound
	}

	if steps != nil {
		if err := validateSteps(steps); err != nil {
			return nil, err
		}
		flow.Steps = steps
	}
	if name != "" {
		flow.Name = name
	}
	if description != "" {
		flow.Description = description
	}
	flow.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, flow); err != nil {
		return nil, err
	}

	return flow, nil
}

// DeleteStep removes one step from a flow, refusing while any option of
// another step still points at it.
func (s *FlowService) DeleteStep(ctx context.Context, flowID, stepID string) (*domain.Flow, error) {
	flow, err := s.repo.GetByID(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if flow == nil {
		return nil, domain.ErrFlowNotFound
	}

	if flow.StepByID(stepID) == nil {
		return nil, domain.ErrStepNotFound
	}

	for _, step := range flow.Steps {
		if step.ID == stepID {
			continue
		}
		for _, option := range step.Options {
			if option.NextStepID != nil && *option.NextStepID == stepID {
				return nil, fmt.Errorf("step %q is still referenced by option %q of step %q",
					stepID, option.ID, step.ID)
			}
		}
	}

	steps := make([]domain.Step, 0, len(flow.Steps)-1)
	for _, step := range flow.Steps {
		if step.ID != stepID {
			steps = append(steps, step)
		}
	}
	flow.Steps = steps
	flow.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, flow); err != nil {
		return nil, err
	}

	return flow, nil
}

// Activate makes one flow the live conversation script, deactivating any
// other.
func (s *FlowService) Activate(ctx context.Context, id string) (*domain.Flow, error) {
	flow, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if flow == nil {
		return nil, domain.ErrFlowNotFound
	}

	if err := s.repo.DeactivateAll(ctx); err != nil {
		return nil, err
	}

	flow.IsActive = true
	flow.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, flow); err != nil {
		return nil, err
	}

	logger.Infof("Activated flow %s (%s)", flow.ID, flow.Name)

	return flow, nil
}

func (s *FlowService) GetFlow(ctx context.Context, id string) (*domain.Flow, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlowService) GetAllFlows(ctx context.Context) ([]domain.Flow, error) {
	return s.repo.GetAll(ctx)
}

func (s *FlowService) GetActiveFlow(ctx context.Context) (*domain.Flow, error) {
	return s.repo.GetActive(ctx)
}

func (s *FlowService) DeleteFlow(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Resolution is the outcome of one conversation turn.
type Resolution struct {
	ResponseMessage string       `json:"responseMessage"`
	NextStep        *domain.Step `json:"nextStep,omitempty"`
}

// Resolve evaluates one user choice against a flow. It never mutates the
// flow; dialogue position is whatever step the caller passes in.
func (s *FlowService) Resolve(ctx context.Context, flowID, stepID, optionID string) (*Resolution, error) {
	flow, err := s.repo.GetByID(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if flow == nil {
		return nil, domain.ErrFlowNotFound
	}

	return ResolveStep(flow, stepID, optionID)
}

// ResolveStep is the pure resolution core, usable without a repository.
func ResolveStep(flow *domain.Flow, stepID, optionID string) (*Resolution, error) {
	step := flow.StepByID(stepID)
	if step == nil {
		return nil, domain.ErrStepNotFound
	}

	option := step.OptionByID(optionID)
	if option == nil {
		return nil, domain.ErrOptionNotFound
	}

	resolution := &Resolution{ResponseMessage: option.ResponseMessage}

	if option.NextStepID != nil {
		next := flow.StepByID(*option.NextStepID)
		if next == nil {
			// Write-time validation rejects dangling references, but rows
			// edited outside the service can still carry one.
			return nil, domain.ErrStepNotFound
		}
		resolution.NextStep = next
	}

	return resolution, nil
}
