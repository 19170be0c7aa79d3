package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdcera4/pruebaBot/environments"
	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/pkg/logger"
)

// Small internal interfaces so we can test without touching real DB/Redis/gateway.
type campaignRepository interface {
	Save(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	GetAll(ctx context.Context, status *domain.CampaignStatus, page, pageSize int) ([]domain.Campaign, int64, error)
	GetScheduled(ctx context.Context) ([]domain.Campaign, error)
	GetStats(ctx context.Context) (map[domain.CampaignStatus]int64, error)
}

type contactReader interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.Contact, error)
}

type transportClient interface {
	transportSender
	IsRegistered(ctx context.Context, address string) (bool, error)
}

type progressCache interface {
	CacheProgress(ctx context.Context, campaignID string, snapshot domain.ProgressSnapshot) error
	GetProgress(ctx context.Context, campaignID string) (*domain.ProgressSnapshot, error)
	DeleteProgress(ctx context.Context, campaignID string) error
}

type mediaResolver interface {
	Resolve(path, originalName string) (*domain.Media, error)
}

// CampaignService owns the campaign lifecycle: creation, the sequential send
// loop, pause/resume and progress reporting.
type CampaignService struct {
	repo      campaignRepository
	contacts  contactReader
	transport transportClient
	cache     progressCache
	media     mediaResolver
	config    environments.CampaignConfig

	// base context for send loops; cancelled on shutdown so running
	// campaigns checkpoint and park as paused.
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	running map[string]struct{}
}

func NewCampaignService(
	repo campaignRepository,
	contacts contactReader,
	transport transportClient,
	cache progressCache,
	media mediaResolver,
	config environments.CampaignConfig,
) *CampaignService {
	ctx, cancel := context.WithCancel(context.Background())

	return &CampaignService{
		repo:      repo,
		contacts:  contacts,
		transport: transport,
		cache:     cache,
		media:     media,
		config:    config,
		baseCtx:   ctx,
		cancel:    cancel,
		running:   make(map[string]struct{}),
	}
}

type CreateCampaignInput struct {
	Name         string
	Message      string
	MediaPath    string
	MediaName    string
	ContactIDs   []string
	ScheduledFor *time.Time
}

// CreateCampaign snapshots the selected contacts into the campaign so later
// directory edits cannot change who receives it.
func (s *CampaignService) CreateCampaign(ctx context.Context, input CreateCampaignInput) (*domain.Campaign, error) {
	if len(input.ContactIDs) == 0 {
		return nil, fmt.Errorf("campaign needs at least one recipient")
	}

	contacts, err := s.contacts.GetByIDs(ctx, input.ContactIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign contacts: %w", err)
	}

	if len(contacts) != len(input.ContactIDs) {
		return nil, fmt.Errorf("%d of %d selected contacts do not exist: %w",
			len(input.ContactIDs)-len(contacts), len(input.ContactIDs), domain.ErrContactNotFound)
	}

	recipients := make([]domain.RecipientSnapshot, 0, len(contacts))
	for _, contact := range contacts {
		recipients = append(recipients, domain.RecipientSnapshot{
			ContactID: contact.ID,
			Name:      contact.Name,
			Phone:     contact.Phone,
		})
	}

	now := time.Now()
	campaign := &domain.Campaign{
		ID:         uuid.NewString(),
		Name:       input.Name,
		Message:    input.Message,
		MediaPath:  input.MediaPath,
		MediaName:  input.MediaName,
		Recipients: recipients,
		Status:     domain.CampaignCreated,
		Progress: domain.Progress{
			Total:   len(recipients),
			Pending: len(recipients),
		},
		Results:   []domain.RecipientResult{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if input.ScheduledFor != nil {
		campaign.Status = domain.CampaignScheduled
		campaign.ScheduledFor = input.ScheduledFor
	}

	if err := s.repo.Save(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to save campaign: %w", err)
	}

	logger.Infof("Created campaign %s (%s) with %d recipients", campaign.ID, campaign.Name, len(recipients))

	return campaign, nil
}

// Execute starts or resumes a campaign. The status gate and the transition to
// running happen synchronously; the send loop itself runs in a goroutine, so a
// second Execute for the same campaign is rejected deterministically.
func (s *CampaignService) Execute(ctx context.Context, id string) error {
	return s.execute(ctx, id, false)
}

// ExecuteScheduled is the scheduler's entry point; it additionally accepts
// campaigns whose timer just fired.
func (s *CampaignService) ExecuteScheduled(ctx context.Context, id string) error {
	return s.execute(ctx, id, true)
}

func (s *CampaignService) execute(ctx context.Context, id string, fromScheduler bool) error {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return domain.ErrCampaignNotFound
	}

	allowed := campaign.Status == domain.CampaignCreated || campaign.Status == domain.CampaignPaused
	if fromScheduler {
		allowed = allowed || campaign.Status == domain.CampaignScheduled
	}
	if !allowed {
		return &domain.InvalidStateError{CampaignID: id, Status: campaign.Status, Operation: "executed"}
	}

	s.mu.Lock()
	if _, busy := s.running[id]; busy {
		s.mu.Unlock()
		return &domain.InvalidStateError{CampaignID: id, Status: domain.CampaignRunning, Operation: "executed"}
	}
	s.running[id] = struct{}{}
	s.mu.Unlock()

	campaign.Status = domain.CampaignRunning
	if campaign.StartedAt == nil {
		now := time.Now()
		campaign.StartedAt = &now
	}

	if err := s.checkpoint(ctx, campaign); err != nil {
		s.release(id)
		return fmt.Errorf("failed to mark campaign running: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(id)
		s.runLoop(s.baseCtx, campaign)
	}()

	return nil
}

func (s *CampaignService) release(id string) {
	s.mu.Lock()
	delete(s.running, id)
	s.mu.Unlock()
}

// runLoop walks recipients in order, skipping any with a persisted sent
// result, so resuming a paused campaign never double-sends.
func (s *CampaignService) runLoop(ctx context.Context, campaign *domain.Campaign) {
	logger.Infof("Campaign %s running: %d sent, %d failed, %d pending",
		campaign.ID, campaign.Progress.Sent, campaign.Progress.Failed, campaign.Progress.Pending)

	var attachment *domain.Media
	mediaFailed := false
	if campaign.MediaPath != "" {
		var err error
		attachment, err = s.media.Resolve(campaign.MediaPath, campaign.MediaName)
		if err != nil {
			logger.Warnf("Campaign %s media %s unusable, degrading to text: %v",
				campaign.ID, campaign.MediaPath, err)
			mediaFailed = true
		}
	}

	pending := make([]int, 0, len(campaign.Recipients))
	for i := range campaign.Recipients {
		if result := campaign.ResultFor(campaign.Recipients[i].ContactID); result != nil && result.Status == domain.DeliverySent {
			continue
		}
		pending = append(pending, i)
	}

	sinceCheckpoint := 0
	for n, idx := range pending {
		select {
		case <-ctx.Done():
			s.pause(campaign)
			return
		default:
		}

		recipient := campaign.Recipients[idx]
		s.processRecipient(ctx, campaign, recipient, attachment, mediaFailed)

		sinceCheckpoint++
		if sinceCheckpoint >= s.config.CheckpointEvery {
			if err := s.checkpoint(context.Background(), campaign); err != nil {
				s.fail(campaign, err)
				return
			}
			sinceCheckpoint = 0
		}

		// Inter-message delay, skipped after the last recipient. Cancellation
		// during the wait pauses the campaign immediately.
		if n < len(pending)-1 {
			select {
			case <-ctx.Done():
				s.pause(campaign)
				return
			case <-time.After(s.config.MessageDelay):
			}
		}
	}

	now := time.Now()
	campaign.Status = domain.CampaignCompleted
	campaign.CompletedAt = &now

	if err := s.checkpoint(context.Background(), campaign); err != nil {
		s.fail(campaign, err)
		return
	}

	logger.Infof("Campaign %s completed: %d sent, %d failed",
		campaign.ID, campaign.Progress.Sent, campaign.Progress.Failed)
}

func (s *CampaignService) processRecipient(
	ctx context.Context,
	campaign *domain.Campaign,
	recipient domain.RecipientSnapshot,
	attachment *domain.Media,
	mediaFailed bool,
) {
	address := ToAddress(recipient.Phone)
	body := renderTemplate(campaign.Message, recipient.Name)
	if mediaFailed {
		body += mediaUnavailableNotice
	}

	registered, err := s.transport.IsRegistered(ctx, address)
	if err != nil {
		s.record(campaign, recipient, domain.DeliveryFailed, "", err.Error())
		return
	}
	if !registered {
		s.record(campaign, recipient, domain.DeliveryFailed, "", "number is not registered on WhatsApp")
		return
	}

	receipt, err := sendWithFallback(ctx, s.transport, address, attachment, body)
	if err != nil {
		logger.Errorf("Campaign %s: delivery to %s failed: %v", campaign.ID, address, err)
		s.record(campaign, recipient, domain.DeliveryFailed, "", err.Error())
		return
	}

	s.record(campaign, recipient, domain.DeliverySent, receipt.ID, "")
}

// record appends a result line and keeps the counters consistent:
// total == sent + failed + pending after every recipient.
func (s *CampaignService) record(
	campaign *domain.Campaign,
	recipient domain.RecipientSnapshot,
	status domain.DeliveryStatus,
	messageID, errMsg string,
) {
	campaign.Results = append(campaign.Results, domain.RecipientResult{
		ContactID: recipient.ContactID,
		Name:      recipient.Name,
		Phone:     recipient.Phone,
		Status:    status,
		MessageID: messageID,
		Error:     errMsg,
		Timestamp: time.Now(),
	})

	campaign.Progress.Pending--
	if status == domain.DeliverySent {
		campaign.Progress.Sent++
	} else {
		campaign.Progress.Failed++
	}
}

func (s *CampaignService) pause(campaign *domain.Campaign) {
	campaign.Status = domain.CampaignPaused

	if err := s.checkpoint(context.Background(), campaign); err != nil {
		logger.Errorf("Failed to checkpoint paused campaign %s: %v", campaign.ID, err)
		return
	}

	logger.Infof("Campaign %s paused at %d/%d", campaign.ID,
		campaign.Progress.Sent+campaign.Progress.Failed, campaign.Progress.Total)
}

func (s *CampaignService) fail(campaign *domain.Campaign, cause error) {
	logger.Errorf("Campaign %s failed: %v", campaign.ID, cause)

	campaign.Status = domain.CampaignFailed
	campaign.Error = cause.Error()
	now := time.Now()
	campaign.CompletedAt = &now

	if err := s.checkpoint(context.Background(), campaign); err != nil {
		logger.Errorf("Failed to persist failed campaign %s: %v", campaign.ID, err)
	}
}

// checkpoint persists the full campaign state and refreshes the cached
// progress snapshot.
func (s *CampaignService) checkpoint(ctx context.Context, campaign *domain.Campaign) error {
	campaign.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, campaign); err != nil {
		return err
	}

	if s.cache != nil {
		snapshot := domain.ProgressSnapshot{
			Status:   campaign.Status,
			Progress: campaign.Progress,
			CachedAt: time.Now(),
		}
		if err := s.cache.CacheProgress(ctx, campaign.ID, snapshot); err != nil {
			logger.Warnf("Failed to cache progress for campaign %s: %v", campaign.ID, err)
		}
	}

	return nil
}

// CancelSchedule marks a scheduled campaign cancelled. The caller is expected
// to stop the timer as well.
func (s *CampaignService) CancelSchedule(ctx context.Context, id string) error {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign == nil {
		return domain.ErrCampaignNotFound
	}

	if campaign.Status != domain.CampaignScheduled {
		return &domain.InvalidStateError{CampaignID: id, Status: campaign.Status, Operation: "cancelled"}
	}

	campaign.Status = domain.CampaignCancelled
	campaign.ScheduledFor = nil
	campaign.UpdatedAt = time.Now()

	if err := s.repo.Save(ctx, campaign); err != nil {
		return fmt.Errorf("failed to cancel campaign: %w", err)
	}

	// A cancelled campaign will not be polled; drop any stale snapshot.
	if s.cache != nil {
		if err := s.cache.DeleteProgress(ctx, id); err != nil {
			logger.Warnf("Failed to drop cached progress for campaign %s: %v", id, err)
		}
	}

	logger.Infof("Cancelled scheduled campaign %s", id)

	return nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CampaignService) GetAllCampaigns(
	ctx context.Context,
	status *domain.CampaignStatus,
	page, pageSize int,
) ([]domain.Campaign, int64, error) {
	return s.repo.GetAll(ctx, status, page, pageSize)
}

func (s *CampaignService) GetScheduledCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	return s.repo.GetScheduled(ctx)
}

func (s *CampaignService) GetStats(ctx context.Context) (map[domain.CampaignStatus]int64, error) {
	return s.repo.GetStats(ctx)
}

// GetProgress serves the cached snapshot when one exists, falling back to the
// database for idle campaigns.
func (s *CampaignService) GetProgress(ctx context.Context, id string) (*domain.ProgressSnapshot, error) {
	if s.cache != nil {
		snapshot, err := s.cache.GetProgress(ctx, id)
		if err != nil {
			logger.Warnf("Progress cache lookup for campaign %s failed: %v", id, err)
		} else if snapshot != nil {
			return snapshot, nil
		}
	}

	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, domain.ErrCampaignNotFound
	}

	return &domain.ProgressSnapshot{
		Status:   campaign.Status,
		Progress: campaign.Progress,
		CachedAt: campaign.UpdatedAt,
	}, nil
}

// Shutdown cancels every running send loop and waits for them to checkpoint
// as paused.
func (s *CampaignService) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.New("timed out waiting for campaign loops to stop")
	}
}
