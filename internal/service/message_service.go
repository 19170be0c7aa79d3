package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/pkg/logger"
	"github.com/jdcera4/pruebaBot/pkg/whatsapp"
)

// Small internal interfaces so we can test without touching real DB/gateway.
type messageRepository interface {
	Create(ctx context.Context, msg *domain.MessageRecord) error
	GetByID(ctx context.Context, id string) (*domain.MessageRecord, error)
	GetAll(ctx context.Context, status *domain.MessageStatus, page, pageSize int) ([]domain.MessageRecord, int64, error)
	GetByAddress(ctx context.Context, address string, limit int) ([]domain.MessageRecord, error)
	GetStats(ctx context.Context) (sent, failed, received int64, err error)
}

type settingsReader interface {
	Get(ctx context.Context) (*domain.Settings, error)
}

// MessageService handles individual sends and inbound traffic: every message
// outside a campaign goes through here and lands in the message log.
type MessageService struct {
	repo      messageRepository
	settings  settingsReader
	transport transportClient
	media     mediaResolver
}

func NewMessageService(
	repo messageRepository,
	settings settingsReader,
	transport transportClient,
	media mediaResolver,
) *MessageService {
	return &MessageService{
		repo:      repo,
		settings:  settings,
		transport: transport,
		media:     media,
	}
}

// SendMessage delivers one ad-hoc message, optionally with an attachment,
// and logs the outcome.
func (s *MessageService) SendMessage(ctx context.Context, phone, body, mediaPath, mediaName string) (*domain.MessageRecord, error) {
	address := ToAddress(phone)

	registered, err := s.transport.IsRegistered(ctx, address)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, fmt.Errorf("number %s is not registered on WhatsApp", NormalizePhone(phone))
	}

	var attachment *domain.Media
	if mediaPath != "" {
		attachment, err = s.media.Resolve(mediaPath, mediaName)
		if err != nil {
			return nil, err
		}
	}

	record := &domain.MessageRecord{
		ID:        uuid.NewString(),
		Address:   address,
		Body:      body,
		Direction: domain.DirectionOutbound,
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	}

	receipt, err := sendWithFallback(ctx, s.transport, address, attachment, body)
	if err != nil {
		errMsg := err.Error()
		record.Status = domain.StatusFailed
		record.Error = &errMsg

		if createErr := s.repo.Create(ctx, record); createErr != nil {
			logger.Errorf("Failed to log failed message to %s: %v", address, createErr)
		}

		return nil, err
	}

	now := time.Now()
	record.Status = domain.StatusSent
	record.TransportID = &receipt.ID
	record.SentAt = &now

	if err := s.repo.Create(ctx, record); err != nil {
		logger.Errorf("Failed to log sent message to %s: %v", address, err)
	}

	return record, nil
}

// HandleInbound logs a received message and answers it when auto-reply is on.
// Messages echoed back from our own session are dropped.
func (s *MessageService) HandleInbound(ctx context.Context, msg whatsapp.InboundMessage) {
	if msg.IsSelf {
		return
	}

	record := &domain.MessageRecord{
		ID:        uuid.NewString(),
		Address:   msg.FromAddress,
		Name:      msg.FromName,
		Body:      msg.Body,
		Direction: domain.DirectionInbound,
		Status:    domain.StatusReceived,
		CreatedAt: msg.ReceivedAt,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		logger.Errorf("Failed to log inbound message from %s: %v", msg.FromAddress, err)
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		logger.Errorf("Failed to load settings for auto-reply: %v", err)
		return
	}

	if !settings.AutoReply {
		return
	}

	if !withinWorkingHours(settings, time.Now()) {
		logger.Debugf("Outside working hours, skipping auto-reply to %s", msg.FromAddress)
		return
	}

	reply := matchKeyword(settings, msg.Body)
	if reply == "" {
		reply = settings.AutoReplyMessage
	}
	if reply == "" {
		return
	}

	receipt, err := sendWithFallback(ctx, s.transport, msg.FromAddress, nil, reply)
	if err != nil {
		logger.Errorf("Failed to auto-reply to %s: %v", msg.FromAddress, err)
		return
	}

	now := time.Now()
	outbound := &domain.MessageRecord{
		ID:          uuid.NewString(),
		Address:     msg.FromAddress,
		Name:        msg.FromName,
		Body:        reply,
		Direction:   domain.DirectionOutbound,
		Status:      domain.StatusSent,
		TransportID: &receipt.ID,
		SentAt:      &now,
		CreatedAt:   now,
	}

	if err := s.repo.Create(ctx, outbound); err != nil {
		logger.Errorf("Failed to log auto-reply to %s: %v", msg.FromAddress, err)
	}
}

// matchKeyword returns the configured response for the first keyword found in
// the message, matching case-insensitively. Keywords are checked in sorted
// order so a message matching several always gets the same reply.
func matchKeyword(settings *domain.Settings, body string) string {
	keywords := make([]string, 0, len(settings.Keywords))
	for keyword := range settings.Keywords {
		keywords = append(keywords, keyword)
	}
	sort.Strings(keywords)

	lowered := strings.ToLower(body)
	for _, keyword := range keywords {
		if keyword != "" && strings.Contains(lowered, strings.ToLower(keyword)) {
			return settings.Keywords[keyword]
		}
	}
	return ""
}

// withinWorkingHours checks the HH:MM window in the configured timezone.
// Malformed settings fail open so a typo never silences the bot.
func withinWorkingHours(settings *domain.Settings, now time.Time) bool {
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)

	start, errStart := time.Parse("15:04", settings.WorkingHours.Start)
	end, errEnd := time.Parse("15:04", settings.WorkingHours.End)
	if errStart != nil || errEnd != nil {
		return true
	}

	minutes := local.Hour()*60 + local.Minute()
	startMinutes := start.Hour()*60 + start.Minute()
	endMinutes := end.Hour()*60 + end.Minute()

	return minutes >= startMinutes && minutes < endMinutes
}

func (s *MessageService) GetAllMessages(
	ctx context.Context,
	status *domain.MessageStatus,
	page, pageSize int,
) ([]domain.MessageRecord, int64, error) {
	return s.repo.GetAll(ctx, status, page, pageSize)
}

func (s *MessageService) GetConversation(ctx context.Context, phone string, limit int) ([]domain.MessageRecord, error) {
	return s.repo.GetByAddress(ctx, ToAddress(phone), limit)
}

func (s *MessageService) GetStats(ctx context.Context) (sent, failed, received int64, err error) {
	return s.repo.GetStats(ctx)
}
