package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/pkg/whatsapp"
)

//
// Test fakes – only for this file.
//

type fakeMessageStore struct {
	mu      sync.Mutex
	records []domain.MessageRecord
	err     error
}

func (f *fakeMessageStore) Create(ctx context.Context, msg *domain.MessageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *msg)
	return nil
}

func (f *fakeMessageStore) GetByID(ctx context.Context, id string) (*domain.MessageRecord, error) {
	return nil, nil
}

func (f *fakeMessageStore) GetAll(ctx context.Context, status *domain.MessageStatus, page, pageSize int) ([]domain.MessageRecord, int64, error) {
	return nil, 0, nil
}

func (f *fakeMessageStore) GetByAddress(ctx context.Context, address string, limit int) ([]domain.MessageRecord, error) {
	return nil, nil
}

func (f *fakeMessageStore) GetStats(ctx context.Context) (sent, failed, received int64, err error) {
	return 0, 0, 0, nil
}

func (f *fakeMessageStore) logged() []domain.MessageRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.MessageRecord(nil), f.records...)
}

type fakeSettingsStore struct {
	settings *domain.Settings
}

func (f *fakeSettingsStore) Get(ctx context.Context) (*domain.Settings, error) {
	if f.settings != nil {
		return f.settings, nil
	}
	return domain.DefaultSettings(), nil
}

func alwaysOpenSettings() *domain.Settings {
	s := domain.DefaultSettings()
	s.AutoReply = true
	s.Timezone = "UTC"
	s.WorkingHours = domain.WorkingHours{Start: "00:00", End: "23:59"}
	return s
}

func inbound(body string) whatsapp.InboundMessage {
	return whatsapp.InboundMessage{
		FromAddress: "573001234501@c.us",
		FromName:    "Ana",
		Body:        body,
		ReceivedAt:  time.Now(),
	}
}

//
// Tests
//

func TestSendMessage_LogsSentRecord(t *testing.T) {
	store := &fakeMessageStore{}
	gateway := &fakeGateway{}
	svc := NewMessageService(store, &fakeSettingsStore{}, gateway, &fakeMediaResolver{})

	record, err := svc.SendMessage(context.Background(), "3001234567", "hello there", "", "")
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}

	if record.Status != domain.StatusSent {
		t.Errorf("expected sent status, got %s", record.Status)
	}
	if record.Address != "573001234567@c.us" {
		t.Errorf("expected normalized address, got %s", record.Address)
	}
	if record.TransportID == nil || *record.TransportID == "" {
		t.Errorf("expected a transport id on the record")
	}
	if record.SentAt == nil {
		t.Errorf("expected SentAt to be set")
	}

	logged := store.logged()
	if len(logged) != 1 {
		t.Fatalf("expected 1 logged record, got %d", len(logged))
	}
	if logged[0].Direction != domain.DirectionOutbound {
		t.Errorf("expected outbound direction, got %s", logged[0].Direction)
	}
}

func TestSendMessage_UnregisteredNumberRejected(t *testing.T) {
	store := &fakeMessageStore{}
	gateway := &fakeGateway{unregistered: map[string]bool{"573001234567@c.us": true}}
	svc := NewMessageService(store, &fakeSettingsStore{}, gateway, &fakeMediaResolver{})

	_, err := svc.SendMessage(context.Background(), "3001234567", "hello", "", "")
	if err == nil {
		t.Fatal("expected an error for an unregistered number")
	}
	if !strings.Contains(err.Error(), "not registered") {
		t.Errorf("unexpected error: %v", err)
	}

	// Nothing was attempted or logged.
	if len(gateway.sendCalls()) != 0 {
		t.Errorf("expected no send attempts, got %d", len(gateway.sendCalls()))
	}
	if len(store.logged()) != 0 {
		t.Errorf("expected no logged records, got %d", len(store.logged()))
	}
}

func TestSendMessage_FailureIsLogged(t *testing.T) {
	store := &fakeMessageStore{}
	gateway := &fakeGateway{failAll: true}
	svc := NewMessageService(store, &fakeSettingsStore{}, gateway, &fakeMediaResolver{})

	_, err := svc.SendMessage(context.Background(), "3001234567", "hello", "", "")
	if err == nil {
		t.Fatal("expected an error when the gateway rejects the message")
	}

	logged := store.logged()
	if len(logged) != 1 {
		t.Fatalf("expected the failure to be logged, got %d records", len(logged))
	}
	if logged[0].Status != domain.StatusFailed {
		t.Errorf("expected failed status, got %s", logged[0].Status)
	}
	if logged[0].Error == nil || *logged[0].Error == "" {
		t.Errorf("expected the error message on the record")
	}
}

func TestSendMessage_UnusableMediaRejected(t *testing.T) {
	store := &fakeMessageStore{}
	gateway := &fakeGateway{}
	resolver := &fakeMediaResolver{err: domain.ErrFileNotFound}
	svc := NewMessageService(store, &fakeSettingsStore{}, gateway, resolver)

	_, err := svc.SendMessage(context.Background(), "3001234567", "hello", "/uploads/gone.png", "gone.png")
	if err == nil {
		t.Fatal("expected the resolver error to surface")
	}
	if len(gateway.sendCalls()) != 0 {
		t.Errorf("expected no send attempts, got %d", len(gateway.sendCalls()))
	}
}

func TestHandleInbound_SelfMessagesDropped(t *testing.T) {
	store := &fakeMessageStore{}
	gateway := &fakeGateway{}
	svc := NewMessageService(store, &fakeSettingsStore{settings: alwaysOpenSettings()}, gateway, &fakeMediaResolver{})

	msg := inbound("hola")
	msg.IsSelf = true
	svc.HandleInbound(context.Background(), msg)

	if len(store.logged()) != 0 {
		t.Errorf("self messages must not be logged, got %d records", len(store.logged()))
	}
	if len(gateway.sendCalls()) != 0 {
		t.Errorf("self messages must not be replied to")
	}
}

func TestHandleInbound_LogsWithoutReplyWhenDisabled(t *testing.T) {
	settings := alwaysOpenSettings()
	settings.AutoReply = false

	store := &fakeMessageStore{}
	gateway := &fakeGateway{}
	svc := NewMessageService(store, &fakeSettingsStore{settings: settings}, gateway, &fakeMediaResolver{})

	svc.HandleInbound(context.Background(), inbound("hola"))

	logged := store.logged()
	if len(logged) != 1 {
		t.Fatalf("expected the inbound message logged, got %d", len(logged))
	}
	if logged[0].Status != domain.StatusReceived || logged[0].Direction != domain.DirectionInbound {
		t.Errorf("unexpected inbound record: %+v", logged[0])
	}
	if len(gateway.sendCalls()) != 0 {
		t.Errorf("expected no reply while auto-reply is off")
	}
}

func TestHandleInbound_KeywordReplyWins(t *testing.T) {
	settings := alwaysOpenSettings()
	settings.Keywords = map[string]string{"precio": "Our price list: example.com/prices"}

	store := &fakeMessageStore{}
	gateway := &fakeGateway{}
	svc := NewMessageService(store, &fakeSettingsStore{settings: settings}, gateway, &fakeMediaResolver{})

	svc.HandleInbound(context.Background(), inbound("Hola, cual es el PRECIO?"))

	calls := gateway.sendCalls()
	if len(calls) != 1 {
		t.Fatalf("expected one auto-reply, got %d", len(calls))
	}
	if calls[0].caption != "Our price list: example.com/prices" {
		t.Errorf("expected the keyword response, got %q", calls[0].caption)
	}

	logged := store.logged()
	if len(logged) != 2 {
		t.Fatalf("expected inbound plus reply logged, got %d", len(logged))
	}
	if logged[1].Direction != domain.DirectionOutbound || logged[1].Status != domain.StatusSent {
		t.Errorf("unexpected reply record: %+v", logged[1])
	}
}

func TestHandleInbound_DefaultReplyWhenNoKeywordMatches(t *testing.T) {
	settings := alwaysOpenSettings()
	settings.Keywords = map[string]string{"precio": "price list"}
	settings.AutoReplyMessage = "We will get back to you"

	store := &fakeMessageStore{}
	gateway := &fakeGateway{}
	svc := NewMessageService(store, &fakeSettingsStore{settings: settings}, gateway, &fakeMediaResolver{})

	svc.HandleInbound(context.Background(), inbound("buenas tardes"))

	calls := gateway.sendCalls()
	if len(calls) != 1 {
		t.Fatalf("expected the default reply, got %d calls", len(calls))
	}
	if calls[0].caption != "We will get back to you" {
		t.Errorf("expected the default message, got %q", calls[0].caption)
	}
}

func TestHandleInbound_OutsideWorkingHoursOnlyLogs(t *testing.T) {
	settings := alwaysOpenSettings()
	settings.WorkingHours = domain.WorkingHours{Start: "00:00", End: "00:01"}

	store := &fakeMessageStore{}
	gateway := &fakeGateway{}
	svc := NewMessageService(store, &fakeSettingsStore{settings: settings}, gateway, &fakeMediaResolver{})

	svc.HandleInbound(context.Background(), inbound("hola"))

	if len(store.logged()) != 1 {
		t.Fatalf("expected the inbound message logged, got %d", len(store.logged()))
	}
	if len(gateway.sendCalls()) != 0 {
		t.Errorf("expected no reply outside working hours")
	}
}

func TestMatchKeyword(t *testing.T) {
	settings := &domain.Settings{Keywords: map[string]string{
		"precio": "price response",
	}}

	cases := []struct {
		body string
		want string
	}{
		{"cual es el precio?", "price response"},
		{"EL PRECIO POR FAVOR", "price response"},
		{"hola buenas", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := matchKeyword(settings, tc.body); got != tc.want {
			t.Errorf("matchKeyword(%q) = %q, want %q", tc.body, got, tc.want)
		}
	}
}

func TestMatchKeyword_MultipleMatchesAreDeterministic(t *testing.T) {
	settings := &domain.Settings{Keywords: map[string]string{
		"promo":  "promo response",
		"precio": "price response",
	}}

	// Both keywords appear; the sorted-first keyword always wins.
	for i := 0; i < 20; i++ {
		if got := matchKeyword(settings, "el precio de la promo?"); got != "price response" {
			t.Fatalf("run %d: matchKeyword = %q, want %q", i, got, "price response")
		}
	}
}

func TestWithinWorkingHours(t *testing.T) {
	at := func(hour, minute int) time.Time {
		return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
	}

	settings := &domain.Settings{
		Timezone:     "UTC",
		WorkingHours: domain.WorkingHours{Start: "08:00", End: "18:00"},
	}

	if !withinWorkingHours(settings, at(9, 30)) {
		t.Errorf("09:30 should be inside 08:00-18:00")
	}
	if !withinWorkingHours(settings, at(8, 0)) {
		t.Errorf("start of the window is inclusive")
	}
	if withinWorkingHours(settings, at(18, 0)) {
		t.Errorf("end of the window is exclusive")
	}
	if withinWorkingHours(settings, at(3, 15)) {
		t.Errorf("03:15 should be outside the window")
	}

	// Malformed window fails open.
	broken := &domain.Settings{
		Timezone:     "UTC",
		WorkingHours: domain.WorkingHours{Start: "nope", End: "18:00"},
	}
	if !withinWorkingHours(broken, at(3, 15)) {
		t.Errorf("a malformed window must not silence the bot")
	}

	// Unknown timezone falls back to UTC rather than erroring.
	weirdTZ := &domain.Settings{
		Timezone:     "Mars/Olympus",
		WorkingHours: domain.WorkingHours{Start: "08:00", End: "18:00"},
	}
	if !withinWorkingHours(weirdTZ, at(12, 0)) {
		t.Errorf("unknown timezone should fall back to UTC")
	}
}
