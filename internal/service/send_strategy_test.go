package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jdcera4/pruebaBot/internal/domain"
)

func videoMedia() *domain.Media {
	data := []byte("fake video bytes")
	return &domain.Media{
		MimeType: "video/quicktime",
		Filename: "clip.mov",
		Data:     data,
		DocumentFallback: &domain.Media{
			MimeType: "application/octet-stream",
			Filename: "clip.mov",
			Data:     data,
		},
	}
}

func TestSendWithFallback_NativeSucceedsStopsLadder(t *testing.T) {
	gateway := &fakeGateway{}

	receipt, err := sendWithFallback(context.Background(), gateway, "573001234501@c.us", videoMedia(), "watch this")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if receipt == nil || receipt.ID == "" {
		t.Fatalf("expected a receipt, got %+v", receipt)
	}

	calls := gateway.sendCalls()
	if len(calls) != 1 {
		t.Fatalf("expected a single attempt, got %d", len(calls))
	}
	if calls[0].mimeType != "video/quicktime" || calls[0].caption != "watch this" {
		t.Errorf("unexpected first attempt: %+v", calls[0])
	}
}

func TestSendWithFallback_VideoDegradesToDocument(t *testing.T) {
	gateway := &fakeGateway{failMimes: map[string]bool{"video/quicktime": true}}

	receipt, err := sendWithFallback(context.Background(), gateway, "573001234501@c.us", videoMedia(), "watch this")
	if err != nil {
		t.Fatalf("expected document fallback to succeed, got %v", err)
	}
	if receipt == nil {
		t.Fatal("expected a receipt")
	}

	calls := gateway.sendCalls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(calls))
	}
	if calls[1].mimeType != "application/octet-stream" {
		t.Errorf("expected document retry, got %+v", calls[1])
	}
	if calls[1].filename != "clip.mov" {
		t.Errorf("document fallback should keep the original filename, got %q", calls[1].filename)
	}
}

func TestSendWithFallback_VideoGenericRewrap(t *testing.T) {
	gateway := &fakeGateway{failMimes: map[string]bool{
		"video/quicktime":          true,
		"application/octet-stream": true,
	}}

	_, err := sendWithFallback(context.Background(), gateway, "573001234501@c.us", videoMedia(), "watch this")
	if err != nil {
		t.Fatalf("expected generic re-wrap to succeed, got %v", err)
	}

	calls := gateway.sendCalls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(calls))
	}
	if calls[2].mimeType != "video/mp4" || calls[2].filename != "video.mp4" {
		t.Errorf("expected generic video/mp4 re-wrap, got %+v", calls[2])
	}
}

func TestSendWithFallback_CaptionOnlyWithNotice(t *testing.T) {
	gateway := &fakeGateway{failMimes: map[string]bool{
		"video/quicktime":          true,
		"application/octet-stream": true,
		"video/mp4":                true,
	}}

	_, err := sendWithFallback(context.Background(), gateway, "573001234501@c.us", videoMedia(), "watch this")
	if err != nil {
		t.Fatalf("expected caption-only rung to succeed, got %v", err)
	}

	calls := gateway.sendCalls()
	if len(calls) != 4 {
		t.Fatalf("expected 4 attempts, got %d", len(calls))
	}
	last := calls[3]
	if last.hasMedia {
		t.Errorf("final rung must be text only, got %+v", last)
	}
	if want := "watch this" + mediaUnavailableNotice; last.caption != want {
		t.Errorf("expected notice appended, got %q", last.caption)
	}
}

func TestSendWithFallback_ImageGetsGenericRewrap(t *testing.T) {
	gateway := &fakeGateway{failMimes: map[string]bool{"image/png": true}}
	image := &domain.Media{MimeType: "image/png", Filename: "promo.png", Data: []byte("png")}

	receipt, err := sendWithFallback(context.Background(), gateway, "573001234501@c.us", image, "see attached")
	if err != nil {
		t.Fatalf("expected the generic re-wrap to succeed, got %v", err)
	}
	if receipt == nil {
		t.Fatal("expected a receipt")
	}

	// Non-video media has no document rung but still gets the generic re-wrap
	// before the attachment is dropped.
	calls := gateway.sendCalls()
	if len(calls) != 2 {
		t.Fatalf("expected native attempt then generic re-wrap, got %d attempts", len(calls))
	}
	if !calls[1].hasMedia || calls[1].mimeType != "video/mp4" || calls[1].filename != "video.mp4" {
		t.Errorf("expected generic video/mp4 re-wrap carrying the bytes, got %+v", calls[1])
	}
}

func TestSendWithFallback_ImageCaptionOnlyLast(t *testing.T) {
	gateway := &fakeGateway{failMimes: map[string]bool{
		"image/png": true,
		"video/mp4": true,
	}}
	image := &domain.Media{MimeType: "image/png", Filename: "promo.png", Data: []byte("png")}

	_, err := sendWithFallback(context.Background(), gateway, "573001234501@c.us", image, "see attached")
	if err != nil {
		t.Fatalf("expected caption-only fallback to succeed, got %v", err)
	}

	calls := gateway.sendCalls()
	if len(calls) != 3 {
		t.Fatalf("expected native, generic, then text, got %d attempts", len(calls))
	}
	last := calls[2]
	if last.hasMedia {
		t.Errorf("final rung must be text only, got %+v", last)
	}
	if want := "see attached" + mediaUnavailableNotice; last.caption != want {
		t.Errorf("expected notice appended, got %q", last.caption)
	}
}

func TestSendWithFallback_ExhaustedWrapsLastError(t *testing.T) {
	gateway := &fakeGateway{failAll: true}

	_, err := sendWithFallback(context.Background(), gateway, "573001234501@c.us", videoMedia(), "watch this")
	if err == nil {
		t.Fatal("expected an error after every rung failed")
	}

	var exhausted *domain.DeliveryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected DeliveryExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Last == nil {
		t.Errorf("expected the last transport error to be preserved")
	}

	if got := len(gateway.sendCalls()); got != 4 {
		t.Errorf("expected 4 attempts before giving up, got %d", got)
	}
}

func TestSendWithFallback_TextOnlySingleAttempt(t *testing.T) {
	gateway := &fakeGateway{failAll: true}

	_, err := sendWithFallback(context.Background(), gateway, "573001234501@c.us", nil, "plain text")
	if err == nil {
		t.Fatal("expected an error")
	}

	var exhausted *domain.DeliveryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected DeliveryExhaustedError, got %T", err)
	}

	if got := len(gateway.sendCalls()); got != 1 {
		t.Errorf("text messages get a single attempt, got %d", got)
	}
}
