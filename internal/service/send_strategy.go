package service

import (
	"context"

	"github.com/jdcera4/pruebaBot/internal/domain"
	"github.com/jdcera4/pruebaBot/pkg/logger"
)

// transportSender is the one method of the gateway client the send ladder
// needs. A nil media sends plain text.
type transportSender interface {
	Send(ctx context.Context, address string, media *domain.Media, caption string) (*domain.SendReceipt, error)
}

const mediaUnavailableNotice = "\n\n(The attached file could not be delivered)"

// sendWithFallback delivers one message, degrading the attachment step by
// step instead of failing the recipient outright:
//
//  1. the media as its native type, caption attached
//  2. for videos, the same bytes re-typed as a document
//  3. the bytes re-wrapped as a generic video/mp4
//  4. the caption alone as text, with a notice that the file was dropped
//
// Text-only messages get a single attempt. When every rung fails the caller
// receives a DeliveryExhaustedError wrapping the last transport error.
func sendWithFallback(
	ctx context.Context,
	sender transportSender,
	address string,
	media *domain.Media,
	caption string,
) (*domain.SendReceipt, error) {
	if media == nil {
		receipt, err := sender.Send(ctx, address, nil, caption)
		if err != nil {
			return nil, &domain.DeliveryExhaustedError{Last: err}
		}
		return receipt, nil
	}

	receipt, err := sender.Send(ctx, address, media, caption)
	if err == nil {
		return receipt, nil
	}
	lastErr := err
	logger.Warnf("Native send of %s to %s failed: %v", media.Filename, address, err)

	if media.DocumentFallback != nil {
		receipt, err = sender.Send(ctx, address, media.DocumentFallback, caption)
		if err == nil {
			logger.Infof("Delivered %s to %s as document", media.Filename, address)
			return receipt, nil
		}
		lastErr = err
		logger.Warnf("Document send of %s to %s failed: %v", media.Filename, address, err)
	}

	generic := &domain.Media{
		MimeType: "video/mp4",
		Filename: "video.mp4",
		Data:     media.Data,
	}
	receipt, err = sender.Send(ctx, address, generic, caption)
	if err == nil {
		logger.Infof("Delivered %s to %s as generic video", media.Filename, address)
		return receipt, nil
	}
	lastErr = err
	logger.Warnf("Generic video send of %s to %s failed: %v", media.Filename, address, err)

	if caption != "" {
		receipt, err = sender.Send(ctx, address, nil, caption+mediaUnavailableNotice)
		if err == nil {
			logger.Infof("Delivered caption without media to %s", address)
			return receipt, nil
		}
		lastErr = err
	}

	return nil, &domain.DeliveryExhaustedError{Last: lastErr}
}
