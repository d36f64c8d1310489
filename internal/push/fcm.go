// Package push delivers notifications through Firebase Cloud Messaging.
package push

import (
	"context"
	"errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/C4NU/hanavi-schedule/internal/config"
	"github.com/C4NU/hanavi-schedule/internal/domain"
	"github.com/C4NU/hanavi-schedule/internal/notifier"
)

type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(ctx context.Context, cfg *config.Config) (*FCMSender, error) {
	var opts []option.ClientOption
	switch {
	case cfg.Push.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.Push.CredentialsJSON)))
	case cfg.Push.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.Push.CredentialsFile))
	default:
		return nil, errors.New("push credentials are not configured")
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}

	return &FCMSender{client: client}, nil
}

// SendMulticast sends one message to a batch of tokens (the caller bounds
// the batch at FCM's 500-token multicast limit) and classifies per-token
// failures. Only "unregistered" and "invalid argument" are permanent;
// anything else is transient and must not trigger pruning.
func (s *FCMSender) SendMulticast(ctx context.Context, tokens []string, msg domain.PushMessage) (*notifier.MulticastResult, error) {
	message := &messaging.MulticastMessage{
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Webpush: &messaging.WebpushConfig{
			Headers: map[string]string{
				"Urgency": "high",
				"TTL":     "86400", // 24 hours
			},
			Notification: &messaging.WebpushNotification{
				Icon:               msg.Icon,
				RequireInteraction: true,
			},
		},
		Tokens: tokens,
	}

	response, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return nil, err
	}

	result := &notifier.MulticastResult{
		SuccessCount: response.SuccessCount,
		FailureCount: response.FailureCount,
	}
	for i, resp := range response.Responses {
		if resp.Success {
			continue
		}
		if messaging.IsUnregistered(resp.Error) || errorutils.IsInvalidArgument(resp.Error) {
			result.PermanentFailures = append(result.PermanentFailures, tokens[i])
		}
	}

	return result, nil
}
