package service

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMService sends data-only push payloads via Firebase Cloud Messaging.
type FCMService struct {
	client *messaging.Client
}

// NewFCMService creates an FCM pusher. Returns nil if Firebase is not
// configured; a nil pusher disables push without disabling the service.
func NewFCMService(ctx context.Context, projectID, serviceAccountPath string) (*FCMService, error) {
	if projectID == "" && serviceAccountPath == "" {
		return nil, nil
	}
	var opts []option.ClientOption
	if serviceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("fcm: init app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("fcm: init client: %w", err)
	}
	return &FCMService{client: client}, nil
}

// SendToTokens multicasts a data payload. Partial failures (stale tokens)
// are not an error; only a transport-level failure is reported.
func (s *FCMService) SendToTokens(ctx context.Context, tokens []string, data map[string]string) error {
	if s == nil || len(tokens) == 0 {
		return nil
	}
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{ContentAvailable: true},
			},
		},
	}
	_, err := s.client.SendEachForMulticast(ctx, msg)
	return err
}
