package services

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMProvider delivers batches through Firebase Cloud Messaging.
type FCMProvider struct {
	client *messaging.Client
}

// NewFCMProvider builds the provider from a service-account file. An empty
// path means push delivery is unconfigured: the caller gets a nil provider
// and the worker no-ops.
func NewFCMProvider(ctx context.Context, credentialsFile string) (*FCMProvider, error) {
	if credentialsFile == "" {
		return nil, nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}
	return &FCMProvider{client: client}, nil
}

func (p *FCMProvider) Send(ctx context.Context, tokens []string, msg PushMessage) (*ProviderResult, error) {
	multicast := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title:    msg.Title,
			Body:     msg.Body,
			ImageURL: msg.ImageURL,
		},
		Data: msg.Data,
	}
	if msg.Badge != nil || msg.Sound != "" {
		multicast.APNS = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Badge: msg.Badge,
					Sound: msg.Sound,
				},
			},
		}
	}
	if msg.Sound != "" || msg.ImageURL != "" {
		multicast.Android = &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Sound:    msg.Sound,
				ImageURL: msg.ImageURL,
			},
		}
	}

	br, err := p.client.SendEachForMulticast(ctx, multicast)
	if err != nil {
		return nil, err
	}

	invalid := make([]string, 0)
	for i, resp := range br.Responses {
		if resp.Success {
			continue
		}
		if messaging.IsUnregistered(resp.Error) || messaging.IsSenderIDMismatch(resp.Error) {
			invalid = append(invalid, tokens[i])
		}
	}

	return &ProviderResult{
		SuccessCount:  br.SuccessCount,
		FailureCount:  br.FailureCount,
		InvalidTokens: invalid,
	}, nil
}
