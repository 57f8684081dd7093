package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"rentalhub/pkg/logger"
)

// FCM accepts at most this many tokens per multicast.
const maxMulticastTokens = 500

type PushClient struct {
	client *messaging.Client
}

func NewPushClient(client *messaging.Client) *PushClient {
	return &PushClient{client: client}
}

// Send delivers title/body to every token and returns the tokens FCM reports as unregistered.
func (p *PushClient) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	var stale []string

	for start := 0; start < len(tokens); start += maxMulticastTokens {
		end := start + maxMulticastTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		resp, err := p.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: batch,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: data,
		})
		if err != nil {
			return stale, fmt.Errorf("failed to send push notification: %v", err)
		}

		for i, r := range resp.Responses {
			if r.Success {
				continue
			}
			if messaging.IsUnregistered(r.Error) {
				stale = append(stale, batch[i])
				continue
			}
			logger.Warn("Push to token %d failed: %v", start+i, r.Error)
		}
	}

	return stale, nil
}
