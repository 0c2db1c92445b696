package ports

import "context"

// Publisher delivers a raw JSON payload to a target (topic ARN, subject, ...).
type Publisher interface {
	PublishRaw(ctx context.Context, target string, payload []byte) error
}
