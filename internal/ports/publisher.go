package ports

import "context"

// Publisher delivers an encoded event to a topic.
type Publisher interface {
	PublishRaw(ctx context.Context, topic string, payload []byte) error
}
