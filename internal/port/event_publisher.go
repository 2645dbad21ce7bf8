package port

import "context"

// Publisher defines an interface for publishing order lifecycle events
// to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, key string, event any) error
}
