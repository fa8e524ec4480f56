// Package messagequeue defines the message bus port (interface).
package messagequeue

import "context"

// Handler processes a message received from the bus.
type Handler func(ctx context.Context, subject string, data []byte) error

// Bus is the port interface for publishing and subscribing to messages.
type Bus interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Close shuts down the bus connection.
	Close() error
}

// SubjectConfigInvalidate announces that the persisted retrieval config
// changed; every instance must drop its cached copy. At-most-once delivery
// is acceptable here because the cache TTL bounds staleness anyway.
const SubjectConfigInvalidate = "contextd.config.invalidate"
