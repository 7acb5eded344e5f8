package messaging

import (
	"context"

	"github.com/feral-file/ff-chain-indexer/internal/domain"
)

// Publisher defines the interface for publishing indexer notifications to a message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// Publish publishes a notification to the message broker
	Publish(ctx context.Context, notification *domain.Notification) error
	// Close closes the connection
	Close()
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every notification.
// It is used when no broker is configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, *domain.Notification) error {
	return nil
}

func (noopPublisher) Close() {}
