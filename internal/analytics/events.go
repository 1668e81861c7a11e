// Package analytics records what happens to links. The server publishes events; the
// consumer process persists them.
package analytics

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/shortlinks/internal/messaging"
	"go.uber.org/zap"
)

// Publishers holds one typed publish function per topic.
type Publishers struct {
	LinkCreated  messaging.Publish[LinkCreatedEvent]
	LinkAccessed messaging.Publish[LinkAccessedEvent]
	LinkDeleted  messaging.Publish[LinkDeletedEvent]
}

// NewPublishers binds every topic to publisher.
func NewPublishers(publisher message.Publisher) Publishers {
	return Publishers{
		LinkCreated:  messaging.NewPublishFunc[LinkCreatedEvent](publisher, TopicLinkCreated),
		LinkAccessed: messaging.NewPublishFunc[LinkAccessedEvent](publisher, TopicLinkAccessed),
		LinkDeleted:  messaging.NewPublishFunc[LinkDeletedEvent](publisher, TopicLinkDeleted),
	}
}

// Discard returns Publishers that drop every event.
func Discard() Publishers {
	return Publishers{
		LinkCreated:  func(context.Context, *LinkCreatedEvent) error { return nil },
		LinkAccessed: func(context.Context, *LinkAccessedEvent) error { return nil },
		LinkDeleted:  func(context.Context, *LinkDeletedEvent) error { return nil },
	}
}

// Consumers returns one consumer per topic, each saving into store.
func Consumers(subscriber message.Subscriber, store Store, logger *zap.Logger) []messaging.Runnable {
	return []messaging.Runnable{
		messaging.NewConsumer[LinkCreatedEvent](subscriber, TopicLinkCreated, store.SaveLinkCreated, logger),
		messaging.NewConsumer[LinkAccessedEvent](subscriber, TopicLinkAccessed, store.SaveLinkAccessed, logger),
		messaging.NewConsumer[LinkDeletedEvent](subscriber, TopicLinkDeleted, store.SaveLinkDeleted, logger),
	}
}
