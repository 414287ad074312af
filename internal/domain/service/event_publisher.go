package service

import (
	"context"
	"time"
)

// UserRegisteredEvent is emitted after a new account has been persisted.
type UserRegisteredEvent struct {
	RequestID    string    `json:"request_id,omitempty"` // For distributed tracing
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	Provider     string    `json:"provider"`
	RegisteredAt time.Time `json:"registered_at"`
}

// EventPublisher defines the interface for publishing account events to a message queue
type EventPublisher interface {
	// PublishUserRegistered publishes a registration event for downstream consumers
	PublishUserRegistered(ctx context.Context, event *UserRegisteredEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
