package ports

import "context"

// EventPublisher publishes account lifecycle events to notify other services
type EventPublisher interface {
	PublishSignup(ctx context.Context, userID, email string, signedUpAt int64) error
}
