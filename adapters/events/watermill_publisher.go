package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/jacobmr/teslatracker/ports"
)

// SignupTopic is the topic signup events are published to.
const SignupTopic = "teslatracker.signup"

// SignupEvent represents a first-time account creation
type SignupEvent struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	SignedUpAt int64  `json:"signed_up_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     SignupTopic,
	}
}

// PublishSignup publishes a signup event
func (p *WatermillPublisher) PublishSignup(ctx context.Context, userID, email string, signedUpAt int64) error {
	event := SignupEvent{
		UserID:     userID,
		Email:      email,
		SignedUpAt: signedUpAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
