package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSignup(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	messages, err := pubSub.Subscribe(context.Background(), SignupTopic)
	require.NoError(t, err)

	publisher := NewWatermillPublisher(pubSub)
	err = publisher.PublishSignup(context.Background(), "user@example.com", "User@Example.com", 1750000000)
	require.NoError(t, err)

	select {
	case msg := <-messages:
		msg.Ack()

		var event SignupEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, "user@example.com", event.UserID)
		assert.Equal(t, "User@Example.com", event.Email)
		assert.Equal(t, int64(1750000000), event.SignedUpAt)
		assert.NotEmpty(t, msg.UUID)
	case <-time.After(time.Second):
		t.Fatal("no signup event received")
	}
}
