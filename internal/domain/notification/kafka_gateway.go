package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/questx-lab/gamification/pkg/pubsub"
)

type message struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Notification
}

type kafkaGateway struct {
	publisher pubsub.Publisher
	topic     string
}

// NewKafkaGateway publishes notifications as JSON messages keyed by user id,
// so notifications of a user keep their order in a partition.
func NewKafkaGateway(publisher pubsub.Publisher, topic string) *kafkaGateway {
	return &kafkaGateway{publisher: publisher, topic: topic}
}

func (g *kafkaGateway) Send(ctx context.Context, userID string, n Notification) error {
	b, err := json.Marshal(message{
		UserID:       userID,
		CreatedAt:    time.Now(),
		Notification: n,
	})
	if err != nil {
		return err
	}

	return g.publisher.Publish(ctx, g.topic, &pubsub.Pack{Key: []byte(userID), Msg: b})
}
