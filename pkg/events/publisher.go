package events

import (
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/saferide/saferide/pkg/model"
	"github.com/saferide/saferide/pkg/redis_client"
)

const QueueName = "saferide-events-queue"

// Publisher pushes pipeline events onto the shared events queue, where the
// surrounding product's delivery consumers pick them up.
type Publisher struct {
	queue rmq.Queue
}

func NewPublisher() (*Publisher, error) {
	queue, err := redis_client.QueueConnection.OpenQueue(QueueName)
	if err != nil {
		return nil, err
	}

	return &Publisher{queue: queue}, nil
}

func (p *Publisher) Publish(event model.Event) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.queue.PublishBytes(eventBytes)
}
