package events

import (
	"encoding/json"

	"github.com/adjust/rmq/v5"
	"github.com/kr/pretty"
	"github.com/rs/zerolog/log"
	"github.com/saferide/saferide/pkg/model"
)

type EventsBatchConsumer struct {
}

func NewEventsBatchConsumer() *EventsBatchConsumer {
	return &EventsBatchConsumer{}
}

func (consumer *EventsBatchConsumer) Consume(batch rmq.Deliveries) {
	payloads := batch.Payloads()

	for _, payload := range payloads {
		var event *model.Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			log.Error().Err(err).Msg("Failed to decode event")
			continue
		}

		notificationData := event.GetNotificationData()

		if notificationData.Title == "" {
			log.Debug().Str("type", string(event.Type)).Msg("Event with no notification content")
			continue
		}

		// Delivery (push, email, volunteer dispatch) is owned by the
		// surrounding product. Surface what would be sent.
		pretty.Println(notificationData)

		log.Info().
			Str("type", string(event.Type)).
			Str("title", notificationData.Title).
			Msg("Notification generated")
	}

	if ackErrors := batch.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Fatal().Err(err).Msg("Failed to consume event")
		}
	}
}
