package service

import (
	"context"
	"strings"

	"alrah-ai-be/internal/pkg/logger"
	"alrah-ai-be/pkg/events"
	pktNats "alrah-ai-be/pkg/nats"
)

// EventDelivery pushes real-time frames to connected clients. Implemented by
// the voice-call hub.
type EventDelivery interface {
	Broadcast(frame map[string]interface{})
}

// NotificationService bridges the cluster event bus to live connections:
// answered-query events become activity frames on every open voice call.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   EventDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery EventDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(_ context.Context, event events.Event) error {
	// NATS subjects arrive as "events.<TYPE>"
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	s.logger.Info("NotificationService", "Processing event", map[string]interface{}{"type": typeCode})

	switch typeCode {
	case "QUERY_ANSWERED":
		if s.delivery != nil {
			payload := event.Payload()
			s.delivery.Broadcast(map[string]interface{}{
				"type":    "activity",
				"event":   typeCode,
				"channel": payload["channel"],
			})
		}
	default:
		// Unknown event types are acked and dropped.
	}

	return nil
}
