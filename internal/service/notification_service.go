package service

import (
	"context"
	"strings"

	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/websocket"
	"ai-tutor-be/pkg/events"
	pktNats "ai-tutor-be/pkg/nats"

	"github.com/google/uuid"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, n websocket.Notification)
	Broadcast(n websocket.Notification)
}

// NotificationService bridges the NATS event stream to connected websocket
// clients: indexing outcomes and session deletions reach the owning user
// without polling.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus with a durable consumer.
func (s *NotificationService) Start() {
	if err := s.subscriber.Subscribe("events.>", "notify-worker", s.handleEvent); err != nil {
		s.logger.Error("Notification", "Failed to start event subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("Notification", "Listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	// NATS subjects are "events.<TYPE>".
	typeCode := strings.TrimPrefix(event.EventType(), "events.")

	switch typeCode {
	case events.DocumentIndexed, events.DocumentIndexFailed, events.SessionDeleted:
	default:
		// Login events and anything else stay on the stream for audit
		// consumers; users get no push for them.
		return nil
	}

	payload := event.Payload()
	rawUserId, _ := payload["user_id"].(string)
	userId, err := uuid.Parse(rawUserId)
	if err != nil {
		s.logger.Warn("Notification", "Event without a valid user_id, dropping", map[string]interface{}{
			"type": typeCode,
		})
		return nil
	}

	s.delivery.Send(userId, websocket.Notification{
		Event: typeCode,
		Data:  payload,
	})
	return nil
}
