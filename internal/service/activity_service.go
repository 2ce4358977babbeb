package service

import (
	"context"
	"fmt"

	"insightai-be/internal/pkg/logger"
	"insightai-be/internal/websocket"
	"insightai-be/pkg/events"
	pktNats "insightai-be/pkg/nats" // Renamed to avoid collision
)

// ActivityDelivery pushes live updates to connected dashboards.
// Implemented by the WebSocket Hub.
type ActivityDelivery interface {
	Broadcast(msg websocket.Message)
}

// ActivityService turns run-finished events into dashboard broadcasts.
type ActivityService struct {
	subscriber *pktNats.Subscriber
	delivery   ActivityDelivery
	logger     logger.ILogger
}

func NewActivityService(sub *pktNats.Subscriber, delivery ActivityDelivery, log logger.ILogger) *ActivityService {
	return &ActivityService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus. Without a subscriber, events
// arrive through Publish instead.
func (s *ActivityService) Start(ctx context.Context) {
	if s.subscriber == nil {
		s.logger.Info("ActivityService", "No NATS subscriber, delivering run events in-process", nil)
		return
	}

	subject := pktNats.Subject(events.AnalysisRunFinished)
	if err := s.subscriber.Subscribe(ctx, subject, "activity-feed-worker", s.handleEvent); err != nil {
		s.logger.Error("ActivityService", "Failed to start activity subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("ActivityService", fmt.Sprintf("Activity service started, listening to %s", subject), nil)
}

// Publish satisfies EventSink for single-instance deployments.
func (s *ActivityService) Publish(ctx context.Context, event events.Event) error {
	return s.handleEvent(ctx, event)
}

func (s *ActivityService) handleEvent(ctx context.Context, event events.Event) error {
	if event.EventType() != events.AnalysisRunFinished {
		return nil
	}
	if s.delivery == nil {
		return nil
	}

	data := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		data[k] = v
	}
	data["occurred_at"] = event.Timestamp()

	s.delivery.Broadcast(websocket.Message{Type: "run_finished", Data: data})
	return nil
}
