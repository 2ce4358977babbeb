package service

import (
	"context"
	"encoding/json"

	"insightai-be/internal/dto"
	"insightai-be/internal/entity"
	"insightai-be/internal/pkg/logger"
	"insightai-be/internal/repository/contract"
	"insightai-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventSink receives the run-finished event once the run is recorded.
// Implemented by the NATS publisher, or by the activity service directly when
// NATS is not configured.
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	repo       contract.AnalysisRunRepository
	sink       EventSink
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	repo contract.AnalysisRunRepository,
	sink EventSink,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		repo:       repo,
		sink:       sink,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.RunSummary
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("RunRecorder", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	run := &entity.AnalysisRun{
		Id:            payload.Id,
		Question:      payload.Question,
		SqlQuery:      payload.SqlQuery,
		Status:        entity.RunStatus(payload.Status),
		ChartType:     payload.ChartType,
		RetryCount:    payload.RetryCount,
		RowCount:      payload.RowCount,
		Steps:         payload.Steps,
		Visualization: payload.Visualization,
		Error:         payload.Error,
		DurationMs:    payload.DurationMs,
		CreatedAt:     payload.CreatedAt,
	}

	if err := cs.repo.Create(ctx, run); err != nil {
		cs.logger.Error("RunRecorder", "Failed to persist run", map[string]interface{}{"run_id": payload.Id, "error": err.Error()})
		msg.Nack() // Nack for retriable errors
		return
	}

	if cs.sink != nil {
		event := events.NewRunFinished(
			run.Id.String(),
			run.Question,
			string(run.Status),
			run.ChartType,
			run.RetryCount,
			run.RowCount,
			run.DurationMs,
		)
		// The row is stored; a lost notification is not worth a redelivery.
		if err := cs.sink.Publish(ctx, event); err != nil {
			cs.logger.Warn("RunRecorder", "Failed to publish run event", map[string]interface{}{"run_id": run.Id, "error": err.Error()})
		}
	}

	cs.logger.Info("RunRecorder", "Run recorded", map[string]interface{}{"run_id": run.Id, "status": run.Status})
	msg.Ack()
}
