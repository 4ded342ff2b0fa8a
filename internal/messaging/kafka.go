package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/atelierlabs/muse/internal/config"
	"github.com/atelierlabs/muse/internal/validation"
	"github.com/atelierlabs/muse/pkg/models"
)

const (
	FeedbackDLQTopic = "artwork-feedback-dlq"
	ConsumerGroup    = "feedback-processors"
)

// FeedbackEvent is the wire format published to the feedback topic. Payloads
// are schema-validated before publication.
type FeedbackEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	UserID       uuid.UUID `json:"user_id"`
	ArtworkID    uuid.UUID `json:"artwork_id"`
	FeedbackType string    `json:"feedback_type"`
	Timestamp    time.Time `json:"timestamp"`
}

type MessageBus struct {
	writer    *kafka.Writer
	reader    *kafka.Reader
	dlqWriter *kafka.Writer
	validator *validation.SchemaValidator
	logger    *logrus.Logger
}

func NewMessageBus(cfg *config.Config, logger *logrus.Logger) (*MessageBus, error) {
	validator, err := validation.NewSchemaValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to build schema validator: %w", err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topics.Feedback,
		Balancer:     &kafka.Hash{}, // Key by user for per-user ordering
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topics.Feedback,
		GroupID:        ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        FeedbackDLQTopic,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &MessageBus{
		writer:    writer,
		reader:    reader,
		dlqWriter: dlqWriter,
		validator: validator,
		logger:    logger,
	}, nil
}

// PublishFeedback validates and publishes one feedback event. Messages are
// keyed by user id so one user's events stay ordered within a partition.
func (mb *MessageBus) PublishFeedback(ctx context.Context, req models.FeedbackRequest) error {
	event := FeedbackEvent{
		EventID:      uuid.New(),
		UserID:       req.UserID,
		ArtworkID:    req.ArtworkID,
		FeedbackType: req.FeedbackType,
		Timestamp:    time.Now().UTC(),
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback event: %w", err)
	}

	if result := mb.validator.ValidateFeedbackEvent(eventBytes); !result.Valid {
		return fmt.Errorf("feedback event failed schema validation: %v", result.Errors)
	}

	message := kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID.String())},
			{Key: "feedback_type", Value: []byte(event.FeedbackType)},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}

	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mb.writer.WriteMessages(writeCtx, message); err != nil {
		mb.logger.WithError(err).WithField("event_id", event.EventID).Error("Failed to publish feedback event")
		return fmt.Errorf("failed to write feedback event: %w", err)
	}

	mb.logger.WithFields(logrus.Fields{
		"event_id":      event.EventID,
		"user_id":       event.UserID,
		"feedback_type": event.FeedbackType,
	}).Debug("Feedback event published")

	return nil
}

// ConsumeFeedback reads feedback events and hands them to the handler with
// retry and DLQ semantics.
func (mb *MessageBus) ConsumeFeedback(ctx context.Context, handler func(FeedbackEvent) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			message, err := mb.reader.ReadMessage(ctx)
			if err != nil {
				mb.logger.WithError(err).Error("Failed to read feedback event")
				continue
			}

			var event FeedbackEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				mb.logger.WithError(err).Error("Failed to unmarshal feedback event")
				continue
			}

			if err := mb.processWithRetry(ctx, event, handler); err != nil {
				mb.logger.WithError(err).WithField("event_id", event.EventID).Error("Failed to process feedback event after retries")

				if dlqErr := mb.sendToDLQ(ctx, event, err); dlqErr != nil {
					mb.logger.WithError(dlqErr).Error("Failed to send feedback event to DLQ")
				}
			}
		}
	}
}

func (mb *MessageBus) processWithRetry(ctx context.Context, event FeedbackEvent, handler func(FeedbackEvent) error) error {
	maxRetries := 3
	baseDelay := time.Second

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			delay := baseDelay * time.Duration(1<<uint(attempt-1))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := handler(event); err != nil {
			mb.logger.WithError(err).WithFields(logrus.Fields{
				"event_id": event.EventID,
				"attempt":  attempt,
			}).Warn("Feedback event processing failed")

			if attempt == maxRetries {
				return fmt.Errorf("max retries exceeded: %w", err)
			}
			continue
		}

		return nil
	}

	return fmt.Errorf("unexpected retry loop exit")
}

func (mb *MessageBus) sendToDLQ(ctx context.Context, event FeedbackEvent, originalError error) error {
	dlqMessage := map[string]interface{}{
		"original_event": event,
		"error":          originalError.Error(),
		"dlq_timestamp":  time.Now().UTC(),
	}

	dlqBytes, err := json.Marshal(dlqMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ message: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.EventID.String()),
		Value: dlqBytes,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(event.EventID.String())},
			{Key: "error", Value: []byte(originalError.Error())},
		},
	}

	if err := mb.dlqWriter.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to DLQ: %w", err)
	}

	mb.logger.WithFields(logrus.Fields{
		"event_id": event.EventID,
		"error":    originalError.Error(),
	}).Warn("Feedback event sent to DLQ")

	return nil
}

func (mb *MessageBus) Close() error {
	var errors []error

	if err := mb.writer.Close(); err != nil {
		errors = append(errors, fmt.Errorf("failed to close producer: %w", err))
	}

	if err := mb.reader.Close(); err != nil {
		errors = append(errors, fmt.Errorf("failed to close consumer: %w", err))
	}

	if err := mb.dlqWriter.Close(); err != nil {
		errors = append(errors, fmt.Errorf("failed to close DLQ writer: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("errors closing message bus: %v", errors)
	}

	return nil
}

// GetMetrics returns Kafka consumer metrics for monitoring
func (mb *MessageBus) GetMetrics() map[string]interface{} {
	stats := mb.reader.Stats()
	return map[string]interface{}{
		"consumer_lag":    stats.Lag,
		"consumer_offset": stats.Offset,
		"messages_read":   stats.Messages,
		"bytes_read":      stats.Bytes,
		"rebalances":      stats.Rebalances,
		"timeouts":        stats.Timeouts,
		"errors":          stats.Errors,
	}
}
