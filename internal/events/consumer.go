package events

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/jogardn/fireworks-storefront/internal/receipts"
	"github.com/sirupsen/logrus"
)

type OrderPlacedHandler interface {
	HandleOrderPlaced(ctx context.Context, event OrderPlacedEvent) error
}

type KafkaConsumer struct {
	consumerGroup sarama.ConsumerGroup
	handler       OrderPlacedHandler
	logger        *logrus.Logger
	topics        []string
}

type consumerGroupHandler struct {
	handler OrderPlacedHandler
	logger  *logrus.Logger
}

func NewKafkaConsumer(brokers []string, groupID string, handler OrderPlacedHandler, logger *logrus.Logger) (*KafkaConsumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRoundRobin
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Version = sarama.V2_6_0_0

	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, err
	}

	return &KafkaConsumer{
		consumerGroup: consumerGroup,
		handler:       handler,
		logger:        logger,
		topics:        []string{OrderPlacedTopic},
	}, nil
}

// Start consumes until ctx is cancelled.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	handler := &consumerGroupHandler{
		handler: c.handler,
		logger:  c.logger,
	}

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Kafka consumer context cancelled")
			return nil
		default:
			if err := c.consumerGroup.Consume(ctx, c.topics, handler); err != nil {
				c.logger.WithError(err).Error("Error consuming from Kafka")
				return err
			}
		}
	}
}

func (c *KafkaConsumer) Close() error {
	return c.consumerGroup.Close()
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka consumer group session setup")
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	h.logger.Info("Kafka consumer group session cleanup")
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			h.logger.WithFields(logrus.Fields{
				"topic":     message.Topic,
				"partition": message.Partition,
				"offset":    message.Offset,
				"key":       string(message.Key),
			}).Debug("Received Kafka message")

			// Unmarked messages are redelivered after a rebalance.
			if err := h.handleMessage(session.Context(), message); err != nil {
				h.logger.WithError(err).Error("Failed to handle message")
			} else {
				session.MarkMessage(message, "")
			}

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *consumerGroupHandler) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	switch message.Topic {
	case OrderPlacedTopic:
		var event OrderPlacedEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			return err
		}
		h.logger.WithField("order_id", event.OrderID).Info("Processing order placed event")
		return h.handler.HandleOrderPlaced(ctx, event)

	default:
		h.logger.WithField("topic", message.Topic).Warn("Unknown topic received")
		return nil
	}
}

// ReceiptRecorder archives the receipt carried by each event. Saving is
// idempotent so redelivered events are harmless.
type ReceiptRecorder struct {
	store  receipts.Store
	logger *logrus.Logger
}

func NewReceiptRecorder(store receipts.Store, logger *logrus.Logger) *ReceiptRecorder {
	return &ReceiptRecorder{store: store, logger: logger}
}

func (r *ReceiptRecorder) HandleOrderPlaced(ctx context.Context, event OrderPlacedEvent) error {
	receipt := event.Receipt
	if err := r.store.Save(ctx, &receipt); err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{
		"order_id":   event.OrderID,
		"net_amount": event.NetAmount,
	}).Info("Receipt recorded")
	return nil
}
