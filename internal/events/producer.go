package events

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/jogardn/fireworks-storefront/internal/receipts"
	"github.com/sirupsen/logrus"
)

const (
	OrderPlacedTopic = "storefront.order.placed"
)

type OrderPlacedEvent struct {
	OrderID        string           `json:"order_id"`
	SessionID      string           `json:"session_id"`
	CustomerMobile string           `json:"customer_mobile"`
	NetAmount      string           `json:"net_amount"`
	ItemCount      int              `json:"item_count"`
	Receipt        receipts.Receipt `json:"receipt"`
	EventTime      time.Time        `json:"event_time"`
}

// NewOrderPlacedEvent summarizes a receipt for the order feed.
func NewOrderPlacedEvent(r *receipts.Receipt) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:        r.Order.ID,
		SessionID:      r.SessionID,
		CustomerMobile: r.Order.Customer.Mobile,
		NetAmount:      r.Order.NetAmount.StringFixed(2),
		ItemCount:      len(r.Order.Items),
		Receipt:        *r,
	}
}

type Publisher interface {
	PublishOrderPlaced(event OrderPlacedEvent) error
	Close() error
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers []string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return NewKafkaProducerFrom(producer, logger), nil
}

// NewKafkaProducerFrom wraps an existing sync producer.
func NewKafkaProducerFrom(producer sarama.SyncProducer, logger *logrus.Logger) *KafkaProducer {
	return &KafkaProducer{
		producer: producer,
		logger:   logger,
	}
}

func (p *KafkaProducer) PublishOrderPlaced(event OrderPlacedEvent) error {
	event.EventTime = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: OrderPlacedTopic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).Error("Failed to send message to Kafka")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     OrderPlacedTopic,
		"partition": partition,
		"offset":    offset,
		"order_id":  event.OrderID,
	}).Info("Event published to Kafka")

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct {
	logger *logrus.Logger
}

func NewNopPublisher(logger *logrus.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

func (n *NopPublisher) PublishOrderPlaced(event OrderPlacedEvent) error {
	n.logger.WithField("order_id", event.OrderID).Debug("No Kafka brokers configured, skipping order event")
	return nil
}

func (n *NopPublisher) Close() error {
	return nil
}
