package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/jogardn/fireworks-storefront/internal/receipts"
	"github.com/jogardn/fireworks-storefront/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func sampleReceipt() *receipts.Receipt {
	return &receipts.Receipt{
		SessionID: "s1",
		Order: models.Order{
			ID:        "KC1001",
			Items:     []models.CartItem{{Product: models.Product{ID: 1, Name: "Sky Rocket", OriginalPrice: "120.00", Price: "100.00"}, Quantity: 2}},
			Customer:  models.CustomerDetails{Name: "Ravi", Mobile: "9876543210"},
			NetAmount: decimal.NewFromInt(200),
			OrderDate: time.Now().UTC(),
			Status:    models.OrderStatusPending,
		},
	}
}

func producerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	return config
}

func TestNewOrderPlacedEvent(t *testing.T) {
	event := NewOrderPlacedEvent(sampleReceipt())
	assert.Equal(t, "KC1001", event.OrderID)
	assert.Equal(t, "s1", event.SessionID)
	assert.Equal(t, "9876543210", event.CustomerMobile)
	assert.Equal(t, "200.00", event.NetAmount)
	assert.Equal(t, 1, event.ItemCount)
}

func TestPublishOrderPlaced(t *testing.T) {
	mock := mocks.NewSyncProducer(t, producerConfig())
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var event OrderPlacedEvent
		if err := json.Unmarshal(val, &event); err != nil {
			return err
		}
		if event.OrderID != "KC1001" || event.EventTime.IsZero() {
			return errors.New("unexpected event payload")
		}
		return nil
	})

	producer := NewKafkaProducerFrom(mock, quietLogger())
	require.NoError(t, producer.PublishOrderPlaced(NewOrderPlacedEvent(sampleReceipt())))
	require.NoError(t, producer.Close())
}

func TestPublishFailure(t *testing.T) {
	mock := mocks.NewSyncProducer(t, producerConfig())
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := NewKafkaProducerFrom(mock, quietLogger())
	err := producer.PublishOrderPlaced(NewOrderPlacedEvent(sampleReceipt()))
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, producer.Close())
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NewNopPublisher(quietLogger())
	assert.NoError(t, p.PublishOrderPlaced(OrderPlacedEvent{OrderID: "KC1"}))
	assert.NoError(t, p.Close())
}

func TestHandleMessageRecordsReceipt(t *testing.T) {
	store := receipts.NewMemoryStore()
	h := &consumerGroupHandler{handler: NewReceiptRecorder(store, quietLogger()), logger: quietLogger()}

	data, err := json.Marshal(NewOrderPlacedEvent(sampleReceipt()))
	require.NoError(t, err)

	ctx := context.Background()
	msg := &sarama.ConsumerMessage{Topic: OrderPlacedTopic, Value: data}
	require.NoError(t, h.handleMessage(ctx, msg))
	require.NoError(t, h.handleMessage(ctx, msg))

	got, err := store.Get(ctx, "KC1001", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)
	assert.True(t, decimal.NewFromInt(200).Equal(got.Order.NetAmount))
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	h := &consumerGroupHandler{handler: NewReceiptRecorder(receipts.NewMemoryStore(), quietLogger()), logger: quietLogger()}
	err := h.handleMessage(context.Background(), &sarama.ConsumerMessage{Topic: OrderPlacedTopic, Value: []byte("{")})
	assert.Error(t, err)

	assert.NoError(t, h.handleMessage(context.Background(), &sarama.ConsumerMessage{Topic: "other"}))
}
