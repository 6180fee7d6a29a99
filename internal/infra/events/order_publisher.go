package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	checkout "storefront/internal/usecase/checkout_usecase"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const EventTypeOrderPlaced = "order.placed"

type orderPlacedItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
}

type orderPlacedMessage struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	OrderID   int64             `json:"order_id"`
	UserID    int64             `json:"user_id"`
	Total     string            `json:"total"`
	Items     []orderPlacedItem `json:"items"`
	PlacedAt  time.Time         `json:"placed_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// 注文確定イベントをkafkaへ送る
type KafkaOrderPublisher struct {
	writer messageWriter
}

func NewKafkaOrderPublisher(brokers []string, topic string) *KafkaOrderPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
	}
	return &KafkaOrderPublisher{writer: w}
}

func (p *KafkaOrderPublisher) PublishOrderPlaced(ctx context.Context, ev checkout.OrderPlacedEvent) error {
	msg, err := buildOrderPlacedMessage(ev, uuid.NewString())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write failed: %w", err)
	}
	return nil
}

func (p *KafkaOrderPublisher) Close() error {
	return p.writer.Close()
}

// 同じ注文は同じパーティションへ（keyは注文ID）
func buildOrderPlacedMessage(ev checkout.OrderPlacedEvent, eventID string) (kafka.Message, error) {
	items := make([]orderPlacedItem, 0, len(ev.Items))
	for _, it := range ev.Items {
		items = append(items, orderPlacedItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Quantity:  it.Quantity,
		})
	}
	body, err := json.Marshal(orderPlacedMessage{
		EventID:   eventID,
		EventType: EventTypeOrderPlaced,
		OrderID:   ev.OrderID,
		UserID:    ev.UserID,
		Total:     ev.Total.StringFixed(2),
		Items:     items,
		PlacedAt:  ev.PlacedAt.UTC(),
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("event marshal failed: %w", err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.OrderID, 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeOrderPlaced)},
		},
	}, nil
}

// ブローカー未設定のとき
type NoopOrderPublisher struct{}

func (NoopOrderPublisher) PublishOrderPlaced(ctx context.Context, ev checkout.OrderPlacedEvent) error {
	return nil
}
