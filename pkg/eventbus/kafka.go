package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

const headerEventType = "shiftly-event-type"

type KafkaProducerConfig struct {
	Brokers  []string
	ClientID string
	Topic    string
}

// KafkaProducer 将事件写入单一 topic，key 为 tenant_id 保证同租户有序
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaProducer(cfg KafkaProducerConfig) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
		Transport: &kafka.Transport{
			ClientID: cfg.ClientID,
		},
		RequiredAcks: kafka.RequireAll,
	}

	return &KafkaProducer{writer: writer, topic: cfg.Topic}
}

func (p *KafkaProducer) Publish(ctx context.Context, key string, event Event) error {
	if p.topic == "" {
		return errors.New("topic is not configured")
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(event.Type)},
		},
		Time: time.Now(),
	}

	return p.writer.WriteMessages(ctx, message)
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
