package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "newsrag.articles"

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes events as JSON values keyed by article id.
type Kafka struct {
	w     messageWriter
	topic string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func NewKafka(cfg KafkaConfig) *Kafka {
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Kafka{w: w, topic: cfg.Topic}
}

func (k *Kafka) Publish(ctx context.Context, ev ArticleIngested) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.ID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("article.ingested")},
			{Key: "timestamp", Value: []byte(ev.CreatedAt.Format(time.RFC3339))},
		},
		Time: time.Now(),
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", k.topic, err)
	}
	return nil
}

func (k *Kafka) Close() error { return k.w.Close() }
