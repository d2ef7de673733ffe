package repository

import (
	"context"
	"fmt"

	"TickPull/internal/domain/models"
	pkgkafka "TickPull/pkg/kafka"
)

type tickMessage struct {
	Symbol string  `json:"symbol"`
	TS     int64   `json:"ts"` // epoch milliseconds
	Ask    float64 `json:"ask"`
	Bid    float64 `json:"bid"`
	AskVol float64 `json:"ask_vol"`
	BidVol float64 `json:"bid_vol"`
}

// KafkaTickPublisher publishes decoded ticks to a topic, keyed by symbol so
// one instrument's history stays on one partition.
type KafkaTickPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaTickPublisher creates a Kafka sink.
func NewKafkaTickPublisher(producer *pkgkafka.Producer, topic string) *KafkaTickPublisher {
	return &KafkaTickPublisher{producer: producer, topic: topic}
}

// Prepare is a no-op; the producer validated brokers at construction.
func (p *KafkaTickPublisher) Prepare(_ context.Context, _ string) error {
	return nil
}

func (p *KafkaTickPublisher) Store(ctx context.Context, ref models.HourRef, ticks []models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(ticks))
	for _, t := range ticks {
		values = append(values, tickMessage{
			Symbol: ref.Symbol,
			TS:     t.Timestamp.UnixMilli(),
			Ask:    t.Ask,
			Bid:    t.Bid,
			AskVol: t.AskVol,
			BidVol: t.BidVol,
		})
	}
	if err := p.producer.PublishBatch(ctx, p.topic, []byte(ref.Symbol), values); err != nil {
		return fmt.Errorf("publish %s: %w", ref.Key(), err)
	}
	return nil
}

func (p *KafkaTickPublisher) Close() error {
	return p.producer.Close()
}
