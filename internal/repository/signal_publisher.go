package repository

import (
	"context"
	"time"

	"FinSignal/internal/domain/models"
	"FinSignal/internal/domain/repository"
	pkgkafka "FinSignal/pkg/kafka"
)

// SignalMessage is the Kafka payload for one row.
type SignalMessage struct {
	models.SignalRow
	PublishedAt time.Time `json:"published_at"`
}

// KafkaSignalPublisher sends each row keyed by ticker, so consumers see a
// ticker's signals in order.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	now      func() time.Time
}

// NewKafkaSignalPublisher creates a Kafka publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, now: time.Now}
}

func (p *KafkaSignalPublisher) PublishRows(ctx context.Context, table *models.SignalTable) error {
	if table == nil || len(table.Rows) == 0 {
		return nil
	}
	at := p.now().UTC()
	msgs := make([]pkgkafka.Message, len(table.Rows))
	for i, row := range table.Rows {
		msgs[i] = pkgkafka.Message{
			Key:     []byte(row.Ticker),
			Value:   SignalMessage{SignalRow: row, PublishedAt: at},
			Headers: map[string]string{"execution_time": table.ExecutionTime.Format(time.RFC3339)},
		}
	}
	return p.producer.PublishBatch(ctx, msgs)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ repository.SignalPublisher = (*KafkaSignalPublisher)(nil)
