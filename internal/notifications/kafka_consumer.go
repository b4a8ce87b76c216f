package notifications

import (
	"context"
	"fmt"
	"strconv"
	"time"

	pkgkafka "github.com/PrathameshGBhat/foodapp-Backend/pkg/kafka"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/metrics"
	"github.com/segmentio/kafka-go"
)

const (
	defaultMaxRedeliveries = 5
	baseRetryBackoff       = 200 * time.Millisecond
	maxRetryBackoff        = 10 * time.Second
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaConsumer reads one partition stream at a time. Kafka has no per-message
// nack, so a nacked message is retried in place with backoff and committed
// once it is acked or its retries run out.
type KafkaConsumer struct {
	reader          messageReader
	processor       *Processor
	metrics         *metrics.FanoutMetrics
	logg            *logger.Logger
	maxRedeliveries int
	backoff         func(attempt int) time.Duration
}

func NewKafkaConsumer(reader messageReader, processor *Processor, m *metrics.FanoutMetrics, logg *logger.Logger, maxRedeliveries int) (*KafkaConsumer, error) {
	switch {
	case reader == nil:
		return nil, fmt.Errorf("kafka reader required")
	case processor == nil:
		return nil, fmt.Errorf("processor required")
	case logg == nil:
		return nil, fmt.Errorf("logger required")
	}
	if maxRedeliveries <= 0 {
		maxRedeliveries = defaultMaxRedeliveries
	}
	return &KafkaConsumer{
		reader:          reader,
		processor:       processor,
		metrics:         m,
		logg:            logg,
		maxRedeliveries: maxRedeliveries,
		backoff:         retryBackoff,
	}, nil
}

// Run fetches until ctx is canceled.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch kafka message: %w", err)
		}

		if !c.handle(ctx, msg) {
			return nil
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit kafka message: %w", err)
		}
	}
}

// handle reports false when ctx was canceled before the message settled.
func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message) bool {
	delivery := Delivery{
		ID:         fmt.Sprintf("%s/%d/%s", msg.Topic, msg.Partition, strconv.FormatInt(msg.Offset, 10)),
		Attributes: pkgkafka.Headers(msg),
		Data:       msg.Value,
	}

	for attempt := 1; ; attempt++ {
		if c.processor.Process(ctx, delivery) == Ack {
			return true
		}
		if attempt > c.maxRedeliveries {
			logCtx := c.logg.WithFields(ctx, map[string]any{
				"message_id": delivery.ID,
				"attempts":   attempt,
			})
			c.logg.Warn(logCtx, "giving up on order placed event after retries")
			c.metrics.Inc(metrics.ResultDroppedRetryExhausted)
			return true
		}

		timer := time.NewTimer(c.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}

func retryBackoff(attempt int) time.Duration {
	d := baseRetryBackoff << (attempt - 1)
	if d <= 0 || d > maxRetryBackoff {
		return maxRetryBackoff
	}
	return d
}
