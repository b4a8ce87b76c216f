package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox"
	"github.com/segmentio/kafka-go"
)

const defaultDialTimeout = 5 * time.Second

var errNoBrokers = errors.New("kafka brokers are required")

// Writer publishes outbox messages. The topic is taken from each message and the
// key is hashed so every event of one order lands on the same partition.
type Writer struct {
	writer  *kafka.Writer
	brokers []string
}

func NewWriter(cfg config.KafkaConfig) (*Writer, error) {
	brokers := cleanBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errNoBrokers
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           cfg.WriteTimeout,
		Transport: &kafka.Transport{
			ClientID: cfg.ClientID,
		},
	}
	return &Writer{writer: w, brokers: brokers}, nil
}

// Publish writes msg synchronously.
func (w *Writer) Publish(ctx context.Context, msg outbox.Message) error {
	if strings.TrimSpace(msg.Topic) == "" {
		return errors.New("kafka topic is required")
	}
	if err := w.writer.WriteMessages(ctx, ToKafkaMessage(msg)); err != nil {
		return fmt.Errorf("write to %s: %w", msg.Topic, err)
	}
	return nil
}

// Ping dials the first reachable broker.
func (w *Writer) Ping(ctx context.Context) error {
	return Ping(ctx, w.brokers)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// NewReader builds a consumer-group reader that commits offsets explicitly.
func NewReader(cfg config.KafkaConfig, topic, groupID string) (*kafka.Reader, error) {
	brokers := cleanBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errNoBrokers
	}
	if strings.TrimSpace(topic) == "" || strings.TrimSpace(groupID) == "" {
		return nil, errors.New("kafka topic and group id are required")
	}
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		MaxWait:        cfg.MaxWait,
		CommitInterval: cfg.CommitInterval,
		StartOffset:    kafka.FirstOffset,
		Dialer: &kafka.Dialer{
			ClientID: cfg.ClientID,
			Timeout:  defaultDialTimeout,
		},
	}), nil
}

// Ping succeeds when any broker accepts a connection.
func Ping(ctx context.Context, brokers []string) error {
	var errs []error
	for _, broker := range cleanBrokers(brokers) {
		dialCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
		conn, err := kafka.DialContext(dialCtx, "tcp", broker)
		cancel()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return conn.Close()
	}
	if len(errs) == 0 {
		return errNoBrokers
	}
	return fmt.Errorf("no kafka broker reachable: %w", errors.Join(errs...))
}

// ToKafkaMessage maps attributes onto headers in a stable order.
func ToKafkaMessage(msg outbox.Message) kafka.Message {
	keys := make([]string, 0, len(msg.Attributes))
	for k := range msg.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	headers := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(msg.Attributes[k])})
	}
	return kafka.Message{
		Topic:   msg.Topic,
		Key:     []byte(msg.Key),
		Value:   msg.Data,
		Headers: headers,
	}
}

// Headers flattens message headers into an attribute map. Later duplicates win.
func Headers(m kafka.Message) map[string]string {
	out := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func cleanBrokers(brokers []string) []string {
	out := make([]string, 0, len(brokers))
	for _, b := range brokers {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(b); err != nil {
			b = net.JoinHostPort(b, "9092")
		}
		out = append(out, b)
	}
	return out
}
