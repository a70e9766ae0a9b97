package infra

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Message is one outbox event addressed to a broker topic.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// KafkaProducer publishes outbox messages through a kafka-go writer.
// Messages are hashed on their key, so events of one aggregate stay ordered.
type KafkaProducer struct {
	writer *kafka.Writer
	prefix string
}

// ErrNoBrokers is returned when KAFKA_BROKERS lists nothing usable.
var ErrNoBrokers = errors.New("kafka: no brokers configured")

// NewKafkaProducer builds a producer for a comma-separated broker list.
// Every topic is prefixed with topicPrefix.
func NewKafkaProducer(brokers, topicPrefix string, logger *slog.Logger) (*KafkaProducer, error) {
	addrs := splitBrokers(brokers)
	if len(addrs) == 0 {
		return nil, ErrNoBrokers
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	logger.Info("kafka producer initialized", "brokers", addrs, "topic_prefix", topicPrefix)
	return &KafkaProducer{writer: w, prefix: topicPrefix}, nil
}

// Publish writes msg and waits for every in-sync replica to acknowledge it.
func (p *KafkaProducer) Publish(ctx context.Context, msg Message) error {
	return p.writer.WriteMessages(ctx, toKafkaMessage(p.prefix, msg))
}

// Close flushes pending writes and shuts down the writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

func toKafkaMessage(prefix string, msg Message) kafka.Message {
	keys := make([]string, 0, len(msg.Headers))
	for k := range msg.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(msg.Headers[k])})
	}
	return kafka.Message{
		Topic:   prefix + msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
}

func splitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
