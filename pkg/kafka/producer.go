package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer writes keyed messages. Messages with the same key land on the
// same partition.
type Producer struct {
	w *kafka.Writer
}

func NewProducer(opts ProducerOptions) (*Producer, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	registerMetrics()
	return &Producer{w: &kafka.Writer{
		Addr:                   kafka.TCP(opts.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequiredAcks(opts.RequiredAcks),
		Compression:            compressionCodec(opts.Compression),
		MaxAttempts:            opts.MaxAttempts,
		BatchTimeout:           opts.BatchTimeout,
		WriteTimeout:           opts.WriteTimeout,
		ReadTimeout:            opts.ReadTimeout,
		AllowAutoTopicCreation: opts.AutoCreateTopic,
	}}, nil
}

// Publish JSON-encodes value unless it is already []byte or string.
func (p *Producer) Publish(ctx context.Context, topic, key string, value interface{}, headers map[string]string) error {
	payload, err := marshalValue(value)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   payload,
		Headers: toHeaders(headers),
		Time:    time.Now(),
	}

	start := time.Now()
	err = p.w.WriteMessages(ctx, msg)
	publishSeconds.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	if err != nil {
		publishedTotal.WithLabelValues(topic, "error").Inc()
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	publishedTotal.WithLabelValues(topic, "ok").Inc()
	publishedBytes.WithLabelValues(topic).Add(float64(len(payload)))
	return nil
}

func (p *Producer) Close() error { return p.w.Close() }

func marshalValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", value, err)
	}
	return b, nil
}

func toHeaders(m map[string]string) []kafka.Header {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	hs := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		hs = append(hs, kafka.Header{Key: k, Value: []byte(m[k])})
	}
	return hs
}
