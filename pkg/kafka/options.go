package kafka

import (
	"errors"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/segmentio/kafka-go"
)

var ErrNoBrokers = errors.New("kafka: at least one broker is required")

type ProducerOptions struct {
	Brokers []string
	// RequiredAcks follows kafka-go: -1 all replicas, 1 leader only.
	RequiredAcks    int
	Compression     string        `default:"snappy"`
	MaxAttempts     int           `default:"5"`
	BatchTimeout    time.Duration `default:"50ms"`
	WriteTimeout    time.Duration `default:"10s"`
	ReadTimeout     time.Duration `default:"10s"`
	AutoCreateTopic bool
}

type ConsumerOptions struct {
	Brokers []string
	GroupID string `default:"osloscan-screener"`
	// Workers is the number of partition lanes; a partition always maps to
	// the same lane so its messages are handled in order.
	Workers   int `default:"2"`
	QueueSize int `default:"16"`
	// Retries is how many times a failed message is re-handled before it is
	// sent to DLQTopic (when set) and committed.
	Retries    int
	BackoffMin time.Duration `default:"200ms"`
	BackoffMax time.Duration `default:"5s"`
	DLQTopic   string
	MinBytes   int `default:"1"`
	MaxBytes   int `default:"10000000"`
}

func (o *ProducerOptions) normalize() error {
	if len(o.Brokers) == 0 {
		return ErrNoBrokers
	}
	return defaults.Set(o)
}

func (o *ConsumerOptions) normalize() error {
	if len(o.Brokers) == 0 {
		return ErrNoBrokers
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	return defaults.Set(o)
}

// compressionCodec maps a config name to a kafka-go codec. "none" disables
// compression; unknown names fall back to snappy.
func compressionCodec(name string) kafka.Compression {
	switch strings.ToLower(name) {
	case "none":
		return 0
	case "gzip":
		return kafka.Gzip
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Snappy
	}
}
