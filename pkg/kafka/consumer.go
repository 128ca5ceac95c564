package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"OsloScan/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// MessageHandler processes the payload of one message from Topic.
type MessageHandler interface {
	Topic() string
	Handle(ctx context.Context, payload []byte) error
}

// Consumer reads one topic in a consumer group and fans messages out to
// per-partition lanes, each drained by its own worker.
//
// Offsets are committed once a message is handled, or once retries are
// exhausted (after the DLQ write when a DLQ topic is configured). A message
// interrupted by Stop is left uncommitted and will be redelivered.
type Consumer struct {
	opts    ConsumerOptions
	handler MessageHandler
	log     *logger.Logger
	hook    ConsumerHook

	reader *kafka.Reader
	dlq    *kafka.Writer
	lanes  []chan kafka.Message

	// fetchCtx stops intake; workCtx cancels in-flight handlers and only
	// fires when Stop runs out of time.
	fetchCtx   context.Context
	stopFetch  context.CancelFunc
	workCtx    context.Context
	cancelWork context.CancelFunc
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

func NewConsumer(opts ConsumerOptions, handler MessageHandler, log *logger.Logger) (*Consumer, error) {
	if handler == nil {
		return nil, errors.New("kafka: consumer needs a handler")
	}
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	registerMetrics()

	c := &Consumer{
		opts:    opts,
		handler: handler,
		log:     log,
		hook:    HookChain(nil),
	}
	c.fetchCtx, c.stopFetch = context.WithCancel(context.Background())
	c.workCtx, c.cancelWork = context.WithCancel(context.Background())
	if opts.DLQTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:     kafka.TCP(opts.Brokers...),
			Topic:    opts.DLQTopic,
			Balancer: &kafka.Hash{},
		}
	}
	return c, nil
}

// Use installs hooks around every handler attempt. Call before Start.
func (c *Consumer) Use(hooks ...ConsumerHook) {
	c.hook = NewHookChain(hooks...)
}

func (c *Consumer) Topic() string { return c.handler.Topic() }

func (c *Consumer) Start() error {
	err := errors.New("kafka: consumer already started")
	c.startOnce.Do(func() {
		err = nil
		c.reader = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.opts.Brokers,
			GroupID:  c.opts.GroupID,
			Topic:    c.Topic(),
			MinBytes: c.opts.MinBytes,
			MaxBytes: c.opts.MaxBytes,
		})

		perLane := c.opts.QueueSize / c.opts.Workers
		if perLane < 1 {
			perLane = 1
		}
		c.lanes = make([]chan kafka.Message, c.opts.Workers)
		for i := range c.lanes {
			c.lanes[i] = make(chan kafka.Message, perLane)
			c.wg.Add(1)
			go c.work(i, c.lanes[i])
		}
		c.wg.Add(1)
		go c.fetch()

		c.log.Info("kafka consumer started",
			logger.String("topic", c.Topic()),
			logger.String("group", c.opts.GroupID),
			logger.Int("lanes", len(c.lanes)),
		)
	})
	return err
}

// Stop halts intake and waits for in-flight messages. When ctx expires
// first, running handlers are cancelled.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		c.stopFetch()

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("kafka consumer stop: %w", ctx.Err())
		}
		c.cancelWork()

		if c.reader != nil {
			if cerr := c.reader.Close(); cerr != nil {
				c.log.Warn("kafka reader close failed", logger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.log.Warn("kafka dlq writer close failed", logger.Error(cerr))
			}
		}
	})
	return err
}

func (c *Consumer) fetch() {
	defer c.wg.Done()
	defer func() {
		for _, l := range c.lanes {
			close(l)
		}
	}()

	failures := 0
	for {
		msg, err := c.reader.FetchMessage(c.fetchCtx)
		if err != nil {
			if c.fetchCtx.Err() != nil {
				return
			}
			failures++
			c.log.Warn("kafka fetch failed", logger.String("topic", c.Topic()), logger.Error(err))
			if !sleepCtx(c.fetchCtx, backoff(c.opts.BackoffMin, c.opts.BackoffMax, failures)) {
				return
			}
			continue
		}
		failures = 0

		idx := msg.Partition % len(c.lanes)
		select {
		case c.lanes[idx] <- msg:
			laneDepth.WithLabelValues(c.Topic(), strconv.Itoa(idx)).Set(float64(len(c.lanes[idx])))
		case <-c.fetchCtx.Done():
			return
		}
	}
}

func (c *Consumer) work(idx int, lane <-chan kafka.Message) {
	defer c.wg.Done()
	for msg := range lane {
		if c.fetchCtx.Err() != nil {
			// stopping: queued messages stay uncommitted
			continue
		}
		laneDepth.WithLabelValues(c.Topic(), strconv.Itoa(idx)).Set(float64(len(lane)))
		c.process(msg)
	}
}

func (c *Consumer) process(msg kafka.Message) {
	start := time.Now()
	var err error
	attempts := 0
	for {
		attempts++
		err = c.attempt(msg)
		if err == nil || attempts > c.opts.Retries || c.fetchCtx.Err() != nil {
			break
		}
		if !sleepCtx(c.fetchCtx, backoff(c.opts.BackoffMin, c.opts.BackoffMax, attempts)) {
			break
		}
	}
	handleSeconds.WithLabelValues(msg.Topic).Observe(time.Since(start).Seconds())

	if err == nil {
		consumedTotal.WithLabelValues(msg.Topic, "ok").Inc()
		c.commit(msg)
		return
	}
	if c.fetchCtx.Err() != nil {
		consumedTotal.WithLabelValues(msg.Topic, "abandoned").Inc()
		c.log.Info("kafka message left for redelivery",
			logger.Int("partition", msg.Partition),
			logger.Int64("offset", msg.Offset),
		)
		return
	}

	c.log.Error("kafka message failed, giving up",
		logger.String("topic", msg.Topic),
		logger.Int("partition", msg.Partition),
		logger.Int64("offset", msg.Offset),
		logger.Int("attempts", attempts),
		logger.Error(err),
	)
	if c.dlq == nil {
		consumedTotal.WithLabelValues(msg.Topic, "failed").Inc()
		c.commit(msg)
		return
	}
	if derr := c.toDLQ(msg, err); derr != nil {
		// left uncommitted; a later commit on the partition moves past it
		consumedTotal.WithLabelValues(msg.Topic, "failed").Inc()
		c.log.Error("kafka dlq write failed", logger.String("dlq_topic", c.opts.DLQTopic), logger.Error(derr))
		return
	}
	consumedTotal.WithLabelValues(msg.Topic, "dlq").Inc()
	c.commit(msg)
}

// attempt runs hooks and the handler once. Handler panics become *PanicError.
func (c *Consumer) attempt(msg kafka.Message) (err error) {
	ctx, err := c.hook.BeforeHandle(c.workCtx, msg)
	if ctx == nil {
		ctx = c.workCtx
	}
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Where: "handler", Value: r}
		}
		c.hook.AfterHandle(ctx, msg, err)
	}()
	if err != nil {
		return err
	}
	return c.handler.Handle(ctx, msg.Value)
}

func (c *Consumer) toDLQ(msg kafka.Message, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	headers := make([]kafka.Header, 0, len(msg.Headers)+4)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "source_topic", Value: []byte(msg.Topic)},
		kafka.Header{Key: "source_partition", Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: "source_offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: "error", Value: []byte(cause.Error())},
	)
	return c.dlq.WriteMessages(ctx, kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers})
}

func (c *Consumer) commit(msg kafka.Message) {
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = c.reader.CommitMessages(ctx, msg)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(backoff(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("kafka commit failed",
		logger.Int("partition", msg.Partition),
		logger.Int64("offset", msg.Offset),
		logger.Error(err),
	)
}

// sleepCtx waits d; false means ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// backoff doubles lo per attempt up to hi, then subtracts up to half as jitter.
func backoff(lo, hi time.Duration, attempt int) time.Duration {
	if lo <= 0 {
		lo = 50 * time.Millisecond
	}
	if hi < lo {
		hi = lo
	}
	if attempt < 1 {
		attempt = 1
	}
	d := hi
	if attempt <= 30 {
		if exp := lo << (attempt - 1); exp > 0 && exp < hi {
			d = exp
		}
	}
	return d - time.Duration(rand.Int63n(int64(d)/2+1))
}
