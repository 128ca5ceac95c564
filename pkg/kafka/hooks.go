package kafka

import (
	"context"
	"fmt"
	"time"

	"OsloScan/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook wraps every handler attempt. An error from BeforeHandle
// counts as a failed attempt and the handler is not called.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, msg kafka.Message) (context.Context, error)
	AfterHandle(ctx context.Context, msg kafka.Message, err error)
}

// PanicError is returned when a handler or hook panics.
type PanicError struct {
	Where string
	Value interface{}
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic in %s: %v", e.Where, e.Value) }

// HookFuncs adapts plain functions. Nil fields are skipped.
type HookFuncs struct {
	Before func(context.Context, kafka.Message) (context.Context, error)
	After  func(context.Context, kafka.Message, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, msg kafka.Message) (context.Context, error) {
	if h.Before == nil {
		return ctx, nil
	}
	return h.Before(ctx, msg)
}

func (h HookFuncs) AfterHandle(ctx context.Context, msg kafka.Message, err error) {
	if h.After != nil {
		h.After(ctx, msg, err)
	}
}

// HookChain runs BeforeHandle in order, threading the context, and
// AfterHandle in reverse. A panicking hook never takes the consumer down.
type HookChain []ConsumerHook

func NewHookChain(hooks ...ConsumerHook) HookChain {
	chain := make(HookChain, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			chain = append(chain, h)
		}
	}
	return chain
}

func (c HookChain) BeforeHandle(ctx context.Context, msg kafka.Message) (context.Context, error) {
	for _, h := range c {
		next, err := callBefore(h, ctx, msg)
		if err != nil {
			return ctx, err
		}
		ctx = next
	}
	return ctx, nil
}

func (c HookChain) AfterHandle(ctx context.Context, msg kafka.Message, err error) {
	for i := len(c) - 1; i >= 0; i-- {
		callAfter(c[i], ctx, msg, err)
	}
}

func callBefore(h ConsumerHook, ctx context.Context, msg kafka.Message) (out context.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = ctx, &PanicError{Where: "hook", Value: r}
		}
	}()
	return h.BeforeHandle(ctx, msg)
}

func callAfter(h ConsumerHook, ctx context.Context, msg kafka.Message, err error) {
	defer func() { _ = recover() }()
	h.AfterHandle(ctx, msg, err)
}

type ctxKey int

const (
	startedKey ctxKey = iota
	traceKey
)

// WithTraceID stores a correlation id; empty ids are ignored.
func WithTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, traceKey, id)
}

func TraceIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(traceKey).(string)
	return id
}

// Header returns the first header named key, or "".
func Header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// NewLoggingHook records the trace_id header on the context and logs each
// attempt with its partition, offset and duration.
func NewLoggingHook(log *logger.Logger) ConsumerHook {
	return HookFuncs{
		Before: func(ctx context.Context, msg kafka.Message) (context.Context, error) {
			ctx = context.WithValue(ctx, startedKey, time.Now())
			return WithTraceID(ctx, Header(msg, "trace_id")), nil
		},
		After: func(ctx context.Context, msg kafka.Message, err error) {
			fields := []logger.Field{
				logger.String("topic", msg.Topic),
				logger.Int("partition", msg.Partition),
				logger.Int64("offset", msg.Offset),
			}
			if t, ok := ctx.Value(startedKey).(time.Time); ok {
				fields = append(fields, logger.Duration("duration_ms", time.Since(t)))
			}
			if id := TraceIDFrom(ctx); id != "" {
				fields = append(fields, logger.String("trace_id", id))
			}
			if err != nil {
				log.Warn("kafka message attempt failed", append(fields, logger.Error(err))...)
				return
			}
			log.Debug("kafka message handled", fields...)
		},
	}
}
