package logger

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field is a typed key/value attached to a log event. Value is what With
// stamps on child loggers.
type Field struct {
	Key   string
	Value interface{}
	apply func(*zerolog.Event)
}

func String(key, v string) Field {
	return Field{Key: key, Value: v, apply: func(e *zerolog.Event) { e.Str(key, v) }}
}

func Strings(key string, v []string) Field {
	return String(key, strings.Join(v, ", "))
}

func Int(key string, v int) Field {
	return Field{Key: key, Value: v, apply: func(e *zerolog.Event) { e.Int(key, v) }}
}

func Int64(key string, v int64) Field {
	return Field{Key: key, Value: v, apply: func(e *zerolog.Event) { e.Int64(key, v) }}
}

func Float64(key string, v float64) Field {
	return Field{Key: key, Value: v, apply: func(e *zerolog.Event) { e.Float64(key, v) }}
}

func Bool(key string, v bool) Field {
	return Field{Key: key, Value: v, apply: func(e *zerolog.Event) { e.Bool(key, v) }}
}

// Duration logs whole milliseconds; callers name the key *_ms.
func Duration(key string, v time.Duration) Field {
	return Int64(key, v.Milliseconds())
}

func Error(err error) Field {
	var v interface{}
	if err != nil {
		v = err.Error()
	}
	return Field{Key: zerolog.ErrorFieldName, Value: v, apply: func(e *zerolog.Event) { e.Err(err) }}
}

func Any(key string, v interface{}) Field {
	return Field{Key: key, Value: v, apply: func(e *zerolog.Event) { e.Interface(key, v) }}
}
