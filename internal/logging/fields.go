package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Table adds the table the event concerns.
func Table(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("table", name)
	}
}

// Key adds a cache key field.
func Key(key string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("key", key)
	}
}

// Count adds a key count field.
func Count(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("count", n)
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Elapsed adds a duration in milliseconds.
func Elapsed(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("elapsed_ms", d.Milliseconds())
	}
}

// TTL adds a requested entry lifetime in milliseconds.
func TTL(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("ttl_ms", d.Milliseconds())
	}
}

// BackendTTL adds the lifetime a backend enforces, in milliseconds.
func BackendTTL(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("backend_ttl_ms", d.Milliseconds())
	}
}
