// Package logging configures the bolt logger shared by the cache layer and
// the helpers that attach its fields.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"
)

var (
	defaultLogger *bolt.Logger
	mu            sync.Mutex
)

var levels = map[string]bolt.Level{
	"trace":   bolt.TRACE,
	"debug":   bolt.DEBUG,
	"info":    bolt.INFO,
	"warn":    bolt.WARN,
	"warning": bolt.WARN,
	"error":   bolt.ERROR,
}

// Config configures the logger.
type Config struct {
	// Level is the minimum level. Unknown or empty levels log warnings.
	Level string

	// Format is "json" or "console".
	Format string

	// Output defaults to stderr.
	Output io.Writer
}

// DefaultConfig logs warnings and errors as JSON to stderr. The cache layer
// only logs when a backend degrades, so anything noisier is opt-in.
func DefaultConfig() Config {
	return Config{
		Level:  "warn",
		Format: "json",
		Output: os.Stderr,
	}
}

// ParseLevel resolves a level name, ignoring case.
func ParseLevel(s string) (bolt.Level, error) {
	level, ok := levels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return bolt.WARN, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// New builds a logger from config without touching the default logger.
func New(config Config) *bolt.Logger {
	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	var handler bolt.Handler
	if config.Format == "console" {
		handler = bolt.NewConsoleHandler(output)
	} else {
		handler = bolt.NewJSONHandler(output)
	}

	level, _ := ParseLevel(config.Level)
	return bolt.New(handler).SetLevel(level)
}

// Init replaces the default logger.
func Init(config Config) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = New(config)
}

// Get returns the default logger, creating it from DefaultConfig on first use.
func Get() *bolt.Logger {
	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(DefaultConfig())
	}
	return defaultLogger
}

// With applies fields to e in order.
func With(e *bolt.Event, fields ...Field) *bolt.Event {
	for _, f := range fields {
		e = f(e)
	}
	return e
}
