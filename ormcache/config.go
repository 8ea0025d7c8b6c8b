package ormcache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// Config tunes a Manager.
type Config struct {
	// TTL is the lifetime of every entry the manager writes.
	TTL time.Duration

	// MaxCachedIDs caps the id lists stored under a list key. Longer lists
	// are still served, straight from the store. Zero means no cap.
	MaxCachedIDs int
}

// DefaultConfig caches entries for one hour with no cap on list size.
func DefaultConfig() Config {
	return Config{TTL: time.Hour}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.MaxCachedIDs, validation.Min(0)),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid manager config")
	}
	return nil
}
