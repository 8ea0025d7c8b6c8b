package di

import (
	"github.com/felixgeelhaar/bolt/v3"
	repository "github.com/goliatone/go-repository-bun"

	"github.com/goliatone/go-orm-cache/cache"
	"github.com/goliatone/go-orm-cache/internal/logging"
	"github.com/goliatone/go-orm-cache/ormcache"
	"github.com/goliatone/go-orm-cache/store"
	"github.com/goliatone/go-orm-cache/store/repostore"
)

// Container provides dependency injection for cache related components.
// It owns one cache backend shared by every manager it builds, so entity
// types created from the same container share capacity and eviction.
type Container struct {
	backend cache.Backend
	config  cache.Config
	manager ormcache.Config
	logger  *bolt.Logger
}

// ContainerOption configures a Container.
type ContainerOption func(*Container)

// WithManagerConfig sets the configuration handed to every manager.
func WithManagerConfig(cfg ormcache.Config) ContainerOption {
	return func(c *Container) {
		c.manager = cfg
	}
}

// WithLogger sets the logger handed to every manager.
func WithLogger(logger *bolt.Logger) ContainerOption {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewContainer creates a container backed by the in-process cache.
func NewContainer(config cache.Config, opts ...ContainerOption) (*Container, error) {
	backend, err := cache.NewMemoryBackend(config)
	if err != nil {
		return nil, err
	}
	return newContainer(backend, config, opts)
}

// NewContainerWithDefaults creates a container using the default in-process
// cache configuration.
func NewContainerWithDefaults(opts ...ContainerOption) (*Container, error) {
	return NewContainer(cache.DefaultConfig(), opts...)
}

// NewContainerWithBackend creates a container over an existing backend such
// as Redis or Badger.
func NewContainerWithBackend(backend cache.Backend, opts ...ContainerOption) (*Container, error) {
	return newContainer(backend, cache.Config{}, opts)
}

func newContainer(backend cache.Backend, config cache.Config, opts []ContainerOption) (*Container, error) {
	c := &Container{
		backend: backend,
		config:  config,
		manager: ormcache.DefaultConfig(),
		logger:  logging.Get(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.manager.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Backend returns the shared cache backend.
func (c *Container) Backend() cache.Backend {
	return c.backend
}

// Config returns the in-process cache configuration. It is the zero value
// for containers built over an external backend.
func (c *Container) Config() cache.Config {
	return c.config
}

// ManagerConfig returns the configuration handed to managers.
func (c *Container) ManagerConfig() ormcache.Config {
	return c.manager
}

// NewManager builds a manager for schema reading through st.
func (c *Container) NewManager(schema ormcache.Schema, st store.Store) (*ormcache.Manager, error) {
	return ormcache.NewManager(schema, st, c.backend,
		ormcache.WithConfig(c.manager),
		ormcache.WithLogger(c.logger),
	)
}

// Close releases the backend when it holds connections or files.
func (c *Container) Close() error {
	if closer, ok := c.backend.(cache.ClosableBackend); ok {
		return closer.Close()
	}
	return nil
}

// NewRepositoryManager puts a go-repository-bun repository behind a manager.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewRepositoryManager[User](container, userRepository, userMapper, userSchema)
func NewRepositoryManager[T any](c *Container, repo repository.Repository[T], mapper repostore.Mapper[T], schema ormcache.Schema) (*ormcache.Manager, error) {
	st, err := repostore.New(repo, mapper, schema.TableName(), schema.Primary.Name)
	if err != nil {
		return nil, err
	}
	return c.NewManager(schema, st)
}
