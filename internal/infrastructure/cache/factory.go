package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/syncbridge/backend/internal/domain/integration"
)

// IdentityRepositoryFactory creates identity repositories based on
// configuration. Redis is the production store; the in-memory fallback only
// serves local runs and must be opted into, because identity links lost on
// restart would cause duplicate writes to the storefront.
type IdentityRepositoryFactory struct {
	redisConfig           RedisConfig
	keyPrefix             string
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// IdentityRepositoryFactoryOption is a functional option for the factory.
type IdentityRepositoryFactoryOption func(*IdentityRepositoryFactory)

// WithLogger sets the logger for the factory.
func WithLogger(logger *zap.Logger) IdentityRepositoryFactoryOption {
	return func(f *IdentityRepositoryFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is false.
func WithInMemoryFallback(allow bool) IdentityRepositoryFactoryOption {
	return func(f *IdentityRepositoryFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdentityRepositoryFactory creates a new factory.
func NewIdentityRepositoryFactory(cfg RedisConfig, keyPrefix string, opts ...IdentityRepositoryFactoryOption) *IdentityRepositoryFactory {
	f := &IdentityRepositoryFactory{
		redisConfig: cfg,
		keyPrefix:   keyPrefix,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRepository creates the identity repository, preferring Redis.
func (f *IdentityRepositoryFactory) CreateRepository() (integration.IdentityRepository, error) {
	repo, err := NewRedisIdentityRepository(f.redisConfig, f.keyPrefix)
	if err == nil {
		f.logger.Info("using Redis identity repository",
			zap.String("prefix", f.keyPrefix))
		return repo, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for identity links but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory identity repository. "+
		"Identity links will not survive a restart.",
		zap.Error(err),
	)
	return NewInMemoryIdentityRepository(), nil
}
