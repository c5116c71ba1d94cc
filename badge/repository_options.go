package badge

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
)

// RepositoryOption configures badge repository construction.
type RepositoryOption func(*RepositoryOptions)

// RepositoryOptions captures optional behavior for badge persistence.
type RepositoryOptions struct {
	CacheEnabled bool
	CacheConfig  *cache.Config
}

// WithCache toggles the catalog cache decorator.
func WithCache(enabled bool) RepositoryOption {
	return func(opts *RepositoryOptions) {
		if opts == nil {
			return
		}
		opts.CacheEnabled = enabled
	}
}

// WithCacheConfig supplies the cache configuration to use when caching is enabled.
func WithCacheConfig(cfg cache.Config) RepositoryOption {
	return func(opts *RepositoryOptions) {
		if opts == nil {
			return
		}
		opts.CacheConfig = &cfg
	}
}

func applyRepositoryOptions(options []RepositoryOption) RepositoryOptions {
	var opts RepositoryOptions
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&opts)
	}
	return opts
}

// wrapCatalog decorates the catalog repository with go-repository-cache.
// Already cached repositories are returned as is.
func wrapCatalog(repo repository.Repository[*Record], opts RepositoryOptions) (repository.Repository[*Record], error) {
	if !opts.CacheEnabled || repo == nil {
		return repo, nil
	}
	if cached, ok := repo.(*repositorycache.CachedRepository[*Record]); ok {
		return cached, nil
	}
	cfg := cache.DefaultConfig()
	if opts.CacheConfig != nil {
		cfg = *opts.CacheConfig
	}
	service, err := cache.NewCacheService(cfg)
	if err != nil {
		return nil, err
	}
	return repositorycache.New(repo, service, cache.NewDefaultKeySerializer()), nil
}
