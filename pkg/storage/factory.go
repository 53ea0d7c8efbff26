package storage

import (
	"fmt"
	"sync"
)

// Builder constructs an adapter. Builders must not touch the network or load
// provider SDK clients; adapters do that on first real use.
type Builder func() Adapter

type FactoryConfig struct {
	S3    *S3Config
	GCS   *GCSConfig
	Local *LocalConfig
}

// ProviderStatus reports whether a provider has the credentials it needs.
type ProviderStatus struct {
	Provider   Provider `json:"provider"`
	Configured bool     `json:"configured"`
}

// Factory resolves providers to memoized adapters. It is safe for concurrent
// use; each provider is built at most once between ClearCache calls.
type Factory struct {
	mu       sync.Mutex
	builders map[Provider]Builder
	adapters map[Provider]Adapter
}

func NewFactory(cfg FactoryConfig) *Factory {
	f := &Factory{
		builders: make(map[Provider]Builder),
		adapters: make(map[Provider]Adapter),
	}

	s3Cfg := S3Config{}
	if cfg.S3 != nil {
		s3Cfg = *cfg.S3
	}
	gcsCfg := GCSConfig{}
	if cfg.GCS != nil {
		gcsCfg = *cfg.GCS
	}
	localCfg := LocalConfig{}
	if cfg.Local != nil {
		localCfg = *cfg.Local
	}

	f.builders[ProviderS3] = func() Adapter { return NewS3Adapter(s3Cfg) }
	f.builders[ProviderGCS] = func() Adapter { return NewGCSAdapter(gcsCfg) }
	f.builders[ProviderLocal] = func() Adapter { return NewLocalAdapter(localCfg) }

	return f
}

// Register replaces the builder for a provider and drops any cached adapter
// for it.
func (f *Factory) Register(provider Provider, builder Builder) error {
	if !provider.IsValid() {
		return NewError(CodeInvalidProvider, fmt.Errorf("unknown provider %q", provider))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.builders[provider] = builder
	delete(f.adapters, provider)
	return nil
}

func (f *Factory) Get(provider Provider) (Adapter, error) {
	if !provider.IsValid() {
		return nil, NewError(CodeInvalidProvider, fmt.Errorf("unknown provider %q", provider))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if adapter, ok := f.adapters[provider]; ok {
		return adapter, nil
	}

	builder, ok := f.builders[provider]
	if !ok || builder == nil {
		return nil, NewError(CodeInvalidProvider, fmt.Errorf("no builder registered for %q", provider))
	}

	adapter := builder()
	if adapter == nil {
		return nil, NewError(CodeProviderNotConfigured, fmt.Errorf("builder for %q returned no adapter", provider))
	}
	f.adapters[provider] = adapter
	return adapter, nil
}

// GetByName parses a provider identifier and resolves it.
func (f *Factory) GetByName(name string) (Adapter, error) {
	provider, err := ParseProvider(name)
	if err != nil {
		return nil, err
	}
	return f.Get(provider)
}

// ConfiguredProviders lists every provider whose adapter reports itself
// configured. It never fails.
func (f *Factory) ConfiguredProviders() []Provider {
	configured := make([]Provider, 0, len(AllProviders))
	for _, status := range f.ProviderStatuses() {
		if status.Configured {
			configured = append(configured, status.Provider)
		}
	}
	return configured
}

func (f *Factory) ProviderStatuses() []ProviderStatus {
	statuses := make([]ProviderStatus, 0, len(AllProviders))
	for _, provider := range AllProviders {
		adapter, err := f.Get(provider)
		statuses = append(statuses, ProviderStatus{
			Provider:   provider,
			Configured: err == nil && adapter.IsConfigured(),
		})
	}
	return statuses
}

// ClearCache drops every memoized adapter.
func (f *Factory) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.adapters = make(map[Provider]Adapter)
}
