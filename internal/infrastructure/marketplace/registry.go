package marketplace

import (
	"fmt"
	"sort"

	"github.com/gearsync/backend/internal/domain/integration"
	"github.com/gearsync/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// StaticRegistry resolves adapters from a fixed map built at startup.
type StaticRegistry struct {
	adapters map[integration.PlatformCode]integration.PlatformAdapter
	codes    []integration.PlatformCode
}

var _ integration.PlatformRegistry = (*StaticRegistry)(nil)

// NewStaticRegistry creates a registry over the given adapters.
func NewStaticRegistry(adapters ...integration.PlatformAdapter) *StaticRegistry {
	byCode := make(map[integration.PlatformCode]integration.PlatformAdapter, len(adapters))
	codes := make([]integration.PlatformCode, 0, len(adapters))
	for _, adapter := range adapters {
		code := adapter.PlatformCode()
		if _, exists := byCode[code]; exists {
			continue
		}
		byCode[code] = adapter
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	return &StaticRegistry{adapters: byCode, codes: codes}
}

// NewRegistryFromConfig builds adapters for every enabled platform.
func NewRegistryFromConfig(cfg config.PlatformsConfig, detailWorkers int, logger *zap.Logger) (*StaticRegistry, error) {
	adapters := make([]integration.PlatformAdapter, 0, 2)

	if cfg.Reverb.Enabled {
		reverb, err := NewReverbAdapter(cfg.Reverb, detailWorkers, logger)
		if err != nil {
			return nil, fmt.Errorf("reverb adapter: %w", err)
		}
		adapters = append(adapters, reverb)
	}
	if cfg.Shopify.Enabled {
		shopify, err := NewShopifyAdapter(cfg.Shopify, logger)
		if err != nil {
			return nil, fmt.Errorf("shopify adapter: %w", err)
		}
		adapters = append(adapters, shopify)
	}

	return NewStaticRegistry(adapters...), nil
}

// Adapter returns the adapter for the code, or ErrPlatformNotConfigured.
func (r *StaticRegistry) Adapter(code integration.PlatformCode) (integration.PlatformAdapter, error) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrPlatformNotConfigured, code)
	}
	return adapter, nil
}

// Codes returns the configured platform codes in a stable order.
func (r *StaticRegistry) Codes() []integration.PlatformCode {
	out := make([]integration.PlatformCode, len(r.codes))
	copy(out, r.codes)
	return out
}
