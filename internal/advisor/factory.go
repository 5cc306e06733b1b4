package advisor

import (
	"fmt"

	"validoc/internal/config"
	"validoc/internal/port"
)

// ProviderFactory is a function that creates an Advisor from a provider config.
type ProviderFactory func(cfg *config.AdvisorProviderConfig) (port.Advisor, error)

// registry of advisor provider factories, populated by init() in each provider
// package or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an advisor provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewAdvisor creates an Advisor from a provider config using the registered factory.
func NewAdvisor(cfg *config.AdvisorProviderConfig) (port.Advisor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown advisor provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
