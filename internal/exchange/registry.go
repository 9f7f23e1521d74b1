package exchange

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/marceleta/crypto-monitor/pkg/config"
	"github.com/marceleta/crypto-monitor/pkg/models"
)

// Factory constructs a client for one exchange from an account credential
type Factory func(cred *models.ExchangeCredential, cfg *config.ExchangeConfig, logger *logrus.Logger) Client

// Registry maps canonical exchange identifiers to client factories.
// Adding an exchange means registering a new factory, not editing dispatch
// logic.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry returns a registry with all built-in exchanges registered
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("bybit", func(cred *models.ExchangeCredential, cfg *config.ExchangeConfig, logger *logrus.Logger) Client {
		return NewBybitClient(cred, cfg, logger)
	})
	return r
}

// Register adds a factory under a canonical exchange name (case-insensitive)
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = factory
}

// ClientFor builds a client for the credential's exchange.
// Returns ErrUnsupported when no factory is registered for it.
func (r *Registry) ClientFor(cred *models.ExchangeCredential, cfg *config.ExchangeConfig, logger *logrus.Logger) (Client, error) {
	r.mu.RLock()
	factory, ok := r.factories[strings.ToLower(cred.Exchange)]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, cred.Exchange)
	}
	return factory(cred, cfg, logger), nil
}
