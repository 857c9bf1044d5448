package provider

import (
	"sync"

	"github.com/relaygw/relay/pkg/fault"
)

// Creator builds a Provider from its vendor-specific config. Passing the
// wrong config variant is a programming error and surfaces as the
// constructor's own type failure, not something the factory masks.
type Creator func(config any) (Provider, error)

// Factory maps a provider type tag to a constructor. It is populated during
// startup and read-mostly afterwards; adding a vendor never touches existing
// registrations.
type Factory struct {
	mu       sync.RWMutex
	creators map[string]Creator
}

func NewFactory() *Factory {
	return &Factory{
		creators: map[string]Creator{},
	}
}

// Register adds or replaces the constructor for a type tag. Last write wins,
// so re-registration at startup (e.g. to inject a token counter) is legal.
func (f *Factory) Register(name string, creator Creator) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creators[name] = creator
}

func (f *Factory) Create(name string, config any) (Provider, error) {
	f.mu.RLock()
	creator, ok := f.creators[name]
	f.mu.RUnlock()

	if !ok {
		return nil, fault.UnsupportedProvider(name)
	}

	return creator(config)
}

func (f *Factory) Types() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.creators))

	for name := range f.creators {
		names = append(names, name)
	}

	return names
}
