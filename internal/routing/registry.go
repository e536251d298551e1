package routing

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/filswan/go-mcs-sdk/mcs/api/common/logs"
	"github.com/gpumesh/go-compute-router/internal/models"
	"gopkg.in/yaml.v2"
)

// Registry holds the known provider set. It is passed into the engine at
// construction; each routing decision works on a Snapshot so concurrent
// registration cannot interleave with an in-flight decision.
type Registry struct {
	lk        sync.RWMutex
	providers map[string]models.Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]models.Provider)}
}

func (r *Registry) Register(provider models.Provider) error {
	if provider.ID == "" {
		return fmt.Errorf("provider id is required")
	}
	if provider.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	switch provider.PricingModel {
	case models.PricingFixed, models.PricingSpot, models.PricingToken:
	default:
		return fmt.Errorf("unknown pricing model: %s", provider.PricingModel)
	}

	r.lk.Lock()
	defer r.lk.Unlock()
	r.providers[provider.ID] = provider
	return nil
}

func (r *Registry) Remove(id string) {
	r.lk.Lock()
	defer r.lk.Unlock()
	delete(r.providers, id)
}

func (r *Registry) Get(id string) (models.Provider, bool) {
	r.lk.RLock()
	defer r.lk.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

func (r *Registry) Count() int {
	r.lk.RLock()
	defer r.lk.RUnlock()
	return len(r.providers)
}

// Snapshot returns value copies in a stable order (by id).
func (r *Registry) Snapshot() []models.Provider {
	r.lk.RLock()
	defer r.lk.RUnlock()

	snapshot := make([]models.Provider, 0, len(r.providers))
	for _, p := range r.providers {
		snapshot = append(snapshot, p)
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ID < snapshot[j].ID })
	return snapshot
}

// Composition reports provider counts by pricing model, for the health check.
func (r *Registry) Composition() map[string]int {
	r.lk.RLock()
	defer r.lk.RUnlock()

	composition := make(map[string]int)
	for _, p := range r.providers {
		composition[string(p.PricingModel)]++
	}
	return composition
}

type registrySeed struct {
	Providers []models.Provider `yaml:"providers"`
}

// LoadSeedFile registers every provider declared in a providers.yaml file.
func (r *Registry) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed read registry seed file, path: %s, error: %w", path, err)
	}

	var seed registrySeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed parse registry seed file, path: %s, error: %w", path, err)
	}

	for _, provider := range seed.Providers {
		if err := r.Register(provider); err != nil {
			return fmt.Errorf("failed register seed provider %s, error: %w", provider.ID, err)
		}
	}
	logs.GetLogger().Infof("registry seeded, file: %s, providers: %d", path, len(seed.Providers))
	return nil
}
