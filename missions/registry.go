// Package missions holds the table of tracked missions and the active
// selection used to pick transmissions out of the live feed.
package missions

import (
	"errors"
	"fmt"
	"sync"

	"github.com/iancoleman/orderedmap"
	"github.com/rs/zerolog/log"

	"github.com/vainnor/ensemble-predict/types"
)

var ErrUnknownMission = errors.New("unknown mission")

// Entry is one row of the configured mission table.
type Entry struct {
	Name string `toml:"name" json:"name"`
	ID   int    `toml:"id" json:"id"`
}

// DefaultTable is used when no mission table is configured.
var DefaultTable = []Entry{
	{Name: "SSI-95", ID: 68},
	{Name: "SSI-94", ID: 69},
	{Name: "SSI-96", ID: 70},
	{Name: "SSI-93", ID: 67},
	{Name: "SSI-92", ID: 66},
}

// Registry maps mission names to numeric identifiers in table order. The
// first mission is active after construction.
type Registry struct {
	mu     sync.RWMutex
	table  *orderedmap.OrderedMap
	active string
}

func NewRegistry(entries []Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, errors.New("mission table is empty")
	}
	table := orderedmap.New()
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("mission with id %d has no name", e.ID)
		}
		if _, dup := table.Get(e.Name); dup {
			return nil, fmt.Errorf("duplicate mission %q", e.Name)
		}
		table.Set(e.Name, e.ID)
	}
	return &Registry{table: table, active: entries[0].Name}, nil
}

// List returns mission names in table order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table.Keys()
}

// Missions returns the full table with the active flag set.
func (r *Registry) Missions() []types.Mission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := r.table.Keys()
	out := make([]types.Mission, 0, len(keys))
	for _, name := range keys {
		out = append(out, r.mission(name))
	}
	return out
}

func (r *Registry) SetActive(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.table.Get(name); !ok {
		log.Error().Str("mission", name).Msg("Invalid mission selected")
		return fmt.Errorf("%w: %q", ErrUnknownMission, name)
	}
	r.active = name
	return nil
}

func (r *Registry) Active() types.Mission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mission(r.active)
}

func (r *Registry) mission(name string) types.Mission {
	v, _ := r.table.Get(name)
	id, _ := v.(int)
	return types.Mission{Name: name, NumericID: id, IsActive: name == r.active}
}
