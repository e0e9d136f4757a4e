package maps

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/pixil98/go-worldserver/internal/dispatch"
)

var ErrMapExists = errors.New("map instance already exists")

type mapKey struct {
	id       uint32
	instance uint32
}

// Manager owns every map instance and fans their ticks out to the
// dispatcher.
type Manager struct {
	mu   sync.RWMutex
	maps map[mapKey]*Map
}

func NewManager() *Manager {
	return &Manager{maps: make(map[mapKey]*Map)}
}

func (mm *Manager) Add(m *Map) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	k := mapKey{id: m.ID(), instance: m.InstanceID()}
	if _, ok := mm.maps[k]; ok {
		return fmt.Errorf("%w: %d/%d", ErrMapExists, k.id, k.instance)
	}
	mm.maps[k] = m
	return nil
}

// Get returns a map instance, or nil.
func (mm *Manager) Get(id, instanceID uint32) *Map {
	mm.mu.RLock()
	defer mm.mu.RUnlock()
	return mm.maps[mapKey{id: id, instance: instanceID}]
}

// Remove unloads a map instance, committing its pending changes.
func (mm *Manager) Remove(ctx context.Context, id, instanceID uint32) {
	mm.mu.Lock()
	k := mapKey{id: id, instance: instanceID}
	m := mm.maps[k]
	delete(mm.maps, k)
	mm.mu.Unlock()

	if m != nil {
		m.Flush(ctx)
	}
}

// Maps lists the instances ordered by map id, then instance id.
func (mm *Manager) Maps() []*Map {
	mm.mu.RLock()
	out := make([]*Map, 0, len(mm.maps))
	for _, m := range mm.maps {
		out = append(out, m)
	}
	mm.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Map) int {
		if c := cmp.Compare(a.ID(), b.ID()); c != 0 {
			return c
		}
		return cmp.Compare(a.InstanceID(), b.InstanceID())
	})
	return out
}

// Update runs every map's tick on the dispatcher and waits for all of them.
func (mm *Manager) Update(diff time.Duration, d *dispatch.Dispatcher) {
	for _, m := range mm.Maps() {
		d.Schedule(fmt.Sprintf("map-%d-%d", m.ID(), m.InstanceID()), func(ctx context.Context) error {
			m.Update(ctx, diff)
			return nil
		})
	}
	d.Wait()
}

// PlayerCount is the number of players on every map.
func (mm *Manager) PlayerCount() int {
	n := 0
	for _, m := range mm.Maps() {
		n += m.PlayerCount()
	}
	return n
}

// Flush commits the pending changes of every map.
func (mm *Manager) Flush(ctx context.Context) {
	for _, m := range mm.Maps() {
		m.Flush(ctx)
	}
}
