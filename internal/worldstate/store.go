package worldstate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/persistence"
	"github.com/pixil98/go-worldserver/internal/script"
)

// Map is the map instance that owns map-scoped world states.
type Map interface {
	ID() uint32
	WorldStateValue(id int32) int32
	SetWorldStateValue(id, value int32, hidden bool)
	WorldStateValues() map[int32]int32
}

// Broadcaster sends a packet to every connected session.
type Broadcaster interface {
	Broadcast(p packet.Packet)
}

// ValueChangeListener is notified when a templated world state changes.
// m is nil for realm-wide states.
type ValueChangeListener interface {
	OnWorldStateValueChange(t *Template, oldValue, newValue int32, m Map)
}

// Store holds realm-wide world state values and the initial values of
// map-scoped ones.
type Store struct {
	mu        sync.RWMutex
	templates map[int32]*Template
	realm     map[int32]int32
	byMap     map[uint32]map[int32]int32

	repo        persistence.Repository
	scripts     *script.Registry
	broadcaster Broadcaster
}

type StoreOpt func(*Store)

func WithScripts(r *script.Registry) StoreOpt {
	return func(s *Store) {
		s.scripts = r
	}
}

func WithBroadcaster(b Broadcaster) StoreOpt {
	return func(s *Store) {
		s.broadcaster = b
	}
}

// NewStore seeds every state with its template default.
func NewStore(templates map[int32]*Template, repo persistence.Repository, opts ...StoreOpt) *Store {
	s := &Store{
		templates: templates,
		realm:     make(map[int32]int32),
		byMap:     make(map[uint32]map[int32]int32),
		repo:      repo,
	}
	for _, opt := range opts {
		opt(s)
	}

	for id, t := range templates {
		if t.IsRealmWide() {
			s.realm[id] = t.DefaultValue
			continue
		}
		for _, mapID := range t.MapIDs {
			s.mapValues(mapID)[id] = t.DefaultValue
		}
	}
	return s
}

// SetBroadcaster wires the broadcaster after construction.
func (s *Store) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

func (s *Store) mapValues(mapID uint32) map[int32]int32 {
	m, ok := s.byMap[mapID]
	if !ok {
		m = make(map[int32]int32)
		s.byMap[mapID] = m
	}
	return m
}

// Template returns the template for id, or nil.
func (s *Store) Template(id int32) *Template {
	return s.templates[id]
}

// LoadFromDB applies persisted values on top of the template defaults.
func (s *Store) LoadFromDB(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := 0
	err := s.repo.Query(ctx, persistence.Prepare(persistence.SelWorldStateValues), func(row persistence.Scanner) error {
		var id, value int32
		if err := row.Scan(&id, &value); err != nil {
			return err
		}
		t := s.templates[id]
		if t == nil {
			slog.WarnContext(ctx, "persisted world state has no template, skipped", "world_state", id)
			return nil
		}
		if t.IsRealmWide() {
			s.realm[id] = value
		} else {
			for _, mapID := range t.MapIDs {
				s.mapValues(mapID)[id] = value
			}
		}
		loaded++
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading world state values: %w", err)
	}
	slog.InfoContext(ctx, "loaded world state values", "count", loaded)
	return nil
}

// GetValue returns the value of id, reading map-scoped states from m.
func (s *Store) GetValue(id int32, m Map) int32 {
	t := s.templates[id]
	if t == nil || t.IsRealmWide() {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.realm[id]
	}
	if m == nil || !t.onMap(m.ID()) {
		return 0
	}
	return m.WorldStateValue(id)
}

// SetValue changes a world state. Realm-wide changes run the template's
// script hooks and are broadcast; unchanged values are ignored. Map-scoped
// states are delegated to m.
//
// Setting a realm-wide state to its current value does nothing, even when
// hidden differs, so no update is re-broadcast.
func (s *Store) SetValue(id, value int32, hidden bool, m Map) {
	t := s.templates[id]
	if t != nil && !t.IsRealmWide() {
		if m == nil || !t.onMap(m.ID()) {
			return
		}
		m.SetWorldStateValue(id, value, hidden)
		return
	}

	s.mu.Lock()
	old := s.realm[id]
	if old == value {
		s.mu.Unlock()
		return
	}
	s.realm[id] = value
	b := s.broadcaster
	s.mu.Unlock()

	if t != nil {
		s.notify(t, old, value, nil)
	}
	if b != nil {
		b.Broadcast(packet.MustEncode(packet.OpcodeUpdateWorldState, packet.UpdateWorldState{
			ID:     id,
			Value:  value,
			Hidden: hidden,
		}))
	}
}

// MapValueChanged runs script hooks for a map-scoped change. Maps call it
// from SetWorldStateValue.
func (s *Store) MapValueChanged(id, oldValue, newValue int32, m Map) {
	if t := s.templates[id]; t != nil {
		s.notify(t, oldValue, newValue, m)
	}
}

func (s *Store) notify(t *Template, oldValue, newValue int32, m Map) {
	script.ForEachNamed(s.scripts, t.ScriptName, func(l ValueChangeListener) {
		l.OnWorldStateValueChange(t, oldValue, newValue, m)
	})
	script.ForEach(s.scripts, func(l ValueChangeListener) {
		l.OnWorldStateValueChange(t, oldValue, newValue, m)
	})
}

// SaveValueInDb persists value. States without a template are never saved.
func (s *Store) SaveValueInDb(ctx context.Context, id, value int32) error {
	if s.templates[id] == nil {
		slog.DebugContext(ctx, "not saving untemplated world state", "world_state", id)
		return nil
	}
	return s.repo.Execute(ctx, persistence.Prepare(persistence.RepWorldStateValue, id, value))
}

// SetValueAndSaveInDb sets then persists value.
func (s *Store) SetValueAndSaveInDb(ctx context.Context, id, value int32, hidden bool, m Map) error {
	s.SetValue(id, value, hidden, m)
	return s.SaveValueInDb(ctx, id, value)
}

// InitialValuesForMap returns a copy of the starting values of every state
// scoped to mapID.
func (s *Store) InitialValuesForMap(mapID uint32) map[int32]int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int32]int32, len(s.byMap[mapID]))
	for id, v := range s.byMap[mapID] {
		out[id] = v
	}
	return out
}

// FillInitialWorldStates lists the states a player entering areaID on mapID
// is sent, ordered by id.
func (s *Store) FillInitialWorldStates(mapID, areaID uint32, m Map) []packet.WorldStateValue {
	var out []packet.WorldStateValue

	s.mu.RLock()
	for id, v := range s.realm {
		t := s.templates[id]
		if t != nil && !t.InArea(areaID) {
			continue
		}
		out = append(out, packet.WorldStateValue{ID: id, Value: v})
	}
	s.mu.RUnlock()

	if m != nil {
		for id, v := range m.WorldStateValues() {
			t := s.templates[id]
			if t == nil || !t.onMap(mapID) || !t.InArea(areaID) {
				continue
			}
			out = append(out, packet.WorldStateValue{ID: id, Value: v})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
