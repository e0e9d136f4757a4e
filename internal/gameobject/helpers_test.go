package gameobject

import (
	"time"

	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/script"
	"github.com/pixil98/go-worldserver/internal/storage"
	"github.com/pixil98/go-worldserver/internal/unit"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type testHost struct {
	now      time.Time
	scripts  *script.Registry
	svc      *testServices
	respawns map[uint64]time.Time
	scale    time.Duration

	removed     []*GameObject
	objects     []*GameObject
	units       []object.Living
	toSet       []packet.Packet
	toAll       []packet.Packet
	worldStates map[int32]int32
	counter     uint64
}

func newTestHost() *testHost {
	return &testHost{
		now:         epoch,
		scripts:     script.NewRegistry(),
		svc:         &testServices{combat: make(map[object.GUID]bool)},
		respawns:    make(map[uint64]time.Time),
		worldStates: make(map[int32]int32),
	}
}

func (h *testHost) ID() uint32                                              { return 1 }
func (h *testHost) InstanceID() uint32                                      { return 0 }
func (h *testHost) VisibilityRange() float64                                { return object.DefaultVisibilityDistance }
func (h *testHost) AddUpdateObject(object.Entity)                           {}
func (h *testHost) RemoveUpdateObject(object.Entity)                        {}
func (h *testHost) IsVisibleByConditions(object.Entity, object.Entity) bool { return true }
func (h *testHost) Now() time.Time                                          { return h.now }
func (h *testHost) Scripts() *script.Registry                               { return h.scripts }
func (h *testHost) Services() Services                                      { return h.svc }
func (h *testHost) RespawnTime(id uint64) time.Time                         { return h.respawns[id] }
func (h *testHost) RemoveRespawnTime(id uint64)                             { delete(h.respawns, id) }
func (h *testHost) Remove(g *GameObject)                                    { h.removed = append(h.removed, g) }
func (h *testHost) SendToSet(_ *GameObject, p packet.Packet)                { h.toSet = append(h.toSet, p) }
func (h *testHost) SendToAll(p packet.Packet)                               { h.toAll = append(h.toAll, p) }
func (h *testHost) SetWorldStateValue(id, value int32, _ bool)              { h.worldStates[id] = value }
func (h *testHost) UnitsInRange(*GameObject, float64) []object.Living       { return h.units }

func (h *testHost) SaveRespawnTime(id uint64, _ uint32, at time.Time) {
	h.respawns[id] = at
}

func (h *testHost) ScaleRespawnDelay(_ *GameObject, d time.Duration) time.Duration {
	if h.scale > 0 {
		return h.scale
	}
	return d
}

func (h *testHost) GameObjectsInRange(center object.Entity, radius float64) []*GameObject {
	var out []*GameObject
	for _, o := range h.objects {
		if object.ExactDistance(center, o) <= radius {
			out = append(out, o)
		}
	}
	return out
}

func (h *testHost) Summon(t *Template, pos object.Position, owner object.Entity) (*GameObject, error) {
	h.counter++
	g, err := Create(h, object.NewGUID(object.HighGameObject, t.Entry, 1000+h.counter), t, pos, WithOwner(owner))
	if err != nil {
		return nil, err
	}
	g.AddToWorld()
	h.objects = append(h.objects, g)
	return g, nil
}

func (h *testHost) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

// tick advances the clock and updates g once.
func (h *testHost) tick(g *GameObject, d time.Duration) {
	h.advance(d)
	g.Update(d)
}

type spellCast struct {
	caster  object.GUID
	target  object.GUID
	spellID uint32
}

type testServices struct {
	casts   []spellCast
	events  []uint32
	combat  map[object.GUID]bool
	channel bool
	catch   bool
}

func (s *testServices) CastSpell(caster, target object.Entity, spellID uint32) {
	c := spellCast{spellID: spellID}
	if caster != nil {
		c.caster = caster.Object().GUID()
	}
	if target != nil {
		c.target = target.Object().GUID()
	}
	s.casts = append(s.casts, c)
}

func (s *testServices) TriggerEvent(id uint32, _, _ object.Entity)  { s.events = append(s.events, id) }
func (s *testServices) IsInCombat(u object.Entity) bool             { return s.combat[u.Object().GUID()] }
func (s *testServices) IsChanneling(object.Entity) bool             { return s.channel }
func (s *testServices) RollFishing(object.Entity, *GameObject) bool { return s.catch }

type packetLog struct {
	packets []packet.Packet
}

func (l *packetLog) SendPacket(p packet.Packet) { l.packets = append(l.packets, p) }

func (l *packetLog) count(op packet.Opcode) int { return countOpcode(l.packets, op) }

func countOpcode(ps []packet.Packet, op packet.Opcode) int {
	n := 0
	for _, p := range ps {
		if p.Opcode == op {
			n++
		}
	}
	return n
}

func newTestPlayer(counter uint64, team unit.Team) (*unit.Player, *packetLog) {
	log := &packetLog{}
	p := unit.NewPlayer(object.NewGUID(object.HighPlayer, 0, counter), "player", uint32(counter), log)
	p.SetTeam(team)
	p.AddToWorld()
	return p, log
}

func newTestObject(h *testHost, t *Template, opts ...Opt) *GameObject {
	h.counter++
	g, err := Create(h, object.NewGUID(object.HighGameObject, t.Entry, h.counter), t, object.Position{}, opts...)
	if err != nil {
		panic(err)
	}
	g.AddToWorld()
	h.objects = append(h.objects, g)
	return g
}

func chestTemplate(restockSecs uint32) *Template {
	return &Template{
		Entry: 100,
		Type:  TypeChest,
		Name:  "chest",
		Chest: &ChestData{Loot: []uint32{1, 2}, RestockSecs: restockSecs},
	}
}

func doorTemplate(autoCloseMs uint32) *Template {
	return &Template{
		Entry: 200,
		Type:  TypeDoor,
		Name:  "door",
		Door:  &DoorData{AutoCloseMs: autoCloseMs},
	}
}

func trapTemplate(charges uint32) *Template {
	return &Template{
		Entry: 300,
		Type:  TypeTrap,
		Name:  "trap",
		Trap:  &TrapData{Radius: 10, SpellID: 77, Charges: charges, CooldownSecs: 2},
	}
}

func capturePointTemplate() *Template {
	return &Template{
		Entry: 400,
		Type:  TypeCapturePoint,
		Name:  "flag",
		CapturePoint: &CapturePointData{
			CaptureTimeMs:            60000,
			WorldState:               1234,
			AssaultBroadcastHorde:    11,
			AssaultBroadcastAlliance: 12,
			CaptureBroadcastHorde:    21,
			CaptureBroadcastAlliance: 22,
			DefendedBroadcastHorde:   31,
			CaptureEventHorde:        41,
			DefendedEventHorde:       51,
			SpellVisuals:             [5]uint32{1, 2, 3, 4, 5},
		},
	}
}

func destructibleTemplate() *Template {
	return &Template{
		Entry:     500,
		Type:      TypeDestructibleBuilding,
		Name:      "gate",
		DisplayID: 1,
		Destructible: &DestructibleData{
			IntactNumHits:      600,
			DamagedNumHits:     400,
			DamagedDisplayID:   2,
			DestroyedDisplayID: 3,
			DestroyedEvent:     99,
		},
	}
}

func storageRef(t *Template) storage.Ref[*Template] {
	return storage.NewResolvedRef(storage.Identifier(t.Name), t)
}
