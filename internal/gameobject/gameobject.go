package gameobject

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/packet"
	"github.com/pixil98/go-worldserver/internal/script"
	"github.com/pixil98/go-worldserver/internal/storage"
)

// GameObject is a static or summoned interactive object: doors, chests,
// traps, capture points and the like.
type GameObject struct {
	object.WorldObject

	host     Host
	tmpl     *Template
	behavior Behavior

	displayID    *object.Field[uint32]
	flags        object.Flags[Flags]
	dynFlags     object.Flags[DynamicFlags]
	goState      *object.Field[GoState]
	animProgress *object.Field[uint8]
	faction      *object.Field[uint32]
	spellVisual  *object.Field[uint32]

	spawnID          uint64
	spawnedByDefault bool
	compatMode       bool
	respawnDelay     time.Duration
	respawnTime      time.Time
	restockTime      time.Time
	cooldownTime     time.Time
	despawnDelay     time.Duration
	despawnRespawn   time.Duration
	removed          bool

	lootState     LootState
	lootStateUnit object.Entity
	prevGoState   GoState
	owner         object.Entity
	spellID       uint32
	useCount      uint32
	uniqueUsers   map[object.GUID]object.Entity
	ritualOwner   object.Entity
	collision     bool

	loot         *Loot
	personalLoot map[object.GUID]*Loot
	linkedTrap   *GameObject

	building  building
	capture   capturePoint
	maxOpens  uint32
	perPlayer map[object.GUID]*PerPlayerState
}

// Opt configures a GameObject at creation.
type Opt func(*GameObject)

func WithGoState(s GoState) Opt {
	return func(g *GameObject) { g.goState.Set(s) }
}

func WithAnimProgress(p uint8) Opt {
	return func(g *GameObject) { g.animProgress.Set(p) }
}

// WithOwner marks g as summoned by owner.
func WithOwner(owner object.Entity) Opt {
	return func(g *GameObject) { g.owner = owner }
}

// WithSpell records the spell that created g.
func WithSpell(spellID uint32) Opt {
	return func(g *GameObject) { g.spellID = spellID }
}

// WithLifetime gives a summoned object a fixed lifetime.
func WithLifetime(d time.Duration) Opt {
	return func(g *GameObject) { g.SetRespawnTime(d) }
}

// Create builds a runtime object from a template. It fails when the
// template is missing or its type has no behaviour.
func Create(host Host, guid object.GUID, t *Template, pos object.Position, opts ...Opt) (*GameObject, error) {
	if t == nil {
		return nil, ErrUnknownTemplate
	}
	b := behaviorFor(t.Type)
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t.Type)
	}

	g := &GameObject{host: host, tmpl: t, behavior: b}
	g.Init(g, guid, object.TypeGameObject)
	g.SetMap(host)
	g.Relocate(pos)
	g.SetName(t.Name)
	if t.Size > 0 {
		g.SetScale(t.Size)
	}

	v := g.Values()
	g.displayID = object.NewField(v, "display_id", object.FlagPublic, t.DisplayID)
	g.flags = object.NewFlags(v, "flags", object.FlagPublic, t.Flags)
	g.dynFlags = object.NewFlags(v, "dynamic_flags", object.FlagPublic, DynamicFlags(0))
	g.goState = object.NewField(v, "state", object.FlagPublic, initialState(t))
	g.animProgress = object.NewField(v, "anim_progress", object.FlagPublic, uint8(0))
	g.faction = object.NewField(v, "faction", object.FlagPublic, t.Faction)
	g.spellVisual = object.NewField(v, "spell_visual", object.FlagPublic, uint32(0))

	if t.Type == TypeTrap && t.Trap.Stealthed {
		g.Stealth.AddFlag(object.StealthTrap)
		g.Stealth.AddValue(object.StealthTrap, 70)
	}

	for _, opt := range opts {
		opt(g)
	}
	g.prevGoState = g.goState.Get()

	b.Init(g)
	return g, nil
}

func initialState(t *Template) GoState {
	if t.Type == TypeDoor && t.Door.StartOpen {
		return StateActive
	}
	if t.Type == TypeButton && t.Button.StartOpen {
		return StateActive
	}
	return StateReady
}

// LoadFromDB builds the object described by a spawn row.
func LoadFromDB(host Host, guid object.GUID, data SpawnData, templates storage.Storer[*Template], group SpawnGroup) (*GameObject, error) {
	t := templates.Get(data.Template)
	if t == nil {
		return nil, fmt.Errorf("%w: %s (spawn %d)", ErrUnknownTemplate, data.Template, data.SpawnID)
	}

	g, err := Create(host, guid, t, data.Position, WithGoState(data.State), WithAnimProgress(data.AnimProgress))
	if err != nil {
		return nil, fmt.Errorf("spawn %d: %w", data.SpawnID, err)
	}
	g.spawnID = data.SpawnID
	g.compatMode = group.Flags&SpawnGroupCompatibilityMode != 0
	if data.Phase != 0 {
		g.SetPhases(data.Phase)
	}

	secs := data.RespawnSecs
	if secs < 0 && !g.compatMode {
		slog.Warn("negative respawn time outside compatibility mode", "spawn_id", data.SpawnID, "respawn_secs", secs)
		secs = -secs
	}

	if secs >= 0 {
		g.spawnedByDefault = true
		if !t.CanDespawn() && !t.IsDespawnAtAction() {
			g.flags.Add(FlagNoDespawn)
			g.respawnDelay = 0
			g.respawnTime = time.Time{}
		} else {
			g.respawnDelay = time.Duration(secs) * time.Second
			g.respawnTime = host.RespawnTime(g.spawnID)
			if !g.respawnTime.IsZero() && !g.respawnTime.After(host.Now()) {
				g.respawnTime = time.Time{}
				host.RemoveRespawnTime(g.spawnID)
			}
		}
	} else {
		g.spawnedByDefault = false
		g.respawnDelay = time.Duration(-secs) * time.Second
		g.respawnTime = time.Time{}
	}

	return g, nil
}

func (g *GameObject) Template() *Template          { return g.tmpl }
func (g *GameObject) Type() GoType                 { return g.tmpl.Type }
func (g *GameObject) Host() Host                   { return g.host }
func (g *GameObject) SpawnID() uint64              { return g.spawnID }
func (g *GameObject) SpawnedByDefault() bool       { return g.spawnedByDefault }
func (g *GameObject) CompatibilityMode() bool      { return g.compatMode }
func (g *GameObject) RespawnDelay() time.Duration  { return g.respawnDelay }
func (g *GameObject) RespawnAt() time.Time         { return g.respawnTime }
func (g *GameObject) RestockAt() time.Time         { return g.restockTime }
func (g *GameObject) LootState() LootState         { return g.lootState }
func (g *GameObject) LootStateUnit() object.Entity { return g.lootStateUnit }
func (g *GameObject) GoState() GoState             { return g.goState.Get() }
func (g *GameObject) Flags() object.Flags[Flags]   { return g.flags }
func (g *GameObject) DynamicFlags() DynamicFlags   { return g.dynFlags.Get() }
func (g *GameObject) DisplayID() uint32            { return g.displayID.Get() }
func (g *GameObject) AnimProgress() uint8          { return g.animProgress.Get() }
func (g *GameObject) SpellVisual() uint32          { return g.spellVisual.Get() }
func (g *GameObject) SpellID() uint32              { return g.spellID }
func (g *GameObject) UseCount() uint32             { return g.useCount }
func (g *GameObject) HasCollision() bool           { return g.collision }
func (g *GameObject) IsRemoved() bool              { return g.removed }
func (g *GameObject) LinkedTrap() *GameObject      { return g.linkedTrap }
func (g *GameObject) MaxOpens() uint32             { return g.maxOpens }

// Owner returns the unit that summoned g, or nil.
func (g *GameObject) Owner() object.Entity { return g.owner }

func (g *GameObject) SetOwner(owner object.Entity) { g.owner = owner }

func (g *GameObject) IsTrap() bool { return g.tmpl.Type == TypeTrap }

// IsSpawned reports whether the object is currently present for players.
func (g *GameObject) IsSpawned() bool {
	return g.respawnDelay == 0 ||
		(!g.respawnTime.IsZero() && !g.spawnedByDefault) ||
		(g.respawnTime.IsZero() && g.spawnedByDefault)
}

// AddToWorld registers g and places its linked trap.
func (g *GameObject) AddToWorld() {
	if g.IsInWorld() {
		return
	}
	g.WorldObject.AddToWorld()
	g.refreshCollision()

	trap := g.tmpl.LinkedTrap()
	if trap == nil || g.linkedTrap != nil {
		return
	}
	linked, err := g.host.Summon(trap, g.Position(), nil)
	if err != nil {
		slog.Warn("linked trap not placed", "guid", g.GUID(), "trap", trap.Name, "error", err)
		return
	}
	g.linkedTrap = linked
}

func (g *GameObject) IsNeverVisibleFor(seer object.Entity, allowServerside bool) bool {
	if g.WorldObject.IsNeverVisibleFor(seer, allowServerside) {
		return true
	}
	return g.tmpl.ServerOnly && !allowServerside
}

// IsAlwaysVisibleFor makes transports and buildings visible at any range and
// summoned objects visible to their owner and the owner's friends.
func (g *GameObject) IsAlwaysVisibleFor(seer object.Entity) bool {
	switch g.tmpl.Type {
	case TypeTransport, TypeDestructibleBuilding:
		return true
	}
	if seer == nil || g.owner == nil {
		return false
	}
	if seer.Object().GUID() == g.owner.Object().GUID() {
		return true
	}
	if l, ok := g.owner.(object.Living); ok {
		if _, seerIsUnit := seer.(object.Living); seerIsUnit && l.IsFriendlyTo(seer) {
			return true
		}
	}
	return false
}

// IsInvisibleDueToDespawn hides despawned objects and objects despawned for
// this seer only.
func (g *GameObject) IsInvisibleDueToDespawn(seer object.Entity) bool {
	if !g.IsSpawned() {
		return true
	}
	if st, ok := g.perPlayer[seer.Object().GUID()]; ok && st.Despawned {
		return true
	}
	return false
}

// FieldFlagsFor gives the owner its owner-only fields.
func (g *GameObject) FieldFlagsFor(viewer object.Entity) object.FieldFlag {
	if g.owner != nil && viewer != nil && viewer.Object().GUID() == g.owner.Object().GUID() {
		return object.FlagOwner
	}
	return object.FlagPublic
}

// BuildMovement adds the packed rotation to the create block.
func (g *GameObject) BuildMovement(m *object.Movement) {
	m.Rotation = packRotation(g.Position().O)
}

// packRotation packs a rotation about the z axis into the 64 bit form
// clients expect. Only the z component of the quaternion is non-zero.
func packRotation(o float64) int64 {
	const (
		packYZ     = 1 << 20
		packYZMask = packYZ<<1 - 1
	)
	qz := math.Sin(o / 2)
	if math.Cos(o/2) < 0 {
		qz = -qz
	}
	return int64(int32(qz*packYZ)) & packYZMask
}

// SetLootState moves the state machine and notifies scripts.
func (g *GameObject) SetLootState(state LootState, unit object.Entity) {
	old := g.lootState
	g.lootState = state
	g.lootStateUnit = unit

	g.behavior.StateChanged(g, old, state)
	notify(g, func(h LootStateListener) { h.OnLootStateChanged(g, state, unit) })

	// doors only change collision with their go state
	if g.tmpl.Type == TypeDoor {
		return
	}
	g.refreshCollision()
}

func (g *GameObject) refreshCollision() {
	switch g.tmpl.Type {
	case TypeDoor:
		g.collision = g.goState.Get() == StateReady
	case TypeTransport:
	default:
		g.collision = (g.goState.Get() != StateReady && (g.lootState == LootActivated || g.lootState == LootJustDeactivated)) ||
			g.lootState == LootReady
	}
}

// SetGoState changes the replicated state.
func (g *GameObject) SetGoState(state GoState) {
	if !g.goState.Set(state) {
		return
	}
	notify(g, func(h GoStateListener) { h.OnGoStateChanged(g, state) })
	if g.tmpl.Type == TypeDoor && g.IsInWorld() {
		g.refreshCollision()
	}
}

// SendCustomAnim plays an animation for everyone nearby.
func (g *GameObject) SendCustomAnim(anim uint32) {
	g.sendToSet(packet.OpcodeGameObjectCustomAnim, packet.GameObjectCustomAnim{GUID: g.GUID().String(), AnimID: anim})
}

func (g *GameObject) sendDespawn() {
	g.sendToSet(packet.OpcodeGameObjectDespawn, packet.GameObjectDespawn{GUID: g.GUID().String()})
}

func (g *GameObject) sendToSet(op packet.Opcode, v any) {
	p, err := packet.Encode(op, v)
	if err != nil {
		slog.Error("encoding game object packet", "guid", g.GUID(), "opcode", op, "error", err)
		return
	}
	g.host.SendToSet(g, p)
}

func (g *GameObject) sendToAll(op packet.Opcode, v any) {
	p, err := packet.Encode(op, v)
	if err != nil {
		slog.Error("encoding game object packet", "guid", g.GUID(), "opcode", op, "error", err)
		return
	}
	g.host.SendToAll(p)
}

// packetReceiver is implemented by entities with a client.
type packetReceiver interface {
	SendPacket(p packet.Packet)
}

func sendTo(e object.Entity, op packet.Opcode, v any) {
	r, ok := e.(packetReceiver)
	if !ok {
		return
	}
	p, err := packet.Encode(op, v)
	if err != nil {
		slog.Error("encoding packet", "opcode", op, "error", err)
		return
	}
	r.SendPacket(p)
}

// refreshDynamicFlags recomputes the presentation flags and resends them to
// everyone who sees the object.
func (g *GameObject) refreshDynamicFlags() {
	var f DynamicFlags
	switch g.tmpl.Type {
	case TypeChest, TypeGoober, TypeFishingHole:
		if g.lootState == LootNotReady {
			f = DynNoInteract
		} else {
			f = DynActivate | DynSparkle
		}
	case TypeCapturePoint:
		if g.capture.state == CaptureContestedHorde || g.capture.state == CaptureContestedAlliance {
			f = DynHighlight
		}
	}
	if !g.dynFlags.Set(f) {
		g.dynFlags.MarkChanged()
	}
}

func (g *GameObject) services() Services {
	return g.host.Services()
}

func (g *GameObject) addUniqueUse(user object.Entity) {
	if g.uniqueUsers == nil {
		g.uniqueUsers = make(map[object.GUID]object.Entity)
	}
	g.uniqueUsers[user.Object().GUID()] = user
	g.useCount++
}

// UniqueUseCount is the number of distinct users since the last reset.
func (g *GameObject) UniqueUseCount() int {
	return len(g.uniqueUsers)
}

// notify calls the hooks bound to the template script, then the global ones.
func notify[T any](g *GameObject, fn func(T)) {
	reg := g.host.Scripts()
	script.ForEachNamed(reg, g.tmpl.ScriptName, fn)
	script.ForEach(reg, fn)
}

// handledByScript offers the call to the template script only. The first
// hook returning true takes it over.
func handledByScript[T any](g *GameObject, fn func(T) bool) bool {
	done := false
	script.ForEachNamed(g.host.Scripts(), g.tmpl.ScriptName, func(h T) {
		if !done {
			done = fn(h)
		}
	})
	return done
}
