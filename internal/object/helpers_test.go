package object

type testMap struct {
	id      uint32
	vis     float64
	updates []Entity
	removed []Entity
	hidden  map[GUID]bool
}

func newTestMap() *testMap {
	return &testMap{id: 1, vis: DefaultVisibilityDistance, hidden: make(map[GUID]bool)}
}

func (m *testMap) ID() uint32                  { return m.id }
func (m *testMap) InstanceID() uint32          { return 0 }
func (m *testMap) VisibilityRange() float64    { return m.vis }
func (m *testMap) AddUpdateObject(e Entity)    { m.updates = append(m.updates, e) }
func (m *testMap) RemoveUpdateObject(e Entity) { m.removed = append(m.removed, e) }
func (m *testMap) IsVisibleByConditions(obj, _ Entity) bool {
	return !m.hidden[obj.Object().GUID()]
}

type testObject struct {
	WorldObject
	alwaysVisible bool
	despawned     bool
}

func newTestObject(m MapRef, counter uint64, pos Position) *testObject {
	o := &testObject{}
	o.Init(o, NewGUID(HighGameObject, 10, counter), TypeGameObject)
	o.SetMap(m)
	o.Relocate(pos)
	o.AddToWorld()
	return o
}

func (o *testObject) IsAlwaysVisibleFor(Entity) bool      { return o.alwaysVisible }
func (o *testObject) IsInvisibleDueToDespawn(Entity) bool { return o.despawned }

type testUnit struct {
	WorldObject
	level     uint8
	reach     float64
	vehicle   Entity
	possessed Entity
	charmer   Entity
}

func (u *testUnit) Level() uint8             { return u.level }
func (u *testUnit) IsAlive() bool            { return true }
func (u *testUnit) CombatReach() float64     { return u.reach }
func (u *testUnit) VehicleBase() Entity      { return u.vehicle }
func (u *testUnit) IsFriendlyTo(Entity) bool { return false }
func (u *testUnit) Possessed() Entity        { return u.possessed }
func (u *testUnit) CharmerOrOwner() Entity   { return u.charmer }

func newTestUnit(m MapRef, counter uint64, pos Position) *testUnit {
	u := &testUnit{level: 1, reach: 1.5}
	u.Init(u, NewGUID(HighUnit, 20, counter), TypeUnit)
	u.SetMap(m)
	u.Relocate(pos)
	u.AddToWorld()
	return u
}

type testPlayer struct {
	WorldObject
	level     uint8
	reach     float64
	ghost     bool
	corpse    Entity
	viewpoint Entity
	atClient  map[GUID]bool
	group     map[GUID]bool
}

func newTestPlayer(m MapRef, counter uint64, pos Position) *testPlayer {
	p := &testPlayer{level: 1, reach: 1.5, atClient: make(map[GUID]bool), group: make(map[GUID]bool)}
	p.Init(p, NewGUID(HighPlayer, 0, counter), TypePlayer)
	p.SetMap(m)
	p.Relocate(pos)
	p.AddToWorld()
	return p
}

func (p *testPlayer) Level() uint8               { return p.level }
func (p *testPlayer) IsAlive() bool              { return !p.ghost }
func (p *testPlayer) CombatReach() float64       { return p.reach }
func (p *testPlayer) VehicleBase() Entity        { return nil }
func (p *testPlayer) IsFriendlyTo(Entity) bool   { return true }
func (p *testPlayer) IsGhost() bool              { return p.ghost }
func (p *testPlayer) Corpse() Entity             { return p.corpse }
func (p *testPlayer) Viewpoint() Entity          { return p.viewpoint }
func (p *testPlayer) HaveAtClient(e Entity) bool { return p.atClient[e.Object().GUID()] }
func (p *testPlayer) IsInGroup(g GUID) bool      { return p.group[g] }
func (p *testPlayer) IsOnCinematic() bool        { return false }
func (p *testPlayer) IsGroupVisibleFor(o Viewer) bool {
	return p.group[o.Object().GUID()]
}
