package object

import (
	"github.com/pixil98/go-worldserver/internal/packet"
)

// BlockKind is the operation an update block describes.
type BlockKind uint8

const (
	BlockCreate BlockKind = iota + 1
	BlockValues
	BlockDestroy
)

// Movement is the physical state sent with a create block.
type Movement struct {
	X         float64    `msgpack:"x"`
	Y         float64    `msgpack:"y"`
	Z         float64    `msgpack:"z"`
	O         float64    `msgpack:"o"`
	Transport string     `msgpack:"transport,omitempty"`
	Offset    *Position  `msgpack:"offset,omitempty"`
	Rotation  int64      `msgpack:"rotation,omitempty"`
	AnimKits  [3]uint16  `msgpack:"anim_kits"`
	Spline    []Position `msgpack:"spline,omitempty"`
}

// MovementBuilder lets an entity add type-specific movement data.
type MovementBuilder interface {
	BuildMovement(m *Movement)
}

// FieldOverrider lets an entity widen the fields a viewer receives.
type FieldOverrider interface {
	FieldFlagsFor(viewer Entity) FieldFlag
}

// FieldFlagsFor returns the field classes viewer may receive from obj.
func FieldFlagsFor(obj, viewer Entity) FieldFlag {
	if viewer != nil && obj.Object() == viewer.Object() {
		return FlagAll
	}
	if o, ok := obj.(FieldOverrider); ok {
		return o.FieldFlagsFor(viewer) | FlagPublic
	}
	return FlagPublic
}

// UpdateBlock is one create, values or destroy operation.
type UpdateBlock struct {
	Kind     BlockKind      `msgpack:"kind"`
	GUID     string         `msgpack:"guid"`
	TypeID   TypeID         `msgpack:"type,omitempty"`
	Fields   map[uint16]any `msgpack:"fields,omitempty"`
	Movement *Movement      `msgpack:"movement,omitempty"`
}

// UpdateData collects the blocks sent to one viewer in one flush.
type UpdateData struct {
	MapID  uint32        `msgpack:"map"`
	Blocks []UpdateBlock `msgpack:"blocks"`
}

func NewUpdateData(mapID uint32) *UpdateData {
	return &UpdateData{MapID: mapID}
}

func (u *UpdateData) HasData() bool { return len(u.Blocks) > 0 }

// AddCreate appends a full create block for obj as seen by viewer.
func (u *UpdateData) AddCreate(obj, viewer Entity) {
	o := obj.Object()
	mv := &Movement{X: o.pos.X, Y: o.pos.Y, Z: o.pos.Z, O: o.pos.O}
	if t := o.transport; t != nil {
		mv.Transport = t.Object().guid.String()
		off := o.transportOffset
		mv.Offset = &off
	}
	if b, ok := obj.(MovementBuilder); ok {
		b.BuildMovement(mv)
	}

	u.Blocks = append(u.Blocks, UpdateBlock{
		Kind:     BlockCreate,
		GUID:     o.guid.String(),
		TypeID:   o.typeID,
		Fields:   o.values.Snapshot(FieldFlagsFor(obj, viewer), false),
		Movement: mv,
	})
}

// AddValues appends the changed fields of obj visible to viewer. It reports
// false when viewer may see none of them.
func (u *UpdateData) AddValues(obj, viewer Entity) bool {
	o := obj.Object()
	fields := o.values.Snapshot(FieldFlagsFor(obj, viewer), true)
	if len(fields) == 0 {
		return false
	}
	u.Blocks = append(u.Blocks, UpdateBlock{
		Kind:   BlockValues,
		GUID:   o.guid.String(),
		Fields: fields,
	})
	return true
}

// AddDestroy appends a destroy block.
func (u *UpdateData) AddDestroy(g GUID) {
	u.Blocks = append(u.Blocks, UpdateBlock{Kind: BlockDestroy, GUID: g.String()})
}

// BuildPacket encodes the collected blocks.
func (u *UpdateData) BuildPacket() (packet.Packet, error) {
	return packet.Encode(packet.OpcodeUpdateObject, u)
}

// ClientView is the set of objects a client currently holds a copy of.
type ClientView struct {
	known map[GUID]Entity
}

func NewClientView() *ClientView {
	return &ClientView{known: make(map[GUID]Entity)}
}

// Knows reports whether g has been created for this client.
func (c *ClientView) Knows(g GUID) bool {
	_, ok := c.known[g]
	return ok
}

// Len returns the number of known objects.
func (c *ClientView) Len() int { return len(c.known) }

// Known lists the known entities.
func (c *ClientView) Known() []Entity {
	out := make([]Entity, 0, len(c.known))
	for _, e := range c.known {
		out = append(out, e)
	}
	return out
}

// Create sends obj to the client unless it already has it.
func (c *ClientView) Create(obj, viewer Entity, data *UpdateData) bool {
	g := obj.Object().guid
	if c.Knows(g) {
		return false
	}
	c.known[g] = obj
	data.AddCreate(obj, viewer)
	return true
}

// Update sends the changed fields of obj if the client has it.
func (c *ClientView) Update(obj, viewer Entity, data *UpdateData) bool {
	if !c.Knows(obj.Object().guid) {
		return false
	}
	return data.AddValues(obj, viewer)
}

// Destroy removes g from the client if it has it.
func (c *ClientView) Destroy(g GUID, data *UpdateData) bool {
	if !c.Knows(g) {
		return false
	}
	delete(c.known, g)
	data.AddDestroy(g)
	return true
}

// Reset drops everything.
func (c *ClientView) Reset() {
	c.known = make(map[GUID]Entity)
}
