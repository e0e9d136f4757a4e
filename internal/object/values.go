package object

// FieldFlag selects which viewers receive a replicated field.
type FieldFlag uint8

const (
	FlagPublic FieldFlag = 1 << iota
	FlagOwner
	FlagParty
	FlagSelf

	FlagAll = FlagPublic | FlagOwner | FlagParty | FlagSelf
)

// FieldID is the index of a field within its Values.
type FieldID uint16

type fieldMeta struct {
	name  string
	flag  FieldFlag
	value func() any
}

// Values is the replicated state of one entity. Writes go through Field.Set,
// which records the change and queues the owner for the next flush.
type Values struct {
	owner   updateQueuer
	fields  []fieldMeta
	changed []uint64
	queued  bool
}

type updateQueuer interface {
	addToObjectUpdate() bool
}

func (v *Values) register(name string, flag FieldFlag, value func() any) FieldID {
	id := FieldID(len(v.fields))
	v.fields = append(v.fields, fieldMeta{name: name, flag: flag, value: value})
	if int(id)/64 >= len(v.changed) {
		v.changed = append(v.changed, 0)
	}
	return id
}

// MarkChanged flags id for resend even if its value did not change.
func (v *Values) MarkChanged(id FieldID) {
	v.changed[id/64] |= 1 << (id % 64)
	if !v.queued && v.owner != nil {
		v.queued = v.owner.addToObjectUpdate()
	}
}

func (v *Values) isChanged(id FieldID) bool {
	return v.changed[id/64]&(1<<(id%64)) != 0
}

// HasChanged reports whether any field is dirty.
func (v *Values) HasChanged() bool {
	for _, w := range v.changed {
		if w != 0 {
			return true
		}
	}
	return false
}

// Changed lists the dirty fields in declaration order.
func (v *Values) Changed() []FieldID {
	var out []FieldID
	for i := range v.fields {
		if v.isChanged(FieldID(i)) {
			out = append(out, FieldID(i))
		}
	}
	return out
}

// Clear resets the dirty mask and allows the owner to be queued again.
func (v *Values) Clear() {
	for i := range v.changed {
		v.changed[i] = 0
	}
	v.queued = false
}

// Name returns the declared name of id.
func (v *Values) Name(id FieldID) string {
	return v.fields[id].name
}

// Snapshot returns the fields visible under mask. With onlyChanged set only
// dirty fields are included.
func (v *Values) Snapshot(mask FieldFlag, onlyChanged bool) map[uint16]any {
	out := make(map[uint16]any)
	for i, f := range v.fields {
		if f.flag&mask == 0 {
			continue
		}
		if onlyChanged && !v.isChanged(FieldID(i)) {
			continue
		}
		out[uint16(i)] = f.value()
	}
	return out
}

// Field is an observable cell in a Values.
type Field[T comparable] struct {
	values *Values
	id     FieldID
	value  T
}

// NewField declares a field on v with an initial value.
func NewField[T comparable](v *Values, name string, flag FieldFlag, initial T) *Field[T] {
	f := &Field[T]{values: v, value: initial}
	f.id = v.register(name, flag, func() any { return f.value })
	return f
}

func (f *Field[T]) Get() T      { return f.value }
func (f *Field[T]) ID() FieldID { return f.id }

// Set stores val. It reports whether the value changed; only a change marks
// the field dirty.
func (f *Field[T]) Set(val T) bool {
	if f.value == val {
		return false
	}
	f.value = val
	f.values.MarkChanged(f.id)
	return true
}

// MarkChanged forces the current value to be resent.
func (f *Field[T]) MarkChanged() {
	f.values.MarkChanged(f.id)
}

// Flags is a bitmask field with set/remove helpers.
type Flags[T ~uint32] struct {
	*Field[T]
}

func NewFlags[T ~uint32](v *Values, name string, flag FieldFlag, initial T) Flags[T] {
	return Flags[T]{NewField(v, name, flag, initial)}
}

func (f Flags[T]) Has(bits T) bool    { return f.Get()&bits == bits }
func (f Flags[T]) Add(bits T) bool    { return f.Set(f.Get() | bits) }
func (f Flags[T]) Remove(bits T) bool { return f.Set(f.Get() &^ bits) }
