package object

// StealthType indexes a stealth or stealth-detect value.
type StealthType uint8

const (
	StealthGeneral StealthType = iota
	StealthTrap
	totalStealthTypes
)

// InvisibilityType indexes an invisibility or invisibility-detect value.
type InvisibilityType uint8

const (
	InvisibilityGeneral InvisibilityType = iota
	InvisibilityUnk1
	InvisibilityUnk2
	InvisibilityTrap
	InvisibilityUnk4
	InvisibilityUnk5
	InvisibilityDrunk
	InvisibilityUnk7
	totalInvisibilityTypes
)

// ServerSideVisibilityType indexes a server-only visibility value.
type ServerSideVisibilityType uint8

const (
	ServerSideGM ServerSideVisibilityType = iota
	ServerSideGhost
	totalServerSideTypes
)

// Ghost visibility bits.
const (
	GhostVisibilityAlive int32 = 1 << iota
	GhostVisibilityGhost
)

// DetectionSet is a set of typed flags each carrying a strength.
type DetectionSet[T ~uint8] struct {
	flags  uint64
	values [8]int32
}

func (d *DetectionSet[T]) Flags() uint64         { return d.flags }
func (d *DetectionSet[T]) HasFlag(t T) bool      { return d.flags&(1<<uint(t)) != 0 }
func (d *DetectionSet[T]) AddFlag(t T)           { d.flags |= 1 << uint(t) }
func (d *DetectionSet[T]) DelFlag(t T)           { d.flags &^= 1 << uint(t) }
func (d *DetectionSet[T]) Value(t T) int32       { return d.values[t] }
func (d *DetectionSet[T]) SetValue(t T, v int32) { d.values[t] = v }

// AddValue adjusts the strength of t by v.
func (d *DetectionSet[T]) AddValue(t T, v int32) {
	d.values[t] += v
}
