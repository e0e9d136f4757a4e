package object

import (
	"errors"
	"fmt"
	"sync"
)

var ErrGuidOverflow = errors.New("guid counter exhausted")

// HighGuid is the entity class encoded in a GUID.
type HighGuid uint8

const (
	HighNone HighGuid = iota
	HighPlayer
	HighUnit
	HighGameObject
	HighTransport
	HighCorpse
	HighDynamicObject
)

var highNames = map[HighGuid]string{
	HighNone:          "None",
	HighPlayer:        "Player",
	HighUnit:          "Creature",
	HighGameObject:    "GameObject",
	HighTransport:     "Transport",
	HighCorpse:        "Corpse",
	HighDynamicObject: "DynamicObject",
}

func (h HighGuid) String() string {
	if n, ok := highNames[h]; ok {
		return n
	}
	return "Unknown"
}

// MaxCounter is the largest counter a generator hands out.
const MaxCounter uint64 = 1<<40 - 1

// GUID identifies a world entity.
type GUID struct {
	High    HighGuid
	Entry   uint32
	Counter uint64
}

var EmptyGUID GUID

func NewGUID(high HighGuid, entry uint32, counter uint64) GUID {
	return GUID{High: high, Entry: entry, Counter: counter}
}

func (g GUID) IsEmpty() bool      { return g == EmptyGUID }
func (g GUID) IsPlayer() bool     { return g.High == HighPlayer }
func (g GUID) IsUnit() bool       { return g.High == HighUnit || g.High == HighPlayer }
func (g GUID) IsGameObject() bool { return g.High == HighGameObject || g.High == HighTransport }

func (g GUID) String() string {
	return fmt.Sprintf("%s-%d-%d", g.High, g.Entry, g.Counter)
}

// GuidWatcher is told when a generator crosses its shortage thresholds.
type GuidWatcher interface {
	IsGuidWarning() bool
	IsGuidAlert() bool
	TriggerGuidWarning()
	TriggerGuidAlert()
}

// GUIDGenerator hands out counters for one HighGuid.
type GUIDGenerator struct {
	mu      sync.Mutex
	high    HighGuid
	next    uint64
	warnAt  uint64
	alertAt uint64
	watcher GuidWatcher
}

type GeneratorOpt func(*GUIDGenerator)

// WithThresholds sets the counters above which the watcher is warned or
// alerted. Zero disables a threshold.
func WithThresholds(warn, alert uint64, w GuidWatcher) GeneratorOpt {
	return func(g *GUIDGenerator) {
		g.warnAt = warn
		g.alertAt = alert
		g.watcher = w
	}
}

func NewGUIDGenerator(high HighGuid, start uint64, opts ...GeneratorOpt) *GUIDGenerator {
	if start == 0 {
		start = 1
	}
	g := &GUIDGenerator{high: high, next: start}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the next counter.
func (g *GUIDGenerator) Generate() (uint64, error) {
	g.mu.Lock()
	if g.next >= MaxCounter {
		g.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrGuidOverflow, g.high)
	}
	c := g.next
	g.next++
	g.mu.Unlock()

	g.checkTrigger(c)
	return c, nil
}

// Next returns the counter the next Generate call will hand out.
func (g *GUIDGenerator) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next
}

func (g *GUIDGenerator) checkTrigger(c uint64) {
	if g.watcher == nil {
		return
	}
	switch g.high {
	case HighUnit, HighGameObject, HighTransport:
	default:
		return
	}
	if g.alertAt > 0 && !g.watcher.IsGuidAlert() && c > g.alertAt {
		g.watcher.TriggerGuidAlert()
	} else if g.warnAt > 0 && !g.watcher.IsGuidWarning() && c > g.warnAt {
		g.watcher.TriggerGuidWarning()
	}
}
