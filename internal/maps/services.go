package maps

import (
	"math/rand/v2"

	"github.com/pixil98/go-worldserver/internal/gameobject"
	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/script"
)

// hookServices hands spells and events to script hooks. It is used when no
// combat system is attached to the map.
type hookServices struct {
	scripts     *script.Registry
	catchChance float64
}

func (s *hookServices) CastSpell(caster, target object.Entity, spellID uint32) {
	script.ForEach(s.scripts, func(l gameobject.EventListener) {
		l.OnSpellCast(caster, target, spellID)
	})
}

func (s *hookServices) TriggerEvent(eventID uint32, source, target object.Entity) {
	script.ForEach(s.scripts, func(l gameobject.EventListener) {
		l.OnEvent(eventID, source, target)
	})
}

func (s *hookServices) IsInCombat(object.Entity) bool   { return false }
func (s *hookServices) IsChanneling(object.Entity) bool { return false }

func (s *hookServices) RollFishing(object.Entity, *gameobject.GameObject) bool {
	return rand.Float64() < s.catchChance
}
