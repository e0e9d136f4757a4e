package gameobject

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestTemplate_Validate(t *testing.T) {
	tests := map[string]struct {
		tmpl    *Template
		wantErr string
	}{
		"valid chest": {
			tmpl: chestTemplate(0),
		},
		"missing entry": {
			tmpl:    &Template{Type: TypeGeneric, Name: "x"},
			wantErr: "entry must be set",
		},
		"missing name": {
			tmpl:    &Template{Entry: 1, Type: TypeGeneric},
			wantErr: "name must be set",
		},
		"chest without section": {
			tmpl:    &Template{Entry: 1, Type: TypeChest, Name: "x"},
			wantErr: "requires a chest section",
		},
		"trap with too many charges": {
			tmpl:    &Template{Entry: 1, Type: TypeTrap, Name: "x", Trap: &TrapData{Charges: 3}},
			wantErr: "trap charges",
		},
		"fishing hole with inverted restock": {
			tmpl:    &Template{Entry: 1, Type: TypeFishingHole, Name: "x", FishingHole: &FishingHoleData{MinRestock: 4, MaxRestock: 2}},
			wantErr: "min_restock exceeds max_restock",
		},
		"ritual without casters": {
			tmpl:    &Template{Entry: 1, Type: TypeRitual, Name: "x", Ritual: &RitualData{}},
			wantErr: "ritual casters",
		},
		"capture point without timer": {
			tmpl:    &Template{Entry: 1, Type: TypeCapturePoint, Name: "x", CapturePoint: &CapturePointData{}},
			wantErr: "capture_time_ms",
		},
		"building without hit points": {
			tmpl:    &Template{Entry: 1, Type: TypeDestructibleBuilding, Name: "x", Destructible: &DestructibleData{}},
			wantErr: "needs hit points",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.tmpl.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			testutil.AssertErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestTemplate_Rules(t *testing.T) {
	tests := map[string]struct {
		tmpl      *Template
		despawn   bool
		atAction  bool
		autoClose time.Duration
	}{
		"door":             {tmpl: doorTemplate(3000), autoClose: 3 * time.Second},
		"chest":            {tmpl: chestTemplate(0), despawn: true},
		"consumable chest": {tmpl: &Template{Type: TypeChest, Chest: &ChestData{Consumable: true}}, despawn: true, atAction: true},
		"goober":           {tmpl: &Template{Type: TypeGoober, Goober: &GooberData{AutoCloseMs: 500}}, despawn: true, autoClose: 500 * time.Millisecond},
		"capture point":    {tmpl: capturePointTemplate()},
		"building":         {tmpl: destructibleTemplate()},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "can despawn", tt.tmpl.CanDespawn(), tt.despawn)
			testutil.AssertEqual(t, "despawn at action", tt.tmpl.IsDespawnAtAction(), tt.atAction)
			testutil.AssertEqual(t, "auto close", tt.tmpl.AutoClose(), tt.autoClose)
		})
	}
}

func writeTemplate(t *testing.T, dir, id, spec string) {
	t.Helper()
	body := `{"version": 1, "id": "` + id + `", "spec": ` + spec + `}`
	if err := os.WriteFile(filepath.Join(dir, id+".json"), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadTemplates(t *testing.T) {
	tests := map[string]struct {
		files   map[string]string
		wantErr string
	}{
		"chest with linked trap": {
			files: map[string]string{
				"chest":  `{"entry": 1, "type": "chest", "name": "chest", "chest": {"loot": [1], "linked_trap": "spikes"}}`,
				"spikes": `{"entry": 2, "type": "trap", "name": "spikes", "trap": {"radius": 4, "spell": 9}}`,
			},
		},
		"missing linked trap": {
			files: map[string]string{
				"chest": `{"entry": 1, "type": "chest", "name": "chest", "chest": {"linked_trap": "spikes"}}`,
			},
			wantErr: `Template "spikes" not found`,
		},
		"linked object is not a trap": {
			files: map[string]string{
				"chest": `{"entry": 1, "type": "chest", "name": "chest", "chest": {"linked_trap": "door"}}`,
				"door":  `{"entry": 2, "type": "door", "name": "door", "door": {}}`,
			},
			wantErr: "is a door",
		},
		"unknown type": {
			files: map[string]string{
				"thing": `{"entry": 1, "type": "spaceship", "name": "thing"}`,
			},
			wantErr: "unknown game object type",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			for id, spec := range tt.files {
				writeTemplate(t, dir, id, spec)
			}

			store, err := LoadTemplates(dir)
			if tt.wantErr != "" {
				testutil.AssertErrorContains(t, err, tt.wantErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			chest := store.Get("chest")
			testutil.AssertEqual(t, "linked trap", chest.LinkedTrap(), store.Get("spikes"))
			testutil.AssertEqual(t, "trap type", chest.LinkedTrap().Type, TypeTrap)
		})
	}
}
