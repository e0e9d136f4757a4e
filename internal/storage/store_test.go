package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

type testSpec struct {
	Name  string         `json:"name"`
	Value int            `json:"value"`
	Next  Ref[*testSpec] `json:"next,omitempty"`
	Extra Params         `json:"extra,omitempty"`
}

func (s *testSpec) Validate() error {
	if s.Value < 0 {
		return fmt.Errorf("value must not be negative")
	}
	return nil
}

func writeAsset(t *testing.T, dir string, id string, version uint, spec *testSpec) {
	t.Helper()
	data, err := json.Marshal(Asset[*testSpec]{Version: version, Identifier: Identifier(id), Spec: spec})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, id+".json"), data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestNewFileStore(t *testing.T) {
	tests := map[string]struct {
		setup   func(t *testing.T, dir string)
		path    func(dir string) string
		wantLen int
		wantErr string
	}{
		"empty directory": {
			setup: func(*testing.T, string) {},
		},
		"loads assets": {
			setup: func(t *testing.T, dir string) {
				writeAsset(t, dir, "door-1", 1, &testSpec{Name: "door"})
				writeAsset(t, dir, "chest-1", 1, &testSpec{Name: "chest"})
			},
			wantLen: 2,
		},
		"ignores other files": {
			setup: func(t *testing.T, dir string) {
				writeAsset(t, dir, "door-1", 1, &testSpec{Name: "door"})
				if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("x"), 0644); err != nil {
					t.Fatal(err)
				}
			},
			wantLen: 1,
		},
		"walks subdirectories": {
			setup: func(t *testing.T, dir string) {
				sub := filepath.Join(dir, "traps")
				if err := os.Mkdir(sub, 0755); err != nil {
					t.Fatal(err)
				}
				writeAsset(t, sub, "trap-1", 1, &testSpec{Name: "trap"})
			},
			wantLen: 1,
		},
		"missing directory": {
			setup:   func(*testing.T, string) {},
			path:    func(dir string) string { return filepath.Join(dir, "missing") },
			wantErr: "no such file",
		},
		"invalid spec": {
			setup: func(t *testing.T, dir string) {
				writeAsset(t, dir, "bad", 1, &testSpec{Value: -1})
			},
			wantErr: "value must not be negative",
		},
		"missing version": {
			setup: func(t *testing.T, dir string) {
				writeAsset(t, dir, "bad", 0, &testSpec{})
			},
			wantErr: "version must be set",
		},
		"missing spec": {
			setup: func(t *testing.T, dir string) {
				if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"version":1,"id":"bad"}`), 0644); err != nil {
					t.Fatal(err)
				}
			},
			wantErr: "spec must be set",
		},
		"duplicate id": {
			setup: func(t *testing.T, dir string) {
				writeAsset(t, dir, "one", 1, &testSpec{})
				data, _ := json.Marshal(Asset[*testSpec]{Version: 1, Identifier: "one", Spec: &testSpec{}})
				if err := os.WriteFile(filepath.Join(dir, "two.json"), data, 0644); err != nil {
					t.Fatal(err)
				}
			},
			wantErr: "duplicate key",
		},
		"malformed json": {
			setup: func(t *testing.T, dir string) {
				if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0644); err != nil {
					t.Fatal(err)
				}
			},
			wantErr: "unmarshalling asset",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)
			path := dir
			if tt.path != nil {
				path = tt.path(dir)
			}

			store, err := NewFileStore[*testSpec](path)
			if tt.wantErr != "" {
				testutil.AssertErrorContains(t, err, tt.wantErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "len", store.Len(), tt.wantLen)
		})
	}
}

func TestFileStore_Ids(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, "c", 1, &testSpec{})
	writeAsset(t, dir, "a", 1, &testSpec{})
	writeAsset(t, dir, "b", 1, &testSpec{})

	store, err := NewFileStore[*testSpec](dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, id := range store.Ids() {
		ids = append(ids, id.String())
	}
	testutil.AssertEqual(t, "ids", strings.Join(ids, ","), "a,b,c")
	testutil.AssertEqual(t, "get all", len(store.GetAll()), 3)

	if store.Get("missing") != nil {
		t.Errorf("expected nil for missing id")
	}
}
