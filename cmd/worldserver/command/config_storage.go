package command

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-worldserver/internal/gameobject"
	"github.com/pixil98/go-worldserver/internal/persistence"
	"github.com/pixil98/go-worldserver/internal/storage"
	"github.com/pixil98/go-worldserver/internal/worldstate"
)

type StorageConfig struct {
	// Database is the SQLite file holding characters, spawns and world
	// variables. It is created when missing.
	Database    string      `json:"database"`
	WorldStates AssetConfig `json:"world_states"`
	GameObjects AssetConfig `json:"game_objects"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	if c.Database == "" {
		el.Add(fmt.Errorf("database is required"))
	} else if _, err := os.Stat(filepath.Dir(c.Database)); err != nil {
		el.Add(fmt.Errorf("database: invalid directory for %q: %w", c.Database, err))
	}
	el.Add(c.WorldStates.Validate("world_states"))
	el.Add(c.GameObjects.Validate("game_objects"))

	return el.Err()
}

func (c *StorageConfig) OpenRepository() (*persistence.SQLiteRepository, error) {
	repo, err := persistence.OpenSQLite(c.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", c.Database, err)
	}
	return repo, nil
}

// BuildWorldStates reads the world state templates, dropping references to
// maps this server does not host.
func (c *StorageConfig) BuildWorldStates(hosted func(id uint32) bool) (map[int32]*worldstate.Template, error) {
	templates, err := worldstate.LoadTemplates(c.WorldStates.Path, hosted, nil)
	if err != nil {
		return nil, fmt.Errorf("loading world state templates: %w", err)
	}
	return templates, nil
}

func (c *StorageConfig) BuildGameObjectTemplates() (storage.Storer[*gameobject.Template], error) {
	store, err := gameobject.LoadTemplates(c.GameObjects.Path)
	if err != nil {
		return nil, err
	}
	slog.Info("game object templates loaded", "path", c.GameObjects.Path, "count", store.Len())
	return store, nil
}

// AssetConfig points at a static data file or directory.
type AssetConfig struct {
	Path string `json:"path"`
}

func (c *AssetConfig) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}
