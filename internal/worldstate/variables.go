package worldstate

import (
	"context"
	"fmt"
	"sync"

	"github.com/pixil98/go-worldserver/internal/persistence"
)

// Variables are string-keyed world variables, such as the next scheduled
// reset times.
type Variables struct {
	mu     sync.RWMutex
	values map[string]int64
	repo   persistence.Repository
}

func NewVariables(repo persistence.Repository) *Variables {
	return &Variables{
		values: make(map[string]int64),
		repo:   repo,
	}
}

// Load reads every persisted variable.
func (v *Variables) Load(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	err := v.repo.Query(ctx, persistence.Prepare(persistence.SelWorldVariables), func(row persistence.Scanner) error {
		var name string
		var value int64
		if err := row.Scan(&name, &value); err != nil {
			return err
		}
		v.values[name] = value
		return nil
	})
	if err != nil {
		return fmt.Errorf("loading world variables: %w", err)
	}
	return nil
}

// Get returns the value of name, or zero.
func (v *Variables) Get(name string) int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[name]
}

// Set updates name in memory then persists it. The in-memory value is kept
// even when persisting fails.
func (v *Variables) Set(ctx context.Context, name string, value int64) error {
	v.mu.Lock()
	v.values[name] = value
	v.mu.Unlock()

	if err := v.repo.Execute(ctx, persistence.Prepare(persistence.RepWorldVariable, name, value)); err != nil {
		return fmt.Errorf("saving world variable %s: %w", name, err)
	}
	return nil
}
