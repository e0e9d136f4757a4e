package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/go-service"

	"github.com/pixil98/go-worldserver/internal/dispatch"
	"github.com/pixil98/go-worldserver/internal/driver"
	"github.com/pixil98/go-worldserver/internal/listener"
	"github.com/pixil98/go-worldserver/internal/maps"
	"github.com/pixil98/go-worldserver/internal/messaging"
	"github.com/pixil98/go-worldserver/internal/object"
	"github.com/pixil98/go-worldserver/internal/persistence"
	"github.com/pixil98/go-worldserver/internal/script"
	"github.com/pixil98/go-worldserver/internal/timer"
	"github.com/pixil98/go-worldserver/internal/world"
	"github.com/pixil98/go-worldserver/internal/worldstate"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}
	ctx := context.Background()

	repo, err := cfg.Storage.OpenRepository()
	if err != nil {
		return nil, err
	}

	w, err := buildWorld(ctx, cfg, repo)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	// The broker carries every packet the world sends to a session.
	nats, err := cfg.Nats.buildNatsServer()
	if err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	cm := listener.NewConnectionManager(w, nats, messaging.NewPublisher(nats))

	// Create Listeners
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		ln, err := l.BuildListener(cm)
		if err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = &readyListener{ready: nats.Ready(), listener: ln}
	}

	var driverOpts []driver.WorldDriverOpt
	if d := cfg.tickInterval(); d > 0 {
		driverOpts = append(driverOpts, driver.WithTickLength(d))
	}

	return service.WorkerList{
		"driver":    driver.NewWorldDriver(&persistentWorld{WorldManager: w, repo: repo}, driverOpts...),
		"nats":      nats,
		"listeners": &listeners,
	}, nil
}

// buildWorld loads the static data and every configured map, then the world
// itself. Any failure here stops the process before a client can connect.
func buildWorld(ctx context.Context, cfg *Config, repo persistence.Repository) (*world.WorldManager, error) {
	worldCfg, err := cfg.World.BuildWorldConfig()
	if err != nil {
		return nil, err
	}

	stateTemplates, err := cfg.Storage.BuildWorldStates(cfg.World.Hosts)
	if err != nil {
		return nil, err
	}
	goTemplates, err := cfg.Storage.BuildGameObjectTemplates()
	if err != nil {
		return nil, err
	}

	clock := timer.NewClock(time.Now())
	scripts := script.NewRegistry()
	states := worldstate.NewStore(stateTemplates, repo, worldstate.WithScripts(scripts))
	if err := states.LoadFromDB(ctx); err != nil {
		return nil, fmt.Errorf("loading world states: %w", err)
	}

	mm := maps.NewManager()
	w := world.NewWorldManager(worldCfg, clock, repo,
		world.WithMaps(mm),
		world.WithDispatcher(dispatch.NewDispatcher(cfg.World.Workers)),
		world.WithScripts(scripts),
		world.WithWorldStates(states),
	)

	var guidOpts []object.GeneratorOpt
	if cfg.World.GuidAlertThreshold > 0 {
		guidOpts = append(guidOpts, object.WithThresholds(cfg.World.GuidWarningThreshold, cfg.World.GuidAlertThreshold, w))
	}
	guids := object.NewGUIDGenerator(object.HighGameObject, 1, guidOpts...)

	for _, mc := range cfg.World.Maps {
		mapCfg, err := mc.BuildMapConfig()
		if err != nil {
			return nil, fmt.Errorf("map %d: %w", mc.ID, err)
		}
		m := maps.NewMap(mc.ID, mc.Instance, clock, repo,
			maps.WithConfig(mapCfg),
			maps.WithScripts(scripts),
			maps.WithWorldStates(states),
			maps.WithTemplates(goTemplates),
			maps.WithGUIDGenerator(guids),
		)
		if err := m.LoadFromDB(ctx); err != nil {
			return nil, fmt.Errorf("loading map %d: %w", mc.ID, err)
		}
		if err := mm.Add(m); err != nil {
			return nil, err
		}
		slog.Info("map loaded", "map", mc.ID, "instance", mc.Instance, "game_objects", m.GameObjectCount())
	}

	if err := w.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading world: %w", err)
	}
	return w, nil
}

// persistentWorld closes the repository once the world has flushed its
// final state.
type persistentWorld struct {
	*world.WorldManager
	repo *persistence.SQLiteRepository
}

func (p *persistentWorld) Shutdown(ctx context.Context) {
	p.WorldManager.Shutdown(ctx)
	p.repo.Wait()
	if err := p.repo.Close(); err != nil {
		slog.WarnContext(ctx, "closing database", "error", err)
	}
}

// readyListener holds a listener back until the broker accepts
// subscriptions.
type readyListener struct {
	ready    <-chan struct{}
	listener *listener.WebsocketListener
}

func (r *readyListener) Start(ctx context.Context) error {
	select {
	case <-r.ready:
	case <-ctx.Done():
		return nil
	}
	return r.listener.Start(ctx)
}
