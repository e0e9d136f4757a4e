package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/pixil98/go-service"

	"github.com/pixil98/go-worldserver/cmd/worldserver/command"
	"github.com/pixil98/go-worldserver/internal/driver"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app, err := service.NewApp(&command.Config{}, command.BuildWorkers)
	if err != nil {
		slog.Error("creating application", "error", err)
		os.Exit(1)
	}

	err = app.Run(context.Background())

	var stopped *driver.ShutdownError
	if errors.As(err, &stopped) {
		slog.Info("world stopped", "exit_code", int(stopped.Code))
		os.Exit(int(stopped.Code))
	}
	if err != nil {
		slog.Error("running application", "error", err)
		os.Exit(1)
	}

	slog.Info("exiting")
}
