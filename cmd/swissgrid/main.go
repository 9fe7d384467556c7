package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"swissgrid-converter/internal/app"
	"swissgrid-converter/internal/cli"
	"swissgrid-converter/internal/config"
	"swissgrid-converter/internal/ports"
	"syscall"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	deps := cli.Deps{
		Open: func(ctx context.Context) (cli.Service, func() error, error) {
			a, err := app.New(ctx, cfg)
			if err != nil {
				return nil, nil, err
			}
			return a.Converter, a.Close, nil
		},
		EnsureGrid: func(ctx context.Context) (ports.GridInfo, error) {
			return app.EnsureGrid(ctx, cfg)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = cli.NewRootCmd(deps).ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Fatal(err)
	}
}
