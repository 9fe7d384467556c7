package main

import (
	"context"
	"log"
	"net/http"
	"swissgrid-converter/internal/adapters/projengine"
	"swissgrid-converter/internal/api"
	"swissgrid-converter/internal/api/handlers"
	"swissgrid-converter/internal/app"
	"swissgrid-converter/internal/config"
	"time"
)

// main is the application composition root.
// It prepares the correction grid, wires the PROJ engine and the REFRAME client
// behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Grid bootstrap can download ~1 MB from swisstopo on a cold start.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	a, err := app.New(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	grid := a.Converter.GridInfo()
	health := &handlers.HealthHandler{
		Grid:        grid,
		ProjVersion: projengine.Version(),
	}
	router := api.NewRouter(a.Converter, health)

	// Remote conversions issue one request per point, so large batches are slow.
	log.Printf("Server listening addr=:%s grid=%s cache=%s", cfg.Port, grid.Path, cfg.CacheBackend)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		a.Close()
		log.Fatal(err)
	}
}
