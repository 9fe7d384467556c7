package main

import (
	"context"
	"log"
	"strings"
	"swissgrid-converter/internal/adapters/cache"
	"swissgrid-converter/internal/config"
	"swissgrid-converter/internal/platform/db"
	"time"

	"github.com/joho/godotenv"
)

// dbtool creates the conversion cache schema in the Postgres database
// named by DATABASE_URL.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.OpenPostgres(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Println("Initializing conversion cache schema...")
	if err := cache.InitSchema(ctx, conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")
}
