package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/sgs-labs/geoingest/internal/db"
	"github.com/sgs-labs/geoingest/internal/geo"
	"github.com/sgs-labs/geoingest/internal/ingest"
)

func main() {
	var (
		dataDir  = flag.String("dir", "", "directory holding source files (overrides INGEST_DATA_DIR)")
		dbURL    = flag.String("db", "", "Postgres DSN (overrides DATABASE_URL)")
		dialects = flag.String("dialects", "", "YAML carrier-dialect file (overrides INGEST_DIALECTS)")
	)
	flag.Parse()

	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	cfg := ingest.LoadFromEnv()
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *dbURL != "" {
		cfg.DatabaseURL = *dbURL
	}
	if *dialects != "" {
		cfg.DialectsPath = *dialects
	}
	if err := cfg.Validate(); err != nil {
		flag.Usage()
		log.Fatal(err)
	}

	reg := ingest.DefaultDialects()
	if cfg.DialectsPath != "" {
		loaded, err := ingest.LoadDialects(cfg.DialectsPath)
		if err != nil {
			log.Fatal(err)
		}
		reg = loaded
	}

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	version, err := db.CheckPostGIS(conn)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("connected, PostGIS %s", version)
	if err := db.EnsureSchema(conn); err != nil {
		log.Fatal(err)
	}

	pipeline := &ingest.Pipeline{
		Store:     ingest.NewEngine(conn),
		Norm:      geo.NewNormalizer(cfg.Bounds),
		Dialects:  reg,
		Obs:       ingest.NewSlogObserver(),
		CSVLatin1: cfg.CSVLatin1,
	}

	summary, err := pipeline.Run(context.Background(), cfg.DataDir)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Print(summary.Report())
	if len(summary.Failed) > 0 {
		os.Exit(1)
	}
}
