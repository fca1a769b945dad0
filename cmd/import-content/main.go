// Package main provides the content import tool. It loads item files
// (JSON or YAML) into the database, optionally assigning them to a
// project.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/fableforge/fableforge/internal/config"
	"github.com/fableforge/fableforge/internal/content"
	"github.com/fableforge/fableforge/internal/importer"
	"github.com/fableforge/fableforge/internal/observability"
	"github.com/fableforge/fableforge/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	sourcePath := flag.String("source", "", "item file or directory to import (required)")
	projectID := flag.Int64("project", 0, "project id to assign imported items to (0 = unassigned)")
	flag.Parse()

	if *sourcePath == "" {
		log.Fatal("-source is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer observability.Sync(logger)

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	codec := content.NewCodec(logger)
	items := postgres.NewItemRepository(pool.DB(), codec)

	var project *int64
	if *projectID != 0 {
		project = projectID
	}

	imp := importer.New(importer.FileSource{}, items, logger)
	sum, err := imp.Run(ctx, *sourcePath, project)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}

	fmt.Printf("imported %d item(s), skipped %d, in %s\n",
		sum.Imported, sum.Skipped, time.Since(start).Round(time.Millisecond))
}
