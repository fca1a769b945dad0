// Package main provides a CLI exporter that writes a project's
// assembled game document to a file or stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fableforge/fableforge/internal/config"
	"github.com/fableforge/fableforge/internal/content"
	"github.com/fableforge/fableforge/internal/export"
	"github.com/fableforge/fableforge/internal/observability"
	"github.com/fableforge/fableforge/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	projectID := flag.Int64("project", 0, "project id to export (required)")
	outPath := flag.String("out", "", "output file; empty = stdout")
	flag.Parse()

	if *projectID == 0 {
		log.Fatal("-project is required")
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
	projects := postgres.NewProjectRepository(pool.DB(), codec)
	settings := postgres.NewExportSettingsRepository(pool.DB(), codec)
	assembler := export.NewAssembler(settings, projects, items, codec, logger)

	doc, err := assembler.BuildProject(ctx, *projectID)
	if err != nil {
		logger.Fatal("building export", zap.Int64("project_id", *projectID), zap.Error(err))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		logger.Fatal("serialising export", zap.Error(err))
	}
	data = append(data, '\n')

	if *outPath == "" {
		if _, err := os.Stdout.Write(data); err != nil {
			logger.Fatal("writing export", zap.Error(err))
		}
		return
	}

	if err := os.WriteFile(*outPath, data, 0644); err != nil {
		logger.Fatal("writing export", zap.String("path", *outPath), zap.Error(err))
	}
	fmt.Printf("wrote   %s  (%d artifacts)  in %s\n",
		*outPath, len(doc.Artifacts), time.Since(start).Round(time.Millisecond))
}
