package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/samirrijal/gateflow/internal/adapters/csvsource"
	natsadapter "github.com/samirrijal/gateflow/internal/adapters/nats"
	"github.com/samirrijal/gateflow/internal/adapters/postgres"
	"github.com/samirrijal/gateflow/internal/core/domain"
	"github.com/samirrijal/gateflow/internal/pkg/config"
	"github.com/samirrijal/gateflow/internal/pkg/logging"
	"github.com/samirrijal/gateflow/internal/pkg/metrics"
)

func main() {
	batch := pflag.StringP("batch", "b", "", "batch label (defaults to the first file name without extension)")
	noPublish := pflag.Bool("no-publish", false, "do not announce the batch on NATS")
	logFormat := pflag.String("log-format", "text", "log format: text or json")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: ingestor [flags] <file.csv>...\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	files := pflag.Args()
	if len(files) == 0 {
		pflag.Usage()
		os.Exit(2)
	}
	if *batch == "" {
		*batch = strings.TrimSuffix(filepath.Base(files[0]), filepath.Ext(files[0]))
	}

	cfg, err := config.Load("gateflow-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup("gateflow-ingestor", logging.LevelFromEnv("info"), *logFormat)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Read everything first so a malformed file aborts before any insert.
	var rows []domain.RawReport
	for _, f := range files {
		start := time.Now()
		part, err := csvsource.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}
		slog.Info("file read", "file", f, "rows", len(part), "took", time.Since(start))
		rows = append(rows, part...)
	}

	repo := postgres.NewReportRepo(db)
	n, err := repo.InsertBatch(ctx, *batch, rows)
	if err != nil {
		log.Fatalf("insert batch %s: %v", *batch, err)
	}
	metrics.IngestedRows.WithLabelValues(*batch).Add(float64(n))
	slog.Info("batch stored", "batch", *batch, "rows", n, "files", len(files))

	if *noPublish {
		return
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, batch not announced", "batch", *batch, "error", err)
		return
	}
	defer pub.Close()

	event := &domain.BatchIngested{Batch: *batch, Rows: int(n), At: time.Now().UTC()}
	if err := pub.PublishBatchIngested(ctx, event); err != nil {
		slog.Warn("failed to announce batch", "batch", *batch, "error", err)
		return
	}
	slog.Info("batch announced", "batch", *batch)
}
