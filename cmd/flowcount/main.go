package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/samirrijal/gateflow/internal/adapters/csvsource"
	kmlexport "github.com/samirrijal/gateflow/internal/adapters/kml"
	"github.com/samirrijal/gateflow/internal/adapters/postgres"
	"github.com/samirrijal/gateflow/internal/core/domain"
	"github.com/samirrijal/gateflow/internal/core/usecases"
	"github.com/samirrijal/gateflow/internal/pkg/config"
	"github.com/samirrijal/gateflow/internal/pkg/geospatial"
	"github.com/samirrijal/gateflow/internal/pkg/logging"
)

func main() {
	csvPath := pflag.String("csv", "", "AIS report CSV file")
	batch := pflag.String("batch", "", "stored batch to analyse instead of a CSV file")
	lat1 := pflag.String("lat1", "", "gate endpoint 1 latitude (decimal or deg:min:sec)")
	lon1 := pflag.String("lon1", "", "gate endpoint 1 longitude")
	lat2 := pflag.String("lat2", "", "gate endpoint 2 latitude")
	lon2 := pflag.String("lon2", "", "gate endpoint 2 longitude")
	kmlPath := pflag.String("kml", "", "also write the gate, square and crossing vessels to this KML file")
	workers := pflag.Int("workers", 0, "vessels evaluated concurrently (0 uses flow.workers)")
	verbose := pflag.BoolP("verbose", "v", false, "debug logging")
	pflag.Parse()

	level := logging.LevelFromEnv("info")
	if *verbose {
		level = "debug"
	}
	logging.Setup("", level, "text")

	if (*csvPath == "") == (*batch == "") {
		fmt.Fprintln(os.Stderr, "exactly one of --csv or --batch is required")
		pflag.Usage()
		os.Exit(2)
	}

	gate, err := parseGate(*lat1, *lon1, *lat2, *lon2)
	if err != nil {
		log.Fatalf("gate: %v", err)
	}

	cfg, err := config.Load("gateflow-flowcount")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	settings := cfg.Flow.FlowSettings()
	if *workers > 0 {
		settings.Workers = *workers
	}

	ctx := context.Background()

	var analysis *domain.FlowAnalysis
	if *csvPath != "" {
		rows, err := csvsource.ReadFile(*csvPath)
		if err != nil {
			log.Fatalf("read %s: %v", *csvPath, err)
		}
		analysis, err = usecases.NewFlowService(nil, nil, nil, settings).Analyze(ctx, gate, rows)
		if err != nil {
			log.Fatalf("analyse: %v", err)
		}
	} else {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()

		svc := usecases.NewFlowService(postgres.NewReportRepo(db), nil, nil, settings)
		analysis, err = svc.AnalyzeStored(ctx, *batch, gate)
		if err != nil {
			log.Fatalf("analyse batch %s: %v", *batch, err)
		}
	}

	slog.Info("flow counted",
		"count", analysis.Result.Count,
		"upstream", analysis.UpstreamCount,
		"downstream", analysis.DownstreamCount,
		"raw_rows", analysis.RawRows,
		"in_region_rows", analysis.InRegionRows,
	)

	if *kmlPath != "" {
		if err := writeKML(*kmlPath, analysis); err != nil {
			log.Fatalf("kml: %v", err)
		}
		slog.Info("kml written", "path", *kmlPath)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(analysis.Result); err != nil {
		log.Fatalf("encode result: %v", err)
	}
}

func parseGate(lat1, lon1, lat2, lon2 string) (domain.GateLine, error) {
	raw := [4]string{lat1, lon1, lat2, lon2}
	var v [4]float64
	for i, s := range raw {
		if s == "" {
			return domain.GateLine{}, fmt.Errorf("--lat1, --lon1, --lat2 and --lon2 are required")
		}
		f, err := geospatial.ParseAngle(s)
		if err != nil {
			return domain.GateLine{}, err
		}
		v[i] = f
	}
	return domain.NewGateLine(v[0], v[1], v[2], v[3])
}

func writeKML(path string, a *domain.FlowAnalysis) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := kmlexport.WriteAnalysis(f, a); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
