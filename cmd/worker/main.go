package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/gateflow/internal/adapters/nats"
	"github.com/samirrijal/gateflow/internal/adapters/postgres"
	"github.com/samirrijal/gateflow/internal/adapters/valkey"
	"github.com/samirrijal/gateflow/internal/core/ports"
	"github.com/samirrijal/gateflow/internal/core/usecases"
	"github.com/samirrijal/gateflow/internal/pkg/config"
	"github.com/samirrijal/gateflow/internal/pkg/logging"
	"github.com/samirrijal/gateflow/internal/workflows"
)

func main() {
	cfg, err := config.Load("gateflow-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logging.Setup("gateflow-worker", logging.LevelFromEnv("info"), "json")

	gates, err := cfg.Flow.NamedGates()
	if err != nil {
		log.Fatalf("flow gates: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer c.Close()
		cache = c
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	flows := usecases.NewFlowService(postgres.NewReportRepo(db), cache, pub, cfg.Flow.FlowSettings())

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.FlowAnalysisWorkflow)
	w.RegisterActivity(&workflows.FlowActivities{Flows: flows})

	// New batches fan out into one workflow per configured gate.
	if len(gates) > 0 {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
		if err != nil {
			log.Fatalf("nats subscriber: %v", err)
		}
		defer sub.Close()

		scheduler := workflows.NewScheduler(c, cfg.Temporal.TaskQueue, gates)
		if err := sub.SubscribeBatchIngested(ctx, scheduler.HandleBatchIngested); err != nil {
			log.Fatalf("subscribe: %v", err)
		}
	} else {
		slog.Info("no gates configured, batches will not be analysed automatically")
	}

	slog.Info("flow worker starting", "task_queue", cfg.Temporal.TaskQueue, "gates", len(gates))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
