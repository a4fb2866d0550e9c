package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/client"

	"github.com/samirrijal/gateflow/internal/core/domain"
)

// WorkflowStarter is the part of client.Client the scheduler needs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// Scheduler starts one FlowAnalysisWorkflow per configured gate for every
// ingested batch.
type Scheduler struct {
	starter   WorkflowStarter
	taskQueue string
	gates     []domain.NamedGate
}

// NewScheduler creates a new Scheduler.
func NewScheduler(starter WorkflowStarter, taskQueue string, gates []domain.NamedGate) *Scheduler {
	return &Scheduler{starter: starter, taskQueue: taskQueue, gates: gates}
}

// WorkflowID is stable per batch and gate so a redelivered ingest event
// joins the run already in progress.
func WorkflowID(batch, gateName string) string {
	return fmt.Sprintf("flow-%s-%s", batch, gateName)
}

// HandleBatchIngested starts the analyses of a new batch. It keeps going
// after a failed start and returns the joined errors.
func (s *Scheduler) HandleBatchIngested(ctx context.Context, event *domain.BatchIngested) error {
	var errs []error
	for _, g := range s.gates {
		opts := client.StartWorkflowOptions{
			ID:        WorkflowID(event.Batch, g.Name),
			TaskQueue: s.taskQueue,
		}
		input := FlowAnalysisInput{Batch: event.Batch, GateName: g.Name, Gate: g.Gate}

		run, err := s.starter.ExecuteWorkflow(ctx, opts, FlowAnalysisWorkflow, input)
		if err != nil {
			errs = append(errs, fmt.Errorf("start %s: %w", opts.ID, err))
			continue
		}
		slog.InfoContext(ctx, "flow analysis started",
			"batch", event.Batch,
			"gate", g.Name,
			"workflow_id", run.GetID(),
			"run_id", run.GetRunID(),
		)
	}
	return errors.Join(errs...)
}
