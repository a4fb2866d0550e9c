package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/gateflow/internal/core/domain"
)

// FlowAnalysisInput is the input for the flow analysis workflow.
type FlowAnalysisInput struct {
	Batch    string
	GateName string
	Gate     domain.GateLine
}

// FlowAnalysisWorkflow checks the batch exists, counts the vessels crossing
// the gate and publishes the resulting event. Activities exchange only the
// batch summary and the event; the report rows never enter workflow history.
func FlowAnalysisWorkflow(ctx workflow.Context, input FlowAnalysisInput) (domain.FlowEvent, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting flow analysis workflow", "batch", input.Batch, "gate", input.GateName)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
			NonRetryableErrorTypes: []string{
				ErrTypeBatchNotFound,
				ErrTypeInvalidInput,
			},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: make sure the batch is there
	var batch domain.Batch
	if err := workflow.ExecuteActivity(ctx, "LoadBatch", input.Batch).Get(ctx, &batch); err != nil {
		return domain.FlowEvent{}, err
	}
	logger.Info("Batch loaded", "rows", batch.Rows)

	// Step 2: analyse
	var event domain.FlowEvent
	if err := workflow.ExecuteActivity(ctx, "AnalyzeFlow", input).Get(ctx, &event); err != nil {
		return domain.FlowEvent{}, err
	}

	// Step 3: publish
	if err := workflow.ExecuteActivity(ctx, "PublishFlow", event).Get(ctx, nil); err != nil {
		logger.Warn("publishing flow event failed", "error", err)
		return event, err
	}

	logger.Info("Flow analysis completed", "count", event.Count)
	return event, nil
}
