package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/gateflow/internal/core/domain"
	"github.com/samirrijal/gateflow/internal/core/usecases"
)

// Application error types the workflow does not retry.
const (
	ErrTypeBatchNotFound = "BatchNotFound"
	ErrTypeInvalidInput  = "InvalidInput"
)

// FlowActivities holds the activity implementations for the flow analysis
// workflow.
type FlowActivities struct {
	Flows *usecases.FlowService
}

// LoadBatch returns the summary of a stored batch.
func (a *FlowActivities) LoadBatch(ctx context.Context, batch string) (*domain.Batch, error) {
	b, err := a.Flows.DescribeBatch(ctx, batch)
	if err != nil {
		return nil, classify(fmt.Errorf("describe batch %s: %w", batch, err))
	}
	return b, nil
}

// AnalyzeFlow analyses the batch against the gate and returns the event
// summary. The full analysis stays in the result cache.
func (a *FlowActivities) AnalyzeFlow(ctx context.Context, input FlowAnalysisInput) (domain.FlowEvent, error) {
	analysis, err := a.Flows.AnalyzeStored(ctx, input.Batch, input.Gate)
	if err != nil {
		return domain.FlowEvent{}, classify(fmt.Errorf("analyze %s at %s: %w", input.Batch, input.GateName, err))
	}

	event := analysis.Event()
	event.GateName = input.GateName
	activity.GetLogger(ctx).Info("flow analysed",
		"batch", input.Batch, "gate", input.GateName, "count", event.Count)
	return event, nil
}

// PublishFlow broadcasts the event.
func (a *FlowActivities) PublishFlow(ctx context.Context, event domain.FlowEvent) error {
	if err := a.Flows.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish flow event: %w", err)
	}
	return nil
}

// classify marks errors that a retry cannot fix as non-retryable.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrBatchNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeBatchNotFound, err)
	case errors.Is(err, domain.ErrDegenerateGate), errors.Is(err, domain.ErrSchema):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
	}
	return err
}
