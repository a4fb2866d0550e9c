package workflows_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/gateflow/internal/core/domain"
	"github.com/samirrijal/gateflow/internal/core/usecases"
	"github.com/samirrijal/gateflow/internal/workflows"
)

type stubRepo struct {
	batch *domain.Batch
	rows  []domain.RawReport
}

func (r *stubRepo) InsertBatch(ctx context.Context, batch string, rows []domain.RawReport) (int64, error) {
	return int64(len(rows)), nil
}

func (r *stubRepo) ListByBatch(ctx context.Context, batch string) ([]domain.RawReport, error) {
	if r.batch == nil || batch != r.batch.Name {
		return nil, domain.ErrBatchNotFound
	}
	return r.rows, nil
}

func (r *stubRepo) GetBatch(ctx context.Context, batch string) (*domain.Batch, error) {
	if r.batch == nil || batch != r.batch.Name {
		return nil, domain.ErrBatchNotFound
	}
	return r.batch, nil
}

func (r *stubRepo) ListBatches(ctx context.Context) ([]domain.Batch, error) {
	if r.batch == nil {
		return nil, nil
	}
	return []domain.Batch{*r.batch}, nil
}

type stubPublisher struct {
	mu     sync.Mutex
	events []domain.FlowEvent
	err    error
}

func (p *stubPublisher) PublishFlowComputed(ctx context.Context, event *domain.FlowEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return p.err
}

func (p *stubPublisher) PublishBatchIngested(ctx context.Context, event *domain.BatchIngested) error {
	return nil
}

func track(mmsi, cog string, lats ...string) []domain.RawReport {
	out := make([]domain.RawReport, 0, len(lats))
	for _, lat := range lats {
		out = append(out, domain.RawReport{MMSI: mmsi, Lat: lat, Lon: "20.5", Cog: cog, Length: "30", Speed: "8.5"})
	}
	return out
}

// batchRows holds three crossing vessels and two near misses for testGate.
func batchRows() []domain.RawReport {
	var rows []domain.RawReport
	rows = append(rows, track("111", "330", "10.05", "10.5", "10.95")...)
	rows = append(rows, track("222", "150", "10.95", "10.5", "10.1")...)
	rows = append(rows, track("333", "330", "10.3", "10.4", "10.5", "10.6", "10.7")...)
	rows = append(rows, track("444", "330", "10.05", "10.1")...)
	rows = append(rows, track("555", "150", "10.4", "10.6")...)
	return rows
}

var testGate = domain.GateLine{
	P1: domain.GeoPoint{Lat: 10.2, Lon: 20.0},
	P2: domain.GeoPoint{Lat: 10.8, Lon: 21.0},
}

func newEnv(t *testing.T, repo *stubRepo, pub *stubPublisher) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	flows := usecases.NewFlowService(repo, nil, pub, usecases.FlowSettings{Workers: 2})
	env.RegisterActivity(&workflows.FlowActivities{Flows: flows})
	return env
}

func TestFlowAnalysisWorkflow(t *testing.T) {
	repo := &stubRepo{batch: &domain.Batch{Name: "b1", Rows: 15}, rows: batchRows()}
	pub := &stubPublisher{}
	env := newEnv(t, repo, pub)

	env.ExecuteWorkflow(workflows.FlowAnalysisWorkflow, workflows.FlowAnalysisInput{
		Batch: "b1", GateName: "north", Gate: testGate,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var event domain.FlowEvent
	require.NoError(t, env.GetWorkflowResult(&event))
	assert.Equal(t, 3, event.Count)
	assert.Equal(t, 2, event.UpstreamCount)
	assert.Equal(t, 1, event.DownstreamCount)
	assert.Equal(t, "b1", event.Batch)
	assert.Equal(t, "north", event.GateName)
	assert.NotEmpty(t, event.AnalysisID)

	require.Len(t, pub.events, 1)
	assert.Equal(t, event.AnalysisID, pub.events[0].AnalysisID)
	assert.Equal(t, "north", pub.events[0].GateName)
}

func TestFlowAnalysisWorkflow_BatchNotFound(t *testing.T) {
	pub := &stubPublisher{}
	env := newEnv(t, &stubRepo{}, pub)

	env.ExecuteWorkflow(workflows.FlowAnalysisWorkflow, workflows.FlowAnalysisInput{
		Batch: "missing", GateName: "north", Gate: testGate,
	})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, workflows.ErrTypeBatchNotFound, appErr.Type())
	assert.Empty(t, pub.events)
}

func TestFlowAnalysisWorkflow_DegenerateGate(t *testing.T) {
	repo := &stubRepo{batch: &domain.Batch{Name: "b1", Rows: 15}, rows: batchRows()}
	env := newEnv(t, repo, &stubPublisher{})

	env.ExecuteWorkflow(workflows.FlowAnalysisWorkflow, workflows.FlowAnalysisInput{
		Batch: "b1", GateName: "flat",
		Gate: domain.GateLine{P1: domain.GeoPoint{Lat: 10, Lon: 20}, P2: domain.GeoPoint{Lat: 10, Lon: 21}},
	})

	require.True(t, env.IsWorkflowCompleted())
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(env.GetWorkflowError(), &appErr))
	assert.Equal(t, workflows.ErrTypeInvalidInput, appErr.Type())
}

func TestFlowAnalysisWorkflow_PublishRetried(t *testing.T) {
	repo := &stubRepo{batch: &domain.Batch{Name: "b1", Rows: 15}, rows: batchRows()}
	pub := &stubPublisher{err: errors.New("nats down")}
	env := newEnv(t, repo, pub)

	env.ExecuteWorkflow(workflows.FlowAnalysisWorkflow, workflows.FlowAnalysisInput{
		Batch: "b1", GateName: "north", Gate: testGate,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.Len(t, pub.events, 3)
}
