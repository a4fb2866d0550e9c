package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/gateflow/internal/core/domain"
	"github.com/samirrijal/gateflow/internal/core/ports"
	"github.com/samirrijal/gateflow/internal/pkg/geospatial"
	"github.com/samirrijal/gateflow/internal/pkg/metrics"
	"github.com/samirrijal/gateflow/internal/pkg/telemetry"
)

// FlowSettings tunes a FlowService.
type FlowSettings struct {
	Workers     int
	CacheTTL    int // seconds; zero disables caching
	HeaderToken string
}

// FlowService runs the full gate analysis pipeline: square, region filter,
// course split and flow count.
type FlowService struct {
	reports   ports.ReportRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	counter   *FlowCounter
	filter    RegionFilter
	cacheTTL  int
	tracer    trace.Tracer
	now       func() time.Time
}

// NewFlowService creates a new FlowService. reports, cache and publisher may
// be nil; inline analyses need none of them.
func NewFlowService(
	reports ports.ReportRepository,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	settings FlowSettings,
) *FlowService {
	return &FlowService{
		reports:   reports,
		cache:     cache,
		publisher: publisher,
		counter:   NewFlowCounter(settings.Workers),
		filter:    RegionFilter{HeaderToken: settings.HeaderToken},
		cacheTTL:  settings.CacheTTL,
		tracer:    telemetry.Tracer("gateflow/usecases"),
		now:       time.Now,
	}
}

// Analyze counts the vessels in rows crossing gate.
func (s *FlowService) Analyze(ctx context.Context, gate domain.GateLine, rows []domain.RawReport) (*domain.FlowAnalysis, error) {
	return s.analyze(ctx, "inline", gate, rows)
}

// AnalyzeBatch analyses a stored batch and publishes the resulting event.
func (s *FlowService) AnalyzeBatch(ctx context.Context, batch string, gate domain.GateLine) (*domain.FlowAnalysis, error) {
	analysis, err := s.AnalyzeStored(ctx, batch, gate)
	if err != nil {
		return nil, err
	}
	if err := s.Publish(ctx, analysis.Event()); err != nil {
		slog.WarnContext(ctx, "publish flow event failed", "batch", batch, "error", err)
	}
	return analysis, nil
}

// AnalyzeStored analyses a stored batch, reading and filling the cache.
func (s *FlowService) AnalyzeStored(ctx context.Context, batch string, gate domain.GateLine) (*domain.FlowAnalysis, error) {
	if s.reports == nil {
		return nil, fmt.Errorf("analyze batch %q: no report repository configured", batch)
	}

	ctx, span := s.tracer.Start(ctx, telemetry.SpanAnalyzeBatch,
		trace.WithAttributes(attribute.String(telemetry.AttrBatch, batch)))
	defer span.End()

	cacheKey := flowCacheKey(batch, s.filter.headerToken(), gate)
	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var analysis domain.FlowAnalysis
			if err := json.Unmarshal(data, &analysis); err == nil {
				metrics.CacheHits.WithLabelValues("flow").Inc()
				span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))
				return &analysis, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("flow").Inc()
	}

	rows, err := s.loadBatch(ctx, batch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	analysis, err := s.analyze(ctx, "batch", gate, rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	analysis.Batch = batch

	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(analysis); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}

	return analysis, nil
}

// DescribeBatch returns the stored batch summary.
func (s *FlowService) DescribeBatch(ctx context.Context, batch string) (*domain.Batch, error) {
	if s.reports == nil {
		return nil, fmt.Errorf("describe batch %q: no report repository configured", batch)
	}
	return s.reports.GetBatch(ctx, batch)
}

// ListBatches returns every stored batch.
func (s *FlowService) ListBatches(ctx context.Context) ([]domain.Batch, error) {
	if s.reports == nil {
		return nil, fmt.Errorf("list batches: no report repository configured")
	}
	return s.reports.ListBatches(ctx)
}

// Publish sends a flow event when a publisher is configured.
func (s *FlowService) Publish(ctx context.Context, event domain.FlowEvent) error {
	if s.publisher == nil {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, telemetry.SpanPublishResult)
	defer span.End()
	return s.publisher.PublishFlowComputed(ctx, &event)
}

func (s *FlowService) loadBatch(ctx context.Context, batch string) ([]domain.RawReport, error) {
	ctx, span := s.tracer.Start(ctx, telemetry.SpanLoadBatch)
	defer span.End()

	rows, err := s.reports.ListByBatch(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("load batch %q: %w", batch, err)
	}
	return rows, nil
}

func (s *FlowService) analyze(ctx context.Context, source string, gate domain.GateLine, rows []domain.RawReport) (*domain.FlowAnalysis, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, telemetry.SpanAnalyze,
		trace.WithAttributes(attribute.Int(telemetry.AttrRawRows, len(rows))))
	defer span.End()

	fail := func(err error) (*domain.FlowAnalysis, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	_, sqSpan := s.tracer.Start(ctx, telemetry.SpanGateSquare)
	square, err := BuildGateSquare(gate)
	sqSpan.End()
	if err != nil {
		return fail(fmt.Errorf("gate square: %w", err))
	}

	sides := SquareSideLengths(square)
	slog.DebugContext(ctx, "gate square built",
		"points", square.Points,
		"side_lengths_nm", sides,
	)

	_, rfSpan := s.tracer.Start(ctx, telemetry.SpanRegionFilter)
	region, err := s.filter.Filter(rows, square)
	rfSpan.End()
	if err != nil {
		return fail(fmt.Errorf("region filter: %w", err))
	}

	metrics.ReportsProcessed.WithLabelValues(source).Add(float64(len(rows)))
	metrics.HeaderRowsDropped.Add(float64(region.HeaderRowsDropped))

	_, clSpan := s.tracer.Start(ctx, telemetry.SpanClassify)
	split, err := ClassifyCourse(region.Reports, gate, CountingCourseRange, CountingCourseRange)
	clSpan.End()
	if err != nil {
		return fail(fmt.Errorf("classify course: %w", err))
	}

	cntCtx, cntSpan := s.tracer.Start(ctx, telemetry.SpanCount)
	result, err := s.counter.CountSplit(cntCtx, split, gate)
	cntSpan.End()
	if err != nil {
		return fail(fmt.Errorf("count flow: %w", err))
	}

	up, down := directionCounts(result, split)
	metrics.VesselsCrossed.WithLabelValues("upstream").Add(float64(up))
	metrics.VesselsCrossed.WithLabelValues("downstream").Add(float64(down))
	metrics.AnalysisDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	span.SetAttributes(
		attribute.Int(telemetry.AttrInRegionRows, len(region.Reports)),
		attribute.Int(telemetry.AttrHeaderRowsDropped, region.HeaderRowsDropped),
		attribute.Int(telemetry.AttrVesselCount, result.Count),
	)

	return &domain.FlowAnalysis{
		ID:                uuid.NewString(),
		Gate:              gate,
		Square:            square,
		SideLengthsNM:     sides,
		RawRows:           len(rows),
		HeaderRowsDropped: region.HeaderRowsDropped,
		InRegionRows:      len(region.Reports),
		ClassifiedRows:    len(split.All),
		Split:             split,
		Result:            result,
		UpstreamCount:     up,
		DownstreamCount:   down,
		ComputedAt:        s.now().UTC(),
	}, nil
}

// directionCounts attributes each counted vessel to the direction table
// holding its representative row.
func directionCounts(result domain.FlowResult, split domain.CourseSplit) (up, down int) {
	upstream := make(map[domain.PositionReport]struct{}, len(split.Upstream))
	for _, r := range split.Upstream {
		upstream[r] = struct{}{}
	}
	for _, v := range result.Vessels {
		if _, ok := upstream[v]; ok {
			up++
		} else {
			down++
		}
	}
	return up, down
}

// flowCacheKey covers every input that changes an analysis of a stored batch.
func flowCacheKey(batch, headerToken string, gate domain.GateLine) string {
	p := geospatial.CoordinatePrecision
	return fmt.Sprintf("flow:%s:%q:%.*f:%.*f:%.*f:%.*f",
		batch, headerToken, p, gate.P1.Lat, p, gate.P1.Lon, p, gate.P2.Lat, p, gate.P2.Lon)
}
