package usecases

import (
	"context"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/gateflow/internal/core/domain"
)

// FlowCounter decides, per vessel, whether its track crosses the gate.
type FlowCounter struct {
	workers int
}

// NewFlowCounter creates a FlowCounter evaluating up to workers vessels
// concurrently. Non-positive values use GOMAXPROCS.
func NewFlowCounter(workers int) *FlowCounter {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &FlowCounter{workers: workers}
}

// Count classifies reports with the counting windows and hands the split to
// CountSplit.
func (fc *FlowCounter) Count(ctx context.Context, reports []domain.PositionReport, gate domain.GateLine) (domain.FlowResult, error) {
	split, err := ClassifyCourse(reports, gate, CountingCourseRange, CountingCourseRange)
	if err != nil {
		return domain.FlowResult{}, err
	}
	return fc.CountSplit(ctx, split, gate)
}

// CountSplit keeps one representative row per vessel of split.All whose
// positions straddle the gate on its separating axis. split must come from
// ClassifyCourse with CountingCourseRange windows.
//
// The separating axis is latitude when the gate spans less latitude than
// longitude, longitude otherwise. Against the gate's extent on that axis a
// vessel counts when it has reports both at-or-beyond and short of either
// edge, or more than two reports on the inner side of both edges.
func (fc *FlowCounter) CountSplit(ctx context.Context, split domain.CourseSplit, gate domain.GateLine) (domain.FlowResult, error) {
	if gate.P1 == gate.P2 {
		return domain.FlowResult{}, domain.ErrDegenerateGate
	}

	useLat := math.Abs(gate.P2.Lat-gate.P1.Lat) <= math.Abs(gate.P2.Lon-gate.P1.Lon)
	axis := func(r domain.PositionReport) float64 {
		if useLat {
			return r.Lat
		}
		return r.Lon
	}
	axisMin, axisMax := math.Min(axis(reportAt(gate.P1)), axis(reportAt(gate.P2))),
		math.Max(axis(reportAt(gate.P1)), axis(reportAt(gate.P2)))

	// Candidates in first-appearance order; the first row represents the vessel.
	var candidates []domain.PositionReport
	tracks := make(map[int64][]float64)
	for _, r := range split.All {
		if _, ok := tracks[r.MMSI]; !ok {
			candidates = append(candidates, r)
		}
		tracks[r.MMSI] = append(tracks[r.MMSI], axis(r))
	}

	crossed := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fc.workers)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			crossed[i] = crossesGate(tracks[c.MMSI], axisMin, axisMax)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.FlowResult{}, err
	}

	vessels := make([]domain.PositionReport, 0, len(candidates))
	for i, c := range candidates {
		if crossed[i] {
			vessels = append(vessels, c)
		}
	}

	slog.InfoContext(ctx, "flow counted",
		"count", len(vessels),
		"candidates", len(candidates),
		"classified_rows", len(split.All),
	)

	return domain.FlowResult{Count: len(vessels), Vessels: vessels}, nil
}

// crossesGate evaluates the crossing predicate over one vessel's axis values.
func crossesGate(values []float64, axisMin, axisMax float64) bool {
	var d, x, dd, xx int
	for _, v := range values {
		if v >= axisMax {
			d++
		} else {
			x++
		}
		if v <= axisMin {
			dd++
		} else {
			xx++
		}
	}
	return (d > 0 && x > 0) || (dd > 0 && xx > 0) || (x > 2 && xx > 2)
}

func reportAt(p domain.GeoPoint) domain.PositionReport {
	return domain.PositionReport{Lat: p.Lat, Lon: p.Lon}
}
