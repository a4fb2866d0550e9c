package usecases

import (
	"fmt"

	"github.com/samirrijal/gateflow/internal/core/domain"
	"github.com/samirrijal/gateflow/internal/pkg/geospatial"
)

// CountingCourseRange is the window width, in degrees, FlowCounter uses for
// both directions.
const CountingCourseRange = 180.0

// ExpectedCourses returns the headings a vessel crossing the gate is expected
// to hold in each direction, in compass degrees.
func ExpectedCourses(gate domain.GateLine) (upstream, downstream float64, err error) {
	slope, err := geospatial.LineSlope(gate.P1.Lat, gate.P1.Lon, gate.P2.Lat, gate.P2.Lon)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", domain.ErrDegenerateGate, err)
	}
	bearing := geospatial.LineBearing(slope)

	offUp, offDown := 270.0, 90.0
	if bearing > 90 {
		offUp, offDown = 180, 0
	}

	upstream = geospatial.NormalizeCourse(90 - bearing + offUp + 360)
	downstream = geospatial.NormalizeCourse(90 - bearing + offDown + 360)
	return upstream, downstream, nil
}

// ClassifyCourse keeps the reports whose course lies strictly inside
// (expected - range/2, expected + range/2). The interval is compared on raw
// [0, 360) courses and does not wrap past north, so wide windows drop a band
// of northerly courses. The split holds the combined table and
// one table per direction, each in input order.
func ClassifyCourse(reports []domain.PositionReport, gate domain.GateLine, upRange, downRange float64) (domain.CourseSplit, error) {
	up, down, err := ExpectedCourses(gate)
	if err != nil {
		return domain.CourseSplit{}, err
	}

	split := domain.CourseSplit{
		All:               make([]domain.PositionReport, 0, len(reports)),
		Upstream:          []domain.PositionReport{},
		Downstream:        []domain.PositionReport{},
		UpstreamBearing:   up,
		DownstreamBearing: down,
	}

	for _, r := range reports {
		isUp := inCourseWindow(r.Cog, up, upRange)
		isDown := inCourseWindow(r.Cog, down, downRange)
		if isUp {
			split.Upstream = append(split.Upstream, r)
		}
		if isDown {
			split.Downstream = append(split.Downstream, r)
		}
		if isUp || isDown {
			split.All = append(split.All, r)
		}
	}

	return split, nil
}

func inCourseWindow(cog, expected, width float64) bool {
	return cog > expected-width/2 && cog < expected+width/2
}
