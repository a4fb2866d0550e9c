package usecases

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samirrijal/gateflow/internal/core/domain"
)

// DefaultHeaderToken is the Lat value of a header row that leaked into the
// data when several exports were concatenated.
const DefaultHeaderToken = "Lat"

// RegionFilterResult is the typed, in-region, de-duplicated report table.
type RegionFilterResult struct {
	Reports           []domain.PositionReport
	HeaderRowsDropped int
}

// RegionFilter narrows raw rows to the neighbourhood of a gate.
type RegionFilter struct {
	HeaderToken string
}

func (f RegionFilter) headerToken() string {
	if f.HeaderToken == "" {
		return DefaultHeaderToken
	}
	return f.HeaderToken
}

// FilterRegion applies a RegionFilter using DefaultHeaderToken.
func FilterRegion(rows []domain.RawReport, square domain.BoundingSquare) (RegionFilterResult, error) {
	return RegionFilter{HeaderToken: DefaultHeaderToken}.Filter(rows, square)
}

// Filter drops header rows, parses the remaining rows, keeps those inside
// the square's axis-aligned box and removes repeated (mmsi, cog, lat, lon)
// rows. The box is wider than the square itself; FlowCounter does the
// precise work.
func (f RegionFilter) Filter(rows []domain.RawReport, square domain.BoundingSquare) (RegionFilterResult, error) {
	token := f.headerToken()

	type dedupKey struct {
		mmsi          int64
		cog, lat, lon float64
	}

	bounds := square.Bounds()
	seen := make(map[dedupKey]struct{})
	res := RegionFilterResult{Reports: make([]domain.PositionReport, 0, len(rows))}

	for i, row := range rows {
		if strings.TrimSpace(row.Lat) == token {
			res.HeaderRowsDropped++
			continue
		}

		r, err := ParseReport(row)
		if err != nil {
			return RegionFilterResult{}, fmt.Errorf("row %d: %w", i, err)
		}

		if !bounds.Contains(r.Point()) {
			continue
		}

		key := dedupKey{mmsi: r.MMSI, cog: r.Cog, lat: r.Lat, lon: r.Lon}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		res.Reports = append(res.Reports, r)
	}

	return res, nil
}

// ParseReport converts a raw row into a typed report. Failures wrap
// domain.ErrSchema and name the offending column.
func ParseReport(row domain.RawReport) (domain.PositionReport, error) {
	var (
		r   domain.PositionReport
		err error
	)
	if r.MMSI, err = parseMMSI(row.MMSI); err != nil {
		return r, schemaErr("mmsi", row.MMSI, err)
	}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"lat", row.Lat, &r.Lat},
		{"lon", row.Lon, &r.Lon},
		{"cog", row.Cog, &r.Cog},
		{"length", row.Length, &r.Length},
		{"speed", row.Speed, &r.Speed},
	}
	for _, fd := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(fd.raw), 64)
		if err != nil {
			return r, schemaErr(fd.name, fd.raw, err)
		}
		*fd.dst = v
	}
	return r, nil
}

// parseMMSI accepts integer text and integral floats such as "413000000.0",
// which some exporters emit.
func parseMMSI(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("non-integral identifier %q", s)
	}
	return int64(f), nil
}

func schemaErr(column, value string, cause error) error {
	return fmt.Errorf("%w: column %s value %q: %v", domain.ErrSchema, column, value, cause)
}
