package domain

import (
	"time"
)

// RawReport is one untyped ingestion row as it arrived from an AIS export.
// Concatenated exports keep their repeated header rows, so a RawReport may
// hold column names instead of values.
type RawReport struct {
	MMSI   string `json:"mmsi"`
	Lat    string `json:"lat"`
	Lon    string `json:"lon"`
	Cog    string `json:"cog"`
	Length string `json:"length"`
	Speed  string `json:"speed"`
}

// PositionReport is a typed vessel position.
type PositionReport struct {
	MMSI   int64   `json:"mmsi"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Cog    float64 `json:"cog"` // compass degrees, 0-360
	Length float64 `json:"length"`
	Speed  float64 `json:"speed"` // knots
}

// Point returns the report's position.
func (r PositionReport) Point() GeoPoint {
	return GeoPoint{Lat: r.Lat, Lon: r.Lon}
}

// CourseSplit partitions reports by the two expected crossing headings.
type CourseSplit struct {
	All               []PositionReport `json:"all"`
	Upstream          []PositionReport `json:"upstream"`
	Downstream        []PositionReport `json:"downstream"`
	UpstreamBearing   float64          `json:"upstream_bearing"`
	DownstreamBearing float64          `json:"downstream_bearing"`
}

// FlowResult holds one representative report per vessel that crossed the gate.
type FlowResult struct {
	Count   int              `json:"count"`
	Vessels []PositionReport `json:"vessels"`
}

// FlowAnalysis is the outcome of analysing one batch against one gate.
type FlowAnalysis struct {
	ID                string         `json:"id"`
	Batch             string         `json:"batch,omitempty"`
	Gate              GateLine       `json:"gate"`
	Square            BoundingSquare `json:"square"`
	SideLengthsNM     []float64      `json:"side_lengths_nm"`
	RawRows           int            `json:"raw_rows"`
	HeaderRowsDropped int            `json:"header_rows_dropped"`
	InRegionRows      int            `json:"in_region_rows"`
	ClassifiedRows    int            `json:"classified_rows"`
	Split             CourseSplit    `json:"split"`
	Result            FlowResult     `json:"result"`
	UpstreamCount     int            `json:"upstream_count"`
	DownstreamCount   int            `json:"downstream_count"`
	ComputedAt        time.Time      `json:"computed_at"`
}

// Event returns the summary published after an analysis completes.
func (a *FlowAnalysis) Event() FlowEvent {
	return FlowEvent{
		AnalysisID:      a.ID,
		Batch:           a.Batch,
		Gate:            a.Gate,
		Count:           a.Result.Count,
		UpstreamCount:   a.UpstreamCount,
		DownstreamCount: a.DownstreamCount,
		ComputedAt:      a.ComputedAt,
	}
}

// FlowEvent is the message broadcast when a flow count is computed.
type FlowEvent struct {
	AnalysisID      string    `json:"analysis_id"`
	Batch           string    `json:"batch,omitempty"`
	GateName        string    `json:"gate_name,omitempty"` // set for configured gates
	Gate            GateLine  `json:"gate"`
	Count           int       `json:"count"`
	UpstreamCount   int       `json:"upstream_count"`
	DownstreamCount int       `json:"downstream_count"`
	ComputedAt      time.Time `json:"computed_at"`
}

// Batch summarises a set of rows loaded together by the ingestor.
type Batch struct {
	Name     string    `json:"name"`
	Rows     int       `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

// BatchIngested is published once the ingestor has committed a batch.
type BatchIngested struct {
	Batch string    `json:"batch"`
	Rows  int       `json:"rows"`
	At    time.Time `json:"at"`
}

// NamedGate is a gate line registered in configuration for automatic analysis.
type NamedGate struct {
	Name string   `json:"name"`
	Gate GateLine `json:"gate"`
}
