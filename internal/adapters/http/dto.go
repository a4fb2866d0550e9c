package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/samirrijal/gateflow/internal/core/domain"
	"github.com/samirrijal/gateflow/internal/pkg/geospatial"
)

// Angle is a coordinate given either as decimal degrees or as a
// "deg:min:sec" string.
type Angle float64

func (a *Angle) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*a = Angle(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("angle: expected number or string, got %s", data)
	}
	v, err := geospatial.ParseAngle(s)
	if err != nil {
		return err
	}
	*a = Angle(v)
	return nil
}

// Cell is one raw AIS value. Numbers and strings are both accepted and kept
// as text so that parsing, and its errors, stay in the analysis pipeline.
type Cell string

func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Cell(s)
	case string(data) == "null":
		*c = ""
	default:
		*c = Cell(data)
	}
	return nil
}

// GateRequest is a gate line in request bodies.
type GateRequest struct {
	Lat1 *Angle `json:"lat1" validate:"required,gte=-90,lte=90"`
	Lon1 *Angle `json:"lon1" validate:"required,gte=-180,lte=180"`
	Lat2 *Angle `json:"lat2" validate:"required,gte=-90,lte=90"`
	Lon2 *Angle `json:"lon2" validate:"required,gte=-180,lte=180"`
}

// GateLine converts a validated request into a gate.
func (g GateRequest) GateLine() (domain.GateLine, error) {
	return domain.NewGateLine(float64(*g.Lat1), float64(*g.Lon1), float64(*g.Lat2), float64(*g.Lon2))
}

// RowRequest is one AIS row of an inline analysis.
type RowRequest struct {
	MMSI   Cell `json:"mmsi"`
	Lat    Cell `json:"lat"`
	Lon    Cell `json:"lon"`
	Cog    Cell `json:"cog"`
	Length Cell `json:"length"`
	Speed  Cell `json:"speed"`
}

// FlowRequest is the body of POST /v1/flow. Inputs larger than the row cap
// go through the ingestor and the batch endpoints.
type FlowRequest struct {
	Gate GateRequest  `json:"gate"`
	Rows []RowRequest `json:"rows" validate:"max=200000"`
}

// RawReports returns the rows in pipeline form.
func (r FlowRequest) RawReports() []domain.RawReport {
	out := make([]domain.RawReport, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = domain.RawReport{
			MMSI:   string(row.MMSI),
			Lat:    string(row.Lat),
			Lon:    string(row.Lon),
			Cog:    string(row.Cog),
			Length: string(row.Length),
			Speed:  string(row.Speed),
		}
	}
	return out
}

// GateSquareResponse describes the square and the expected crossing courses
// of a gate.
type GateSquareResponse struct {
	Gate             domain.GateLine   `json:"gate"`
	Square           []domain.GeoPoint `json:"square"`
	SideLengthsNM    []float64         `json:"side_lengths_nm"`
	Bounds           domain.Bounds     `json:"bounds"`
	UpstreamCourse   float64           `json:"upstream_course"`
	DownstreamCourse float64           `json:"downstream_course"`
}

// validationMessage flattens validator errors into one client-facing line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
