package http

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	kmlexport "github.com/samirrijal/gateflow/internal/adapters/kml"
	"github.com/samirrijal/gateflow/internal/core/domain"
	"github.com/samirrijal/gateflow/internal/core/usecases"
	"github.com/samirrijal/gateflow/internal/pkg/geospatial"
)

const kmlContentType = "application/vnd.google-earth.kml+xml"

// AnalyzeFlowHandler counts the vessels of inline rows crossing the posted gate.
func AnalyzeFlowHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req FlowRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}
		if err := deps.Validate.Struct(req); err != nil {
			return errBadRequest(c, validationMessage(err))
		}

		gate, err := req.Gate.GateLine()
		if err != nil {
			return errFromService(c, err)
		}

		analysis, err := deps.Flows.Analyze(c.UserContext(), gate, req.RawReports())
		if err != nil {
			return errFromService(c, err)
		}

		c.Set("Cache-Control", "no-store")
		return sendAnalysis(c, analysis)
	}
}

// ListBatchesHandler returns the stored report batches.
func ListBatchesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		batches, err := deps.Flows.ListBatches(c.UserContext())
		if err != nil {
			return errFromService(c, err)
		}

		return c.JSON(paginate(c, batches))
	}
}

// GetBatchHandler returns one batch summary.
func GetBatchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		batch, err := deps.Flows.DescribeBatch(c.UserContext(), c.Params("batch"))
		if err != nil {
			return errFromService(c, err)
		}
		return c.JSON(batch)
	}
}

// BatchFlowHandler analyses a stored batch against the gate given as
// lat1, lon1, lat2 and lon2 query parameters.
func BatchFlowHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gate, err := gateFromQuery(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		analysis, err := deps.Flows.AnalyzeBatch(c.UserContext(), c.Params("batch"), gate)
		if err != nil {
			return errFromService(c, err)
		}
		return sendAnalysis(c, analysis)
	}
}

// GateSquareHandler returns the bounding square and expected crossing
// courses of the posted gate.
func GateSquareHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req GateRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}
		if err := deps.Validate.Struct(req); err != nil {
			return errBadRequest(c, validationMessage(err))
		}

		gate, err := req.GateLine()
		if err != nil {
			return errFromService(c, err)
		}
		square, err := usecases.BuildGateSquare(gate)
		if err != nil {
			return errFromService(c, err)
		}

		if c.Query("format") == "kml" {
			var buf bytes.Buffer
			if err := kmlexport.WriteSquare(&buf, gate, square); err != nil {
				return errFromService(c, err)
			}
			c.Set(fiber.HeaderContentType, kmlContentType)
			return c.Send(buf.Bytes())
		}

		up, down, err := usecases.ExpectedCourses(gate)
		if err != nil {
			return errFromService(c, err)
		}

		return c.JSON(GateSquareResponse{
			Gate:             gate,
			Square:           square.Points[:],
			SideLengthsNM:    usecases.SquareSideLengths(square),
			Bounds:           square.Bounds(),
			UpstreamCourse:   up,
			DownstreamCourse: down,
		})
	}
}

// sendAnalysis writes an analysis as JSON, or as KML with ?format=kml.
// The per-direction tables are large and only included with ?split=true.
func sendAnalysis(c *fiber.Ctx, a *domain.FlowAnalysis) error {
	switch format := c.Query("format", "json"); format {
	case "kml":
		var buf bytes.Buffer
		if err := kmlexport.WriteAnalysis(&buf, a); err != nil {
			return errFromService(c, err)
		}
		c.Set(fiber.HeaderContentType, kmlContentType)
		return c.Send(buf.Bytes())
	case "json":
		view := *a
		if !c.QueryBool("split", false) {
			view.Split.All = nil
			view.Split.Upstream = nil
			view.Split.Downstream = nil
		}
		return c.JSON(view)
	default:
		return errBadRequest(c, fmt.Sprintf("unsupported format %q (use json or kml)", format))
	}
}

// gateFromQuery reads a gate from query parameters. Each coordinate may be
// decimal degrees or deg:min:sec.
func gateFromQuery(c *fiber.Ctx) (domain.GateLine, error) {
	names := [4]string{"lat1", "lon1", "lat2", "lon2"}
	var v [4]float64
	for i, name := range names {
		raw := c.Query(name)
		if raw == "" {
			return domain.GateLine{}, errors.New("lat1, lon1, lat2 and lon2 are required")
		}
		f, err := geospatial.ParseAngle(raw)
		if err != nil {
			return domain.GateLine{}, fmt.Errorf("%s: %w", name, err)
		}
		limit := 90.0
		if name[:3] == "lon" {
			limit = 180
		}
		if f < -limit || f > limit {
			return domain.GateLine{}, fmt.Errorf("%s: %v out of range", name, f)
		}
		v[i] = f
	}
	return domain.NewGateLine(v[0], v[1], v[2], v[3])
}
