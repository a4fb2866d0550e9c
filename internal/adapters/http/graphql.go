package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/gateflow/internal/core/domain"
	"github.com/samirrijal/gateflow/internal/core/usecases"
)

// gateArgs are the four coordinates every gate query takes.
var gateArgs = graphql.FieldConfigArgument{
	"lat1": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	"lon1": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	"lat2": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
	"lon2": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
}

func gateFromArgs(args map[string]interface{}) (domain.GateLine, error) {
	return domain.NewGateLine(
		args["lat1"].(float64), args["lon1"].(float64),
		args["lat2"].(float64), args["lon2"].(float64),
	)
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	gateSquareType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GateSquare",
		Fields: graphql.Fields{
			"points":            &graphql.Field{Type: graphql.NewList(geoPointType)},
			"side_lengths_nm":   &graphql.Field{Type: graphql.NewList(graphql.Float)},
			"upstream_course":   &graphql.Field{Type: graphql.Float},
			"downstream_course": &graphql.Field{Type: graphql.Float},
		},
	})

	coursesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ExpectedCourses",
		Fields: graphql.Fields{
			"upstream":   &graphql.Field{Type: graphql.Float},
			"downstream": &graphql.Field{Type: graphql.Float},
		},
	})

	vesselType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Vessel",
		Fields: graphql.Fields{
			// MMSIs are identifiers, not quantities.
			"mmsi": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return strconv.FormatInt(p.Source.(domain.PositionReport).MMSI, 10), nil
				},
			},
			"lat":    &graphql.Field{Type: graphql.Float},
			"lon":    &graphql.Field{Type: graphql.Float},
			"cog":    &graphql.Field{Type: graphql.Float},
			"length": &graphql.Field{Type: graphql.Float},
			"speed":  &graphql.Field{Type: graphql.Float},
		},
	})

	flowType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FlowAnalysis",
		Fields: graphql.Fields{
			"id":                  &graphql.Field{Type: graphql.String},
			"batch":               &graphql.Field{Type: graphql.String},
			"raw_rows":            &graphql.Field{Type: graphql.Int},
			"header_rows_dropped": &graphql.Field{Type: graphql.Int},
			"in_region_rows":      &graphql.Field{Type: graphql.Int},
			"classified_rows":     &graphql.Field{Type: graphql.Int},
			"upstream_count":      &graphql.Field{Type: graphql.Int},
			"downstream_count":    &graphql.Field{Type: graphql.Int},
			"computed_at":         &graphql.Field{Type: graphql.DateTime},
			"count": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.FlowAnalysis).Result.Count, nil
				},
			},
			"vessels": &graphql.Field{
				Type: graphql.NewList(vesselType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.FlowAnalysis).Result.Vessels, nil
				},
			},
			"square": &graphql.Field{
				Type: graphql.NewList(geoPointType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*domain.FlowAnalysis).Square.Points[:], nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"gateSquare": &graphql.Field{
				Type:        gateSquareType,
				Description: "Bounding square and expected crossing courses of a gate",
				Args:        gateArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					gate, err := gateFromArgs(p.Args)
					if err != nil {
						return nil, err
					}
					square, err := usecases.BuildGateSquare(gate)
					if err != nil {
						return nil, err
					}
					up, down, err := usecases.ExpectedCourses(gate)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"points":            square.Points[:],
						"side_lengths_nm":   usecases.SquareSideLengths(square),
						"upstream_course":   up,
						"downstream_course": down,
					}, nil
				},
			},
			"expectedCourses": &graphql.Field{
				Type:        coursesType,
				Description: "Headings a vessel crossing the gate is expected to hold",
				Args:        gateArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					gate, err := gateFromArgs(p.Args)
					if err != nil {
						return nil, err
					}
					up, down, err := usecases.ExpectedCourses(gate)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"upstream": up, "downstream": down}, nil
				},
			},
			"batchFlow": &graphql.Field{
				Type:        flowType,
				Description: "Count the vessels of a stored batch crossing a gate",
				Args: graphql.FieldConfigArgument{
					"batch": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lat1":  gateArgs["lat1"],
					"lon1":  gateArgs["lon1"],
					"lat2":  gateArgs["lat2"],
					"lon2":  gateArgs["lon2"],
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					gate, err := gateFromArgs(p.Args)
					if err != nil {
						return nil, err
					}
					return deps.Flows.AnalyzeBatch(p.Context, p.Args["batch"].(string), gate)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: queryType})
}

// GraphQLHandler serves POST /graphql.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema: " + err.Error())
	}

	return func(c *fiber.Ctx) error {
		var body struct {
			Query         string                 `json:"query"`
			OperationName string                 `json:"operationName"`
			Variables     map[string]interface{} `json:"variables"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  body.Query,
			VariableValues: body.Variables,
			OperationName:  body.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
