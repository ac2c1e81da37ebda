package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/ridematch/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"direction":   &graphql.Field{Type: graphql.String},
			"district":    &graphql.Field{Type: graphql.String},
			"coordinates": &graphql.Field{Type: graphql.NewList(geoPointType)},
			"created_at":  &graphql.Field{Type: graphql.DateTime},
			"updated_at":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	routeDistanceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteDistance",
		Fields: graphql.Fields{
			"route":           &graphql.Field{Type: routeType},
			"distance_meters": &graphql.Field{Type: graphql.Float},
		},
	})

	planType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MatchPlan",
		Fields: graphql.Fields{
			"kind": &graphql.Field{
				Type:        graphql.String,
				Description: "single or double",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					switch plan := p.Source.(type) {
					case *domain.MatchPlan:
						return string(plan.Kind), nil
					case domain.MatchPlan:
						return string(plan.Kind), nil
					}
					return nil, nil
				},
			},
			"routes":   &graphql.Field{Type: graphql.NewList(routeType)},
			"transfer": &graphql.Field{Type: geoPointType},
		},
	})

	matchResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MatchResult",
		Fields: graphql.Fields{
			"found":     &graphql.Field{Type: graphql.Boolean},
			"threshold": &graphql.Field{Type: graphql.Float},
			"plan":      &graphql.Field{Type: planType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"routes": &graphql.Field{
				Type:        graphql.NewList(routeType),
				Description: "List the route catalog in insertion order",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultPageLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					offset := p.Args["offset"].(int)
					limit := p.Args["limit"].(int)
					if limit <= 0 || limit > maxPageLimit {
						limit = defaultPageLimit
					}
					routes, _, err := deps.Routes.ListPage(p.Context, offset, limit)
					return routes, err
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "Get a route by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Routes.GetByID(p.Context, id)
				},
			},
			"routesNearby": &graphql.Field{
				Type:        graphql.NewList(routeDistanceType),
				Description: "Routes passing near a location, closest first",
				Args: graphql.FieldConfigArgument{
					"lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: defaultRadius},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)}
					return deps.Routes.FindNearby(p.Context, pt, p.Args["radius"].(float64), p.Args["limit"].(int))
				},
			},
			"match": &graphql.Field{
				Type:        matchResultType,
				Description: "Find a single-ride or transfer plan between two points",
				Args: graphql.FieldConfigArgument{
					"from_lat":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"from_lon":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lat":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"to_lon":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"threshold": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := domain.MatchQuery{
						Origin:      domain.GeoPoint{Lat: p.Args["from_lat"].(float64), Lon: p.Args["from_lon"].(float64)},
						Destination: domain.GeoPoint{Lat: p.Args["to_lat"].(float64), Lon: p.Args["to_lon"].(float64)},
						Threshold:   p.Args["threshold"].(float64),
					}
					res, err := deps.Matches.Plan(p.Context, q)
					if err != nil {
						return nil, err
					}
					return &res, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil || req.Query == "" {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(result)
	}
}
