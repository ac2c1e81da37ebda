package http

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/ridematch/internal/core/domain"
)

const defaultRadius = 500.0

// ListRoutesHandler returns the catalog, paginated with offset/limit.
func ListRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pg := pageFromQuery(c)
		routes, total, err := deps.Routes.ListPage(c.UserContext(), pg.Offset, pg.Limit)
		if err != nil {
			return respondError(c, err)
		}

		pg.Total = total
		setPageHeaders(c, pg)
		return c.JSON(Page[domain.Route]{Data: routes, Pagination: pg})
	}
}

// GetRouteHandler returns a single route by ID.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		route, err := deps.Routes.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(route)
	}
}

// NearbyRoutesHandler returns routes passing within radius meters of a point.
func NearbyRoutesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, err1 := queryFloat(c, "lat")
		lon, err2 := queryFloat(c, "lon")
		if err1 != nil || err2 != nil {
			return errBadRequest(c, "lat and lon are required numbers")
		}
		radius := c.QueryFloat("radius", defaultRadius)
		limit := c.QueryInt("limit", 0)

		routes, err := deps.Routes.FindNearby(c.UserContext(), domain.GeoPoint{Lat: lat, Lon: lon}, radius, limit)
		if err != nil {
			return respondError(c, err)
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(routes)
	}
}

// ExportKMLHandler returns the catalog as a KML document.
func ExportKMLHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var buf bytes.Buffer
		if err := deps.Routes.ExportKML(c.UserContext(), &buf); err != nil {
			return respondError(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/vnd.google-earth.kml+xml")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="routes.kml"`)
		return c.Send(buf.Bytes())
	}
}

// CreateRouteHandler adds a route to the catalog.
func CreateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.RouteInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		route, err := deps.Routes.Create(c.UserContext(), in)
		if err != nil {
			return respondError(c, err)
		}

		c.Location("/v1/routes/" + route.ID)
		return c.Status(fiber.StatusCreated).JSON(route)
	}
}

// UpdateRouteHandler replaces a route. The ID comes from the path.
func UpdateRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in domain.RouteInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		route, err := deps.Routes.Update(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(route)
	}
}

// DeleteRouteHandler removes a route.
func DeleteRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Routes.Delete(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MatchQueryHandler answers GET /v1/match?from_lat&from_lon&to_lat&to_lon[&threshold].
func MatchQueryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q domain.MatchQuery
		var errs []error
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"from_lat", &q.Origin.Lat},
			{"from_lon", &q.Origin.Lon},
			{"to_lat", &q.Destination.Lat},
			{"to_lon", &q.Destination.Lon},
		} {
			v, err := queryFloat(c, f.name)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			*f.dst = v
		}
		if len(errs) > 0 {
			return errBadRequest(c, "from_lat, from_lon, to_lat and to_lon are required numbers")
		}
		q.Threshold = c.QueryFloat("threshold", 0)

		return runMatch(c, deps, q)
	}
}

// matchRequest is the POST /v1/match body. Pointers tell a missing point
// apart from (0, 0).
type matchRequest struct {
	Origin      *domain.GeoPoint `json:"origin"`
	Destination *domain.GeoPoint `json:"destination"`
	Threshold   float64          `json:"threshold"`
}

// MatchBodyHandler answers POST /v1/match with a JSON body.
func MatchBodyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req matchRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Origin == nil || req.Destination == nil {
			return errBadRequest(c, "origin and destination are required")
		}
		return runMatch(c, deps, domain.MatchQuery{
			Origin:      *req.Origin,
			Destination: *req.Destination,
			Threshold:   req.Threshold,
		})
	}
}

func runMatch(c *fiber.Ctx, deps *Dependencies, q domain.MatchQuery) error {
	res, err := deps.Matches.Plan(c.UserContext(), q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// queryFloat parses a required float query parameter.
func queryFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
