package station

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/nearby", func(c *fiber.Ctx) error {
		lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
		lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
		if latErr != nil || lngErr != nil {
			return fiber.NewError(fiber.StatusBadRequest, "both 'lat' and 'lng' are required")
		}

		q := NearbyQuery{
			Lat:      lat,
			Lng:      lng,
			RadiusM:  queryFloat(c, "radius", 1000),
			Limit:    queryInt(c, "limit", 10),
			Type:     c.Query("type"),
			MinBikes: queryInt(c, "min_bikes", 1),
		}
		fc, err := svc.Nearby(c.Context(), q)
		if err != nil {
			return feedError(err)
		}
		return c.JSON(fc)
	})

	r.Get("/available", func(c *fiber.Ctx) error {
		fc, err := svc.Available(c.Context(), queryInt(c, "min_bikes", 1), queryInt(c, "limit", 0))
		if err != nil {
			return feedError(err)
		}
		return c.JSON(fc)
	})

	r.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := svc.Stats(c.Context())
		if err != nil {
			return feedError(err)
		}
		return c.JSON(stats)
	})

	r.Get("/area/:area", func(c *fiber.Ctx) error {
		area, err := url.PathUnescape(c.Params("area"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid area")
		}
		fc, svcErr := svc.ByArea(c.Context(), area)
		if svcErr != nil {
			return feedError(svcErr)
		}
		return c.JSON(fc)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		feature, err := svc.ByID(c.Context(), c.Params("id"))
		if errors.Is(err, ErrStationNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "station not found")
		}
		if err != nil {
			return feedError(err)
		}
		return c.JSON(feature)
	})
}

func feedError(err error) *fiber.Error {
	if errors.Is(err, ErrFeedUnavailable) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(c *fiber.Ctx, key string, fallback float64) float64 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
