package weather

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/weather", func(c *fiber.Ctx) error {
		q := ReportQuery{
			Location:   c.Query("location", "臺北市"),
			IncludeAQI: !strings.EqualFold(c.Query("include_aqi", "true"), "false"),
		}
		if lat, err := strconv.ParseFloat(c.Query("lat"), 64); err == nil {
			q.Lat = &lat
		}
		if lng, err := strconv.ParseFloat(c.Query("lng"), 64); err == nil {
			q.Lng = &lng
		}
		return c.JSON(svc.Report(c.Context(), q))
	})
}
