package ride

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Post("/start", func(c *fiber.Ctx) error {
		var req struct {
			UserID        string    `json:"user_id"`
			StartLocation *Location `json:"start_location"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		sess, err := svc.Start(c.Context(), req.UserID, req.StartLocation)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"ride_id":    sess.RideID,
			"user_id":    sess.UserID,
			"start_time": sess.StartTime,
			"message":    "Ride session started.",
		})
	})

	r.Post("/update", func(c *fiber.Ctx) error {
		var req UpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.RideID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "ride_id is required")
		}
		updated, err := svc.Update(c.Context(), req)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{
			"ride_id":        req.RideID,
			"message":        "Ride metrics updated successfully.",
			"updated_fields": updated,
		})
	})

	r.Post("/finish", func(c *fiber.Ctx) error {
		var req FinishRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.RideID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "ride_id is required")
		}
		if req.EndLocation == nil {
			return fiber.NewError(fiber.StatusBadRequest, "end_location is required")
		}
		summary, err := svc.Finish(c.Context(), req.RideID, req.EndLocation, req.Weather)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{
			"ride_id": req.RideID,
			"message": "Ride session finished successfully.",
			"summary": summary,
		})
	})

	r.Post("/pause", func(c *fiber.Ctx) error {
		rideID, err := rideIDFromBody(c)
		if err != nil {
			return err
		}
		if err := svc.Pause(c.Context(), rideID); err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{
			"ride_id": rideID,
			"message": "Ride session paused.",
		})
	})

	r.Post("/resume", func(c *fiber.Ctx) error {
		rideID, err := rideIDFromBody(c)
		if err != nil {
			return err
		}
		if err := svc.Resume(c.Context(), rideID); err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{
			"ride_id": rideID,
			"message": "Ride session resumed.",
		})
	})

	r.Get("/active", func(c *fiber.Ctx) error {
		sessions, err := svc.Active(c.Context(), c.Query("user_id"))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(fiber.Map{
			"count":    len(sessions),
			"sessions": sessions,
		})
	})
}

func rideIDFromBody(c *fiber.Ctx) (string, error) {
	var body struct {
		RideID string `json:"ride_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if body.RideID == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "ride_id is required")
	}
	return body.RideID, nil
}

func httpError(err error) *fiber.Error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidMetric):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSessionNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
