package history

import (
	"errors"
	"strconv"

	"github.com/tedlu-tw/townpass-dev/internal/ride"

	"github.com/gofiber/fiber/v2"
)

type saveRideRequest struct {
	UserID string `json:"user_id"`
	ride.Record
}

func RegisterRoutes(r fiber.Router, store *Store) {
	// Manual save for rides tracked outside a live session.
	r.Post("/rides", func(c *fiber.Ctx) error {
		var req saveRideRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if req.UserID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id is required")
		}
		if err := store.EnsureUser(c.Context(), req.UserID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		rideID, err := store.SaveRide(c.Context(), req.UserID, req.Record)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"ride_id": rideID,
			"message": "Ride saved successfully",
		})
	})

	r.Get("/rides", func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id is required")
		}
		limit := queryInt(c, "limit", 20)
		skip := queryInt(c, "skip", 0)

		rides, err := store.ListRides(c.Context(), userID, limit, skip)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"user_id": userID,
			"count":   len(rides),
			"rides":   rides,
		})
	})

	r.Get("/rides/:id", func(c *fiber.Ctx) error {
		ride, err := store.GetRide(c.Context(), c.Params("id"), c.Query("user_id"))
		if errors.Is(err, ErrRideNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "ride not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"ride": ride})
	})

	r.Delete("/rides/:id", func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id is required")
		}
		err := store.DeleteRide(c.Context(), c.Params("id"), userID)
		if errors.Is(err, ErrRideNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "ride not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "Ride deleted.",
		})
	})

	r.Get("/stats", func(c *fiber.Ctx) error {
		userID := c.Query("user_id")
		if userID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "user_id is required")
		}
		stats, err := store.Stats(c.Context(), userID)
		if errors.Is(err, ErrRideNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"user_id": userID,
			"stats":   stats,
		})
	})
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
