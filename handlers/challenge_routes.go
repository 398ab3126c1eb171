// handlers/challenge_routes.go
package handlers

import (
	"time"

	"github.com/trishank991/penbotai-sub000/middleware"
	"github.com/trishank991/penbotai-sub000/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, challengeService *services.ChallengeService) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	// GET /user/challenges — today's challenges with the caller's progress
	secured.Get("/user/challenges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		statuses, err := challengeService.UserChallengeStatuses(userID, time.Now())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get challenges",
				"cause": err.Error(),
			})
		}
		return c.JSON(statuses)
	})

	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	// POST /s/admin/challenges/seed — manual re-seed (idempotent); accepts an
	// optional date for backfill.
	admin.Post("/challenges/seed", func(c *fiber.Ctx) error {
		type Req struct {
			Date string `json:"date"` // YYYY-MM-DD, defaults to today
		}
		var req Req
		_ = c.BodyParser(&req)

		day := time.Now().UTC()
		if req.Date != "" {
			parsed, err := time.Parse("2006-01-02", req.Date)
			if err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "date must be YYYY-MM-DD",
				})
			}
			day = parsed
		}

		if err := challengeService.SeedDailyChallenges(day); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "seed failed",
				"cause": err.Error(),
			})
		}

		challenges, err := challengeService.ActiveChallenges(day)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load seeded challenges",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"message":    "challenges seeded",
			"date":       day.Format("2006-01-02"),
			"challenges": challenges,
		})
	})
}
