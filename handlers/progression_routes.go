// handlers/progression_routes.go
package handlers

import (
	"errors"
	"log"
	"path/filepath"
	"strconv"

	"github.com/trishank991/penbotai-sub000/middleware"
	"github.com/trishank991/penbotai-sub000/models"
	"github.com/trishank991/penbotai-sub000/services"
	"github.com/trishank991/penbotai-sub000/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
)

func SetupProgressionRoutes(
	app *fiber.App,
	progressionService *services.ProgressionService,
	badgeService *services.BadgeService,
	challengeService *services.ChallengeService,
	dashboardService *services.DashboardService,
	authClient *services.AuthServiceClient,
) {
	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	// POST /user/events — the single ingest point feature routes call after a
	// student action (prompt analyzed, disclosure generated, …). Awards XP and
	// advances today's matching challenges. Challenge errors degrade to a
	// missing challenge payload; they never fail the award response.
	securedGroup.Post("/user/events", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			Action             string `json:"action"`
			Description        string `json:"description"`
			ReferenceType      string `json:"reference_type"`
			ReferenceID        string `json:"reference_id"`
			Score              *int64 `json:"score"`
			ScoreKind          string `json:"score_kind"`
			Improvement        *int64 `json:"improvement"`
			RequirementsMetPct *int64 `json:"requirements_met_pct"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		action := models.ActionType(req.Action)
		if !action.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "unknown action",
			})
		}

		opts := &services.AwardOptions{
			Description:   req.Description,
			ReferenceType: req.ReferenceType,
			ReferenceID:   req.ReferenceID,
		}
		if req.Score != nil || req.Improvement != nil || req.RequirementsMetPct != nil {
			bctx := &services.BadgeContext{}
			if req.Score != nil {
				bctx.Score = *req.Score
				bctx.ScoreKind = models.ScoreKind(req.ScoreKind)
			}
			if req.Improvement != nil {
				bctx.Improvement = *req.Improvement
			}
			if req.RequirementsMetPct != nil {
				bctx.RequirementsMetPct = *req.RequirementsMetPct
			}
			opts.Context = bctx
		}

		award, err := progressionService.AwardXP(userID, action, opts)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "XP award failed",
				"cause": err.Error(),
			})
		}

		response := fiber.Map{"award": award}
		if challenge, err := challengeService.RecordChallengeProgress(userID, action); err != nil {
			log.Printf("⚠️ challenge progress failed for %s: %v", userID, err)
		} else {
			response["challenge"] = challenge
		}

		return c.JSON(response)
	})

	// POST /user/scores — lifetime high-score submission (prompt|audit).
	securedGroup.Post("/user/scores", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		type Req struct {
			Kind  string `json:"kind"`
			Score int    `json:"score"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}

		result, err := progressionService.UpdateHighScore(userID, models.ScoreKind(req.Kind), req.Score)
		if err != nil {
			status := fiber.StatusInternalServerError
			if errors.Is(err, services.ErrScoreOutOfRange) || errors.Is(err, services.ErrUnknownScoreKind) {
				status = fiber.StatusBadRequest
			}
			return c.Status(status).JSON(fiber.Map{
				"error": "high score update failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(result)
	})

	securedGroup.Get("/user/dashboard", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		snapshot, err := dashboardService.GetDashboard(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to build dashboard",
				"cause": err.Error(),
			})
		}
		return c.JSON(snapshot)
	})

	securedGroup.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		prog, err := progressionService.EnsureProgressRecord(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load progress",
				"cause": err.Error(),
			})
		}
		return c.JSON(prog)
	})

	securedGroup.Get("/user/progress/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		history, err := progressionService.GetLedgerHistory(userID, page, size)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get history",
				"cause": err.Error(),
			})
		}
		return c.JSON(history)
	})

	securedGroup.Get("/user/progress/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		badges, err := badgeService.ListUserBadges(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get badges",
				"cause": err.Error(),
			})
		}
		return c.JSON(badges)
	})

	// SSE stream of new ledger entries (query-param auth; EventSource cannot
	// set headers).
	app.Get("/user/progress/stream", middleware.SSEAuthMiddleware(authClient), progressionService.StreamProgressSSE)

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	adminGroup.Post("/xp/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID string `json:"user_id"`
			XP     int64  `json:"xp"`
			Reason string `json:"reason"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if req.UserID == "" || req.XP < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "user_id and a positive xp amount are required",
			})
		}

		award, err := progressionService.AwardXP(req.UserID, models.ActionAdminGrant, &services.AwardOptions{
			CustomXP:    &req.XP,
			SkipStreak:  true,
			SkipBadges:  true,
			Description: req.Reason,
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "XP grant failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"message": "XP granted successfully",
			"user_id": req.UserID,
			"award":   award,
		})
	})

	// Badge icon upload: R2 when configured, local uploads dir otherwise.
	adminGroup.Post("/badges/:code/icon", func(c *fiber.Ctx) error {
		code := c.Params("code")
		if _, ok := models.BadgeByCode(code); !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "badge not in catalog",
			})
		}

		fileHeader, err := c.FormFile("icon")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "icon file is required",
			})
		}

		key := "badges/" + slug.Make(code) + filepath.Ext(fileHeader.Filename)
		var iconURL string
		if utils.R2Enabled() {
			iconURL, err = utils.UploadFileToR2(fileHeader, key)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "icon upload failed",
					"cause": err.Error(),
				})
			}
		} else {
			destPath := utils.GetUploadPath(key)
			if err := utils.SaveFile(fileHeader, destPath); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "icon save failed",
					"cause": err.Error(),
				})
			}
			iconURL = "/uploads/" + key
		}

		if err := badgeService.DB.Model(&models.BadgeDefinition{}).
			Where("code = ?", code).
			Update("icon_url", iconURL).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to store icon URL",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"message":  "icon updated",
			"code":     code,
			"icon_url": iconURL,
		})
	})
}
