// handlers/progression_routes.go
package handlers

import (
	"strings"

	"softtennis-coach/catalog"
	"softtennis-coach/middleware"
	"softtennis-coach/models"
	"softtennis-coach/services"

	"github.com/gofiber/fiber/v2"
)

type addAnalysisRequest struct {
	SessionID      string             `json:"session_id"`
	OverallScore   *float64           `json:"overall_score"`
	Angle          string             `json:"angle"`
	CategoryScores map[string]float64 `json:"category_scores"`
}

type awardBadgeRequest struct {
	BadgeID string `json:"badge_id"`
	Reason  string `json:"reason"`
}

type badgeDefinitionResponse struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Icon        string                `json:"icon"`
	AutoAward   bool                  `json:"auto_award"`
	Condition   catalog.ConditionSpec `json:"condition"`
}

func SetupProgressionRoutes(app *fiber.App, progressionService *services.ProgressionService) {
	app.Get("/progress/:user_id", func(c *fiber.Ctx) error {
		return c.JSON(progressOrDefault(progressionService, c.Params("user_id")))
	})

	app.Post("/progress/:user_id/analyses", func(c *fiber.Ctx) error {
		return addAnalysis(c, progressionService, c.Params("user_id"))
	})

	app.Post("/progress/:user_id/badge", func(c *fiber.Ctx) error {
		userID := c.Params("user_id")

		var req awardBadgeRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid JSON",
					"cause": err.Error(),
				})
			}
		}
		if req.BadgeID == "" {
			req.BadgeID = c.Query("badge_id")
		}
		if req.BadgeID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "badge_id is required",
			})
		}

		if !progressionService.AwardBadgeWithReason(c.UserContext(), userID, req.BadgeID, req.Reason) {
			return c.JSON(fiber.Map{
				"success": false,
				"message": "failed to award badge",
			})
		}
		return c.JSON(fiber.Map{
			"success": true,
			"message": "badge '" + req.BadgeID + "' awarded",
		})
	})

	app.Get("/progress/:user_id/badges", func(c *fiber.Ctx) error {
		badges, ok := progressionService.UserBadges(c.Params("user_id"))
		if !ok {
			badges = []models.Badge{}
		}
		return c.JSON(badges)
	})

	app.Get("/progress/:user_id/badges/stream", func(c *fiber.Ctx) error {
		return StreamUserBadgesSSE(c, progressionService, c.Params("user_id"))
	})

	app.Get("/catalog/levels", func(c *fiber.Ctx) error {
		return c.JSON(progressionService.Levels.Catalog().Levels())
	})

	app.Get("/catalog/badges", func(c *fiber.Ctx) error {
		defs := progressionService.Badges.Catalog().Definitions()
		out := make([]badgeDefinitionResponse, 0, len(defs))
		for _, d := range defs {
			out = append(out, badgeDefinitionResponse{
				ID:          d.ID,
				Name:        d.Name,
				Description: d.Description,
				Icon:        d.Icon,
				AutoAward:   d.AutoAward,
				Condition:   catalog.SpecOf(d.Condition),
			})
		}
		return c.JSON(out)
	})

	// 🔐 Routes for the signed-in user; the gateway forwards X-User-ID.
	securedGroup := app.Group("/user", middleware.UserContextMiddleware())

	securedGroup.Get("/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		return c.JSON(progressOrDefault(progressionService, userID))
	})

	securedGroup.Post("/progress/analyses", func(c *fiber.Ctx) error {
		return addAnalysis(c, progressionService, c.Locals("user_id").(string))
	})

	securedGroup.Get("/progress/badges", func(c *fiber.Ctx) error {
		badges, ok := progressionService.UserBadges(c.Locals("user_id").(string))
		if !ok {
			badges = []models.Badge{}
		}
		return c.JSON(badges)
	})
}

func progressOrDefault(progressionService *services.ProgressionService, userID string) services.ProgressSnapshot {
	snapshot, ok := progressionService.GetUserProgress(userID)
	if !ok {
		return progressionService.DefaultProgress(userID)
	}
	return snapshot
}

func addAnalysis(c *fiber.Ctx, progressionService *services.ProgressionService, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	var req addAnalysisRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON",
			"cause": err.Error(),
		})
	}
	if req.OverallScore == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "overall_score is required",
		})
	}
	angle, err := models.ParseAngle(req.Angle)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid angle",
			"cause": err.Error(),
		})
	}

	result := progressionService.AddAnalysisRecord(c.UserContext(), services.AnalysisInput{
		UserID:         userID,
		SessionID:      req.SessionID,
		Score:          *req.OverallScore,
		Angle:          angle,
		CategoryScores: req.CategoryScores,
	})
	status := fiber.StatusCreated
	if result.Duplicate {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(result)
}
