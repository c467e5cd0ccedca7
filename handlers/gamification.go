// handlers/gamification.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"coursequest/database"
	"coursequest/gamification"
	"coursequest/middleware"
	"coursequest/models"
	"coursequest/services"
)

var gamificationService *services.GamificationService

// InitGamificationHandlers wires the orchestrator instance used by all
// gamification routes.
func InitGamificationHandlers(svc *services.GamificationService) {
	gamificationService = svc
}

type AwardXPRequest struct {
	ContentID string `json:"content_id"`
	Reason    string `json:"reason"`
}

// AwardXP is the single XP-granting entry point. Duplicate submissions
// of the same completion event come back as success with zero effect.
func AwardXP(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req AwardXPRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.ContentID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "content_id is required"})
	}
	if !gamification.ValidReason(gamification.Reason(req.Reason)) {
		return c.Status(400).JSON(fiber.Map{"error": "Unknown reason"})
	}

	result, err := gamificationService.AwardXP(userID, req.ContentID, gamification.Reason(req.Reason))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to award XP"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}

// CheckIn awards the daily streak bonus, once per UTC day.
func CheckIn(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	result, err := gamificationService.CheckIn(userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to check in"})
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"already_checked": result.Duplicate,
		"result":          result,
	})
}

// GetStats returns the caller's gamification snapshot. Users with no
// history get zeroed defaults, never a 404.
func GetStats(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	stats, err := gamificationService.GetStats(userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch stats"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats":   stats,
	})
}

// PurchaseFreeze buys one streak freeze with sparks.
func PurchaseFreeze(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	newCount, err := gamificationService.PurchaseStreakFreeze(userID)
	switch {
	case errors.Is(err, services.ErrInsufficientSparks):
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"error":   "Insufficient sparks",
			"cost":    gamification.FreezeCost,
		})
	case errors.Is(err, services.ErrMaxFreezes):
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"error":   "Maximum streak freezes reached",
			"max":     gamification.MaxFreezes,
		})
	case err != nil:
		return c.Status(500).JSON(fiber.Map{"error": "Failed to purchase freeze"})
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"freezes_available": newCount,
	})
}

// GetUserAchievements returns the full catalog with the caller's unlock
// state merged in.
func GetUserAchievements(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()

	var unlocked []models.UserAchievement
	if err := db.Where("user_id = ?", userID).Order("unlocked_at DESC").Find(&unlocked).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch achievements"})
	}

	var catalog []models.Achievement
	if err := db.Order("id").Find(&catalog).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch achievement catalog"})
	}

	unlockedMap := make(map[uint]models.UserAchievement, len(unlocked))
	for _, ua := range unlocked {
		unlockedMap[ua.AchievementID] = ua
	}

	achievements := make([]fiber.Map, 0, len(catalog))
	for _, a := range catalog {
		entry := fiber.Map{
			"id":            a.ID,
			"code":          a.Code,
			"name":          a.Name,
			"description":   a.Description,
			"icon":          a.Icon,
			"xp_reward":     a.XPReward,
			"sparks_reward": a.SparksReward,
			"unlocked":      false,
		}
		if ua, ok := unlockedMap[a.ID]; ok {
			entry["unlocked"] = true
			entry["unlocked_at"] = ua.UnlockedAt
		}
		achievements = append(achievements, entry)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"achievements": achievements,
		"total":        len(catalog),
		"unlocked":     len(unlocked),
	})
}

// GetCourseProgress returns the per-course completion rollup.
func GetCourseProgress(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid course id"})
	}

	progress, err := gamificationService.CourseProgress(uint(courseID), userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch course progress"})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"progress": progress,
	})
}

// ResetCourseProgress wipes the caller's progress in one course and
// recomputes totals from the remaining ledger.
func ResetCourseProgress(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid course id"})
	}

	itemsReset, err := gamificationService.ResetCourseProgress(uint(courseID), userID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to reset course progress"})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"items_reset": itemsReset,
	})
}

// GetLeaderboard ranks users by total XP.
// GET /api/leaderboard?limit=100&offset=0
func GetLeaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 || limit > 100 {
		limit = 100
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	db := database.GetDB()

	type entry struct {
		UserID        uint   `json:"user_id"`
		Username      string `json:"username"`
		XPTotal       int    `json:"xp_total"`
		CurrentLevel  int    `json:"current_level"`
		CurrentStreak int    `json:"current_streak"`
	}
	var entries []entry
	err := db.Model(&models.GamificationStats{}).
		Select("gamification_stats.user_id, users.username, gamification_stats.xp_total, gamification_stats.current_level, gamification_stats.current_streak").
		Joins("JOIN users ON users.id = gamification_stats.user_id").
		Where("users.is_guest = ?", false).
		Order("gamification_stats.xp_total DESC").
		Limit(limit).
		Offset(offset).
		Scan(&entries).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch leaderboard"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}
