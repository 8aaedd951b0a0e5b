// services/profile_service.go
package services

import (
	"errors"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"game-lobby-system/models"
	"game-lobby-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

var displayNameCaser = cases.Title(language.English, cases.NoLower)

// EnsureProfile creates a profile for a newly seen user (idempotent). New
// profiles start with the signup bonus and the matching signup_bonus ledger
// row, written in one transaction so the balance invariant holds immediately.
func (s *ProfileService) EnsureProfile(userID, username string) (*models.Profile, bool, error) {
	var profile models.Profile
	err := s.DB.Where("user_id = ?", userID).First(&profile).Error
	if err == nil {
		return &profile, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	profile = models.Profile{
		ID:            uuid.NewString(),
		UserID:        userID,
		Username:      username,
		PointsBalance: models.SignupBonus,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		return appendTransaction(tx, userID, nil, models.SignupBonus, models.TransactionTypeSignupBonus, "Welcome bonus")
	})
	if err != nil {
		return nil, false, err
	}
	return &profile, true, nil
}

// GetMe returns the authenticated user's profile.
func (s *ProfileService) GetMe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var profile models.Profile
	if err := s.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(profile)
}

// GetMyBalance returns only the points balance — the cheap endpoint clients
// poll between games.
func (s *ProfileService) GetMyBalance(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var profile models.Profile
	if err := s.DB.Select("points_balance").Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	return c.JSON(fiber.Map{"points_balance": profile.PointsBalance})
}

// UpdateMe applies the profile edit form (display name only — identity fields
// are owned by the auth service, balance and stats by the ledger).
func (s *ProfileService) UpdateMe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var req struct {
		DisplayName *string `json:"display_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	var profile models.Profile
	if err := s.DB.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if len(name) > 64 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "display_name too long (max 64)"})
		}
		profile.DisplayName = displayNameCaser.String(name)
	}

	if err := s.DB.Save(&profile).Error; err != nil {
		log.Printf("DB Error updating profile %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update profile"})
	}

	return c.JSON(profile)
}

// UploadAvatar stores a new avatar image in R2 and points the profile at it.
func (s *ProfileService) UploadAvatar(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	file, err := c.FormFile("avatar")
	if err != nil || file.Size == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required"})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported avatar format"})
	}

	key := "avatars/" + uuid.NewString() + ext
	url, err := utils.UploadFileToR2(file, key)
	if err != nil {
		log.Printf("R2 upload failed for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload avatar"})
	}

	result := s.DB.Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("avatar_url", url)
	if result.Error != nil {
		log.Printf("DB Error saving avatar for %s: %v", userID, result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save avatar"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Profile not found"})
	}

	return c.JSON(fiber.Map{"avatar_url": url})
}

// GetLeaderboard lists the top profiles by wins, points breaking ties.
func (s *ProfileService) GetLeaderboard(c *fiber.Ctx) error {
	limit := 20
	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 || l > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid limit parameter"})
		}
		limit = l
	}

	var profiles []models.Profile
	if err := s.DB.
		Order("total_games_won DESC, points_balance DESC").
		Limit(limit).
		Find(&profiles).Error; err != nil {
		log.Printf("DB Error fetching leaderboard: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch leaderboard"})
	}

	type entry struct {
		UserID           string  `json:"user_id"`
		Username         string  `json:"username"`
		DisplayName      string  `json:"display_name,omitempty"`
		AvatarURL        *string `json:"avatar_url,omitempty"`
		PointsBalance    int64   `json:"points_balance"`
		TotalGamesPlayed int     `json:"total_games_played"`
		TotalGamesWon    int     `json:"total_games_won"`
		VIPLevel         int     `json:"vip_level"`
	}
	res := make([]entry, len(profiles))
	for i, p := range profiles {
		res[i] = entry{
			UserID:           p.UserID,
			Username:         p.Username,
			DisplayName:      p.DisplayName,
			AvatarURL:        p.AvatarURL,
			PointsBalance:    p.PointsBalance,
			TotalGamesPlayed: p.TotalGamesPlayed,
			TotalGamesWon:    p.TotalGamesWon,
			VIPLevel:         p.VIPLevel,
		}
	}

	return c.JSON(res)
}
