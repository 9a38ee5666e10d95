package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	config "github.com/legendaryias/ias_mentor/configs"
	"github.com/legendaryias/ias_mentor/models"
)

const DefaultSessionTTL = 2 * time.Hour

// Protected validates the admin session token from the Authorization header,
// or from the token query parameter for websocket upgrades.
func Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    []byte(config.Config("JWT_SECRET")),
		SigningMethod: "HS256",
		TokenLookup:   "header:Authorization,query:token",
		ErrorHandler:  jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"success": false, "error": "Missing or malformed JWT"})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"success": false, "error": "Invalid or expired JWT"})
}

func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals("user").(*jwt.Token)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Unauthorized"})
		}
		claims, _ := token.Claims.(jwt.MapClaims)
		role, _ := claims["role"].(string)

		if role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "Forbidden: Admin access required",
			})
		}
		return c.Next()
	}
}

// IssueAdminToken signs a session token for user valid for ADMIN_SESSION_TTL.
func IssueAdminToken(user *models.User, now time.Time) (string, time.Time, error) {
	secret := config.Config("JWT_SECRET")
	if secret == "" {
		return "", time.Time{}, errors.New("JWT_SECRET is not set")
	}

	expires := now.Add(config.GetDuration("ADMIN_SESSION_TTL", DefaultSessionTTL))
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     expires.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// AdminID returns the user_id claim of the validated session token.
func AdminID(c *fiber.Ctx) string {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return ""
	}
	claims, _ := token.Claims.(jwt.MapClaims)
	id, _ := claims["user_id"].(string)
	return id
}
