package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/legendaryias/ias_mentor/middleware"
	"github.com/legendaryias/ias_mentor/models"
	"github.com/legendaryias/ias_mentor/store"
	"golang.org/x/crypto/bcrypt"
)

var validate = validator.New()

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminLogin exchanges admin credentials for a short-lived session token.
func (h *Handler) AdminLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	invalid := func() error {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Invalid credentials"})
	}
	user, err := h.profiles.FindUserByEmail(c.UserContext(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalid()
		}
		return respondError(c, err)
	}
	if user.Role != models.RoleAdmin || user.Password == "" {
		return invalid()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return invalid()
	}

	token, expires, err := middleware.IssueAdminToken(user, time.Now())
	if err != nil {
		log.Printf("🔥 Failed to sign admin token: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Could not create session"})
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"token":      token,
		"expires_at": expires,
		"user": UserResponse{
			ID:        user.ID,
			FullName:  user.FullName,
			Email:     user.Email,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
		},
	})
}
