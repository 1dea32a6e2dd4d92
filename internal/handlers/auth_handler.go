package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/counselorcorner/storefront_be/internal/middleware"
	"github.com/counselorcorner/storefront_be/internal/services/idp"
)

type AuthHandler struct {
	IDP *idp.Adapter
}

func NewAuthHandler(adapter *idp.Adapter) *AuthHandler {
	return &AuthHandler{IDP: adapter}
}

// Me returns the authenticated user from the verified token. Identity
// lives at the provider; there is no local user record to hydrate.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "authentication required",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    user,
	})
}

// Refresh exchanges the refresh cookie for a fresh access token and
// re-sets both cookies.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refresh := c.Cookies(middleware.RefreshCookie)
	if refresh == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "no refresh token",
		})
	}

	token, err := h.IDP.Refresh(c.Context(), refresh)
	if err != nil {
		log.Warn().Err(err).Msg("refresh token exchange failed")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "session expired, please sign in again",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessCookie,
		Value:    token.AccessToken,
		Expires:  token.Expiry,
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
	if token.RefreshToken != "" {
		c.Cookie(&fiber.Cookie{
			Name:     middleware.RefreshCookie,
			Value:    token.RefreshToken,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
			HTTPOnly: true,
			SameSite: "Lax",
			Path:     "/",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "session refreshed",
	})
}

// Logout clears the session cookies. The provider-side session is the
// provider's concern.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	for _, name := range []string{middleware.AccessCookie, middleware.RefreshCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			SameSite: "Lax",
			Path:     "/",
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "signed out",
	})
}
