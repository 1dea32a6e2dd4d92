package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/counselorcorner/storefront_be/internal/services/idp"
)

const (
	AccessCookie  = "cs_token"
	RefreshCookie = "cs_refresh"
)

func tokenFrom(c *fiber.Ctx) string {
	if tok := c.Cookies(AccessCookie); tok != "" {
		return tok
	}
	auth := c.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func resolveUser(c *fiber.Ctx, a *idp.Adapter) *idp.User {
	tokenStr := tokenFrom(c)
	if tokenStr == "" {
		return nil
	}

	user, err := a.Verify(tokenStr)
	if err == nil {
		return user
	}

	// expired token gets exactly one silent refresh before giving up
	if errors.Is(err, idp.ErrTokenExpired) {
		rt := c.Cookies(RefreshCookie)
		if rt == "" {
			return nil
		}
		tok, refreshErr := a.Refresh(c.Context(), rt)
		if refreshErr != nil {
			return nil
		}
		user, err = a.Verify(tok.AccessToken)
		if err != nil {
			return nil
		}
		c.Cookie(&fiber.Cookie{
			Name:     AccessCookie,
			Value:    tok.AccessToken,
			Path:     "/",
			HTTPOnly: true,
			Secure:   false,
			SameSite: "Lax",
		})
		// providers that rotate refresh tokens invalidate the old one, so
		// the replacement has to be persisted or the next refresh fails
		if tok.RefreshToken != "" {
			c.Cookie(&fiber.Cookie{
				Name:     RefreshCookie,
				Value:    tok.RefreshToken,
				Path:     "/",
				HTTPOnly: true,
				Secure:   false,
				SameSite: "Lax",
			})
		}
		return user
	}
	return nil
}

// RequireAuth rejects the request unless a valid provider token is
// presented via cookie or Authorization header.
func RequireAuth(a *idp.Adapter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := resolveUser(c, a)
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "authentication required",
			})
		}
		c.Locals("user", user)
		return c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present but lets
// anonymous requests through (guest checkout).
func OptionalAuth(a *idp.Adapter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user := resolveUser(c, a); user != nil {
			c.Locals("user", user)
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user attached by RequireAuth or
// OptionalAuth, or nil.
func CurrentUser(c *fiber.Ctx) *idp.User {
	u, _ := c.Locals("user").(*idp.User)
	return u
}
