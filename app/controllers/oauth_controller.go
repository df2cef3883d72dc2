package controllers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/markbates/goth"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ManuelReschke/SubTrackr/internal/pkg/env"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/session"
	"github.com/ManuelReschke/SubTrackr/internal/pkg/usercontext"
)

// HandleOAuthCallback completes the provider flow and logs the user in
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	if err := startSession(c, u); err != nil {
		log.Errorf("[OAuth] Session for %s user %s failed: %v", u.Provider, u.UserID, err)
		return c.Status(fiber.StatusInternalServerError).SendString("session init failed")
	}

	return c.Redirect(loginRedirectTarget(), fiber.StatusSeeOther)
}

// HandleLogout ends the app session.
func HandleLogout(c *fiber.Ctx) error {
	store := session.GetSessionStore()
	if store == nil {
		return c.JSON(fiber.Map{"success": true})
	}
	sess, err := store.Get(c)
	if err != nil {
		return c.JSON(fiber.Map{"success": true})
	}
	if err := sess.Destroy(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", fmt.Sprintf("something went wrong: %s", err))
	}
	c.Locals(usercontext.KeyFromProtected, false)
	return c.JSON(fiber.Map{"success": true})
}

// HandleMe returns the identity of the current session.
func HandleMe(c *fiber.Ctx) error {
	return c.JSON(usercontext.GetUserContext(c))
}

// ExternalUserID namespaces a provider's user id so ids of different
// providers cannot collide.
func ExternalUserID(provider, providerUserID string) string {
	return provider + ":" + providerUserID
}

func startSession(c *fiber.Ctx, u goth.User) error {
	store := session.GetSessionStore()
	if store == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, err := store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(usercontext.AuthKey, true)
	sess.Set(usercontext.KeyUserID, ExternalUserID(u.Provider, u.UserID))
	sess.Set(usercontext.KeyUsername, firstNonEmpty(u.Name, u.NickName, u.Email, "User"))
	sess.Set(usercontext.KeyEmail, u.Email)
	sess.Set(usercontext.KeyProvider, u.Provider)
	return sess.Save()
}

func loginRedirectTarget() string {
	if target := strings.TrimSpace(env.GetEnv("LOGIN_REDIRECT_URL", "")); target != "" {
		return target
	}
	return "/"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
