package middleware

import (
	"log"

	"todolist/internal/session"

	"github.com/gofiber/fiber/v2"
)

const accountIDKey = "account_id"

// SessionRequired is a Fiber middleware that lets only logged-in callers
// through. Anyone else is sent back to the login page.
func SessionRequired(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accountID, ok := sessions.For(c).CurrentAccount()
		if !ok {
			log.Printf("Unauthenticated request to %s %s", c.Method(), c.Path())
			return c.Redirect("/")
		}

		c.Locals(accountIDKey, accountID)
		return c.Next()
	}
}

// AccountID returns the id stored by SessionRequired, or 0 outside of it.
func AccountID(c *fiber.Ctx) uint {
	id, _ := c.Locals(accountIDKey).(uint)
	return id
}
