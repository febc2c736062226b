// Package session keeps track of which account a browser is logged in as.
package session

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	accountKey = "account_id"
	localsKey  = "session.request"
)

// Manager wraps a Fiber session store.
type Manager struct {
	store *session.Store
}

// NewManager creates a Manager. A nil storage keeps sessions in process memory.
func NewManager(expiration time.Duration, storage fiber.Storage) *Manager {
	return &Manager{
		store: session.New(session.Config{
			Expiration:     expiration,
			Storage:        storage,
			KeyLookup:      "cookie:todolist_session",
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
		}),
	}
}

// For returns the session of the request behind c. Repeated calls within one
// request share the same value.
func (m *Manager) For(c *fiber.Ctx) *Request {
	if r, ok := c.Locals(localsKey).(*Request); ok {
		return r
	}
	r := &Request{store: m.store, ctx: c}
	c.Locals(localsKey, r)
	return r
}

// Request is the session of a single HTTP request.
type Request struct {
	store *session.Store
	ctx   *fiber.Ctx
	sess  *session.Session
}

func (r *Request) load() (*session.Session, error) {
	if r.sess != nil {
		return r.sess, nil
	}
	sess, err := r.store.Get(r.ctx)
	if err != nil {
		return nil, err
	}
	r.sess = sess
	return sess, nil
}

// Start binds the session to accountID under a fresh session id.
func (r *Request) Start(accountID uint) error {
	sess, err := r.load()
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(accountKey, accountID)
	// Save hands the session back to Fiber's pool.
	r.sess = nil
	return sess.Save()
}

// End destroys the session and expires its cookie.
func (r *Request) End() error {
	sess, err := r.load()
	if err != nil {
		return err
	}
	return sess.Destroy()
}

// CurrentAccount returns the logged-in account id, if any.
func (r *Request) CurrentAccount() (uint, bool) {
	sess, err := r.load()
	if err != nil {
		log.Printf("Failed to load session: %v", err)
		return 0, false
	}
	id, ok := sess.Get(accountKey).(uint)
	return id, ok && id != 0
}
