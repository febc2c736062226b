package handlers

import (
	"errors"
	"log"

	"todolist/internal/services"
	"todolist/internal/session"

	"github.com/gofiber/fiber/v2"
)

type loginForm struct {
	Login    string `form:"login"`
	Password string `form:"password"`
}

type registerForm struct {
	Login    string `form:"login"`
	Password string `form:"password"`
	Email    string `form:"email"`
}

type verifyForm struct {
	Email string `form:"email"`
}

// AccountHandler serves the login, registration and verification pages.
type AccountHandler struct {
	accounts *services.AccountService
	sessions *session.Manager
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *services.AccountService, sessions *session.Manager) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		sessions: sessions,
	}
}

// RegisterRoutes registers the account routes. Logging out needs a session,
// which requireSession enforces.
func (h *AccountHandler) RegisterRoutes(router fiber.Router, requireSession fiber.Handler) {
	router.Get("/", h.HandleLoginForm)
	router.Post("/", h.HandleLogin)
	router.Get("/register", h.HandleRegisterForm)
	router.Post("/register", h.HandleRegister)
	router.Get("/verify", h.HandleVerifyForm)
	router.Post("/verify", h.HandleRequestVerification)
	router.Get("/confirm_email/:token", h.HandleConfirmEmail)
	router.Post("/logout", requireSession, h.HandleLogout)
}

// HandleLoginForm shows the login page. Visiting it ends any session the
// caller still holds.
func (h *AccountHandler) HandleLoginForm(c *fiber.Ctx) error {
	if err := h.accounts.ResetSession(h.sessions.For(c)); err != nil {
		return internalError(c, "There was an issue ending the session", err)
	}
	return render(c, fiber.StatusOK, pageLogin, pageData{})
}

// HandleLogin checks the submitted credentials and shows the task list on success.
func (h *AccountHandler) HandleLogin(c *fiber.Ctx) error {
	var form loginForm
	if err := c.BodyParser(&form); err != nil {
		return render(c, fiber.StatusBadRequest, pageLogin, pageData{Message: "Invalid form submission"})
	}

	tasks, err := h.accounts.Login(h.sessions.For(c), form.Login, form.Password)
	switch {
	case err == nil:
		return render(c, fiber.StatusOK, pageTasks, pageData{Tasks: tasks})
	case errors.Is(err, services.ErrNotVerified):
		return render(c, fiber.StatusForbidden, pageVerify, pageData{Message: "Account has not been verified yet. Request a new link below."})
	case errors.Is(err, services.ErrInvalidCredentials):
		return render(c, fiber.StatusUnauthorized, pageLogin, pageData{Message: "Wrong username or password"})
	default:
		return internalError(c, "There was an issue logging in", err)
	}
}

// HandleRegisterForm shows the registration page.
func (h *AccountHandler) HandleRegisterForm(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, pageRegister, pageData{})
}

// HandleRegister creates an account and sends the caller on to verification.
func (h *AccountHandler) HandleRegister(c *fiber.Ctx) error {
	var form registerForm
	if err := c.BodyParser(&form); err != nil {
		return render(c, fiber.StatusBadRequest, pageRegister, pageData{Message: "Invalid form submission"})
	}

	_, err := h.accounts.Register(form.Login, form.Password, form.Email)
	switch {
	case err == nil:
		return render(c, fiber.StatusCreated, pageVerify, pageData{Message: "Account created. Request a verification link to activate it."})
	case errors.Is(err, services.ErrInvalidEmail):
		return render(c, fiber.StatusBadRequest, pageRegister, pageData{Message: "Email is not valid"})
	case errors.Is(err, services.ErrWeakCredentials):
		return render(c, fiber.StatusBadRequest, pageRegister, pageData{
			Message: "Login must be 3 to 50 characters long and password at least 8 characters long",
		})
	case errors.Is(err, services.ErrAlreadyExists):
		return render(c, fiber.StatusConflict, pageRegister, pageData{Message: "User with this login or email already exists"})
	default:
		return internalError(c, "There was an issue adding new user", err)
	}
}

// HandleVerifyForm shows the page for requesting a confirmation link.
func (h *AccountHandler) HandleVerifyForm(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, pageVerify, pageData{})
}

// HandleRequestVerification emails a confirmation link to the submitted address.
func (h *AccountHandler) HandleRequestVerification(c *fiber.Ctx) error {
	var form verifyForm
	if err := c.BodyParser(&form); err != nil {
		return render(c, fiber.StatusBadRequest, pageVerify, pageData{Message: "Invalid form submission"})
	}

	err := h.accounts.RequestVerification(c.UserContext(), form.Email)
	switch {
	case err == nil:
		return render(c, fiber.StatusOK, pageVerify, pageData{Message: "Link has been sent to your email"})
	case errors.Is(err, services.ErrNotFound):
		return render(c, fiber.StatusNotFound, pageVerify, pageData{Message: "User with this email does not exist"})
	case errors.Is(err, services.ErrAlreadyVerified):
		return render(c, fiber.StatusConflict, pageVerify, pageData{Message: "Account has been already verified"})
	case errors.Is(err, services.ErrDeliveryError):
		return internalError(c, "There was an issue sending email", err)
	default:
		return internalError(c, "There was an issue creating the confirmation link", err)
	}
}

// HandleConfirmEmail verifies the account named by the token in the link.
func (h *AccountHandler) HandleConfirmEmail(c *fiber.Ctx) error {
	accountID, err := h.accounts.ConfirmVerification(c.Params("token"))
	switch {
	case err == nil:
		log.Printf("Account %d confirmed its email", accountID)
		return render(c, fiber.StatusOK, pageLogin, pageData{Message: "Account has been verified. You can log in now."})
	case errors.Is(err, services.ErrInvalidOrExpiredToken):
		return render(c, fiber.StatusBadRequest, pageVerify, pageData{
			Message: "The confirmation link is invalid or has expired. Request a new one below.",
		})
	default:
		return internalError(c, "There was an issue verifying the account", err)
	}
}

// HandleLogout ends the session and returns to the login page.
func (h *AccountHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.accounts.Logout(h.sessions.For(c)); err != nil {
		if errors.Is(err, services.ErrUnauthenticated) {
			return c.Redirect("/")
		}
		return internalError(c, "There was an issue logging out", err)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}
