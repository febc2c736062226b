package handlers_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"todolist/internal/database"
	"todolist/internal/handlers"
	"todolist/internal/mailer"
	"todolist/internal/middleware"
	"todolist/internal/models"
	"todolist/internal/repositories"
	"todolist/internal/services"
	"todolist/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "http://todo.test"

// outbox keeps every message the app sends.
type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

// lastLinkPath returns the path of the confirmation link in the newest message.
func (o *outbox) lastLinkPath(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.sent, "no mail was sent")
	body := o.sent[len(o.sent)-1].Body
	i := strings.Index(body, baseURL+"/confirm_email/")
	require.GreaterOrEqual(t, i, 0, "no confirmation link in %q", body)
	return strings.TrimPrefix(strings.Fields(body[i:])[0], baseURL)
}

type testEnv struct {
	app      *fiber.App
	accounts *services.AccountService
	tasks    *services.TaskService
	tokens   *services.TokenService
	outbox   *outbox
}

// setupApp builds the whole application on a private in-memory SQLite database.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	accountRepo := repositories.NewGORMAccountRepository(db)
	taskRepo := repositories.NewGORMTaskRepository(db)

	box := &outbox{}
	tokens := services.NewTokenService("test-secret", "test-salt", 30*time.Minute)
	accountService := services.NewAccountService(accountRepo, taskRepo, tokens, box, baseURL)
	taskService := services.NewTaskService(taskRepo)

	sessions := session.NewManager(time.Hour, nil)
	requireSession := middleware.SessionRequired(sessions)

	app := fiber.New()
	handlers.NewAccountHandler(accountService, sessions).RegisterRoutes(app, requireSession)
	handlers.NewTaskHandler(taskService).RegisterRoutes(app, requireSession)

	return &testEnv{
		app:      app,
		accounts: accountService,
		tasks:    taskService,
		tokens:   tokens,
		outbox:   box,
	}
}

// client is a browser stand-in that carries cookies between requests.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]*http.Cookie
}

func (e *testEnv) client(t *testing.T) *client {
	return &client{t: t, app: e.app, cookies: make(map[string]*http.Cookie)}
}

func (c *client) do(req *http.Request) (*http.Response, string) {
	c.t.Helper()
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	for _, cookie := range resp.Cookies() {
		expired := cookie.MaxAge < 0 || (!cookie.Expires.IsZero() && cookie.Expires.Before(time.Now()))
		if cookie.Value == "" || expired {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}

	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(body)
}

func (c *client) get(path string) (*http.Response, string) {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values) (*http.Response, string) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	return c.do(req)
}

func (c *client) login(username, password string) (*http.Response, string) {
	return c.post("/", url.Values{"login": {username}, "password": {password}})
}

// verifiedAccount registers and confirms an account without going through HTTP.
func (e *testEnv) verifiedAccount(t *testing.T, username string) *models.Account {
	t.Helper()
	account, err := e.accounts.Register(username, "password1", username+"@example.com")
	require.NoError(t, err)
	token, err := e.tokens.Issue(account.ID)
	require.NoError(t, err)
	_, err = e.accounts.ConfirmVerification(token)
	require.NoError(t, err)
	return account
}

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestRegisterVerifyLoginScenario(t *testing.T) {
	env := setupApp(t)
	browser := env.client(t)

	resp, body := browser.post("/register", url.Values{
		"login":    {"alice"},
		"password": {"password1"},
		"email":    {"alice@example.com"},
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Contains(t, body, `action="/verify"`)

	resp, body = browser.login("alice", "password1")
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, "has not been verified")

	resp, body = browser.post("/verify", url.Values{"email": {"alice@example.com"}})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Link has been sent to your email")

	resp, body = browser.get(env.outbox.lastLinkPath(t))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Account has been verified. You can log in now.")

	resp, body = browser.post("/verify", url.Values{"email": {"alice@example.com"}})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "already verified")

	resp, body = browser.login("alice", "password1")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "There are no tasks")

	resp, body = browser.post("/tasks", url.Values{"content": {"buy milk"}})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Contains(t, body, "buy milk")

	open, err := env.tasks.ListOpenTasks(1)
	require.NoError(t, err)
	require.Len(t, open, 1)
	taskPath := fmt.Sprintf("/%d", open[0].ID)

	resp, body = browser.get("/update" + taskPath)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `value="buy milk"`)

	resp, _ = browser.post("/update"+taskPath, url.Values{"content": {"buy oat milk"}})
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/tasks", resp.Header.Get("Location"))

	_, body = browser.get("/tasks")
	assert.Contains(t, body, "buy oat milk")

	resp, body = browser.get("/done" + taskPath)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "buy oat milk")
	assert.Contains(t, body, "There are no tasks")

	resp, _ = browser.post("/logout", nil)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	resp, _ = browser.get("/tasks")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestTaskRoutesRequireSession(t *testing.T) {
	env := setupApp(t)
	anonymous := env.client(t)

	for _, path := range []string{"/tasks", "/delete/1", "/update/1", "/done/1"} {
		resp, _ := anonymous.get(path)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/", resp.Header.Get("Location"), path)
	}
	resp, _ := anonymous.post("/tasks", url.Values{"content": {"sneaky"}})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	resp, _ = anonymous.post("/logout", nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestTasksOfOtherAccountsAreHidden(t *testing.T) {
	env := setupApp(t)
	env.verifiedAccount(t, "alice")
	bob := env.verifiedAccount(t, "bob")

	bobsTask, err := env.tasks.CreateTask(bob.ID, "bob's secret")
	require.NoError(t, err)
	path := fmt.Sprintf("/%d", bobsTask.ID)

	alice := env.client(t)
	resp, body := alice.login("alice", "password1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "secret")

	for _, p := range []string{"/delete" + path, "/update" + path, "/done" + path} {
		resp, _ = alice.get(p)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, p)
	}
	resp, _ = alice.post("/update"+path, url.Values{"content": {"hijacked"}})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = alice.get("/done/9999")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	task, err := env.tasks.GetTask(bobsTask.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob's secret", task.Content)
	assert.False(t, task.Complete)
}

func TestLoginFailures(t *testing.T) {
	env := setupApp(t)
	env.verifiedAccount(t, "alice")
	browser := env.client(t)

	resp, body := browser.login("alice", "wrong-password")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Wrong username or password")

	resp, body = browser.login("nobody", "password1")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Wrong username or password")
}

func TestLoginPageEndsSession(t *testing.T) {
	env := setupApp(t)
	env.verifiedAccount(t, "alice")
	browser := env.client(t)

	resp, _ := browser.login("alice", "password1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = browser.get("/tasks")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := browser.get("/")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="password"`)

	resp, _ = browser.get("/tasks")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestRegisterValidation(t *testing.T) {
	env := setupApp(t)
	env.verifiedAccount(t, "alice")
	browser := env.client(t)

	tests := []struct {
		name    string
		form    url.Values
		status  int
		message string
	}{
		{"invalid email", url.Values{"login": {"bob"}, "password": {"password1"}, "email": {"not-an-email"}}, fiber.StatusBadRequest, "Email is not valid"},
		{"short password", url.Values{"login": {"bob"}, "password": {"short"}, "email": {"bob@example.com"}}, fiber.StatusBadRequest, "at least 8 characters"},
		{"short login", url.Values{"login": {"bo"}, "password": {"password1"}, "email": {"bob@example.com"}}, fiber.StatusBadRequest, "at least 8 characters"},
		{"taken login", url.Values{"login": {"alice"}, "password": {"password1"}, "email": {"new@example.com"}}, fiber.StatusConflict, "already exists"},
		{"taken email", url.Values{"login": {"carol"}, "password": {"password1"}, "email": {"alice@example.com"}}, fiber.StatusConflict, "already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := browser.post("/register", tt.form)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, body, tt.message)
		})
	}
}

func TestRequestVerificationUnknownEmail(t *testing.T) {
	env := setupApp(t)
	browser := env.client(t)

	resp, body := browser.post("/verify", url.Values{"email": {"ghost@example.com"}})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "does not exist")
	assert.Empty(t, env.outbox.sent)
}

func TestConfirmEmailRejectsBadTokens(t *testing.T) {
	env := setupApp(t)
	browser := env.client(t)

	resp, body := browser.get("/confirm_email/not-a-token")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "invalid or has expired")

	forged, err := services.NewTokenService("other-secret", "test-salt", time.Minute).Issue(1)
	require.NoError(t, err)
	resp, _ = browser.get("/confirm_email/" + forged)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTaskContentValidation(t *testing.T) {
	env := setupApp(t)
	env.verifiedAccount(t, "alice")
	browser := env.client(t)
	resp, _ := browser.login("alice", "password1")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := browser.post("/tasks", url.Values{"content": {strings.Repeat("x", 201)}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "between 1 and 200 characters")

	resp, _ = browser.post("/tasks", url.Values{"content": {"  "}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTaskContentIsEscaped(t *testing.T) {
	env := setupApp(t)
	alice := env.verifiedAccount(t, "alice")
	_, err := env.tasks.CreateTask(alice.ID, "<script>alert(1)</script>")
	require.NoError(t, err)

	browser := env.client(t)
	_, body := browser.login("alice", "password1")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}
