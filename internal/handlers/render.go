package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"log"

	"todolist/internal/models"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageLogin    = "login"
	pageRegister = "register"
	pageVerify   = "verify"
	pageTasks    = "tasks"
	pageUpdate   = "update"
)

// Every page is parsed together with the layout it fills in.
var pages = func() map[string]*template.Template {
	parsed := make(map[string]*template.Template)
	for _, name := range []string{pageLogin, pageRegister, pageVerify, pageTasks, pageUpdate} {
		parsed[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return parsed
}()

// pageData is what every template receives.
type pageData struct {
	Message string
	Tasks   []models.Task
	Task    *models.Task
}

func render(c *fiber.Ctx, status int, page string, data pageData) error {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		log.Printf("Error rendering %s page: %v", page, err)
		return internalError(c, "There was an issue rendering the page", err)
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}

// internalError answers storage and delivery failures with a generic plaintext message.
func internalError(c *fiber.Ctx, message string, err error) error {
	log.Printf("%s %s: %s: %v", c.Method(), c.Path(), message, err)
	return c.Status(fiber.StatusInternalServerError).SendString(message)
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).SendString("Not Found")
}
