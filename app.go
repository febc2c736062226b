package main

import (
	"errors"
	"fmt"
	"log"
	"time"

	"todolist/internal/config"
	"todolist/internal/database"
	"todolist/internal/handlers"
	"todolist/internal/mailer"
	"todolist/internal/middleware"
	"todolist/internal/repositories"
	"todolist/internal/services"
	"todolist/internal/session"
	"todolist/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// application is the assembled server together with the resources it must release.
type application struct {
	fiber   *fiber.App
	db      *gorm.DB
	mq      *rabbitmq.Client
	storage *session.RedisStorage
}

// newApplication connects every backing service named in cfg and registers all routes.
func newApplication(cfg config.Config) (_ *application, err error) {
	a := &application{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// --- Repositories ---
	var accountRepo repositories.AccountRepository
	var taskRepo repositories.TaskRepository
	if cfg.DatabaseDriver == config.DriverMemory {
		log.Println("Using in-memory repositories, data is lost on restart")
		accountRepo = repositories.NewMemoryAccountRepository()
		taskRepo = repositories.NewMemoryTaskRepository()
	} else {
		a.db, err = database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		accountRepo = repositories.NewGORMAccountRepository(a.db)
		taskRepo = repositories.NewGORMTaskRepository(a.db)
	}

	// --- RabbitMQ ---
	if cfg.Mail.Transport == config.MailTransportQueue || cfg.Mail.Consumer {
		a.mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.Mail.RabbitMQURL, Queue: cfg.Mail.Queue})
		if err != nil {
			return nil, err
		}
	}

	// --- Mail ---
	var publisher mailer.Publisher
	if a.mq != nil {
		publisher = a.mq
	}
	sender, err := mailer.New(cfg.Mail, publisher)
	if err != nil {
		return nil, err
	}
	if cfg.Mail.Consumer {
		smtp := mailer.NewSMTPSender(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.SMTPUsername, cfg.Mail.SMTPPassword, cfg.Mail.Sender)
		if err = a.mq.Consume(mailer.DeliveryHandler(smtp)); err != nil {
			return nil, fmt.Errorf("failed to start mail consumer: %w", err)
		}
	}

	// --- Sessions ---
	var storage fiber.Storage
	if cfg.RedisURL != "" {
		a.storage, err = session.NewRedisStorage(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		storage = a.storage
	}
	sessions := session.NewManager(cfg.SessionExpiration, storage)

	// --- Services ---
	tokens := services.NewTokenService(cfg.SecretKey, cfg.VerificationSalt, cfg.TokenMaxAge)
	accountService := services.NewAccountService(accountRepo, taskRepo, tokens, sender, cfg.BaseURL)
	taskService := services.NewTaskService(taskRepo)

	// --- Fiber ---
	a.fiber = fiber.New(fiber.Config{AppName: "todolist"})
	a.fiber.Use(recover.New())
	a.fiber.Use(logger.New())

	a.fiber.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": cfg.DatabaseDriver,
			"mail":     cfg.Mail.Transport,
		})
	})

	requireSession := middleware.SessionRequired(sessions)
	handlers.NewAccountHandler(accountService, sessions).RegisterRoutes(a.fiber, requireSession)
	handlers.NewTaskHandler(taskService).RegisterRoutes(a.fiber, requireSession)

	return a, nil
}

// Close shuts down the HTTP server and releases every connection.
func (a *application) Close() error {
	var errs []error
	if a.fiber != nil {
		if err := a.fiber.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
		}
	}
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}
