package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	jobsvc "servicehub/internal/api/job/service"
	visitsvc "servicehub/internal/api/visit/service"
	"servicehub/internal/database"
	"servicehub/internal/global"
	"servicehub/internal/logger"
	"servicehub/internal/mailer"
	"servicehub/internal/worker"
)

// initLogger configures logging from LOG_* variables.
func initLogger() {
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logger.GetAppLogger().Info("Logger system initialized successfully")
}

// startReminders runs the visit reminder worker until ctx is done.
func startReminders(ctx context.Context, m mailer.Mailer, from string) {
	log := logger.GetAppLogger()
	cfg := global.MongoDB_ServerConfig
	if cfg.ReminderInterval <= 0 {
		log.Info("Visit reminders disabled")
		return
	}
	visits, err := visitsvc.NewMongoStore()
	if err != nil {
		log.WithError(err).Error("Failed to create visit store, continuing without reminders")
		return
	}
	jobs, err := jobsvc.NewMongoStore()
	if err != nil {
		log.WithError(err).Error("Failed to create job store, continuing without reminders")
		return
	}
	w := worker.NewVisitReminderWorker(visits, jobs, m, from, time.Duration(cfg.ReminderInterval)*time.Minute)
	go w.Start(ctx)
}

func main() {
	initLogger()
	defer logger.Close()

	InitGlobal()

	log := logger.GetAppLogger()
	cfg := global.MongoDB_ServerConfig

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, closeDeps := initCollaborators(ctx, cfg, global.MongoDB_Session)
	defer closeDeps()

	startReminders(ctx, deps.Mailer, deps.MailFrom)

	app, err := InitFiberApp(cfg, global.MongoDB_Session, deps)
	if err != nil {
		log.Fatalf("Failed to initialize Fiber app: %v", err)
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}
	}()

	log.WithField("address", cfg.Address).Info("Starting server with HTTP")
	if err := app.Listen(cfg.Address, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Errorf("Error in Fiber Listen: %v", err)
	}

	_ = database.CloseInstance(global.MongoDB_Session)
}
