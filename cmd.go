package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/example/slack-task-tracker/config"
	domain "github.com/example/slack-task-tracker/domain/task"
	apimod "github.com/example/slack-task-tracker/modules/api"
	notificationmod "github.com/example/slack-task-tracker/modules/notification"
	"github.com/example/slack-task-tracker/modules/slackbot"
	taskmod "github.com/example/slack-task-tracker/modules/task"
	"github.com/example/slack-task-tracker/modules/tracker"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout  = 30 * time.Second
	handshakeTimeout = 15 * time.Second
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Slack over Socket Mode and serve task commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the task database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	db, err := domain.Open(cfg.Path, cfg.Debug)
	if err != nil {
		return err
	}
	defer domain.Close(db)

	ran, err := domain.Migrate(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(ran) == 0 {
		log.Printf("Database %s is up to date (schema version %d)", cfg.Path, domain.LatestSchemaVersion())
		return nil
	}
	log.Printf("Applied migrations %v to %s", ran, cfg.Path)
	return nil
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logLevel, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	log.Println("=== Slack Task Tracker ===")
	log.Printf("Tasks channel: %s", cfg.Slack.TasksChannel)
	log.Printf("Database: %s", cfg.Database.Path)

	api := slack.New(
		cfg.Slack.BotToken,
		slack.OptionAppLevelToken(cfg.Slack.AppToken),
		slack.OptionDebug(cfg.Slack.Debug),
	)

	// The bot's own user id must be known before any mention is parsed.
	handshakeCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	identity, err := slackbot.ResolveIdentity(handshakeCtx, api)
	cancel()
	if err != nil {
		return fmt.Errorf("slack handshake failed: %w", err)
	}
	log.Printf("Connected to workspace %s as %s", identity.Team, identity.UserID)

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	logger := app.Logger()

	taskModule := taskmod.NewModule(cfg.Database.Path, cfg.Database.Debug, logger)
	notificationModule := notificationmod.NewModule(logger)
	trackerModule := tracker.NewModule(tracker.Settings{
		BotUserID:    identity.UserID,
		TasksChannel: cfg.Slack.TasksChannel,
		PageSize:     cfg.Slack.PageSize,
	}, slackbot.NewMessenger(api), logger)
	slackbotModule := slackbot.NewModule(api, slackbot.Config{
		Debug:     cfg.Slack.Debug,
		RedisAddr: cfg.Redis.Addr,
		DedupTTL:  cfg.Redis.DedupTTL,
	}, logger)

	// Independent modules first, then modules with dependencies.
	app.Register(taskModule)
	app.Register(notificationModule)
	app.Register(trackerModule)

	var apiModule *apimod.APIModule
	if cfg.Server.Port > 0 {
		apiModule = apimod.NewModule(cfg.Server.Port, logger)
		app.Register(apiModule)
	}
	app.Register(slackbotModule)

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	// Wire up after start; events arriving earlier get a starting-up reply.
	slackbotModule.SetHandler(trackerModule)
	if apiModule != nil {
		apiModule.SetActivityFeed(notificationModule)
		log.Printf("API available at http://localhost:%d", cfg.Server.Port)
	}

	log.Println("=== Application Started ===")
	log.Println("Press Ctrl+C to shutdown")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
	return nil
}
