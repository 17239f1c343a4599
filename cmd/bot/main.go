package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"alrah-ai-be/internal/bootstrap"
	"alrah-ai-be/internal/bot"
	"alrah-ai-be/internal/config"
	"alrah-ai-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	if cfg.Keys.TelegramToken == "" {
		log.Fatal("Error: TELEGRAM_BOT_TOKEN is not set")
	}

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(ctx); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 5. Run the Bot
	tgBot, err := bot.New(
		cfg.Keys.TelegramToken,
		container.ChatbotService,
		container.SessionService,
		container.SessionRegistry,
		cfg.Profiles.Bot,
		container.Logger,
	)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot: %v", err)
	}

	if err := tgBot.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Bot stopped with error: %v", err)
	}
	log.Println("Bot stopped")
}
