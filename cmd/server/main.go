package main

import (
	"context"
	"log"
	"time"

	"cosmodiet-go/internal/auth"
	"cosmodiet-go/internal/config"
	httpserver "cosmodiet-go/internal/http"
	"cosmodiet-go/internal/store"
	"cosmodiet-go/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// A corrupt data file refuses to boot rather than silently
	// resetting every account to nothing.
	st, err := store.Open(cfg.DataFile)
	if err != nil {
		log.Fatal(err)
	}

	codes := auth.NewCodeIssuer(time.Duration(cfg.LinkCodeTTLMin) * time.Minute)

	var notifier telegram.Sender
	if cfg.TelegramToken != "" {
		client := telegram.NewClient(cfg.TelegramToken)
		notifier = client
		bot := telegram.NewBot(client, st, codes, cfg.PollTimeoutSec,
			time.Duration(cfg.BotSessionIdleM)*time.Minute)
		go bot.Run(context.Background())
		log.Printf("telegram bot polling started")
	} else {
		log.Printf("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	r := httpserver.NewServer(cfg, st, codes, notifier)
	log.Printf("listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
