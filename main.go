package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/clavin/mediawiki-based-adv/bot"
	"github.com/clavin/mediawiki-based-adv/compose"
	"github.com/clavin/mediawiki-based-adv/config"
	"github.com/clavin/mediawiki-based-adv/excerpt"
	"github.com/clavin/mediawiki-based-adv/freq"
	"github.com/clavin/mediawiki-based-adv/ranker"
	"github.com/clavin/mediawiki-based-adv/scheduler"
	"github.com/clavin/mediawiki-based-adv/storage"
	"github.com/clavin/mediawiki-based-adv/wiki"
)

func main() {
	replMode := flag.Bool("repl", false, "read messages from stdin instead of Telegram")
	flag.Parse()

	configPath := config.GetConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.LogLevel)
	slog.Info("config loaded", "path", configPath)

	engine := buildEngine(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if *replMode {
		runREPL(ctx, engine)
		return
	}

	if cfg.TelegramToken == "" {
		slog.Error("telegram_token is required unless running with -repl")
		os.Exit(1)
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		slog.Error("failed to initialize Telegram bot", "error", err)
		os.Exit(1)
	}
	slog.Info("telegram bot initialized", "username", api.Self.UserName)

	sender := bot.NewTelegramSender(api)
	handler := bot.NewHandler(engine, sender, db)

	if cfg.ChatID != 0 {
		sched, err := scheduler.New(cfg.Timezone)
		if err != nil {
			slog.Error("failed to initialize scheduler", "timezone", cfg.Timezone, "error", err)
			os.Exit(1)
		}
		museChatID := cfg.ChatID
		if err := sched.ScheduleDaily(cfg.MuseTime, func() {
			if err := handler.Muse(context.Background(), museChatID); err != nil {
				slog.Error("scheduled musing failed", "error", err)
			}
		}); err != nil {
			slog.Error("failed to schedule musing", "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	slog.Info("starting bot polling")
	bot.NewRunner(api, handler).Run(ctx)
	slog.Info("bot stopped")
}

// buildEngine wires the response engine from configuration.
func buildEngine(cfg *config.Config) *compose.Engine {
	wikiClient := wiki.NewClient(
		wiki.WithBaseURL(cfg.WikiAPIURL),
		wiki.WithNamespaces(cfg.WikiNamespaces),
		wiki.WithTimeout(cfg.FetchTimeout()),
	)

	freqService := freq.NewService(freq.NewClient(
		freq.WithBaseURL(cfg.FrequencyAPIURL),
		freq.WithTimeout(cfg.FetchTimeout()),
	))

	var fetcherOpts []excerpt.Option
	if cfg.ScrapeFallback {
		fetcherOpts = append(fetcherOpts,
			excerpt.WithScraper(excerpt.NewWikiPageScraper(
				excerpt.WithScrapeTimeout(cfg.FetchTimeout()))))
	}
	fetcher := excerpt.NewFetcher(wikiClient, fetcherOpts...)

	return compose.NewEngine(ranker.New(freqService), wikiClient, fetcher)
}

// runREPL answers messages typed on stdin, one per line.
func runREPL(ctx context.Context, engine *compose.Engine) {
	fmt.Println("Say something (ctrl-d to quit):")
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		reply, err := engine.Respond(ctx, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Println(reply)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}
