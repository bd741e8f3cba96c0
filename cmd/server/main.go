/*
main.go - Application entry point

PURPOSE:
  Starts the primogem estimator: the HTTP API and, when a token is
  configured, the Discord bot. Handles configuration, dependency injection,
  and graceful shutdown.

STARTUP SEQUENCE:
  1. Configure logging
  2. Load configuration from the environment
  3. Build the estimator (built-in or REWARD_TABLE_PATH reward table)
  4. Configure HTTP router and start the server
  5. Start the Discord bot if DISCORD_BOT_TOKEN is set

ENVIRONMENT:
  HTTP_PORT              HTTP server port (default: 8080)
  HTTP_SHUTDOWN_TIMEOUT  Grace period for active requests (default: 30s)
  CORS_ALLOWED_ORIGINS   Comma-separated origins (default: *)
  LOG_LEVEL              logrus level (default: info)
  APP_TIMEZONE           Timezone "today" is read in (default: UTC)
  REWARD_TABLE_PATH      Optional JSON reward table
  DISCORD_BOT_TOKEN      Enables the bot when set
  BOT_PREFIX             Command prefix (default: *)
  BOT_SESSION_TIMEOUT    Idle time before a menu is removed (default: 60s)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the bot and delete its open menus
  2. Stop accepting new connections
  3. Wait for active requests to complete (HTTP_SHUTDOWN_TIMEOUT)
  4. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - bot/bot.go: Discord handlers
  - config/config.go: Environment variables
*/
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/warp/primo-estimator/api"
	"github.com/warp/primo-estimator/bot"
	"github.com/warp/primo-estimator/calendar"
	"github.com/warp/primo-estimator/config"
	"github.com/warp/primo-estimator/estimate"
	"github.com/warp/primo-estimator/factory"
	"github.com/warp/primo-estimator/metrics"
)

func main() {
	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	log.SetLevel(cfg.Level())

	table := estimate.DefaultRewardTable()
	if cfg.RewardTablePath != "" {
		table, err = factory.NewTableFactory().LoadRewardTable(cfg.RewardTablePath)
		if err != nil {
			log.WithError(err).WithField("path", cfg.RewardTablePath).Fatal("failed to load reward table")
		}
		log.WithField("path", cfg.RewardTablePath).Info("reward table loaded")
	}
	est, err := estimate.NewEstimator(table)
	if err != nil {
		log.WithError(err).Fatal("invalid reward table")
	}

	m := metrics.New()
	clock := calendar.SystemClock(cfg.Location())
	logger := log.StandardLogger()

	handler := api.NewHandler(est, m, clock, logger)
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, cfg.CORSAllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup

	go func() {
		log.WithField("addr", cfg.Addr()).Info("http server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	if cfg.BotEnabled() {
		b := bot.New(est, m, logger, bot.Options{
			Prefix:         cfg.BotPrefix,
			SessionTimeout: cfg.BotSessionTimeout,
			Clock:          clock,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.Run(ctx, cfg.DiscordBotToken); err != nil {
				log.WithError(err).Error("discord bot stopped with error")
			}
		}()
	} else {
		log.Info("DISCORD_BOT_TOKEN not set, discord bot disabled")
	}

	<-ctx.Done()
	log.Info("shutting down")

	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server forced to shutdown")
	}

	log.Info("server stopped")
}

// setupLogging configures the log format before the level is known.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}
