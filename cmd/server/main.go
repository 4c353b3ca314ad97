package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/realcredplus/credito/internal/config"
	"github.com/realcredplus/credito/internal/database"
	"github.com/realcredplus/credito/internal/mailer"
	"github.com/realcredplus/credito/internal/modules/chat"
	"github.com/realcredplus/credito/internal/modules/leads"
	"github.com/realcredplus/credito/internal/modules/rates"
	"github.com/realcredplus/credito/internal/modules/simulation"
	"github.com/realcredplus/credito/internal/scheduler"
	"github.com/realcredplus/credito/internal/server"
	"github.com/realcredplus/credito/pkg/cache"
	"github.com/realcredplus/credito/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info"})
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting RealCred+ backend")

	// Rate table is static but still validated so a bad edit fails fast
	table := rates.DefaultTable()
	if err := table.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid rate table")
	}

	// Databases: both are append-only ledgers
	leadsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "leads.db"),
		Profile: database.ProfileLedger,
		Name:    "leads",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open leads database")
	}
	defer leadsDB.Close()

	metricsDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "chat_metrics.db"),
		Profile: database.ProfileLedger,
		Name:    "chat_metrics",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open chat metrics database")
	}
	defer metricsDB.Close()

	if err := leads.InitSchema(leadsDB.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize leads schema")
	}
	if err := chat.InitSchema(metricsDB.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize chat metrics schema")
	}

	// Quote cache: Redis when configured, in-process otherwise
	var quoteCache cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(cfg.RedisAddr)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, using in-memory cache")
			quoteCache = cache.NewMemoryCache()
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis quote cache")
			quoteCache = redisCache
		}
	} else {
		quoteCache = cache.NewMemoryCache()
	}
	defer quoteCache.Close()

	mail := buildMailer(cfg, log)

	// Module wiring
	evaluator := simulation.NewEvaluator(table, log)
	simulationHandler := simulation.NewHandler(evaluator, table, quoteCache, log)

	leadsRepo := leads.NewRepository(leadsDB.Conn(), log)
	leadsService := leads.NewService(evaluator, table, leadsRepo, mail, cfg.LeadReceiver, cfg.ContactReceiver, log)
	leadsHandler := leads.NewHandler(leadsService, log)

	metricsRepo := chat.NewMetricsRepository(metricsDB.Conn(), log)
	relay := buildRelay(cfg, metricsRepo, log)
	chatHandler := chat.NewHandler(relay, metricsRepo, cfg.AdminUser, cfg.AdminPass, log)

	// Background maintenance
	sched := scheduler.New(log)
	if err := sched.AddJob("@hourly", scheduler.NewWALCheckpointJob(log, leadsDB, metricsDB)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register WAL checkpoint job")
	}
	if err := sched.AddJob("0 4 * * *", scheduler.NewIntegrityCheckJob(log, leadsDB, metricsDB)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register integrity check job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:              cfg.Port,
		DevMode:           cfg.DevMode,
		Log:               log,
		Config:            cfg,
		LeadsDB:           leadsDB,
		MetricsDB:         metricsDB,
		SimulationHandler: simulationHandler,
		LeadsHandler:      leadsHandler,
		ChatHandler:       chatHandler,
		ChatRateLimit:     cfg.ChatRateLimit,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	log.Info().
		Int("port", cfg.Port).
		Bool("chat_configured", relay.Configured()).
		Bool("mail_configured", cfg.MailConfigured()).
		Msg("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// buildMailer returns the SMTP transport when credentials are present,
// otherwise a log-only mailer so local development works unconfigured
func buildMailer(cfg *config.Config, log zerolog.Logger) mailer.Mailer {
	if !cfg.MailConfigured() {
		log.Warn().Msg("SMTP not configured, lead notifications will only be logged")
		return mailer.NewLogMailer(log)
	}
	return mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPUser,
	}, log)
}

func buildRelay(cfg *config.Config, metrics *chat.MetricsRepository, log zerolog.Logger) *chat.Relay {
	var primary, fallback *chat.Client
	if cfg.ChatConfigured() {
		primary = chat.NewClient(cfg.ChatAPIURL, cfg.ChatAPIKey, cfg.ChatModel, log)
		if cfg.ChatFallbackURL != "" {
			fallback = chat.NewClient(cfg.ChatFallbackURL, cfg.ChatAPIKey, cfg.ChatModel, log)
		}
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, chat relay disabled")
	}
	return chat.NewRelay(primary, fallback, metrics, cfg.ChatPromptPriceUSD, cfg.ChatOutputPriceUSD, log)
}
