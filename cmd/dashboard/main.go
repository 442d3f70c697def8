package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"affil-dashboard/internal/adapters/alert"
	"affil-dashboard/internal/adapters/backend"
	"affil-dashboard/internal/adapters/repo"
	"affil-dashboard/internal/adapters/session"
	"affil-dashboard/internal/domain"
	"affil-dashboard/internal/infra/config"
	"affil-dashboard/internal/infra/db"
	httpinfra "affil-dashboard/internal/infra/http"
	applog "affil-dashboard/internal/infra/log"
	"affil-dashboard/internal/infra/metrics"
	"affil-dashboard/internal/usecase/catalog"
	"affil-dashboard/internal/usecase/posting"
	"affil-dashboard/internal/usecase/settings"
	"affil-dashboard/internal/usecase/trends"
	"affil-dashboard/internal/usecase/triggers"
	"affil-dashboard/internal/web"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendClient, err := backend.New(cfg.Backend.APIURL, cfg.Backend.APIKey,
		backend.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		logger.Fatal().Err(err).Msg("dashboard: клиент бэкенда не создан")
	}

	var cache domain.ResultCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache = session.NewRedis(redisClient, cfg.SessionTTL)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("dashboard: кэш результатов в Redis")
	} else {
		cache = session.NewMemory()
		logger.Warn().Msg("dashboard: REDIS_ADDR не задан, кэш результатов в памяти")
	}

	var audit domain.AuditLog
	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("dashboard: нет подключения к БД")
		}
		defer pool.Close()
		pgAudit := repo.NewPostgresAudit(pool)
		if err := pgAudit.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("dashboard: миграция журнала")
		}
		audit = pgAudit
	} else {
		logger.Warn().Msg("dashboard: PG_DSN не задан, журнал действий отключён")
	}

	var alerter domain.Alerter
	if cfg.Alerts.BotToken != "" && cfg.Alerts.ChatID != 0 {
		alerter, err = alert.NewTelegram(cfg.Alerts.BotToken, cfg.Alerts.ChatID)
		if err != nil {
			logger.Error().Err(err).Msg("dashboard: алерты недоступны")
			alerter = nil
		}
	}

	catalogUC := catalog.NewService(backendClient, cache, audit)
	postingUC := posting.NewService(backendClient, catalogUC, audit, alerter)
	trendsUC := trends.NewService(backendClient, audit)
	settingsUC := settings.NewService(backendClient, audit)
	triggersUC := triggers.NewService(backendClient, audit, alerter)

	handler := web.NewHandler(
		logger.With().Str("component", "web").Logger(),
		backendClient, audit, trendsUC, catalogUC, postingUC, settingsUC, triggersUC)

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	srv.Router.Use(httpinfra.AccessKeyMiddleware(cfg.AccessKey))
	handler.Register(srv.Router)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(),
		":"+strconv.Itoa(cfg.MetricsPort))

	go func() {
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("dashboard: сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("dashboard: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
