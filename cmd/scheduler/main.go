package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"affil-dashboard/internal/adapters/backend"
	"affil-dashboard/internal/infra/config"
	applog "affil-dashboard/internal/infra/log"
	"affil-dashboard/internal/usecase/posting"
	"affil-dashboard/internal/usecase/settings"
)

// Планировщик — самостоятельная альтернатива триггерам на бэкенде:
// читает POST_TIMES из конфигурации и дёргает runScheduledPost по расписанию.
func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	backendClient, err := backend.New(cfg.Backend.APIURL, cfg.Backend.APIKey,
		backend.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: клиент бэкенда не создан")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loadCtx, cancel := context.WithTimeout(ctx, cfg.Backend.Timeout)
	current, err := settings.NewService(backendClient, nil).Load(loadCtx)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: конфигурация недоступна")
	}
	times, err := settings.ParsePostTimes(current.PostTimes)
	if err != nil {
		logger.Fatal().Err(err).Str("post_times", current.PostTimes).Msg("scheduler: расписание не разобрано")
	}

	runner := posting.NewService(backendClient, nil, nil, nil)
	runCount := strconv.Itoa(cfg.Schedule.RunCount)
	c := cron.New()
	for _, t := range times {
		postTime := t
		_, err := c.AddFunc(postTime.CronSpec(), func() {
			runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()
			tally, err := runner.RunNow(runCtx, runCount)
			if err != nil {
				logger.Error().Err(err).Str("at", postTime.String()).Msg("scheduler: прогон не удался")
				return
			}
			logger.Info().Str("at", postTime.String()).
				Int("succeeded", tally.Succeeded).Int("failed", tally.Failed).
				Msg("scheduler: прогон завершён")
		})
		if err != nil {
			logger.Fatal().Err(err).Str("at", postTime.String()).Msg("scheduler: запись расписания")
		}
	}

	c.Start()
	logger.Info().Int("entries", len(times)).Str("post_times", current.PostTimes).Msg("scheduler: запущен")

	<-ctx.Done()
	logger.Info().Msg("scheduler: остановка")
	<-c.Stop().Done()
}
