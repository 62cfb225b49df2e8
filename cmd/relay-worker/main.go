package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"matri-board/internal/adapters/mailer"
	"matri-board/internal/domain"
	"matri-board/internal/infra/config"
	infralog "matri-board/internal/infra/log"
	"matri-board/internal/infra/metrics"
	"matri-board/internal/infra/queue"
)

func main() {
	cfg := config.Load()
	logger := infralog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var contactQueue domain.ContactQueue
	switch {
	case cfg.AMQPURL != "":
		rabbit, err := queue.NewRabbit(cfg.AMQPURL, cfg.Queues.Contact)
		if err != nil {
			logger.Fatal().Err(err).Msg("relay-worker: нет подключения к rabbitmq")
		}
		defer rabbit.Close()
		contactQueue = rabbit
	case cfg.RedisAddr != "":
		contactQueue = queue.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.Queues.Contact)
	default:
		logger.Fatal().Msg("relay-worker: не настроена очередь контактов (AMQP_URL или REDIS_ADDR)")
	}

	mail := mailer.NewClient(mailer.Config{
		BaseURL: cfg.Mailer.BaseURL,
		APIKey:  cfg.Mailer.APIKey,
		From:    cfg.Mailer.From,
	})

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")
	logger.Info().Str("queue", cfg.Queues.Contact).Msg("relay-worker: старт")

	for {
		job, err := contactQueue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logger.Error().Err(err).Msg("relay-worker: не удалось получить задачу")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			if ctx.Err() != nil {
				break
			}
			continue
		}

		subject := fmt.Sprintf("Отклик на объявление №%d", job.AdID)
		sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = mail.Send(sendCtx, job.ToEmail, job.FromEmail, subject, job.Message)
		cancel()
		if err != nil {
			metrics.ContactSendErrors.Inc()
			logger.Error().Err(err).Str("job_id", job.ID).Int64("ad_id", job.AdID).Msg("relay-worker: не удалось отправить письмо")
			continue
		}
		logger.Info().Str("job_id", job.ID).Int64("ad_id", job.AdID).Msg("relay-worker: письмо отправлено")
	}

	logger.Info().Msg("relay-worker: остановка")
}
