// Package contact реализует канал связи с автором объявления:
// письмо пересылается через очередь, адрес автора отправителю
// не раскрывается. Дневной лимит защищает от рассылок.
package contact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"matri-board/internal/domain"
	"matri-board/internal/infra/metrics"
)

var (
	// ErrEmptyFromEmail возвращается, когда не указан адрес отправителя.
	ErrEmptyFromEmail = errors.New("адрес отправителя обязателен")
	// ErrEmptyMessage возвращается, когда текст письма пуст.
	ErrEmptyMessage = errors.New("текст письма пуст")
)

// Service ставит задачи на пересылку писем авторам объявлений.
type Service struct {
	ads        domain.AdRepo
	limits     domain.EmailLimitRepo
	queue      domain.ContactQueue
	dailyLimit int
	log        zerolog.Logger
	now        func() time.Time
}

// NewService создаёт сервис пересылки. now инжектируется для тестов,
// nil означает time.Now.
func NewService(ads domain.AdRepo, limits domain.EmailLimitRepo, queue domain.ContactQueue, dailyLimit int, log zerolog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if dailyLimit <= 0 {
		dailyLimit = 5
	}
	return &Service{ads: ads, limits: limits, queue: queue, dailyLimit: dailyLimit, log: log, now: now}
}

// Relay проверяет лимит отправителя и ставит письмо в очередь.
// Письмо уходит только автору опубликованного и неистёкшего объявления.
func (s *Service) Relay(ctx context.Context, adID int64, fromEmail, message string) (domain.ContactJob, error) {
	fromEmail = strings.ToLower(strings.TrimSpace(fromEmail))
	if fromEmail == "" {
		return domain.ContactJob{}, ErrEmptyFromEmail
	}
	if strings.TrimSpace(message) == "" {
		return domain.ContactJob{}, ErrEmptyMessage
	}

	now := s.now().UTC()
	ad, err := s.ads.GetPublishedAd(ctx, adID, now)
	if err != nil {
		return domain.ContactJob{}, err
	}

	count, err := s.limits.IncrementDailyCount(ctx, fromEmail, now.Format("2006-01-02"))
	if err != nil {
		return domain.ContactJob{}, fmt.Errorf("учёт лимита: %w", err)
	}
	if count > s.dailyLimit {
		metrics.ContactRelayTotal.WithLabelValues("limited").Inc()
		return domain.ContactJob{}, domain.ErrEmailLimitExceeded
	}

	job := domain.ContactJob{
		ID:        uuid.NewString(),
		AdID:      ad.ID,
		ToEmail:   ad.Email,
		FromEmail: fromEmail,
		Message:   message,
		CreatedAt: now,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		metrics.ContactRelayTotal.WithLabelValues("error").Inc()
		return domain.ContactJob{}, fmt.Errorf("постановка в очередь: %w", err)
	}
	metrics.ContactRelayTotal.WithLabelValues("queued").Inc()
	return job, nil
}
