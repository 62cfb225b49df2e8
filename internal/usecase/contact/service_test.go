package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"matri-board/internal/domain"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubAds struct {
	ad  domain.Ad
	err error
}

func (s *stubAds) CreateAd(_ context.Context, ad domain.Ad) (domain.Ad, error) { return ad, nil }

func (s *stubAds) GetAd(context.Context, int64) (domain.Ad, error) { return s.ad, s.err }
func (s *stubAds) GetPublishedAd(context.Context, int64, time.Time) (domain.Ad, error) {
	return s.ad, s.err
}
func (s *stubAds) ListPublished(context.Context, domain.LookingFor, time.Time) ([]domain.Ad, error) {
	return nil, nil
}
func (s *stubAds) UpdateStatus(context.Context, int64, domain.AdStatus) error { return nil }

func (s *stubAds) SetPaymentOrder(context.Context, int64, string) error { return nil }

func (s *stubAds) PublishAd(context.Context, int64, time.Time) error { return nil }

type stubLimits struct {
	counts map[string]int
}

func (s *stubLimits) IncrementDailyCount(_ context.Context, sender, date string) (int, error) {
	if s.counts == nil {
		s.counts = make(map[string]int)
	}
	key := sender + "|" + date
	s.counts[key]++
	return s.counts[key], nil
}

type stubQueue struct {
	jobs []domain.ContactJob
	err  error
}

func (s *stubQueue) Enqueue(_ context.Context, job domain.ContactJob) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *stubQueue) Pop(context.Context) (domain.ContactJob, error) {
	return domain.ContactJob{}, errors.New("не реализовано")
}

func newService(ads *stubAds, limits *stubLimits, queue *stubQueue, dailyLimit int) *Service {
	return NewService(ads, limits, queue, dailyLimit, zerolog.Nop(), func() time.Time { return testNow })
}

func TestRelayEnqueuesJobForPoster(t *testing.T) {
	ads := &stubAds{ad: domain.Ad{ID: 3, Email: "poster@example.com"}}
	queue := &stubQueue{}
	svc := newService(ads, &stubLimits{}, queue, 5)

	job, err := svc.Relay(context.Background(), 3, "Reader@Example.com", "интересует ваше объявление")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if job.ToEmail != "poster@example.com" {
		t.Fatalf("письмо адресуется автору объявления: %q", job.ToEmail)
	}
	if job.FromEmail != "reader@example.com" {
		t.Fatalf("адрес отправителя нормализуется: %q", job.FromEmail)
	}
	if job.ID == "" {
		t.Fatalf("у задачи должен быть идентификатор")
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("задача должна попасть в очередь")
	}
}

func TestRelayEnforcesDailyLimit(t *testing.T) {
	ads := &stubAds{ad: domain.Ad{ID: 3, Email: "poster@example.com"}}
	queue := &stubQueue{}
	svc := newService(ads, &stubLimits{}, queue, 2)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := svc.Relay(ctx, 3, "reader@example.com", "привет"); err != nil {
			t.Fatalf("попытка %d в пределах лимита: %v", i+1, err)
		}
	}
	if _, err := svc.Relay(ctx, 3, "reader@example.com", "привет"); !errors.Is(err, domain.ErrEmailLimitExceeded) {
		t.Fatalf("ожидали ErrEmailLimitExceeded, получили %v", err)
	}
	if len(queue.jobs) != 2 {
		t.Fatalf("сверхлимитное письмо не должно попасть в очередь: %d", len(queue.jobs))
	}

	// Другой отправитель лимитом первого не ограничен.
	if _, err := svc.Relay(ctx, 3, "other@example.com", "привет"); err != nil {
		t.Fatalf("лимит считается по отправителю: %v", err)
	}
}

func TestRelayRejectsUnpublishedAd(t *testing.T) {
	ads := &stubAds{err: domain.ErrAdNotFound}
	svc := newService(ads, &stubLimits{}, &stubQueue{}, 5)

	if _, err := svc.Relay(context.Background(), 404, "reader@example.com", "привет"); !errors.Is(err, domain.ErrAdNotFound) {
		t.Fatalf("ожидали ErrAdNotFound, получили %v", err)
	}
}

func TestRelayValidatesInput(t *testing.T) {
	ads := &stubAds{ad: domain.Ad{ID: 3, Email: "poster@example.com"}}
	svc := newService(ads, &stubLimits{}, &stubQueue{}, 5)
	ctx := context.Background()

	if _, err := svc.Relay(ctx, 3, "  ", "привет"); !errors.Is(err, ErrEmptyFromEmail) {
		t.Fatalf("ожидали ErrEmptyFromEmail, получили %v", err)
	}
	if _, err := svc.Relay(ctx, 3, "reader@example.com", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("ожидали ErrEmptyMessage, получили %v", err)
	}
}
