package domain

import (
	"context"
	"time"
)

// AdRepo управляет объявлениями.
type AdRepo interface {
	CreateAd(ctx context.Context, ad Ad) (Ad, error)
	GetAd(ctx context.Context, id int64) (Ad, error)
	GetPublishedAd(ctx context.Context, id int64, now time.Time) (Ad, error)
	ListPublished(ctx context.Context, lookingFor LookingFor, now time.Time) ([]Ad, error)
	UpdateStatus(ctx context.Context, id int64, status AdStatus) error
	SetPaymentOrder(ctx context.Context, id int64, orderID string) error
	PublishAd(ctx context.Context, id int64, expiresAt time.Time) error
}

// PricingConfigRepo возвращает текущие тарифы.
type PricingConfigRepo interface {
	GetPricingConfig(ctx context.Context) (PricingConfig, error)
}

// CouponRepo управляет промокодами.
type CouponRepo interface {
	GetCoupon(ctx context.Context, code string) (Coupon, error)
	IncrementCouponUsage(ctx context.Context, code string) error
}

// SynonymRepo возвращает словарь синонимов для поиска.
type SynonymRepo interface {
	ActiveSynonymIndex(ctx context.Context) (SynonymIndex, error)
}

// FilterRepo возвращает каталог вариантов поискового фильтра.
type FilterRepo interface {
	ActiveFilterCatalog(ctx context.Context) (FilterCatalog, error)
}

// EmailLimitRepo считает отправленные письма по отправителю за день.
// IncrementDailyCount возвращает счётчик после инкремента; счётчик
// обнуляется при смене даты.
type EmailLimitRepo interface {
	IncrementDailyCount(ctx context.Context, senderEmail, date string) (int, error)
}

// ContactQueue очередь задач на пересылку писем.
type ContactQueue interface {
	Enqueue(ctx context.Context, job ContactJob) error
	Pop(ctx context.Context) (ContactJob, error)
}

// Mailer отправляет транзакционные письма.
type Mailer interface {
	Send(ctx context.Context, to, replyTo, subject, text string) error
}

// PaymentGateway создаёт заказы на оплату объявлений.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req PaymentOrderRequest) (PaymentOrder, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
