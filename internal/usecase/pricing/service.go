package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"matri-board/internal/domain"
)

// ReferenceData поставляет тарифы и промокоды для расчёта.
type ReferenceData interface {
	PricingConfig(ctx context.Context) (domain.PricingConfig, error)
	Coupon(ctx context.Context, code string) (domain.Coupon, error)
}

// Service считает котировки поверх снимка справочных данных.
type Service struct {
	ref ReferenceData
	log zerolog.Logger
	now func() time.Time
}

// NewService создаёт сервис котировок. now инжектируется для
// детерминированных тестов; nil означает time.Now.
func NewService(ref ReferenceData, log zerolog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{ref: ref, log: log, now: now}
}

// Quote возвращает разбивку стоимости для указанных параметров.
// Проблемы с промокодом деградируют до отсутствия скидки, недоступные
// тарифы — до значений по умолчанию.
func (s *Service) Quote(ctx context.Context, in Input) (Result, error) {
	cfg, err := s.ref.PricingConfig(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("pricing: тарифы недоступны, используем значения по умолчанию")
		cfg = domain.DefaultPricingConfig()
	}

	var coupon *domain.Coupon
	if in.CouponCode != "" {
		c, err := s.ref.Coupon(ctx, in.CouponCode)
		switch {
		case err == nil:
			coupon = &c
		case errors.Is(err, domain.ErrCouponNotFound):
			// неизвестный код — просто нет скидки
		default:
			s.log.Warn().Err(err).Str("coupon", in.CouponCode).Msg("pricing: промокод недоступен")
		}
	}

	return Calculate(cfg, coupon, s.now().UTC(), in)
}
