package domain

import "errors"

var (
	// ErrAdNotFound возвращается, когда объявление не найдено.
	ErrAdNotFound = errors.New("ad not found")

	// ErrCouponNotFound возвращается, когда промокод не найден.
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrConfigNotFound возвращается, когда запись тарифов отсутствует.
	ErrConfigNotFound = errors.New("pricing config not found")

	// ErrEmailLimitExceeded возвращается при превышении дневного лимита писем.
	ErrEmailLimitExceeded = errors.New("daily email limit exceeded")

	// ErrInvalidAdStatus возвращается при недопустимом переходе статуса.
	ErrInvalidAdStatus = errors.New("invalid ad status transition")
)
