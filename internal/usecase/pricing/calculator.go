// Package pricing реализует детерминированный расчёт стоимости объявления.
package pricing

import (
	"errors"
	"math"
	"time"

	"matri-board/internal/domain"
	"matri-board/internal/markup"
)

// ErrNegativeDuration возвращается при отрицательной длительности:
// это нарушение контракта вызывающей стороны, а не бизнес-ошибка.
var ErrNegativeDuration = errors.New("длительность не может быть отрицательной")

const (
	freeCharacters = 200
	blockSize      = 20
)

// Input входные параметры расчёта стоимости.
type Input struct {
	Content        string
	FontSize       domain.FontSize
	DurationDays   int
	CouponCode     string
	Icon           bool
	HighlightColor bool
}

// Result разбивка стоимости объявления. Все суммы в минимальных
// единицах валюты.
type Result struct {
	BaseAmount                int64
	CharacterCount            int
	AdditionalCharacters      int
	AdditionalCost            int64
	IconCost                  int64
	HighlightColorCost        int64
	FontMultiplier            float64
	DurationMultiplier        float64
	SubtotalBeforeMultipliers int64
	Subtotal                  int64
	DiscountAmount            int64
	FinalAmount               int64
	CouponCode                string
	CouponApplied             bool
}

// Calculate вычисляет стоимость объявления по тарифам cfg. Купон может
// быть nil; непригодный купон не считается ошибкой и просто не даёт
// скидку. Функция чистая: момент времени для проверки истечения купона
// передаётся явно.
func Calculate(cfg domain.PricingConfig, coupon *domain.Coupon, now time.Time, in Input) (Result, error) {
	if in.DurationDays < 0 {
		return Result{}, ErrNegativeDuration
	}

	count := markup.VisibleLength(in.Content)
	if count < 0 {
		count = 0
	}

	additional := count - freeCharacters
	if additional < 0 {
		additional = 0
	}
	// Начатый блок оплачивается целиком: один символ сверх кратного
	// двадцати стоит как полный блок.
	blocks := (additional + blockSize - 1) / blockSize
	additionalCost := int64(blocks) * cfg.PricePer20Chars

	// Базовая ставка не зависит от того, короче ли текст 200 символов.
	baseAmount := cfg.BasePriceFirst200

	var iconCost, highlightCost int64
	if in.Icon {
		iconCost = cfg.IconPrice
	}
	if in.HighlightColor {
		highlightCost = cfg.HighlightColorPrice
	}

	pre := baseAmount + additionalCost + iconCost + highlightCost

	fontMult := 1.0
	if in.FontSize == domain.FontSizeLarge {
		fontMult = cfg.LargeFontMultiplier
	}

	durMult := 1.0
	switch in.DurationDays {
	case 14:
		durMult = cfg.Visibility2WeeksMultiplier
	case 21:
		durMult = cfg.Visibility3WeeksMultiplier
	case 28:
		durMult = cfg.Visibility4WeeksMultiplier
	}

	// Единственная точка округления после обоих множителей.
	subtotal := int64(math.Round(float64(pre) * fontMult * durMult))

	var discount int64
	applied := false
	if in.CouponCode != "" && coupon != nil && coupon.Code == in.CouponCode && coupon.UsableAt(now) {
		applied = true
		discount = int64(math.Round(float64(subtotal) * coupon.DiscountPercentage / 100))
	}

	final := subtotal - discount
	if final < 0 {
		final = 0
	}

	return Result{
		BaseAmount:                baseAmount,
		CharacterCount:            count,
		AdditionalCharacters:      additional,
		AdditionalCost:            additionalCost,
		IconCost:                  iconCost,
		HighlightColorCost:        highlightCost,
		FontMultiplier:            fontMult,
		DurationMultiplier:        durMult,
		SubtotalBeforeMultipliers: pre,
		Subtotal:                  subtotal,
		DiscountAmount:            discount,
		FinalAmount:               final,
		CouponCode:                in.CouponCode,
		CouponApplied:             applied,
	}, nil
}
