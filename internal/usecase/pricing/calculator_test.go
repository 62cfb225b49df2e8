package pricing

import (
	"strings"
	"testing"
	"time"

	"matri-board/internal/domain"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() domain.PricingConfig {
	return domain.DefaultPricingConfig()
}

func calc(t *testing.T, cfg domain.PricingConfig, coupon *domain.Coupon, in Input) Result {
	t.Helper()
	res, err := Calculate(cfg, coupon, testNow, in)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	return res
}

func TestAdditionalCostBlockRounding(t *testing.T) {
	cases := map[int]int64{
		0:   0,
		199: 0,
		200: 0,
		201: 500,
		220: 500,
		221: 1000,
		250: 1500,
	}
	for chars, expected := range cases {
		res := calc(t, testConfig(), nil, Input{Content: strings.Repeat("a", chars), DurationDays: 14})
		if res.AdditionalCost != expected {
			t.Fatalf("для %d символов ожидали доплату %d, получили %d", chars, expected, res.AdditionalCost)
		}
	}
}

func TestBaseAmountChargedForShortContent(t *testing.T) {
	res := calc(t, testConfig(), nil, Input{Content: "короткий текст", DurationDays: 14})
	if res.BaseAmount != 5000 {
		t.Fatalf("базовая ставка не зависит от длины: %d", res.BaseAmount)
	}
	if res.FinalAmount != 5000 {
		t.Fatalf("ожидали 5000, получили %d", res.FinalAmount)
	}
}

func TestMarkupStrippedBeforeCounting(t *testing.T) {
	content := "<p>" + strings.Repeat("a", 200) + "</p>"
	res := calc(t, testConfig(), nil, Input{Content: content, DurationDays: 14})
	if res.CharacterCount != 200 {
		t.Fatalf("ожидали 200 видимых символов, получили %d", res.CharacterCount)
	}
	if res.AdditionalCost != 0 {
		t.Fatalf("теги не должны тарифицироваться: %d", res.AdditionalCost)
	}
}

func TestFinalAmountMonotonicInLength(t *testing.T) {
	var prev int64 = -1
	for _, chars := range []int{0, 100, 200, 201, 220, 221, 400, 1000} {
		res := calc(t, testConfig(), nil, Input{
			Content:      strings.Repeat("a", chars),
			FontSize:     domain.FontSizeLarge,
			DurationDays: 21,
			Icon:         true,
		})
		if res.FinalAmount < prev {
			t.Fatalf("стоимость убыла на %d символах: %d < %d", chars, res.FinalAmount, prev)
		}
		prev = res.FinalAmount
	}
}

func TestSingleRoundingAfterBothMultipliers(t *testing.T) {
	cfg := domain.PricingConfig{
		BasePriceFirst200:          5,
		PricePer20Chars:            0,
		LargeFontMultiplier:        1.1,
		Visibility2WeeksMultiplier: 1.0,
		Visibility3WeeksMultiplier: 1.1,
		Visibility4WeeksMultiplier: 1.0,
	}
	res := calc(t, cfg, nil, Input{Content: "a", FontSize: domain.FontSizeLarge, DurationDays: 21})
	// 5*1.1*1.1 = 6.05 -> 6. Двойное округление дало бы 7.
	if res.Subtotal != 6 {
		t.Fatalf("ожидали единственное округление (6), получили %d", res.Subtotal)
	}
}

func TestUnknownDurationFallsBackToUnitMultiplier(t *testing.T) {
	for _, days := range []int{0, 1, 7, 15, 30, 365} {
		res := calc(t, testConfig(), nil, Input{Content: "a", DurationDays: days})
		if res.DurationMultiplier != 1.0 {
			t.Fatalf("для %d дней ожидали множитель 1.0, получили %v", days, res.DurationMultiplier)
		}
	}
}

func TestNegativeDurationRejected(t *testing.T) {
	if _, err := Calculate(testConfig(), nil, testNow, Input{Content: "a", DurationDays: -1}); err == nil {
		t.Fatalf("ожидали ошибку для отрицательной длительности")
	}
}

func TestScenario250CharsLargeFont21Days(t *testing.T) {
	res := calc(t, testConfig(), nil, Input{
		Content:      strings.Repeat("x", 250),
		FontSize:     domain.FontSizeLarge,
		DurationDays: 21,
	})
	if res.AdditionalCost != 1500 {
		t.Fatalf("ожидали доплату 1500, получили %d", res.AdditionalCost)
	}
	if res.SubtotalBeforeMultipliers != 6500 {
		t.Fatalf("ожидали 6500 до множителей, получили %d", res.SubtotalBeforeMultipliers)
	}
	if res.Subtotal != 11700 {
		t.Fatalf("ожидали 11700 после множителей, получили %d", res.Subtotal)
	}
	if res.FinalAmount != 11700 {
		t.Fatalf("ожидали итог 11700, получили %d", res.FinalAmount)
	}
}

func TestScenarioWithTwentyPercentCoupon(t *testing.T) {
	coupon := &domain.Coupon{Code: "SAVE20", DiscountPercentage: 20, IsActive: true}
	res := calc(t, testConfig(), coupon, Input{
		Content:      strings.Repeat("x", 250),
		FontSize:     domain.FontSizeLarge,
		DurationDays: 21,
		CouponCode:   "SAVE20",
	})
	if !res.CouponApplied {
		t.Fatalf("ожидали применённый купон")
	}
	if res.DiscountAmount != 2340 {
		t.Fatalf("ожидали скидку 2340, получили %d", res.DiscountAmount)
	}
	if res.FinalAmount != 9360 {
		t.Fatalf("ожидали итог 9360, получили %d", res.FinalAmount)
	}
}

func TestUnusableCouponsDegradeToNoDiscount(t *testing.T) {
	baseline := calc(t, testConfig(), nil, Input{Content: "a", DurationDays: 14})

	expired := testNow.Add(-time.Hour)
	limit := 3
	cases := map[string]*domain.Coupon{
		"неактивный": {Code: "C", DiscountPercentage: 50, IsActive: false},
		"истёкший":   {Code: "C", DiscountPercentage: 50, IsActive: true, ExpiresAt: &expired},
		"исчерпанный": {
			Code: "C", DiscountPercentage: 50, IsActive: true,
			UsageLimit: &limit, UsedCount: 3,
		},
		"чужой код": {Code: "OTHER", DiscountPercentage: 50, IsActive: true},
		"не найден": nil,
	}
	for name, coupon := range cases {
		res := calc(t, testConfig(), coupon, Input{Content: "a", DurationDays: 14, CouponCode: "C"})
		if res.CouponApplied {
			t.Fatalf("%s: купон не должен применяться", name)
		}
		if res.FinalAmount != baseline.FinalAmount {
			t.Fatalf("%s: итог должен совпасть со случаем без купона: %d != %d", name, res.FinalAmount, baseline.FinalAmount)
		}
		if res.CouponCode != "C" {
			t.Fatalf("%s: код купона должен вернуться вызывающему: %q", name, res.CouponCode)
		}
	}
}

func TestExpiryBoundaryIsStrict(t *testing.T) {
	at := testNow
	coupon := &domain.Coupon{Code: "C", DiscountPercentage: 10, IsActive: true, ExpiresAt: &at}
	res := calc(t, testConfig(), coupon, Input{Content: "a", DurationDays: 14, CouponCode: "C"})
	if res.CouponApplied {
		t.Fatalf("купон с истечением ровно сейчас уже непригоден")
	}
}

func TestFullDiscountNeverGoesNegative(t *testing.T) {
	coupon := &domain.Coupon{Code: "FREE", DiscountPercentage: 100, IsActive: true}
	res := calc(t, testConfig(), coupon, Input{
		Content:      strings.Repeat("x", 500),
		FontSize:     domain.FontSizeLarge,
		DurationDays: 28,
		CouponCode:   "FREE",
		Icon:         true,
	})
	if res.FinalAmount != 0 {
		t.Fatalf("ожидали 0, получили %d", res.FinalAmount)
	}
	if res.FinalAmount < 0 {
		t.Fatalf("итог не может быть отрицательным")
	}
}

func TestUsageLimitBoundary(t *testing.T) {
	limit := 5
	coupon := &domain.Coupon{Code: "C", DiscountPercentage: 10, IsActive: true, UsageLimit: &limit, UsedCount: 4}
	res := calc(t, testConfig(), coupon, Input{Content: "a", DurationDays: 14, CouponCode: "C"})
	if !res.CouponApplied {
		t.Fatalf("при использовании 4 из 5 купон ещё пригоден")
	}

	coupon.UsedCount = 5
	res = calc(t, testConfig(), coupon, Input{Content: "a", DurationDays: 14, CouponCode: "C"})
	if res.CouponApplied {
		t.Fatalf("при использовании 5 из 5 купон исчерпан")
	}
}
