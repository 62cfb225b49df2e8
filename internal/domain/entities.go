package domain

import "time"

// LookingFor описывает, кого ищет автор объявления.
type LookingFor string

const (
	// LookingForBride объявление о поиске невесты.
	LookingForBride LookingFor = "bride"
	// LookingForGroom объявление о поиске жениха.
	LookingForGroom LookingFor = "groom"
)

// Valid проверяет, что значение одно из допустимых.
func (l LookingFor) Valid() bool {
	return l == LookingForBride || l == LookingForGroom
}

// FontSize описывает размер шрифта объявления.
type FontSize string

const (
	// FontSizeDefault обычный шрифт.
	FontSizeDefault FontSize = "default"
	// FontSizeLarge крупный шрифт, оплачивается множителем.
	FontSizeLarge FontSize = "large"
)

// AdStatus описывает состояние объявления в жизненном цикле.
type AdStatus string

const (
	// AdStatusPending ожидает модерации.
	AdStatusPending AdStatus = "pending"
	// AdStatusApproved одобрено, ожидает оплаты.
	AdStatusApproved AdStatus = "approved"
	// AdStatusRejected отклонено модератором.
	AdStatusRejected AdStatus = "rejected"
	// AdStatusPublished опубликовано и видно читателям.
	AdStatusPublished AdStatus = "published"
	// AdStatusExpired окно видимости закончилось.
	AdStatusExpired AdStatus = "expired"
)

// Ad представляет текстовое объявление.
type Ad struct {
	ID             int64
	Email          string
	Content        string
	LookingFor     LookingFor
	FontSize       FontSize
	DurationDays   int
	BgColor        string
	Icon           bool
	CouponCode     string
	Status         AdStatus
	AmountDue      int64
	PaymentOrderID string
	ExpiresAt      *time.Time
	CreatedAt      time.Time
}

// PricingConfig хранит тарифы расчёта стоимости. Суммы в минимальных
// единицах валюты, множители строго положительные.
type PricingConfig struct {
	BasePriceFirst200          int64
	PricePer20Chars            int64
	LargeFontMultiplier        float64
	Visibility2WeeksMultiplier float64
	Visibility3WeeksMultiplier float64
	Visibility4WeeksMultiplier float64
	IconPrice                  int64
	HighlightColorPrice        int64
}

// DefaultPricingConfig возвращает тарифы, используемые когда запись
// конфигурации отсутствует в хранилище.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		BasePriceFirst200:          5000,
		PricePer20Chars:            500,
		LargeFontMultiplier:        1.20,
		Visibility2WeeksMultiplier: 1.00,
		Visibility3WeeksMultiplier: 1.50,
		Visibility4WeeksMultiplier: 2.00,
		IconPrice:                  100,
		HighlightColorPrice:        200,
	}
}

// Coupon описывает промокод.
type Coupon struct {
	ID                 int64
	Code               string
	DiscountPercentage float64
	IsActive           bool
	UsageLimit         *int
	UsedCount          int
	ExpiresAt          *time.Time
}

// UsableAt сообщает, применим ли купон в указанный момент: активен,
// не истёк и лимит использований не исчерпан.
func (c Coupon) UsableAt(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return false
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false
	}
	return true
}

// SynonymGroup объединяет слова-синонимы под общим именем.
type SynonymGroup struct {
	ID       int64
	Name     string
	IsActive bool
	Words    []string
}

// SynonymIndex отображает нормализованное слово на полный набор слов
// его группы. Включает только активные группы.
type SynonymIndex map[string][]string

// FilterSection группирует варианты поискового фильтра.
type FilterSection struct {
	ID          int64
	Name        string
	DisplayName string
	Order       int
	IsActive    bool
}

// FilterOption один вариант внутри секции фильтра. Value используется
// для поиска по тексту, DisplayName только для отображения.
type FilterOption struct {
	ID          int64
	SectionID   int64
	Value       string
	DisplayName string
	Order       int
	IsActive    bool
}

// FilterOptionRef минимальная проекция варианта для построения запроса.
type FilterOptionRef struct {
	SectionID int64
	Value     string
}

// FilterCatalog отображает id варианта на его секцию и значение.
// Включает только активные секции и варианты.
type FilterCatalog map[int64]FilterOptionRef

// ContactJob задача на пересылку письма автору объявления.
type ContactJob struct {
	ID        string    `json:"id"`
	AdID      int64     `json:"ad_id"`
	ToEmail   string    `json:"to_email"`
	FromEmail string    `json:"from_email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// PaymentOrderRequest параметры создания заказа в платёжном шлюзе.
type PaymentOrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// PaymentOrder созданный заказ платёжного шлюза.
type PaymentOrder struct {
	ID          string
	AmountMinor int64
	Currency    string
	Status      string
}
