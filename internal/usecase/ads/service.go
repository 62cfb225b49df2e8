// Package ads реализует жизненный цикл объявления: подача, модерация,
// оплата, публикация и поиск по опубликованным объявлениям.
package ads

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
	"matri-board/internal/markup"
	"matri-board/internal/usecase/pricing"
	"matri-board/internal/usecase/search"
)

var (
	// ErrEmptyContent возвращается, когда видимый текст пуст.
	ErrEmptyContent = errors.New("текст объявления пуст")
	// ErrContentTooLong возвращается при превышении максимальной длины.
	ErrContentTooLong = errors.New("текст объявления слишком длинный")
	// ErrInvalidLookingFor возвращается при неизвестной аудитории.
	ErrInvalidLookingFor = errors.New("недопустимое значение lookingFor")
	// ErrInvalidFontSize возвращается при неизвестном размере шрифта.
	ErrInvalidFontSize = errors.New("недопустимый размер шрифта")
	// ErrInvalidDuration возвращается при длительности вне тарифной сетки.
	ErrInvalidDuration = errors.New("недопустимая длительность размещения")
	// ErrEmptyEmail возвращается, когда не указан email автора.
	ErrEmptyEmail = errors.New("email автора обязателен")
)

const maxVisibleLength = 2000

// validDurations длительности, которым соответствует тарифный уровень.
var validDurations = map[int]bool{14: true, 21: true, 28: true}

// Quoter считает стоимость объявления.
type Quoter interface {
	Quote(ctx context.Context, in pricing.Input) (pricing.Result, error)
}

// ReferenceData поставляет справочники для построения поискового запроса.
type ReferenceData interface {
	SynonymIndex(ctx context.Context) (domain.SynonymIndex, error)
	FilterCatalog(ctx context.Context) (domain.FilterCatalog, error)
}

// Service реализует бизнес-логику объявлений.
type Service struct {
	ads      domain.AdRepo
	coupons  domain.CouponRepo
	ref      ReferenceData
	quoter   Quoter
	gateway  domain.PaymentGateway
	currency string
	log      zerolog.Logger
	now      func() time.Time
}

// NewService создаёт сервис объявлений. now инжектируется для тестов,
// nil означает time.Now.
func NewService(ads domain.AdRepo, coupons domain.CouponRepo, ref ReferenceData, quoter Quoter, gateway domain.PaymentGateway, currency string, log zerolog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if currency == "" {
		currency = "INR"
	}
	return &Service{ads: ads, coupons: coupons, ref: ref, quoter: quoter, gateway: gateway, currency: currency, log: log, now: now}
}

// SubmitParams параметры подачи объявления.
type SubmitParams struct {
	Email        string
	Content      string
	LookingFor   domain.LookingFor
	FontSize     domain.FontSize
	DurationDays int
	BgColor      string
	Icon         bool
	CouponCode   string
}

// Submit валидирует и сохраняет объявление в статусе pending.
// Текст приводится к белому списку тегов, стоимость фиксируется
// на момент подачи.
func (s *Service) Submit(ctx context.Context, p SubmitParams) (domain.Ad, error) {
	if strings.TrimSpace(p.Email) == "" {
		return domain.Ad{}, ErrEmptyEmail
	}
	if !p.LookingFor.Valid() {
		return domain.Ad{}, ErrInvalidLookingFor
	}
	if p.FontSize == "" {
		p.FontSize = domain.FontSizeDefault
	}
	if p.FontSize != domain.FontSizeDefault && p.FontSize != domain.FontSizeLarge {
		return domain.Ad{}, ErrInvalidFontSize
	}
	if !validDurations[p.DurationDays] {
		return domain.Ad{}, ErrInvalidDuration
	}

	content := markup.Sanitize(p.Content)
	visible := markup.VisibleLength(content)
	if visible == 0 {
		return domain.Ad{}, ErrEmptyContent
	}
	if visible > maxVisibleLength {
		return domain.Ad{}, ErrContentTooLong
	}

	quote, err := s.quoter.Quote(ctx, pricing.Input{
		Content:        content,
		FontSize:       p.FontSize,
		DurationDays:   p.DurationDays,
		CouponCode:     p.CouponCode,
		Icon:           p.Icon,
		HighlightColor: p.BgColor != "",
	})
	if err != nil {
		return domain.Ad{}, fmt.Errorf("расчёт стоимости: %w", err)
	}

	couponCode := ""
	if quote.CouponApplied {
		couponCode = p.CouponCode
	}

	ad := domain.Ad{
		Email:        strings.ToLower(strings.TrimSpace(p.Email)),
		Content:      content,
		LookingFor:   p.LookingFor,
		FontSize:     p.FontSize,
		DurationDays: p.DurationDays,
		BgColor:      p.BgColor,
		Icon:         p.Icon,
		CouponCode:   couponCode,
		Status:       domain.AdStatusPending,
		AmountDue:    quote.FinalAmount,
		CreatedAt:    s.now().UTC(),
	}
	created, err := s.ads.CreateAd(ctx, ad)
	if err != nil {
		return domain.Ad{}, fmt.Errorf("сохранение объявления: %w", err)
	}
	metrics.AdSubmissionsTotal.Inc()
	return created, nil
}

// Get возвращает опубликованное и неистёкшее объявление.
func (s *Service) Get(ctx context.Context, id int64) (domain.Ad, error) {
	return s.ads.GetPublishedAd(ctx, id, s.now().UTC())
}

// ListParams параметры выборки опубликованных объявлений.
type ListParams struct {
	Query      string
	OptionIDs  []int64
	LookingFor domain.LookingFor
	Page       int
	Limit      int
}

// ListResult страница выдачи.
type ListResult struct {
	Ads        []domain.Ad
	Total      int
	Page       int
	TotalPages int
}

// List возвращает страницу опубликованных объявлений, отфильтрованных
// поисковым предикатом. Недоступность справочников деградирует до
// буквального поиска без фильтров, а не до ошибки.
func (s *Service) List(ctx context.Context, p ListParams) (ListResult, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}

	now := s.now().UTC()
	candidates, err := s.ads.ListPublished(ctx, p.LookingFor, now)
	if err != nil {
		return ListResult{}, fmt.Errorf("выборка объявлений: %w", err)
	}

	pred := s.buildPredicate(ctx, p)
	matched := candidates[:0:0]
	for _, ad := range candidates {
		if pred.Match(search.NewDocument(ad.Email, ad.Content)) {
			matched = append(matched, ad)
		}
	}
	metrics.SearchRequestsTotal.Inc()

	total := len(matched)
	totalPages := (total + p.Limit - 1) / p.Limit
	start := (p.Page - 1) * p.Limit
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return ListResult{Ads: matched[start:end], Total: total, Page: p.Page, TotalPages: totalPages}, nil
}

func (s *Service) buildPredicate(ctx context.Context, p ListParams) search.Predicate {
	hasQuery := strings.TrimSpace(p.Query) != ""
	if !hasQuery && len(p.OptionIDs) == 0 {
		return search.MatchAll()
	}

	var synonyms domain.SynonymIndex
	if hasQuery {
		idx, err := s.ref.SynonymIndex(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("ads: словарь синонимов недоступен, ищем буквально")
		} else {
			synonyms = idx
		}
	}

	var catalog domain.FilterCatalog
	if len(p.OptionIDs) > 0 {
		c, err := s.ref.FilterCatalog(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("ads: каталог фильтров недоступен, фильтры пропущены")
		} else {
			catalog = c
		}
	}

	return search.Build(p.Query, p.OptionIDs, synonyms, catalog)
}

// Approve одобряет объявление и создаёт заказ на оплату. Бесплатные
// объявления публикуются сразу.
func (s *Service) Approve(ctx context.Context, id int64) (domain.Ad, error) {
	ad, err := s.ads.GetAd(ctx, id)
	if err != nil {
		return domain.Ad{}, err
	}
	if ad.Status != domain.AdStatusPending {
		return domain.Ad{}, domain.ErrInvalidAdStatus
	}

	if ad.AmountDue <= 0 {
		return s.publish(ctx, ad)
	}

	if err := s.ads.UpdateStatus(ctx, id, domain.AdStatusApproved); err != nil {
		return domain.Ad{}, fmt.Errorf("смена статуса: %w", err)
	}
	ad.Status = domain.AdStatusApproved

	order, err := s.gateway.CreateOrder(ctx, domain.PaymentOrderRequest{
		AmountMinor: ad.AmountDue,
		Currency:    s.currency,
		Receipt:     fmt.Sprintf("ad-%d-%s", ad.ID, uuid.NewString()),
		Notes:       map[string]string{"ad_id": fmt.Sprint(ad.ID)},
	})
	if err != nil {
		return domain.Ad{}, fmt.Errorf("создание заказа: %w", err)
	}
	if err := s.ads.SetPaymentOrder(ctx, id, order.ID); err != nil {
		return domain.Ad{}, fmt.Errorf("привязка заказа: %w", err)
	}
	ad.PaymentOrderID = order.ID
	return ad, nil
}

// Reject отклоняет объявление на модерации.
func (s *Service) Reject(ctx context.Context, id int64) error {
	ad, err := s.ads.GetAd(ctx, id)
	if err != nil {
		return err
	}
	if ad.Status != domain.AdStatusPending {
		return domain.ErrInvalidAdStatus
	}
	return s.ads.UpdateStatus(ctx, id, domain.AdStatusRejected)
}

// ConfirmPayment публикует оплаченное объявление и списывает
// использование купона, если он был применён при подаче.
func (s *Service) ConfirmPayment(ctx context.Context, id int64) (domain.Ad, error) {
	ad, err := s.ads.GetAd(ctx, id)
	if err != nil {
		return domain.Ad{}, err
	}
	if ad.Status != domain.AdStatusApproved {
		return domain.Ad{}, domain.ErrInvalidAdStatus
	}
	return s.publish(ctx, ad)
}

func (s *Service) publish(ctx context.Context, ad domain.Ad) (domain.Ad, error) {
	expires := s.now().UTC().AddDate(0, 0, ad.DurationDays)
	if err := s.ads.PublishAd(ctx, ad.ID, expires); err != nil {
		return domain.Ad{}, fmt.Errorf("публикация: %w", err)
	}
	ad.Status = domain.AdStatusPublished
	ad.ExpiresAt = &expires

	if ad.CouponCode != "" {
		if err := s.coupons.IncrementCouponUsage(ctx, ad.CouponCode); err != nil {
			s.log.Warn().Err(err).Str("coupon", ad.CouponCode).Msg("ads: не удалось списать использование купона")
		}
	}
	metrics.AdsPublishedTotal.Inc()
	return ad, nil
}
