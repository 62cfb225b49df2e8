// Package refdata отдаёт снимки справочных данных: тарифы, промокоды,
// словарь синонимов и каталог фильтров. Снимки кэшируются в TTL-кэше,
// чтобы не ходить в БД на каждый запрос поиска.
package refdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"matri-board/internal/domain"
)

const (
	keyPricingConfig = "refdata:pricing_config"
	keySynonymIndex  = "refdata:synonym_index"
	keyFilterCatalog = "refdata:filter_catalog"
)

// Service кэширующий поставщик справочных данных.
type Service struct {
	configs  domain.PricingConfigRepo
	coupons  domain.CouponRepo
	synonyms domain.SynonymRepo
	filters  domain.FilterRepo
	cache    domain.Cache
	ttl      time.Duration
	log      zerolog.Logger
}

// NewService создаёт поставщика. cache может быть nil, тогда каждый
// вызов идёт в репозиторий.
func NewService(configs domain.PricingConfigRepo, coupons domain.CouponRepo, synonyms domain.SynonymRepo, filters domain.FilterRepo, cache domain.Cache, ttl time.Duration, log zerolog.Logger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{configs: configs, coupons: coupons, synonyms: synonyms, filters: filters, cache: cache, ttl: ttl, log: log}
}

// PricingConfig возвращает тарифы. Отсутствующая запись деградирует
// до значений по умолчанию, а не до ошибки.
func (s *Service) PricingConfig(ctx context.Context) (domain.PricingConfig, error) {
	var cfg domain.PricingConfig
	if s.fromCache(keyPricingConfig, &cfg) {
		return cfg, nil
	}
	cfg, err := s.configs.GetPricingConfig(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("refdata: тарифы недоступны, используем значения по умолчанию")
		return domain.DefaultPricingConfig(), nil
	}
	s.toCache(keyPricingConfig, cfg)
	return cfg, nil
}

// Coupon возвращает промокод. Не кэшируется: счётчик использований
// должен быть свежим.
func (s *Service) Coupon(ctx context.Context, code string) (domain.Coupon, error) {
	return s.coupons.GetCoupon(ctx, code)
}

// SynonymIndex возвращает словарь синонимов активных групп.
func (s *Service) SynonymIndex(ctx context.Context) (domain.SynonymIndex, error) {
	var idx domain.SynonymIndex
	if s.fromCache(keySynonymIndex, &idx) {
		return idx, nil
	}
	idx, err := s.synonyms.ActiveSynonymIndex(ctx)
	if err != nil {
		return nil, err
	}
	s.toCache(keySynonymIndex, idx)
	return idx, nil
}

// FilterCatalog возвращает каталог активных вариантов фильтра.
func (s *Service) FilterCatalog(ctx context.Context) (domain.FilterCatalog, error) {
	var catalog domain.FilterCatalog
	if s.fromCache(keyFilterCatalog, &catalog) {
		return catalog, nil
	}
	catalog, err := s.filters.ActiveFilterCatalog(ctx)
	if err != nil {
		return nil, err
	}
	s.toCache(keyFilterCatalog, catalog)
	return catalog, nil
}

func (s *Service) fromCache(key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(key)
	if err != nil || len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("refdata: битый снимок в кэше")
		return false
	}
	return true
}

func (s *Service) toCache(key string, v any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(key, data, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("refdata: не удалось записать снимок")
	}
}
