package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"matri-board/internal/domain"
	"matri-board/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.AdRepo            = (*Postgres)(nil)
	_ domain.PricingConfigRepo = (*Postgres)(nil)
	_ domain.CouponRepo        = (*Postgres)(nil)
	_ domain.SynonymRepo       = (*Postgres)(nil)
	_ domain.FilterRepo        = (*Postgres)(nil)
	_ domain.EmailLimitRepo    = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

const adColumns = `id, email, content, looking_for, font_size, duration_days, bg_color, icon, coupon_code, status, amount_due, payment_order_id, expires_at, created_at`

func scanAd(row pgx.Row) (domain.Ad, error) {
	var (
		ad        domain.Ad
		bgColor   sql.NullString
		coupon    sql.NullString
		orderID   sql.NullString
		expiresAt sql.NullTime
	)
	err := row.Scan(&ad.ID, &ad.Email, &ad.Content, &ad.LookingFor, &ad.FontSize, &ad.DurationDays, &bgColor, &ad.Icon, &coupon, &ad.Status, &ad.AmountDue, &orderID, &expiresAt, &ad.CreatedAt)
	if err != nil {
		return domain.Ad{}, err
	}
	if bgColor.Valid {
		ad.BgColor = bgColor.String
	}
	if coupon.Valid {
		ad.CouponCode = coupon.String
	}
	if orderID.Valid {
		ad.PaymentOrderID = orderID.String
	}
	if expiresAt.Valid {
		ts := expiresAt.Time
		ad.ExpiresAt = &ts
	}
	return ad, nil
}

// CreateAd реализует domain.AdRepo.
func (p *Postgres) CreateAd(ctx context.Context, ad domain.Ad) (domain.Ad, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
INSERT INTO ads (email, content, looking_for, font_size, duration_days, bg_color, icon, coupon_code, status, amount_due)
VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7, NULLIF($8,''), $9, $10)
RETURNING `+adColumns+`
`, ad.Email, ad.Content, ad.LookingFor, ad.FontSize, ad.DurationDays, ad.BgColor, ad.Icon, ad.CouponCode, ad.Status, ad.AmountDue)
	created, err := scanAd(row)
	metrics.ObserveNetworkRequest("postgres", "ads_insert", "ads", start, err)
	if err != nil {
		return domain.Ad{}, err
	}
	return created, nil
}

// GetAd реализует domain.AdRepo.
func (p *Postgres) GetAd(ctx context.Context, id int64) (domain.Ad, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `SELECT `+adColumns+` FROM ads WHERE id = $1`, id)
	ad, err := scanAd(row)
	metrics.ObserveNetworkRequest("postgres", "ads_get", "ads", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Ad{}, domain.ErrAdNotFound
	}
	if err != nil {
		return domain.Ad{}, err
	}
	return ad, nil
}

// GetPublishedAd реализует domain.AdRepo.
func (p *Postgres) GetPublishedAd(ctx context.Context, id int64, now time.Time) (domain.Ad, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	row := p.pool.QueryRow(ctx, `
SELECT `+adColumns+` FROM ads
WHERE id = $1 AND status = $2 AND expires_at > $3
`, id, domain.AdStatusPublished, now)
	ad, err := scanAd(row)
	metrics.ObserveNetworkRequest("postgres", "ads_get_published", "ads", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Ad{}, domain.ErrAdNotFound
	}
	if err != nil {
		return domain.Ad{}, err
	}
	return ad, nil
}

// ListPublished реализует domain.AdRepo.
func (p *Postgres) ListPublished(ctx context.Context, lookingFor domain.LookingFor, now time.Time) ([]domain.Ad, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	query := `SELECT ` + adColumns + ` FROM ads WHERE status = $1 AND expires_at > $2`
	args := []any{domain.AdStatusPublished, now}
	if lookingFor != "" {
		query += ` AND looking_for = $3`
		args = append(args, lookingFor)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "ads_list_published", "ads", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ads []domain.Ad
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

// UpdateStatus реализует domain.AdRepo.
func (p *Postgres) UpdateStatus(ctx context.Context, id int64, status domain.AdStatus) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `UPDATE ads SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	metrics.ObserveNetworkRequest("postgres", "ads_update_status", "ads", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAdNotFound
	}
	return nil
}

// SetPaymentOrder реализует domain.AdRepo.
func (p *Postgres) SetPaymentOrder(ctx context.Context, id int64, orderID string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `UPDATE ads SET payment_order_id = $2, updated_at = now() WHERE id = $1`, id, orderID)
	metrics.ObserveNetworkRequest("postgres", "ads_set_payment_order", "ads", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAdNotFound
	}
	return nil
}

// PublishAd реализует domain.AdRepo.
func (p *Postgres) PublishAd(ctx context.Context, id int64, expiresAt time.Time) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE ads SET status = $2, expires_at = $3, updated_at = now() WHERE id = $1
`, id, domain.AdStatusPublished, expiresAt)
	metrics.ObserveNetworkRequest("postgres", "ads_publish", "ads", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAdNotFound
	}
	return nil
}

// GetPricingConfig реализует domain.PricingConfigRepo.
func (p *Postgres) GetPricingConfig(ctx context.Context) (domain.PricingConfig, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var cfg domain.PricingConfig
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT base_price_first_200, price_per_20_chars, large_font_multiplier,
       visibility_2_weeks_multiplier, visibility_3_weeks_multiplier, visibility_4_weeks_multiplier,
       icon_price, highlight_color_price
FROM pricing_configs WHERE is_active ORDER BY id DESC LIMIT 1
`).Scan(&cfg.BasePriceFirst200, &cfg.PricePer20Chars, &cfg.LargeFontMultiplier,
		&cfg.Visibility2WeeksMultiplier, &cfg.Visibility3WeeksMultiplier, &cfg.Visibility4WeeksMultiplier,
		&cfg.IconPrice, &cfg.HighlightColorPrice)
	metrics.ObserveNetworkRequest("postgres", "pricing_config_get", "pricing_configs", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PricingConfig{}, domain.ErrConfigNotFound
	}
	if err != nil {
		return domain.PricingConfig{}, err
	}
	return cfg, nil
}

// GetCoupon реализует domain.CouponRepo.
func (p *Postgres) GetCoupon(ctx context.Context, code string) (domain.Coupon, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var (
		coupon     domain.Coupon
		usageLimit sql.NullInt64
		expiresAt  sql.NullTime
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, code, discount_percentage, is_active, usage_limit, used_count, expires_at
FROM coupons WHERE upper(code) = upper($1)
`, strings.TrimSpace(code)).Scan(&coupon.ID, &coupon.Code, &coupon.DiscountPercentage, &coupon.IsActive, &usageLimit, &coupon.UsedCount, &expiresAt)
	metrics.ObserveNetworkRequest("postgres", "coupons_get", "coupons", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Coupon{}, domain.ErrCouponNotFound
	}
	if err != nil {
		return domain.Coupon{}, err
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		coupon.UsageLimit = &limit
	}
	if expiresAt.Valid {
		ts := expiresAt.Time
		coupon.ExpiresAt = &ts
	}
	return coupon, nil
}

// IncrementCouponUsage реализует domain.CouponRepo.
func (p *Postgres) IncrementCouponUsage(ctx context.Context, code string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `
UPDATE coupons SET used_count = used_count + 1, updated_at = now() WHERE upper(code) = upper($1)
`, strings.TrimSpace(code))
	metrics.ObserveNetworkRequest("postgres", "coupons_increment_usage", "coupons", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCouponNotFound
	}
	return nil
}

// ActiveSynonymIndex реализует domain.SynonymRepo.
func (p *Postgres) ActiveSynonymIndex(ctx context.Context) (domain.SynonymIndex, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT words FROM synonym_groups WHERE is_active`)
	metrics.ObserveNetworkRequest("postgres", "synonym_groups_list", "synonym_groups", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	index := make(domain.SynonymIndex)
	for rows.Next() {
		var words []string
		if err := rows.Scan(&words); err != nil {
			return nil, err
		}
		group := make([]string, 0, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				group = append(group, w)
			}
		}
		for _, w := range group {
			index[w] = group
		}
	}
	return index, rows.Err()
}

// ActiveFilterCatalog реализует domain.FilterRepo.
func (p *Postgres) ActiveFilterCatalog(ctx context.Context) (domain.FilterCatalog, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT o.id, o.section_id, o.value
FROM filter_options o
JOIN filter_sections s ON s.id = o.section_id
WHERE o.is_active AND s.is_active
`)
	metrics.ObserveNetworkRequest("postgres", "filter_options_list", "filter_options", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	catalog := make(domain.FilterCatalog)
	for rows.Next() {
		var (
			id  int64
			ref domain.FilterOptionRef
		)
		if err := rows.Scan(&id, &ref.SectionID, &ref.Value); err != nil {
			return nil, err
		}
		catalog[id] = ref
	}
	return catalog, rows.Err()
}

// IncrementDailyCount реализует domain.EmailLimitRepo.
func (p *Postgres) IncrementDailyCount(ctx context.Context, senderEmail, date string) (int, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var count int
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO email_limits (sender_email, sent_date, sent_count)
VALUES ($1, $2, 1)
ON CONFLICT (sender_email, sent_date) DO UPDATE SET sent_count = email_limits.sent_count + 1
RETURNING sent_count
`, strings.ToLower(strings.TrimSpace(senderEmail)), date).Scan(&count)
	metrics.ObserveNetworkRequest("postgres", "email_limits_increment", "email_limits", start, err)
	if err != nil {
		return 0, err
	}
	return count, nil
}
