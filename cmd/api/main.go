package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"matri-board/internal/adapters/payment"
	"matri-board/internal/adapters/repo"
	"matri-board/internal/domain"
	"matri-board/internal/infra/cache"
	"matri-board/internal/infra/config"
	"matri-board/internal/infra/db"
	httpinfra "matri-board/internal/infra/http"
	infralog "matri-board/internal/infra/log"
	"matri-board/internal/infra/metrics"
	"matri-board/internal/infra/queue"
	adsusecase "matri-board/internal/usecase/ads"
	contactusecase "matri-board/internal/usecase/contact"
	pricingusecase "matri-board/internal/usecase/pricing"
	"matri-board/internal/usecase/refdata"
)

func main() {
	cfg := config.Load()
	logger := infralog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()
	repoAdapter := repo.NewPostgres(pool)

	var refCache domain.Cache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		refCache = cache.NewRedis(redisClient)
	}

	var contactQueue domain.ContactQueue
	switch {
	case cfg.AMQPURL != "":
		rabbit, err := queue.NewRabbit(cfg.AMQPURL, cfg.Queues.Contact)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к rabbitmq")
		}
		defer rabbit.Close()
		contactQueue = rabbit
	case redisClient != nil:
		contactQueue = queue.NewRedis(redisClient, cfg.Queues.Contact)
	default:
		logger.Fatal().Msg("api: не настроена очередь контактов (AMQP_URL или REDIS_ADDR)")
	}

	gateway := payment.NewClient(payment.Config{
		BaseURL:   cfg.Payment.BaseURL,
		KeyID:     cfg.Payment.KeyID,
		KeySecret: cfg.Payment.KeySecret,
	})

	refService := refdata.NewService(repoAdapter, repoAdapter, repoAdapter, repoAdapter, refCache, cfg.Limits.RefTTL, logger.With().Str("component", "refdata").Logger())
	pricingService := pricingusecase.NewService(refService, logger.With().Str("component", "pricing").Logger(), nil)
	adsService := adsusecase.NewService(repoAdapter, repoAdapter, refService, pricingService, gateway, cfg.Payment.Currency, logger.With().Str("component", "ads").Logger(), nil)
	contactService := contactusecase.NewService(repoAdapter, repoAdapter, contactQueue, cfg.Limits.ContactDaily, logger.With().Str("component", "contact").Logger(), nil)

	srv := httpinfra.NewServer(logger.With().Str("component", "http").Logger())
	r := srv.Router

	r.Post("/api/v1/quote", func(w http.ResponseWriter, req *http.Request) {
		defer req.Body.Close()
		var body quoteRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		result, err := pricingService.Quote(req.Context(), pricingusecase.Input{
			Content:        body.Content,
			FontSize:       domain.FontSize(body.FontSize),
			DurationDays:   body.DurationDays,
			CouponCode:     body.CouponCode,
			Icon:           body.Icon,
			HighlightColor: body.BgColor != "",
		})
		if err != nil {
			writeUsecaseError(w, err)
			return
		}
		writeJSON(w, result)
	})

	r.Post("/api/v1/ads", func(w http.ResponseWriter, req *http.Request) {
		defer req.Body.Close()
		var body submitRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		fontSize := domain.FontSize(body.FontSize)
		ad, err := adsService.Submit(req.Context(), adsusecase.SubmitParams{
			Email:        body.Email,
			Content:      body.Content,
			LookingFor:   domain.LookingFor(body.LookingFor),
			FontSize:     fontSize,
			DurationDays: body.DurationDays,
			BgColor:      body.BgColor,
			Icon:         body.Icon,
			CouponCode:   body.CouponCode,
		})
		if err != nil {
			writeUsecaseError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(adResponse(ad))
	})

	r.Get("/api/v1/ads", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		result, err := adsService.List(req.Context(), adsusecase.ListParams{
			Query:      q.Get("search"),
			OptionIDs:  parseOptionIDs(q.Get("options")),
			LookingFor: domain.LookingFor(q.Get("lookingFor")),
			Page:       parseInt(q.Get("page")),
			Limit:      parseInt(q.Get("limit")),
		})
		if err != nil {
			writeUsecaseError(w, err)
			return
		}
		items := make([]map[string]any, 0, len(result.Ads))
		for _, ad := range result.Ads {
			items = append(items, adResponse(ad))
		}
		writeJSON(w, map[string]any{
			"ads":         items,
			"total":       result.Total,
			"page":        result.Page,
			"total_pages": result.TotalPages,
		})
	})

	r.Get("/api/v1/ads/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, ok := parseID(w, req)
		if !ok {
			return
		}
		ad, err := adsService.Get(req.Context(), id)
		if err != nil {
			writeUsecaseError(w, err)
			return
		}
		writeJSON(w, adResponse(ad))
	})

	r.Post("/api/v1/ads/{id}/contact", func(w http.ResponseWriter, req *http.Request) {
		defer req.Body.Close()
		id, ok := parseID(w, req)
		if !ok {
			return
		}
		var body contactRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		job, err := contactService.Relay(req.Context(), id, body.FromEmail, body.Message)
		if err != nil {
			writeUsecaseError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "queued", "job_id": job.ID})
	})

	r.Post("/api/v1/ads/{id}/approve", func(w http.ResponseWriter, req *http.Request) {
		id, ok := parseID(w, req)
		if !ok {
			return
		}
		ad, err := adsService.Approve(req.Context(), id)
		if err != nil {
			writeUsecaseError(w, err)
			return
		}
		writeJSON(w, adResponse(ad))
	})

	r.Post("/api/v1/ads/{id}/reject", func(w http.ResponseWriter, req *http.Request) {
		id, ok := parseID(w, req)
		if !ok {
			return
		}
		if err := adsService.Reject(req.Context(), id); err != nil {
			writeUsecaseError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "rejected"})
	})

	r.Post("/api/v1/ads/{id}/payment-confirm", func(w http.ResponseWriter, req *http.Request) {
		id, ok := parseID(w, req)
		if !ok {
			return
		}
		ad, err := adsService.ConfirmPayment(req.Context(), id)
		if err != nil {
			writeUsecaseError(w, err)
			return
		}
		writeJSON(w, adResponse(ad))
	})

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), ":9090")
	go func() {
		logger.Info().Msg("api: старт")
		if err := srv.Start(":" + strconv.Itoa(cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api: сервер остановлен")
		}
	}()
	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

type quoteRequest struct {
	Content      string `json:"content"`
	FontSize     string `json:"font_size"`
	DurationDays int    `json:"duration_days"`
	CouponCode   string `json:"coupon_code"`
	Icon         bool   `json:"icon"`
	BgColor      string `json:"bg_color"`
}

type submitRequest struct {
	Email        string `json:"email"`
	Content      string `json:"content"`
	LookingFor   string `json:"looking_for"`
	FontSize     string `json:"font_size"`
	DurationDays int    `json:"duration_days"`
	BgColor      string `json:"bg_color"`
	Icon         bool   `json:"icon"`
	CouponCode   string `json:"coupon_code"`
}

type contactRequest struct {
	FromEmail string `json:"from_email"`
	Message   string `json:"message"`
}

func adResponse(ad domain.Ad) map[string]any {
	resp := map[string]any{
		"id":            ad.ID,
		"content":       ad.Content,
		"looking_for":   ad.LookingFor,
		"font_size":     ad.FontSize,
		"duration_days": ad.DurationDays,
		"bg_color":      ad.BgColor,
		"icon":          ad.Icon,
		"status":        ad.Status,
		"amount_due":    ad.AmountDue,
		"created_at":    ad.CreatedAt,
	}
	if ad.ExpiresAt != nil {
		resp["expires_at"] = ad.ExpiresAt
	}
	return resp
}

func parseID(w http.ResponseWriter, req *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid ad id")
		return 0, false
	}
	return id, true
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseOptionIDs(s string) []int64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func writeUsecaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAdNotFound):
		writeError(w, http.StatusNotFound, "ad not found")
	case errors.Is(err, domain.ErrInvalidAdStatus):
		writeError(w, http.StatusConflict, "invalid ad status")
	case errors.Is(err, domain.ErrEmailLimitExceeded):
		writeError(w, http.StatusTooManyRequests, "daily email limit exceeded")
	case errors.Is(err, adsusecase.ErrEmptyContent),
		errors.Is(err, adsusecase.ErrContentTooLong),
		errors.Is(err, adsusecase.ErrInvalidLookingFor),
		errors.Is(err, adsusecase.ErrInvalidFontSize),
		errors.Is(err, adsusecase.ErrInvalidDuration),
		errors.Is(err, adsusecase.ErrEmptyEmail),
		errors.Is(err, contactusecase.ErrEmptyFromEmail),
		errors.Is(err, contactusecase.ErrEmptyMessage),
		errors.Is(err, pricingusecase.ErrNegativeDuration):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": msg})
}
