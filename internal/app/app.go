// Package app assembles the HTTP application from configuration and
// already-opened infrastructure.
package app

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	httpadp "microloans-api/internal/adapter/http"
	"microloans-api/internal/adapter/middleware"
	"microloans-api/internal/adapter/repository/sqlstore"
	"microloans-api/internal/config"
	"microloans-api/internal/domain/event"
	"microloans-api/internal/domain/stats"
	"microloans-api/internal/infrastructure/cache"
	approvalUC "microloans-api/internal/usecase/approval"
	borrowerUC "microloans-api/internal/usecase/borrower"
	loanUC "microloans-api/internal/usecase/loan"
	statsUC "microloans-api/internal/usecase/stats"
)

// Deps are the infrastructure handles the app is built on. Redis and
// Events are optional.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Events event.Publisher
	Logger *zap.Logger
}

// New builds the router: middleware, then every blueprint.
func New(cfg *config.Config, d Deps) *echo.Echo {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	events := d.Events
	if events == nil {
		events = event.Nop{}
	}
	var statsCache stats.Cache = stats.NopCache{}
	if d.Redis != nil {
		statsCache = cache.NewStatsCache(d.Redis, cfg.StatsCacheTTL, log.Named("cache"))
	}

	loans := sqlstore.NewLoanRepository(d.DB)
	borrowers := sqlstore.NewBorrowerRepository(d.DB)
	approvals := sqlstore.NewApprovalRepository(d.DB)
	tx := sqlstore.NewGormUoW(d.DB)

	page := httpadp.Pagination{DefaultLimit: cfg.DefaultLimit, MaxLimit: cfg.MaxLimit}
	ucLog := log.Named("usecase")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = !cfg.IsProduction()
	e.Validator = httpadp.NewValidator()
	e.HTTPErrorHandler = httpadp.NewHTTPErrorHandler(log)

	e.Use(
		echomw.Recover(),
		echomw.RequestID(),
		middleware.RequestLogger(log.Named("http")),
		echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{Timeout: cfg.RequestTimeout}),
	)

	idem := middleware.Idempotency(middleware.IdempotencyConfig{
		Redis: d.Redis,
		TTL:   cfg.IdempotencyTTL,
		Log:   log.Named("idempotency"),
	})

	httpadp.Mount(e, []echo.MiddlewareFunc{idem},
		httpadp.NewHandler(),
		httpadp.NewLoanHandler(loanUC.NewUsecase(loans, tx, events, statsCache, ucLog), page),
		httpadp.NewApprovalHandler(approvalUC.NewUsecase(loans, approvals, tx, events, statsCache, ucLog)),
		httpadp.NewBorrowerHandler(borrowerUC.NewUsecase(borrowers, events, statsCache, ucLog), page),
		httpadp.NewStatsHandler(statsUC.NewUsecase(sqlstore.NewStatsRepository(d.DB), statsCache)),
	)
	return e
}
