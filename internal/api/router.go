package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"trade-journal-go/internal/analytics"
	"trade-journal-go/internal/config"
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/storage"
)

// NewRouter wires every handler onto a new gin engine.
func NewRouter(cfg config.Server, db *gorm.DB, files *storage.FileStore, log *zap.Logger) *gin.Engine {
	log = log.Named("api")

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))
	if cfg.RateLimit > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		engine.Use(rateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), burst), log))
	}

	health := &HealthHandler{DB: db}
	health.Register(engine)

	trades := &TradeHandler{Trades: journal.NewTradeRepository(db, files, log), Log: log}
	trades.Register(engine)

	stats := &AnalyticsHandler{Engine: analytics.NewEngine(db, log), Log: log}
	stats.Register(engine)

	tags := &TagHandler{Tags: journal.NewTagRepository(db, log), Log: log}
	tags.Register(engine)

	fields := &FieldHandler{Fields: journal.NewCustomFieldRepository(db, log), Log: log}
	fields.Register(engine)

	uploads := &AttachmentHandler{
		Attachments: journal.NewAttachmentRepository(db),
		Files:       files,
		MaxBytes:    cfg.MaxUploadBytes,
		Log:         log,
	}
	uploads.Register(engine)

	return engine
}
