package handler

import (
	"time"

	"netfusion-go/internal/auth"
	"netfusion-go/internal/service"
	"netfusion-go/pkg/api"
	"netfusion-go/pkg/logger"
	"netfusion-go/pkg/telemetry"
)

const version = "1.0.0"

// Controller owns every dependency the HTTP handlers reach into
type Controller struct {
	dashboard service.DashboardProvider
	insights  service.InsightProvider
	analytics service.AnalyticsProvider
	research  service.ResearchProvider
	oauth     api.Authenticator
	sessions  *auth.Issuer
	metrics   *telemetry.Metrics
	health    map[string]func() bool
	cfg       Config
	now       func() time.Time
	log       *logger.Logger
	secLog    *logger.SecurityLogger
}

// Config holds the HTTP-facing settings
type Config struct {
	FrontendURL   string
	StaticDir     string
	APIRateMax    int
	APIRateWindow time.Duration
	AIRateMax     int
	AIRateWindow  time.Duration
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	SecureCookies bool
}

// Deps groups the collaborators of NewController. Metrics and Health may be nil.
type Deps struct {
	Dashboard service.DashboardProvider
	Insights  service.InsightProvider
	Analytics service.AnalyticsProvider
	Research  service.ResearchProvider
	OAuth     api.Authenticator
	Sessions  *auth.Issuer
	Metrics   *telemetry.Metrics
	// Health reports per-upstream readiness, e.g. a closed circuit breaker
	Health map[string]func() bool
}

type StatusResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Metrics   map[string]interface{} `json:"metrics"`
	Health    map[string]bool        `json:"health"`
}

func NewController(deps Deps, cfg Config) *Controller {
	if cfg.APIRateMax <= 0 {
		cfg.APIRateMax = 100
	}
	if cfg.APIRateWindow <= 0 {
		cfg.APIRateWindow = 15 * time.Minute
	}
	if cfg.AIRateMax <= 0 {
		cfg.AIRateMax = 20
	}
	if cfg.AIRateWindow <= 0 {
		cfg.AIRateWindow = time.Hour
	}

	return &Controller{
		dashboard: deps.Dashboard,
		insights:  deps.Insights,
		analytics: deps.Analytics,
		research:  deps.Research,
		oauth:     deps.OAuth,
		sessions:  deps.Sessions,
		metrics:   deps.Metrics,
		health:    deps.Health,
		cfg:       cfg,
		now:       time.Now,
		log:       logger.GetLogger().WithField("component", "http"),
		secLog:    logger.GetSecurityLogger(),
	}
}

// status builds the health payload
func (ctl *Controller) status() StatusResponse {
	resp := StatusResponse{
		Status:    "ok",
		Version:   version,
		Timestamp: ctl.now().UTC().Format(time.RFC3339),
		Metrics:   map[string]interface{}{},
		Health:    map[string]bool{},
	}

	if ctl.insights != nil {
		stats := ctl.insights.CacheStats()
		resp.Metrics["cache_entries"] = stats.Size
		resp.Metrics["cache_hit_ratio"] = stats.HitRatio
	}

	for name, check := range ctl.health {
		ok := check()
		resp.Health[name] = ok
		if !ok {
			resp.Status = "degraded"
		}
	}
	return resp
}
