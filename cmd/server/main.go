package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"netfusion-go/internal/auth"
	"netfusion-go/internal/config"
	"netfusion-go/internal/handler"
	"netfusion-go/internal/service"
	"netfusion-go/pkg/api"
	"netfusion-go/pkg/logger"
	"netfusion-go/pkg/storage"
	"netfusion-go/pkg/telemetry"
)

const metricsNamespace = "netfusion"

type Application struct {
	configPath string
	debug      bool
}

func main() {
	app := &Application{}

	flag.StringVar(&app.configPath, "config", "config/netfusion.yaml", "Configuration file path (optional)")
	flag.BoolVar(&app.debug, "debug", false, "Enable debug mode")
	flag.Parse()

	if err := app.Run(); err != nil {
		log.Fatalf("Application failed: %v", err)
	}
}

func (app *Application) Run() error {
	cfg, err := config.NewManager().Load(app.configPath)
	if err != nil {
		return err
	}
	if app.debug {
		cfg.Logger.Level = "debug"
	}

	logger.SetLogger(logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		TimeFormat: cfg.Logger.TimeFormat,
	}))
	logr := logger.GetLogger().WithField("component", "server")

	metrics := telemetry.NewMetrics(metricsNamespace)

	newTransport := func(source string, qps float64) *api.Transport {
		return api.NewTransport(api.TransportConfig{
			Source:          source,
			Timeout:         cfg.Upstream.Timeout,
			MaxRetries:      cfg.Upstream.MaxRetries,
			RetryDelay:      cfg.Upstream.RetryDelay,
			BreakerFailures: cfg.Upstream.BreakerFailures,
			BreakerReset:    cfg.Upstream.BreakerReset,
			QPS:             qps,
			Observer:        metrics,
		})
	}

	gscTransport := newTransport("search_console", cfg.Upstream.QPS)
	ga4Transport := newTransport("analytics_data", cfg.Upstream.QPS)
	seoTransport := newTransport("dataforseo", cfg.DataForSEO.QPS)
	geminiTransport := newTransport("gemini", cfg.Gemini.QPS)
	oauthTransport := newTransport("oauth", cfg.Upstream.QPS)

	gsc := api.NewSearchConsoleClient(cfg.Google.SearchConsoleEndpoint, gscTransport)
	ga4 := api.NewAnalyticsDataClient(cfg.Google.AnalyticsDataEndpoint, ga4Transport)
	seo := api.NewDataForSEOClient(cfg.DataForSEO.Endpoint, cfg.DataForSEO.Login, cfg.DataForSEO.Password,
		api.Locale{LocationCode: cfg.DataForSEO.LocationCode, LanguageCode: cfg.DataForSEO.LanguageCode}, seoTransport)
	gemini := api.NewGeminiClient(cfg.Gemini.Endpoint, cfg.Gemini.APIKey, cfg.Gemini.Model, geminiTransport)
	oauthClient := api.NewOAuthClient(api.OAuthConfig{
		ClientID:         cfg.Google.ClientID,
		ClientSecret:     cfg.Google.ClientSecret,
		RedirectURL:      cfg.Google.RedirectURL,
		AuthEndpoint:     cfg.Google.AuthEndpoint,
		TokenEndpoint:    cfg.Google.TokenEndpoint,
		UserInfoEndpoint: cfg.Google.UserInfoEndpoint,
	}, oauthTransport)

	// Interfaces stay nil when credentials are missing so callers can tell
	var generator api.TextGenerator
	if gemini.Configured() {
		generator = gemini
	} else {
		logr.Warn("Gemini API key not set, insights come from rules only")
	}
	var authenticator api.Authenticator
	if oauthClient.Configured() {
		authenticator = oauthClient
	} else {
		logr.Warn("Google OAuth client not set, sign-in is disabled")
	}
	if !seo.Configured() {
		logr.Warn("DataForSEO credentials not set, research endpoints answer 503")
	}

	cache, err := storage.NewResponseCache(cfg.Cache.Capacity, cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("create response cache: %w", err)
	}
	metrics.RegisterCacheSize(metricsNamespace, cache.Len)

	issuer, err := auth.NewIssuer(cfg.Security.JWTSecret, cfg.Security.SessionTTL)
	if err != nil {
		return fmt.Errorf("create session issuer: %w", err)
	}

	ctl := handler.NewController(handler.Deps{
		Dashboard: service.NewDashboardService(gsc),
		Insights:  service.NewInsightService(cache, generator, metrics, service.InsightConfig{TTL: cfg.Cache.TTL}),
		Analytics: service.NewAnalyticsService(ga4),
		Research:  service.NewResearchService(seo),
		OAuth:     authenticator,
		Sessions:  issuer,
		Metrics:   metrics,
		Health: map[string]func() bool{
			gscTransport.Source():    breakerClosed(gscTransport),
			ga4Transport.Source():    breakerClosed(ga4Transport),
			seoTransport.Source():    breakerClosed(seoTransport),
			geminiTransport.Source(): breakerClosed(geminiTransport),
		},
	}, handler.Config{
		FrontendURL:   cfg.Server.FrontendURL,
		StaticDir:     cfg.Server.StaticDir,
		APIRateMax:    cfg.RateLimit.APIMax,
		APIRateWindow: cfg.RateLimit.APIWindow,
		AIRateMax:     cfg.RateLimit.AIMax,
		AIRateWindow:  cfg.RateLimit.AIWindow,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		SecureCookies: strings.HasPrefix(cfg.Google.RedirectURL, "https://"),
	})
	server := handler.NewApp(ctl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(addr)
	}()

	logr.WithFields(map[string]interface{}{
		"addr":     addr,
		"frontend": cfg.Server.FrontendURL,
	}).Info("NetFusion server started")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("Shutdown signal received, shutting down gracefully...")
	if err := server.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logr.Info("Server stopped")
	return nil
}

func breakerClosed(t *api.Transport) func() bool {
	return func() bool {
		return t.BreakerState() != api.StateOpen
	}
}
