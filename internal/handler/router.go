package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netfusion-go/internal/service"
)

// NewApp builds the fiber application with middleware and every route
func NewApp(ctl *Controller) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "netfusion-go",
		ErrorHandler:          ctl.ErrorHandler,
		ReadTimeout:           ctl.cfg.ReadTimeout,
		WriteTimeout:          ctl.cfg.WriteTimeout,
		DisableStartupMessage: true,
	})

	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	app.Use(ctl.accessLog())
	app.Use(fiberrecover.New())
	app.Use(helmet.New())
	app.Use(cors.New(corsConfig(ctl.cfg.FrontendURL)))
	app.Use(compress.New())

	app.Get("/health", ctl.Health)
	if ctl.metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(ctl.metrics.Gatherer(), promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Get("/google", ctl.GoogleLogin)
	authGroup.Get("/google/callback", ctl.GoogleCallback)
	authGroup.Post("/logout", ctl.Logout)

	apiGroup := app.Group("/api",
		rateLimit(ctl.cfg.APIRateMax, ctl.cfg.APIRateWindow, "Too many requests, please try again later"),
		ctl.requireSession(),
	)
	apiGroup.Get("/auth/me", ctl.Me)
	apiGroup.Get("/sites", ctl.Sites)
	apiGroup.Get("/overview", ctl.Overview)
	apiGroup.Get("/analytics", ctl.section(service.SectionKeywords))
	apiGroup.Get("/trends", ctl.section(service.SectionTrends))
	apiGroup.Get("/pages", ctl.section(service.SectionPages))
	apiGroup.Get("/performance", ctl.Performance)
	apiGroup.Get("/top-queries", ctl.TopQueries)
	apiGroup.Post("/gsc/query", ctl.SearchQuery)
	apiGroup.Get("/cache/stats", ctl.CacheStats)
	apiGroup.Post("/ai-insights",
		rateLimit(ctl.cfg.AIRateMax, ctl.cfg.AIRateWindow, "AI insight limit reached, please try again later"),
		ctl.AIInsights,
	)

	ga4 := apiGroup.Group("/ga4")
	ga4.Post("/report", ctl.GA4Report)
	ga4.Get("/overview/:propertyId", ctl.GA4Overview)
	ga4.Get("/traffic-sources/:propertyId", ctl.GA4TrafficSources)

	seo := apiGroup.Group("/dataforseo")
	seo.Post("/serp", ctl.researchHandler(researchSERP))
	seo.Post("/keywords", ctl.researchHandler(researchKeywords))
	seo.Post("/domain", ctl.researchHandler(researchDomain))
	seo.Post("/competitors", ctl.researchHandler(researchCompetitors))
	seo.Post("/backlinks", ctl.researchHandler(researchBacklinks))
	seo.Get("/balance", ctl.Balance)

	if ctl.cfg.StaticDir != "" {
		app.Static("/", ctl.cfg.StaticDir)
	}
	app.Use(notFound)

	return app
}

func corsConfig(frontendURL string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders: SessionHeader + ", X-Request-ID",
	}
	// credentials may only be shared with an explicit origin
	if frontendURL != "" {
		cfg.AllowOrigins = frontendURL
		cfg.AllowCredentials = true
	}
	return cfg
}

// Health reports liveness plus upstream breaker state
func (ctl *Controller) Health(c *fiber.Ctx) error {
	return c.JSON(ctl.status())
}
