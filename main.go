package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"netfusion-go/internal/service"
	"netfusion-go/pkg/api"
	"netfusion-go/pkg/logger"
	"netfusion-go/pkg/metrics"
	"netfusion-go/pkg/storage"
)

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns environment variable as int or default
func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBoolOrDefault returns environment variable as bool or default
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func main() {
	var (
		siteURL     = flag.String("site", getEnvOrDefault("NETFUSION_SITE_URL", ""), "Search Console property, e.g. https://example.com/ or sc-domain:example.com (env: NETFUSION_SITE_URL)")
		accessToken = flag.String("token", getEnvOrDefault("GOOGLE_ACCESS_TOKEN", ""), "Google OAuth access token (env: GOOGLE_ACCESS_TOKEN)")
		window      = flag.Int("window", getEnvIntOrDefault("NETFUSION_WINDOW_DAYS", service.DefaultWindowDays), "Comparison window in days (env: NETFUSION_WINDOW_DAYS)")
		top         = flag.Int("top", getEnvIntOrDefault("NETFUSION_TOP", 10), "Number of top queries to print (env: NETFUSION_TOP)")
		geminiKey   = flag.String("gemini-key", getEnvOrDefault("GEMINI_API_KEY", ""), "Gemini API key for insights; rules are used when empty (env: GEMINI_API_KEY)")
		timeout     = flag.Duration("timeout", 60*time.Second, "Overall timeout")
		debug       = flag.Bool("debug", getEnvBoolOrDefault("DEBUG", false), "Enable debug logging (env: DEBUG)")
		help        = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		printUsage()
		return
	}

	level := "warn"
	if *debug {
		level = "debug"
	}
	logger.SetLogger(logger.New(logger.Config{Level: level, Format: "console", Output: "stderr"}))

	if *siteURL == "" || *accessToken == "" {
		fmt.Fprintln(os.Stderr, "Error: -site and -token are required")
		printUsage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *siteURL, *accessToken, *window, *top, *geminiKey); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, siteURL, accessToken string, window, top int, geminiKey string) error {
	gsc := api.NewSearchConsoleClient("", api.NewTransport(api.DefaultTransportConfig("search_console")))
	dashboard := service.NewDashboardService(gsc)

	report, err := dashboard.Performance(ctx, accessToken, siteURL, window)
	if err != nil {
		return fmt.Errorf("performance report: %w", err)
	}
	printPerformance(report)

	overview, err := dashboard.SiteOverview(ctx, accessToken, siteURL, report.WindowDays)
	if err != nil {
		return fmt.Errorf("site overview: %w", err)
	}
	printRows("Top queries", metrics.Rank(overview.Keywords, top, metrics.OrderClicksDesc))
	printRows("Striking distance (positions 11-20)", overview.StrikingDistance)

	var generator api.TextGenerator
	if geminiKey != "" {
		generator = api.NewGeminiClient("", geminiKey, "", api.NewTransport(api.DefaultTransportConfig("gemini")))
	}
	cache, err := storage.NewResponseCache(storage.DefaultCacheCapacity, storage.DefaultCacheTTL)
	if err != nil {
		return err
	}
	insights, err := service.NewInsightService(cache, generator, nil, service.InsightConfig{}).
		Generate(ctx, service.InsightRequestFromOverview(overview))
	if err != nil {
		return fmt.Errorf("insights: %w", err)
	}
	printInsights(insights)
	return nil
}

func printPerformance(r *service.PerformanceReport) {
	fmt.Printf("📊 %s, last %d days vs previous %d days\n\n", r.SiteURL, r.WindowDays, r.WindowDays)
	fmt.Printf("  %-12s %14s %14s %10s\n", "Metric", "Current", "Previous", "Change")
	fmt.Printf("  %-12s %14d %14d %9.1f%%\n", "Clicks", r.Current.TotalClicks, r.Previous.TotalClicks, r.Change.Clicks)
	fmt.Printf("  %-12s %14d %14d %9.1f%%\n", "Impressions", r.Current.TotalImpressions, r.Previous.TotalImpressions, r.Change.Impressions)
	fmt.Printf("  %-12s %13.2f%% %13.2f%% %9.1f%%\n", "CTR", r.Current.AvgCTR*100, r.Previous.AvgCTR*100, r.Change.CTR)
	fmt.Printf("  %-12s %14.1f %14.1f %9.1f%%\n", "Position", r.Current.AvgPosition, r.Previous.AvgPosition, r.Change.Position)
	fmt.Println()
}

func printRows(title string, rows []metrics.MetricRow) {
	fmt.Printf("🔎 %s\n", title)
	if len(rows) == 0 {
		fmt.Println("  (none)")
		fmt.Println()
		return
	}
	for i, row := range rows {
		fmt.Printf("  %2d. %-40s clicks=%-6d impressions=%-8d ctr=%5.2f%% pos=%.1f\n",
			i+1, truncate(row.DimensionKey, 40), row.Clicks, row.Impressions, row.CTR*100, row.Position)
	}
	fmt.Println()
}

func printInsights(res *service.InsightResult) {
	fmt.Printf("💡 Recommendations (%s)\n", res.Origin)
	for _, in := range res.Insights {
		fmt.Printf("  [%s] %s\n      %s\n", strings.ToUpper(in.Priority), in.Title, in.Description)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printUsage() {
	fmt.Println("NetFusion - Search Console performance report")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  netfusion -site https://example.com/ -token <google-access-token> [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("The HTTP server lives in cmd/server.")
}
