package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"netfusion-go/pkg/api"
	"netfusion-go/pkg/logger"
	"netfusion-go/pkg/metrics"
	"netfusion-go/pkg/storage"
)

const (
	insightNamespace = "insights"
	// promptTopRows caps how many rows reach the prompt and the cache key
	promptTopRows = 20
)

// Insight origins
const (
	OriginCache = "cache"
	OriginModel = "model"
	OriginRules = "rules"
)

// Priorities
const (
	PriorityHigh       = "high"
	PriorityMedium     = "medium"
	PriorityLow        = "low"
	PriorityActionable = "actionable"
	PriorityInfo       = "info"
)

// ErrUnparsableInsights is returned when the model answer is not a JSON array of insights
var ErrUnparsableInsights = errors.New("model answer is not an insight list")

type Insight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// InsightRequest carries the aggregate numbers a recommendation is based on.
// AvgCTR is a ratio in [0,1].
type InsightRequest struct {
	TotalClicks      int64                        `json:"totalClicks"`
	TotalImpressions int64                        `json:"totalImpressions"`
	AvgPosition      float64                      `json:"avgPosition"`
	AvgCTR           float64                      `json:"avgCtr"`
	TopData          []metrics.SearchAnalyticsRow `json:"topData"`
}

// InsightRequestFromOverview builds a request from a computed overview
func InsightRequestFromOverview(o *SiteOverview) InsightRequest {
	top := make([]metrics.SearchAnalyticsRow, 0, len(o.Keywords))
	for _, r := range o.Keywords {
		top = append(top, metrics.SearchAnalyticsRow{
			Keys:        r.Keys,
			Clicks:      float64(r.Clicks),
			Impressions: float64(r.Impressions),
			CTR:         r.CTR,
			Position:    r.Position,
		})
	}
	return InsightRequest{
		TotalClicks:      o.Summary.TotalClicks,
		TotalImpressions: o.Summary.TotalImpressions,
		AvgPosition:      o.Summary.AvgPosition,
		AvgCTR:           o.Summary.AvgCTR,
		TopData:          top,
	}
}

type InsightResult struct {
	Insights    []Insight `json:"insights"`
	Origin      string    `json:"origin"`
	GeneratedAt time.Time `json:"generatedAt"`
	// Fallback explains why rules were used instead of the model
	Fallback string `json:"fallback,omitempty"`
}

type insightTopKey struct {
	Key         string  `json:"k"`
	Clicks      int64   `json:"c"`
	Impressions int64   `json:"i"`
	Position    float64 `json:"p"`
}

type insightKey struct {
	TotalClicks      int64           `json:"tc"`
	TotalImpressions int64           `json:"ti"`
	AvgPosition      float64         `json:"ap"`
	AvgCTR           float64         `json:"ac"`
	Top              []insightTopKey `json:"top"`
}

// InsightFingerprint reduces a request to the inputs that shape the prompt.
// Floats are rounded to 4 decimals so float noise does not split the cache.
func InsightFingerprint(req InsightRequest) any {
	rows := metrics.FromSearchAnalytics(req.TopData)
	if len(rows) > promptTopRows {
		rows = rows[:promptTopRows]
	}

	top := make([]insightTopKey, 0, len(rows))
	for _, r := range rows {
		top = append(top, insightTopKey{
			Key:         strings.Join(r.Keys, "|"),
			Clicks:      r.Clicks,
			Impressions: r.Impressions,
			Position:    round4(r.Position),
		})
	}
	return insightKey{
		TotalClicks:      req.TotalClicks,
		TotalImpressions: req.TotalImpressions,
		AvgPosition:      round4(req.AvgPosition),
		AvgCTR:           round4(req.AvgCTR),
		Top:              top,
	}
}

type InsightConfig struct {
	// ResponseLanguage is the language the model is asked to answer in
	ResponseLanguage language.Tag
	// TTL of cached model answers; <= 0 uses the cache default
	TTL time.Duration
}

// InsightService turns aggregate numbers into recommendations. Model answers
// are cached; rule-based answers are cheap and never cached.
type InsightService struct {
	cache     storage.Cache
	generator api.TextGenerator
	observer  Observer
	cfg       InsightConfig
	now       func() time.Time
	log       *logger.Logger
}

// NewInsightService wires the service. generator may be nil, in which case
// every answer comes from the rules.
func NewInsightService(cache storage.Cache, generator api.TextGenerator, observer Observer, cfg InsightConfig) *InsightService {
	if observer == nil {
		observer = nopObserver{}
	}
	if cfg.ResponseLanguage == language.Und {
		cfg.ResponseLanguage = language.TraditionalChinese
	}
	return &InsightService{
		cache:     cache,
		generator: generator,
		observer:  observer,
		cfg:       cfg,
		now:       time.Now,
		log:       logger.GetLogger().WithField("component", "insights"),
	}
}

func (s *InsightService) CacheStats() storage.CacheStats {
	return s.cache.Stats()
}

func (s *InsightService) Generate(ctx context.Context, req InsightRequest) (*InsightResult, error) {
	if s.generator == nil {
		return s.rules(req, "model not configured"), nil
	}

	key, err := storage.DeriveKey(insightNamespace, InsightFingerprint(req))
	if err != nil {
		return nil, fmt.Errorf("derive insight key: %w", err)
	}

	if v, ok := s.cache.Get(key); ok {
		if insights, ok := v.([]Insight); ok {
			s.observer.ObserveCache(true)
			s.observer.ObserveInsight(OriginCache)
			s.log.WithField("cache_key", key).Debug("Insight cache hit")
			return &InsightResult{Insights: insights, Origin: OriginCache, GeneratedAt: s.now()}, nil
		}
	}
	s.observer.ObserveCache(false)

	text, err := s.generator.GenerateContent(ctx, s.BuildPrompt(req))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.WithError(err).Warn("Insight generation failed, using rules")
		return s.rules(req, "model unavailable"), nil
	}

	insights, err := ParseInsights(text)
	if err != nil {
		s.log.WithError(err).Warn("Insight answer unparsable, using rules")
		return s.rules(req, "model answer unparsable"), nil
	}

	s.cache.Set(key, insights, s.cfg.TTL)
	s.observer.ObserveInsight(OriginModel)
	return &InsightResult{Insights: insights, Origin: OriginModel, GeneratedAt: s.now()}, nil
}

func (s *InsightService) rules(req InsightRequest, reason string) *InsightResult {
	s.observer.ObserveInsight(OriginRules)
	return &InsightResult{
		Insights:    RuleBasedInsights(req),
		Origin:      OriginRules,
		GeneratedAt: s.now(),
		Fallback:    reason,
	}
}

// BuildPrompt renders the model prompt. Numbers use grouped formatting.
func (s *InsightService) BuildPrompt(req InsightRequest) string {
	p := message.NewPrinter(language.English)

	rows := metrics.FromSearchAnalytics(req.TopData)
	if len(rows) > promptTopRows {
		rows = rows[:promptTopRows]
	}

	var sb strings.Builder
	sb.WriteString("You are an experienced SEO consultant. Based on the Google Search Console data below, ")
	sb.WriteString("give 3 precise, concrete optimisation actions.\n\n")
	sb.WriteString("Overall metrics:\n")
	p.Fprintf(&sb, "- Total clicks: %d\n", req.TotalClicks)
	p.Fprintf(&sb, "- Total impressions: %d\n", req.TotalImpressions)
	p.Fprintf(&sb, "- Average position: %.1f\n", req.AvgPosition)
	p.Fprintf(&sb, "- Average CTR: %.2f%%\n\n", req.AvgCTR*100)

	p.Fprintf(&sb, "Top %d keywords and pages:\n", len(rows))
	for _, r := range rows {
		p.Fprintf(&sb, "- %s: %d clicks, %d impressions, CTR %.2f%%, position %.1f\n",
			strings.Join(r.Keys, " | "), r.Clicks, r.Impressions, r.CTR*100, r.Position)
	}

	sb.WriteString("\nPoint out keywords on the second results page (positions 11-20) that need a push, ")
	sb.WriteString("and pages whose click-through rate is unusually low.\n")
	p.Fprintf(&sb, "Write titles and descriptions in %s.\n", languageName(s.cfg.ResponseLanguage))
	sb.WriteString(`Answer with a JSON array only, no markdown, in this shape: `)
	sb.WriteString(`[{"title": "...", "description": "... with concrete numbers", "priority": "High|Medium|Low"}]`)
	return sb.String()
}

// ParseInsights strips markdown code fences and decodes a JSON insight array
func ParseInsights(text string) ([]Insight, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	if start, end := strings.Index(cleaned, "["), strings.LastIndex(cleaned, "]"); start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	var insights []Insight
	if err := json.Unmarshal([]byte(cleaned), &insights); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableInsights, err)
	}
	if len(insights) == 0 {
		return nil, ErrUnparsableInsights
	}

	for i := range insights {
		insights[i].Priority = strings.ToLower(strings.TrimSpace(insights[i].Priority))
		if insights[i].Priority == "" {
			insights[i].Priority = PriorityMedium
		}
	}
	return insights, nil
}

// RuleBasedInsights derives recommendations from thresholds alone
func RuleBasedInsights(req InsightRequest) []Insight {
	p := message.NewPrinter(language.English)
	var out []Insight

	switch {
	case req.AvgPosition > 10:
		out = append(out, Insight{
			Title:       "Ranking opportunity",
			Description: p.Sprintf("Average position is %.1f. Deepen content and build backlinks to move up the results.", req.AvgPosition),
			Priority:    PriorityHigh,
		})
	case req.AvgPosition > 5:
		out = append(out, Insight{
			Title:       "Within reach of the top 5",
			Description: p.Sprintf("Average position is %.1f. Tighten page titles and structured data to break into the top 5.", req.AvgPosition),
			Priority:    PriorityMedium,
		})
	}

	if req.AvgCTR < 0.02 {
		out = append(out, Insight{
			Title:       "Low click-through rate",
			Description: p.Sprintf("CTR is only %.2f%%. Rewrite meta descriptions and titles to attract more clicks.", req.AvgCTR*100),
			Priority:    PriorityHigh,
		})
	}

	rows := metrics.FromSearchAnalytics(req.TopData)
	if len(rows) > 0 {
		top := rows[0]
		if top.Position > 3 && top.Position <= 10 {
			out = append(out, Insight{
				Title:       p.Sprintf("Push %q into the top 3", top.DimensionKey),
				Description: p.Sprintf("This keyword ranks at %.0f on the first page and has strong potential to reach the top 3.", top.Position),
				Priority:    PriorityActionable,
			})
		}
	}

	if striking := metrics.StrikingDistance(rows); len(striking) > 0 {
		names := make([]string, 0, 3)
		for _, r := range striking {
			if len(names) == 3 {
				break
			}
			names = append(names, r.DimensionKey)
		}
		out = append(out, Insight{
			Title:       "Keywords on page two",
			Description: p.Sprintf("%d keywords rank between 11 and 20 (%s). A small lift moves them onto the first page.", len(striking), strings.Join(names, ", ")),
			Priority:    PriorityMedium,
		})
	}

	if len(out) == 0 {
		out = append(out, Insight{
			Title:       "Keep monitoring",
			Description: "Performance is stable. Keep tracking trends and review competitors regularly.",
			Priority:    PriorityInfo,
		})
	}
	return out
}

func languageName(tag language.Tag) string {
	switch base, _ := tag.Base(); base.String() {
	case "zh":
		if script, _ := tag.Script(); script.String() == "Hans" {
			return "Simplified Chinese"
		}
		return "Traditional Chinese"
	case "ja":
		return "Japanese"
	case "en":
		return "English"
	default:
		return tag.String()
	}
}

func round4(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10000) / 10000
}
