package service

import (
	"context"
	"fmt"
	"strings"

	"netfusion-go/pkg/api"
)

// ResearchRequest is the union of DataForSEO inputs; each call reads the
// fields it needs
type ResearchRequest struct {
	Keyword      string   `json:"keyword"`
	Keywords     []string `json:"keywords"`
	Domain       string   `json:"domain"`
	Target       string   `json:"target"`
	Limit        int      `json:"limit"`
	LocationCode int      `json:"locationCode"`
	LanguageCode string   `json:"languageCode"`
}

func (r ResearchRequest) locale() api.Locale {
	return api.Locale{LocationCode: r.LocationCode, LanguageCode: r.LanguageCode}
}

// ResearchService validates requests before they cost DataForSEO credits
type ResearchService struct {
	client api.KeywordResearch
}

func NewResearchService(client api.KeywordResearch) *ResearchService {
	return &ResearchService{client: client}
}

func (s *ResearchService) SERP(ctx context.Context, req ResearchRequest) (*api.TaskResult, error) {
	keyword := strings.TrimSpace(req.Keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is required", ErrInvalidArgument)
	}
	return s.client.SERPOrganic(ctx, keyword, req.locale())
}

func (s *ResearchService) Keywords(ctx context.Context, req ResearchRequest) (*api.TaskResult, error) {
	keywords := make([]string, 0, len(req.Keywords))
	for _, k := range req.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("%w: keywords array is required", ErrInvalidArgument)
	}
	return s.client.SearchVolume(ctx, keywords, req.locale())
}

func (s *ResearchService) Domain(ctx context.Context, req ResearchRequest) (*api.TaskResult, error) {
	domain := strings.TrimSpace(req.Domain)
	if domain == "" {
		return nil, fmt.Errorf("%w: domain is required", ErrInvalidArgument)
	}
	return s.client.DomainMetrics(ctx, domain, req.locale())
}

func (s *ResearchService) Competitors(ctx context.Context, req ResearchRequest) (*api.TaskResult, error) {
	domain := strings.TrimSpace(req.Domain)
	if domain == "" {
		return nil, fmt.Errorf("%w: domain is required", ErrInvalidArgument)
	}
	return s.client.Competitors(ctx, domain, req.Limit, req.locale())
}

func (s *ResearchService) Backlinks(ctx context.Context, req ResearchRequest) (*api.TaskResult, error) {
	target := strings.TrimSpace(req.Target)
	if target == "" {
		return nil, fmt.Errorf("%w: target is required", ErrInvalidArgument)
	}
	return s.client.Backlinks(ctx, target)
}

func (s *ResearchService) Balance(ctx context.Context) (*api.Balance, error) {
	return s.client.Balance(ctx)
}
