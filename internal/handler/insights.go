package handler

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"netfusion-go/internal/service"
)

// insightBody accepts either precomputed numbers in Data or a site to
// summarize first
type insightBody struct {
	Data    *service.InsightRequest `json:"data"`
	SiteURL string                  `json:"siteUrl"`
	Days    int                     `json:"days"`
}

// AIInsights returns recommendations for the given performance numbers.
// Identical numbers are answered from the response cache.
func (ctl *Controller) AIInsights(c *fiber.Ctx) error {
	var body insightBody
	if err := c.BodyParser(&body); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body")
	}

	var req service.InsightRequest
	switch {
	case body.Data != nil:
		req = *body.Data
	case body.SiteURL != "":
		sess, err := currentSession(c)
		if err != nil {
			return err
		}
		overview, err := ctl.dashboard.SiteOverview(c.UserContext(), sess.Google.AccessToken, body.SiteURL, body.Days)
		if err != nil {
			return upstream(err)
		}
		req = service.InsightRequestFromOverview(overview)
	default:
		return fiber.NewError(http.StatusBadRequest, "Either data or siteUrl is required")
	}

	res, err := ctl.insights.Generate(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// CacheStats exposes the insight cache counters
func (ctl *Controller) CacheStats(c *fiber.Ctx) error {
	return c.JSON(ctl.insights.CacheStats())
}
