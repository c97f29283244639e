package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"netfusion-go/internal/service"
	"netfusion-go/pkg/api"
)

type researchCall func(p service.ResearchProvider, ctx context.Context, req service.ResearchRequest) (*api.TaskResult, error)

var (
	researchSERP        researchCall = service.ResearchProvider.SERP
	researchKeywords    researchCall = service.ResearchProvider.Keywords
	researchDomain      researchCall = service.ResearchProvider.Domain
	researchCompetitors researchCall = service.ResearchProvider.Competitors
	researchBacklinks   researchCall = service.ResearchProvider.Backlinks
)

// researchResponse is the envelope of every DataForSEO endpoint
type researchResponse struct {
	Items     interface{} `json:"items"`
	Cost      string      `json:"cost"`
	Source    string      `json:"source"`
	Timestamp string      `json:"timestamp"`
}

func (ctl *Controller) researchHandler(call researchCall) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ctl.research == nil {
			return api.ErrNotConfigured
		}

		var req service.ResearchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "Invalid request body")
		}

		res, err := call(ctl.research, c.UserContext(), req)
		if err != nil {
			return upstream(err)
		}

		return c.JSON(researchResponse{
			Items:     res.Items,
			Cost:      res.Cost.String(),
			Source:    "dataforseo",
			Timestamp: ctl.now().UTC().Format(time.RFC3339),
		})
	}
}

func (ctl *Controller) Balance(c *fiber.Ctx) error {
	if ctl.research == nil {
		return api.ErrNotConfigured
	}

	bal, err := ctl.research.Balance(c.UserContext())
	if err != nil {
		return upstream(err)
	}
	return c.JSON(fiber.Map{
		"balance":  bal.Amount.String(),
		"currency": bal.Currency,
	})
}
