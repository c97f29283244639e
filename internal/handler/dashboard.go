package handler

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"netfusion-go/internal/service"
)

func (ctl *Controller) Sites(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	sites, err := ctl.dashboard.Sites(c.UserContext(), sess.Google.AccessToken)
	if err != nil {
		return upstream(err)
	}
	return c.JSON(fiber.Map{"sites": sites})
}

// Overview returns keywords, trends and pages for one site in a single call
func (ctl *Controller) Overview(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	out, err := ctl.dashboard.SiteOverview(c.UserContext(), sess.Google.AccessToken,
		c.Query("siteUrl"), c.QueryInt("days", service.DefaultDays))
	if err != nil {
		return upstream(err)
	}
	return c.JSON(out)
}

func (ctl *Controller) section(name service.Section) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := currentSession(c)
		if err != nil {
			return err
		}

		out, err := ctl.dashboard.Section(c.UserContext(), sess.Google.AccessToken,
			c.Query("siteUrl"), name, c.QueryInt("days", service.DefaultDays))
		if err != nil {
			return upstream(err)
		}
		return c.JSON(out)
	}
}

// Performance compares the last window with the one before it
func (ctl *Controller) Performance(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	out, err := ctl.dashboard.Performance(c.UserContext(), sess.Google.AccessToken,
		c.Query("siteUrl"), c.QueryInt("window", service.DefaultWindowDays))
	if err != nil {
		return upstream(err)
	}
	return c.JSON(out)
}

func (ctl *Controller) TopQueries(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	rows, err := ctl.dashboard.TopQueries(c.UserContext(), sess.Google.AccessToken,
		c.Query("siteUrl"), c.QueryInt("limit", service.DefaultTopQueryLimit))
	if err != nil {
		return upstream(err)
	}
	return c.JSON(fiber.Map{"siteUrl": c.Query("siteUrl"), "rows": rows})
}

// SearchQuery runs a caller-shaped search-analytics query
func (ctl *Controller) SearchQuery(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	var params service.QueryParams
	if err := c.BodyParser(&params); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body")
	}

	out, err := ctl.dashboard.Query(c.UserContext(), sess.Google.AccessToken, params)
	if err != nil {
		return upstream(err)
	}
	return c.JSON(fiber.Map{
		"rows":                    out.Rows,
		"responseAggregationType": out.ResponseAggregationType,
		"source":                  "GSC",
		"timestamp":               ctl.now().UTC().Format(time.RFC3339),
	})
}
