package handler

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"netfusion-go/internal/service"
)

func (ctl *Controller) GA4Report(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	var params service.ReportParams
	if err := c.BodyParser(&params); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body")
	}

	out, err := ctl.analytics.Report(c.UserContext(), sess.Google.AccessToken, params)
	if err != nil {
		return upstream(err)
	}
	return c.JSON(out)
}

func (ctl *Controller) GA4Overview(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	out, err := ctl.analytics.Overview(c.UserContext(), sess.Google.AccessToken, c.Params("propertyId"))
	if err != nil {
		return upstream(err)
	}
	return c.JSON(out)
}

func (ctl *Controller) GA4TrafficSources(c *fiber.Ctx) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	sources, err := ctl.analytics.TrafficSources(c.UserContext(), sess.Google.AccessToken, c.Params("propertyId"))
	if err != nil {
		return upstream(err)
	}
	return c.JSON(fiber.Map{"propertyId": c.Params("propertyId"), "sources": sources})
}
