package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/saferide/saferide/pkg/tracker"
	"github.com/saferide/saferide/pkg/tracker/sources"
	"github.com/saferide/saferide/pkg/util"
)

func TraccarRouter(router fiber.Router) {
	router.Post("/webhook", traccarWebhook)
	router.Get("/webhook/health", traccarWebhookHealth)
}

// traccarWebhook receives position pushes forwarded from the Traccar server.
// Positions for devices with no ongoing trip are acknowledged and dropped -
// an error response would make Traccar requeue them forever.
func traccarWebhook(c *fiber.Ctx) error {
	env := util.GetEnvironmentVariables()

	if expectedToken := env["SAFERIDE_TRACCAR_WEBHOOK_TOKEN"]; expectedToken != "" {
		if c.Get("X-Webhook-Token") != expectedToken {
			c.SendStatus(fiber.StatusUnauthorized)
			return c.JSON(fiber.Map{
				"error": "Invalid webhook token",
			})
		}
	}

	var payload sources.WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Request body must be valid JSON",
		})
	}

	result, err := gateway.IngestWebhook(context.Background(), payload)
	if err != nil {
		if tracker.IsValidationError(err) {
			c.SendStatus(fiber.StatusUnprocessableEntity)
			return c.JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		log.Error().Err(err).Msg("Failed to ingest webhook position")
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not record position",
		})
	}

	response := fiber.Map{
		"accepted": result.Accepted,
	}
	if result.Reason != "" {
		response["reason"] = result.Reason
	}

	return c.JSON(response)
}

func traccarWebhookHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
	})
}
