package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/saferide/saferide/pkg/model"
)

func ShareRouter(router fiber.Router) {
	router.Get("/:uuid", getSharedTrip)
}

// getSharedTrip is the public live-tracking view. It resolves a trip by its
// share UUID only, so knowing the link is the whole credential.
func getSharedTrip(c *fiber.Ctx) error {
	trip, err := repository.TripByShareUUID(context.Background(), c.Params("uuid"))
	if err != nil || trip == nil {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find Trip matching Share UUID",
		})
	}

	history, err := gateway.Store().History(context.Background(), trip.PrimaryIdentifier, nil, nil)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not load Trip history",
		})
	}

	tripReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic"},
	}, struct {
		Trip    *model.Trip         `json:"trip" groups:"basic"`
		History []model.PositionFix `json:"history" groups:"basic"`
	}{
		Trip:    trip,
		History: history,
	})
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce Trip",
		})
	}

	return c.JSON(tripReduced)
}
