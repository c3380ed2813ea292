package routes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"
	"github.com/saferide/saferide/pkg/model"
	"github.com/saferide/saferide/pkg/tracker"
	"github.com/saferide/saferide/pkg/tracker/sources"
)

func TripsRouter(router fiber.Router) {
	router.Post("/", startTrip)
	router.Get("/:identifier", getTrip)
	router.Patch("/:identifier/location", updateTripLocation)
	router.Post("/:identifier/end", endTrip)
}

type startTripRequest struct {
	OriginLatitude  float64 `json:"origin_lat"`
	OriginLongitude float64 `json:"origin_lng"`

	DestinationLatitude  float64 `json:"destination_lat"`
	DestinationLongitude float64 `json:"destination_lng"`

	DestinationAddress string `json:"destination_address"`
}

func startTrip(c *fiber.Ctx) error {
	userIdentifier := c.Get("X-User-ID")
	if userIdentifier == "" {
		c.SendStatus(fiber.StatusUnauthorized)
		return c.JSON(fiber.Map{
			"error": "Missing X-User-ID header",
		})
	}

	var request startTripRequest
	if err := c.BodyParser(&request); err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Request body must be valid JSON",
		})
	}

	if err := sources.ValidateCoordinates(request.OriginLatitude, request.OriginLongitude); err != nil {
		c.SendStatus(fiber.StatusUnprocessableEntity)
		return c.JSON(fiber.Map{
			"error": fmt.Sprintf("origin: %s", err.Error()),
		})
	}
	if err := sources.ValidateCoordinates(request.DestinationLatitude, request.DestinationLongitude); err != nil {
		c.SendStatus(fiber.StatusUnprocessableEntity)
		return c.JSON(fiber.Map{
			"error": fmt.Sprintf("destination: %s", err.Error()),
		})
	}

	origin := model.NewLocation(request.OriginLatitude, request.OriginLongitude)

	trip := &model.Trip{
		PrimaryIdentifier:  fmt.Sprintf("saferide-trip-%s", uuid.NewString()),
		UserIdentifier:     userIdentifier,
		ShareUUID:          uuid.NewString(),
		Origin:             origin,
		Destination:        model.NewLocation(request.DestinationLatitude, request.DestinationLongitude),
		DestinationAddress: request.DestinationAddress,
		CurrentPosition:    &origin,
		Status:             model.TripStatusOngoing,
		StartedAt:          time.Now(),
	}

	mapping, err := repository.ActiveMappingForUser(context.Background(), userIdentifier)
	if err != nil {
		log.Error().Err(err).Str("user", userIdentifier).Msg("Failed to look up device mapping")
	}
	if mapping != nil {
		trip.TraccarDeviceID = mapping.TraccarDeviceID
	}

	if err := repository.CreateTrip(context.Background(), trip); err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not create Trip",
		})
	}

	c.SendStatus(fiber.StatusCreated)
	return marshalTrip(c, trip)
}

func getTrip(c *fiber.Ctx) error {
	trip, err := repository.Trip(context.Background(), c.Params("identifier"))
	if err != nil || trip == nil {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find Trip matching Trip Identifier",
		})
	}

	if trip.UserIdentifier != c.Get("X-User-ID") {
		c.SendStatus(fiber.StatusForbidden)
		return c.JSON(fiber.Map{
			"error": "Trip belongs to another user",
		})
	}

	return marshalTripView(c, trip)
}

type clientLocationRequest struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

func updateTripLocation(c *fiber.Ctx) error {
	userIdentifier := c.Get("X-User-ID")
	if userIdentifier == "" {
		c.SendStatus(fiber.StatusUnauthorized)
		return c.JSON(fiber.Map{
			"error": "Missing X-User-ID header",
		})
	}

	var request clientLocationRequest
	if err := c.BodyParser(&request); err != nil {
		c.SendStatus(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"error": "Request body must be valid JSON",
		})
	}

	result, err := gateway.IngestClientUpdate(context.Background(), c.Params("identifier"), userIdentifier, sources.ClientUpdate{
		Latitude:  request.Latitude,
		Longitude: request.Longitude,
	})

	if err != nil {
		switch {
		case errors.Is(err, tracker.ErrTripNotFound):
			c.SendStatus(fiber.StatusNotFound)
			return c.JSON(fiber.Map{
				"error": "Could not find Trip matching Trip Identifier",
			})
		case errors.Is(err, tracker.ErrNotTripOwner):
			c.SendStatus(fiber.StatusForbidden)
			return c.JSON(fiber.Map{
				"error": "Trip belongs to another user",
			})
		case tracker.IsValidationError(err):
			c.SendStatus(fiber.StatusUnprocessableEntity)
			return c.JSON(fiber.Map{
				"error": err.Error(),
			})
		default:
			c.SendStatus(fiber.StatusInternalServerError)
			return c.JSON(fiber.Map{
				"error": "Could not record position",
			})
		}
	}

	return c.JSON(fiber.Map{
		"accepted": result.Accepted,
		"alerts":   len(result.Alerts),
	})
}

func endTrip(c *fiber.Ctx) error {
	trip, err := repository.Trip(context.Background(), c.Params("identifier"))
	if err != nil || trip == nil {
		c.SendStatus(fiber.StatusNotFound)
		return c.JSON(fiber.Map{
			"error": "Could not find Trip matching Trip Identifier",
		})
	}

	if trip.UserIdentifier != c.Get("X-User-ID") {
		c.SendStatus(fiber.StatusForbidden)
		return c.JSON(fiber.Map{
			"error": "Trip belongs to another user",
		})
	}

	if !trip.IsOngoing() {
		return marshalTrip(c, trip)
	}

	endedAt := time.Now()
	if err := repository.UpdateStatus(context.Background(), trip.PrimaryIdentifier, model.TripStatusCompleted, &endedAt); err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not end Trip",
		})
	}

	trip.Status = model.TripStatusCompleted
	trip.EndedAt = &endedAt

	return marshalTrip(c, trip)
}

func marshalTrip(c *fiber.Ctx, trip *model.Trip) error {
	tripReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic"},
	}, trip)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce Trip",
		})
	}

	return c.JSON(tripReduced)
}

func marshalTripView(c *fiber.Ctx, trip *model.Trip) error {
	history, err := gateway.Store().History(context.Background(), trip.PrimaryIdentifier, nil, nil)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not load Trip history",
		})
	}

	alerts, err := repository.RouteAlerts(context.Background(), trip.PrimaryIdentifier)
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Could not load Trip alerts",
		})
	}

	tripReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: []string{"basic"},
	}, struct {
		Trip    *model.Trip         `json:"trip" groups:"basic"`
		History []model.PositionFix `json:"history" groups:"basic"`
		Alerts  []model.RouteAlert  `json:"route_alerts" groups:"basic"`
	}{
		Trip:    trip,
		History: history,
		Alerts:  alerts,
	})
	if err != nil {
		c.SendStatus(fiber.StatusInternalServerError)
		return c.JSON(fiber.Map{
			"error": "Sherrif could not reduce Trip",
		})
	}

	return c.JSON(tripReduced)
}
