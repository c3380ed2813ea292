package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/saferide/saferide/pkg/api/routes"
)

func SetupServer(listen string) error {
	webApp := fiber.New()
	webApp.Use(NewLogger())

	webApp.Get("version", routes.APIVersion)
	webApp.Get("health", routes.Health)

	routes.TripsRouter(webApp.Group("/trips"))
	routes.ShareRouter(webApp.Group("/share"))
	routes.TraccarRouter(webApp.Group("/traccar"))

	return webApp.Listen(listen)
}
