package api

import (
	"github.com/saferide/saferide/pkg/api/routes"
	"github.com/saferide/saferide/pkg/database"
	"github.com/saferide/saferide/pkg/events"
	"github.com/saferide/saferide/pkg/redis_client"
	"github.com/saferide/saferide/pkg/tracker"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the core web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := redis_client.Connect(); err != nil {
						return err
					}

					publisher, err := events.NewPublisher()
					if err != nil {
						return err
					}

					repository := tracker.NewMongoRepository()

					gateway := tracker.NewGateway(tracker.GetDetectionConfig(), repository, repository, repository, publisher)
					gateway.CreateDeviceCache()

					routes.Setup(gateway, repository)

					return SetupServer(c.String("listen"))
				},
			},
		},
	}
}
