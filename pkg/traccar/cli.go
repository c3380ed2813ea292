package traccar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/saferide/saferide/pkg/database"
	"github.com/saferide/saferide/pkg/events"
	"github.com/saferide/saferide/pkg/redis_client"
	"github.com/saferide/saferide/pkg/tracker"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "traccar",
		Usage: "Poll the Traccar server for trip positions",
		Subcommands: []*cli.Command{
			{
				Name:  "fetch",
				Usage: "fetch recent positions and run them through the pipeline",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "trip",
						Usage: "only sync this trip identifier",
					},
					&cli.IntFlag{
						Name:  "device",
						Usage: "only sync this Traccar device ID",
					},
					&cli.Float64Flag{
						Name:  "hours",
						Usage: "how far back to fetch positions",
						Value: 1,
					},
				},
				Action: func(c *cli.Context) error {
					fetcher, err := setupFetcher()
					if err != nil {
						return err
					}

					window := time.Duration(c.Float64("hours") * float64(time.Hour))

					if tripIdentifier := c.String("trip"); tripIdentifier != "" {
						trip, err := fetcher.Trips.Trip(c.Context, tripIdentifier)
						if err != nil {
							return err
						}
						if trip == nil {
							return errors.New("trip not found")
						}

						return fetcher.SyncTrip(c.Context, trip, window)
					}

					if deviceID := c.Int("device"); deviceID != 0 {
						return fetcher.SyncDevice(c.Context, deviceID, window)
					}

					return fetcher.SyncAllActiveTrips(c.Context, window)
				},
			},
			{
				Name:  "devices",
				Usage: "list the devices registered on the Traccar server",
				Action: func(c *cli.Context) error {
					client := NewClient()

					devices, err := client.Devices(context.Background())
					if err != nil {
						return err
					}

					for _, device := range devices {
						fmt.Printf("%d\t%s\t%s\t%s\n", device.ID, device.UniqueID, device.Name, device.Status)
					}

					return nil
				},
			},
		},
	}
}

func setupFetcher() (*Fetcher, error) {
	if err := database.Connect(); err != nil {
		return nil, err
	}
	if err := redis_client.Connect(); err != nil {
		return nil, err
	}

	publisher, err := events.NewPublisher()
	if err != nil {
		return nil, err
	}

	repository := tracker.NewMongoRepository()

	gateway := tracker.NewGateway(tracker.GetDetectionConfig(), repository, repository, repository, publisher)
	gateway.CreateDeviceCache()

	return &Fetcher{
		Client:  NewClient(),
		Trips:   repository,
		Gateway: gateway,
	}, nil
}
