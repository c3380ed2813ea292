package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createIndexes() {
	createTripsIndexes()
	createTripLocationsIndexes()
	createAlertsIndexes()
	createDeviceMappingsIndexes()
}

func createTripsIndexes() {
	tripsCollection := GetCollection("trips")
	tripsIndex := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "primaryidentifier", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "shareuuid", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "useridentifier", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "traccardeviceid", Value: 1},
				{Key: "status", Value: 1},
			},
		},
	}

	opts := options.CreateIndexes()
	_, err := tripsCollection.Indexes().CreateMany(context.Background(), tripsIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createTripLocationsIndexes() {
	tripLocationsCollection := GetCollection("trip_locations")
	uniqueFixIndexName := "UniqueFixPerTripRecordedAtCoordinates"
	tripLocationsIndex := []mongo.IndexModel{
		{
			// Hard uniqueness backstop for the dedupe check - two concurrent
			// submissions of the same physical sample cannot both insert.
			Options: options.Index().SetName(uniqueFixIndexName).SetUnique(true),
			Keys: bson.D{
				{Key: "tripidentifier", Value: 1},
				{Key: "recordedat", Value: 1},
				{Key: "latitude", Value: 1},
				{Key: "longitude", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "tripidentifier", Value: 1},
				{Key: "recordedat", Value: 1},
			},
		},
	}

	opts := options.CreateIndexes()
	_, err := tripLocationsCollection.Indexes().CreateMany(context.Background(), tripLocationsIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createAlertsIndexes() {
	routeAlertsCollection := GetCollection("route_alerts")
	routeAlertsIndex := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "tripidentifier", Value: 1},
				{Key: "alerttype", Value: 1},
				{Key: "createdat", Value: 1},
			},
		},
	}

	opts := options.CreateIndexes()
	_, err := routeAlertsCollection.Indexes().CreateMany(context.Background(), routeAlertsIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}

	sosAlertsCollection := GetCollection("sos_alerts")
	sosAlertsIndex := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "tripidentifier", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "resolvedat", Value: 1}},
		},
	}

	opts = options.CreateIndexes()
	_, err = sosAlertsCollection.Indexes().CreateMany(context.Background(), sosAlertsIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createDeviceMappingsIndexes() {
	deviceMappingsCollection := GetCollection("device_mappings")
	deviceMappingsIndex := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "useridentifier", Value: 1},
				{Key: "isactive", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "traccardeviceid", Value: 1}},
		},
	}

	opts := options.CreateIndexes()
	_, err := deviceMappingsCollection.Indexes().CreateMany(context.Background(), deviceMappingsIndex, opts)
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
