package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/saferide/saferide/pkg/database"
	"github.com/saferide/saferide/pkg/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository backs every pipeline repository interface with the shared
// MongoDB instance.
type MongoRepository struct {
}

func NewMongoRepository() *MongoRepository {
	return &MongoRepository{}
}

func (r *MongoRepository) Trip(ctx context.Context, tripIdentifier string) (*model.Trip, error) {
	tripsCollection := database.GetCollection("trips")

	var trip *model.Trip
	err := tripsCollection.FindOne(ctx, bson.M{"primaryidentifier": tripIdentifier}).Decode(&trip)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return trip, nil
}

func (r *MongoRepository) TripByShareUUID(ctx context.Context, shareUUID string) (*model.Trip, error) {
	tripsCollection := database.GetCollection("trips")

	var trip *model.Trip
	err := tripsCollection.FindOne(ctx, bson.M{"shareuuid": shareUUID}).Decode(&trip)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return trip, nil
}

func (r *MongoRepository) ActiveTripForDevice(ctx context.Context, deviceID int) (*model.Trip, error) {
	tripsCollection := database.GetCollection("trips")

	var trip *model.Trip
	err := tripsCollection.FindOne(ctx, bson.M{
		"traccardeviceid": deviceID,
		"status":          model.TripStatusOngoing,
	}).Decode(&trip)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoActiveTrip
	}
	if err != nil {
		return nil, err
	}

	return trip, nil
}

func (r *MongoRepository) ActiveDeviceBoundTrips(ctx context.Context) ([]*model.Trip, error) {
	tripsCollection := database.GetCollection("trips")

	cursor, err := tripsCollection.Find(ctx, bson.M{
		"status":          model.TripStatusOngoing,
		"traccardeviceid": bson.M{"$gt": 0},
	})
	if err != nil {
		return nil, err
	}

	trips := []*model.Trip{}
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, err
	}

	return trips, nil
}

func (r *MongoRepository) CreateTrip(ctx context.Context, trip *model.Trip) error {
	tripsCollection := database.GetCollection("trips")

	_, err := tripsCollection.InsertOne(ctx, trip)

	return err
}

func (r *MongoRepository) UpdateCurrentPosition(ctx context.Context, tripIdentifier string, position model.Location, recordedAt time.Time) error {
	tripsCollection := database.GetCollection("trips")

	_, err := tripsCollection.UpdateOne(ctx,
		bson.M{"primaryidentifier": tripIdentifier},
		bson.M{"$set": bson.M{
			"currentposition":      position,
			"lastpositionupdateat": recordedAt,
		}},
	)

	return err
}

func (r *MongoRepository) UpdateStatus(ctx context.Context, tripIdentifier string, status model.TripStatus, endedAt *time.Time) error {
	tripsCollection := database.GetCollection("trips")

	updateMap := bson.M{"status": status}
	if endedAt != nil {
		updateMap["endedat"] = endedAt
	}

	_, err := tripsCollection.UpdateOne(ctx,
		bson.M{"primaryidentifier": tripIdentifier},
		bson.M{"$set": updateMap},
	)

	return err
}

func (r *MongoRepository) Exists(ctx context.Context, tripIdentifier string, recordedAt time.Time, latitude float64, longitude float64) (bool, error) {
	tripLocationsCollection := database.GetCollection("trip_locations")

	count, err := tripLocationsCollection.CountDocuments(ctx, bson.M{
		"tripidentifier": tripIdentifier,
		"recordedat":     recordedAt,
		"latitude":       latitude,
		"longitude":      longitude,
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *MongoRepository) Insert(ctx context.Context, fix *model.PositionFix) error {
	tripLocationsCollection := database.GetCollection("trip_locations")

	_, err := tripLocationsCollection.InsertOne(ctx, fix)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateFix
	}

	return err
}

func (r *MongoRepository) History(ctx context.Context, tripIdentifier string, from *time.Time, to *time.Time) ([]model.PositionFix, error) {
	tripLocationsCollection := database.GetCollection("trip_locations")

	query := bson.M{"tripidentifier": tripIdentifier}

	recordedAtQuery := bson.M{}
	if from != nil {
		recordedAtQuery["$gte"] = from
	}
	if to != nil {
		recordedAtQuery["$lte"] = to
	}
	if len(recordedAtQuery) > 0 {
		query["recordedat"] = recordedAtQuery
	}

	cursor, err := tripLocationsCollection.Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "recordedat", Value: 1}}))
	if err != nil {
		return nil, err
	}

	fixes := []model.PositionFix{}
	if err := cursor.All(ctx, &fixes); err != nil {
		return nil, err
	}

	return fixes, nil
}

func (r *MongoRepository) RecentAlertExists(ctx context.Context, tripIdentifier string, alertType model.RouteAlertType, since time.Time) (bool, error) {
	routeAlertsCollection := database.GetCollection("route_alerts")

	count, err := routeAlertsCollection.CountDocuments(ctx, bson.M{
		"tripidentifier": tripIdentifier,
		"alerttype":      alertType,
		"createdat":      bson.M{"$gte": since},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *MongoRepository) InsertRouteAlert(ctx context.Context, alert *model.RouteAlert) error {
	routeAlertsCollection := database.GetCollection("route_alerts")

	_, err := routeAlertsCollection.InsertOne(ctx, alert)

	return err
}

func (r *MongoRepository) InsertSosAlert(ctx context.Context, alert *model.SosAlert) error {
	sosAlertsCollection := database.GetCollection("sos_alerts")

	_, err := sosAlertsCollection.InsertOne(ctx, alert)

	return err
}

func (r *MongoRepository) ActiveMappingForUser(ctx context.Context, userIdentifier string) (*model.DeviceMapping, error) {
	deviceMappingsCollection := database.GetCollection("device_mappings")

	var mapping *model.DeviceMapping
	err := deviceMappingsCollection.FindOne(ctx, bson.M{
		"useridentifier": userIdentifier,
		"isactive":       true,
	}).Decode(&mapping)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return mapping, nil
}

func (r *MongoRepository) RouteAlerts(ctx context.Context, tripIdentifier string) ([]model.RouteAlert, error) {
	routeAlertsCollection := database.GetCollection("route_alerts")

	cursor, err := routeAlertsCollection.Find(ctx,
		bson.M{"tripidentifier": tripIdentifier},
		options.Find().SetSort(bson.D{{Key: "createdat", Value: 1}}))
	if err != nil {
		return nil, err
	}

	alerts := []model.RouteAlert{}
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}

	return alerts, nil
}
