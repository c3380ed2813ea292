package routes

import "github.com/saferide/saferide/pkg/tracker"

var gateway *tracker.Gateway
var repository *tracker.MongoRepository

// Setup wires the route handlers to the ingestion gateway and the shared
// repository. Must be called before the server starts listening.
func Setup(ingestGateway *tracker.Gateway, mongoRepository *tracker.MongoRepository) {
	gateway = ingestGateway
	repository = mongoRepository
}
