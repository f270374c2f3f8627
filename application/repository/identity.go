package repository

import (
	"sync"

	"likeness.io/entities"
	"likeness.io/infrastructure/database/connection/datastore"
	"likeness.io/infrastructure/database/repository/mongo"
)

var identityOnce = sync.Once{}

var identityRepository mongo.MongoRepository[entities.Identity]

func IdentityRepo() *mongo.MongoRepository[entities.Identity] {
	identityOnce.Do(func() {
		identityRepository = mongo.MongoRepository[entities.Identity]{Model: datastore.IdentityModel}
	})
	return &identityRepository
}
