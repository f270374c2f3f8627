package repository

import (
	"sync"

	"likeness.io/entities"
	"likeness.io/infrastructure/database/connection/datastore"
	"likeness.io/infrastructure/database/repository/mongo"
)

var verificationRecordOnce = sync.Once{}

var verificationRecordRepository mongo.MongoRepository[entities.VerificationRecord]

func VerificationRecordRepo() *mongo.MongoRepository[entities.VerificationRecord] {
	verificationRecordOnce.Do(func() {
		verificationRecordRepository = mongo.MongoRepository[entities.VerificationRecord]{Model: datastore.VerificationRecordModel}
	})
	return &verificationRecordRepository
}
