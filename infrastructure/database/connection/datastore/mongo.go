package datastore

import (
	"context"
	"os"
	"time"

	"likeness.io/infrastructure/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	IdentityModel           *mongo.Collection
	VerificationRecordModel *mongo.Collection

	client *mongo.Client
)

func ConnectMongo() {
	url := os.Getenv("DB_URL")
	if url == "" {
		logger.Error("mongo url missing")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(url)
	clientOpts.SetMinPoolSize(5)
	clientOpts.SetMaxPoolSize(10)

	var err error
	client, err = mongo.Connect(ctx, clientOpts)
	if err != nil {
		logger.Warning("an error occured while starting the database", logger.LoggerOptions{Key: "error", Data: err})
		return
	}

	db := client.Database(os.Getenv("DB_NAME"))
	setUpIndexes(ctx, db)

	logger.Info("connected to mongodb successfully")
}

// Set up the indexes for the database
func setUpIndexes(ctx context.Context, db *mongo.Database) {
	IdentityModel = db.Collection("Identities")
	IdentityModel.Indexes().CreateMany(ctx, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "status", Value: 1}},
		Options: options.Index(),
	}, {
		Keys:    bson.D{{Key: "ownerID", Value: 1}},
		Options: options.Index(),
	}, {
		Keys:    bson.D{{Key: "deletedAt", Value: 1}},
		Options: options.Index(),
	}})

	VerificationRecordModel = db.Collection("VerificationRecords")
	VerificationRecordModel.Indexes().CreateMany(ctx, []mongo.IndexModel{{
		Keys:    bson.D{{Key: "requesterID", Value: 1}},
		Options: options.Index(),
	}, {
		Keys:    bson.D{{Key: "matchedIdentityID", Value: 1}},
		Options: options.Index(),
	}})

	logger.Info("mongodb indexes set up successfully")
}

func CleanUp() {
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Error("error disconnecting from mongodb", logger.LoggerOptions{Key: "error", Data: err})
	}
}
