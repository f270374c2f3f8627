package mongo

import (
	"context"
	"errors"
	"time"

	"likeness.io/infrastructure/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (repo *MongoRepository[T]) CreateOne(ctx context.Context, payload T) (*T, error) {
	parsed := payload.ParseModel().(*T)
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	_, err := repo.Model.InsertOne(c, parsed)
	if err != nil {
		logger.Error("mongo error occured while running CreateOne", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return nil, err
	}
	return parsed, nil
}

func (repo *MongoRepository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var result T
	err := repo.Model.FindOne(c, bson.M{"_id": id}).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logger.Error("mongo error occured while running FindByID", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return nil, err
	}
	return &result, nil
}

func (repo *MongoRepository[T]) FindOneByFilter(ctx context.Context, filter map[string]interface{}) (*T, error) {
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var result T
	err := repo.Model.FindOne(c, filter).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logger.Error("mongo error occured while running FindOneByFilter", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return nil, err
	}
	return &result, nil
}

func (repo *MongoRepository[T]) FindMany(ctx context.Context, filter map[string]interface{}, opts ...FindOptions) ([]T, error) {
	c, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	findOpts := options.Find()
	if len(opts) != 0 {
		if opts[0].Sort != nil {
			findOpts.SetSort(*opts[0].Sort)
		}
		if opts[0].Skip != nil {
			findOpts.SetSkip(*opts[0].Skip)
		}
		if opts[0].Limit != nil {
			findOpts.SetLimit(*opts[0].Limit)
		}
	}

	cursor, err := repo.Model.Find(c, filter, findOpts)
	if err != nil {
		logger.Error("mongo error occured while running FindMany", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return nil, err
	}

	var results []T
	if err := cursor.All(c, &results); err != nil {
		logger.Error("mongo error occured while decoding FindMany cursor", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return nil, err
	}
	return results, nil
}

func (repo *MongoRepository[T]) UpdateByID(ctx context.Context, id string, payload T) error {
	parsed := payload.ParseModel().(*T)
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	_, err := repo.Model.ReplaceOne(c, bson.M{"_id": id}, parsed)
	if err != nil {
		logger.Error("mongo error occured while running UpdateByID", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return err
	}
	return nil
}

func (repo *MongoRepository[T]) UpdatePartialByID(ctx context.Context, id string, fields map[string]interface{}) error {
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	fields["updatedAt"] = time.Now()
	_, err := repo.Model.UpdateOne(c, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		logger.Error("mongo error occured while running UpdatePartialByID", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return err
	}
	return nil
}

func (repo *MongoRepository[T]) CountDocuments(ctx context.Context, filter map[string]interface{}) (int64, error) {
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	count, err := repo.Model.CountDocuments(c, filter)
	if err != nil {
		logger.Error("mongo error occured while running CountDocuments", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		}, logger.LoggerOptions{
			Key:  "collection",
			Data: repo.Model.Name(),
		})
		return 0, err
	}
	return count, nil
}
