package redis

import (
	"context"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"os"
	"strconv"
	"time"
)

const predictionKeyPrefix = "screening:prediction:"

type IRedis interface {
	SetPrediction(ctx context.Context, imageHash string, payload string, expiration time.Duration) error
	GetPrediction(ctx context.Context, imageHash string) (string, error)
}

type redisClient struct {
	client *redis.Client
}

func New() IRedis {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	redisAddr := os.Getenv("REDIS_ADDRESS")
	redisPassword := os.Getenv("REDIS_PASSWORD")

	logrus.Info(fmt.Sprintf("Connecting to Redis at %s...", redisAddr))

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logrus.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		logrus.Info("Successfully connected to Redis")
	}

	return &redisClient{client: client}
}

// SetPrediction caches the serialized prediction for an image hash. Identical
// bytes always classify identically, so the entry stays valid for its TTL.
func (r *redisClient) SetPrediction(ctx context.Context, imageHash string, payload string, expiration time.Duration) error {
	key := predictionKeyPrefix + imageHash
	err := r.client.Set(ctx, key, payload, expiration).Err()
	if err != nil {
		logrus.Error(fmt.Sprintf("Error caching prediction for key %s: %v", key, err))
		return err
	}
	return nil
}

func (r *redisClient) GetPrediction(ctx context.Context, imageHash string) (string, error) {
	key := predictionKeyPrefix + imageHash
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		logrus.Debug(fmt.Sprintf("No cached prediction for key %s", key))
		return "", err
	} else if err != nil {
		logrus.Error(fmt.Sprintf("Error reading cached prediction for key %s: %v", key, err))
		return "", err
	}
	return val, nil
}
