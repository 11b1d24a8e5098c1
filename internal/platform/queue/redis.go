package queue

import (
	"context"
	"log/slog"
	"os"

	"github.com/Ali-LB/dbcc/internal/lib/logger/sl"
	"github.com/Ali-LB/dbcc/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

func ConnectRedis(log *slog.Logger) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})

	if _, err := RDB.Ping(context.Background()).Result(); err != nil {
		log.Error("could not connect to Redis", slog.String("addr", config.AppConfig.RedisAddr), sl.Err(err))
		os.Exit(1)
	}
	log.Info("connected to Redis", slog.String("addr", config.AppConfig.RedisAddr))
}

func CloseRedis(log *slog.Logger) {
	if RDB != nil {
		RDB.Close()
		log.Info("Redis connection closed")
	}
}
