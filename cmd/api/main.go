package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/water-delivery-api/internal/config"
	"github.com/water-delivery-api/internal/infrastructure/awsconf"
	"github.com/water-delivery-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/water-delivery-api/internal/infrastructure/jwt"
	redisinfra "github.com/water-delivery-api/internal/infrastructure/redis"
	s3infra "github.com/water-delivery-api/internal/infrastructure/s3"
	"github.com/water-delivery-api/internal/infrastructure/smtp"
	"github.com/water-delivery-api/internal/infrastructure/sns"
	transporthttp "github.com/water-delivery-api/internal/transport/http"
	"github.com/water-delivery-api/internal/transport/http/handler"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
	}

	ctx := context.Background()

	awsCfg, err := awsconf.Load(ctx, cfg, "")
	if err != nil {
		logger.WithError(err).Fatal("aws config")
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables, logger)

	redisClient := redisinfra.NewClient(cfg)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis not reachable at startup")
	}

	// JWT provider (optional; the admin API answers 503 without it).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		logger.WithError(err).Warn("JWT provider not available, admin API disabled")
	}

	s3Store := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName, cfg.PublicAssetBaseURL)

	snsCfg := awsCfg
	if cfg.SNSRegion != "" && cfg.SNSRegion != awsCfg.Region {
		if snsCfg, err = awsconf.Load(ctx, cfg, cfg.SNSRegion); err != nil {
			logger.WithError(err).Fatal("aws config for sns")
		}
	}

	deps := &transporthttp.Deps{
		CustomerRepo:             dynamo.NewCustomerRepo(dynamoClient, cfg.DynamoTables.Customers),
		AddressRepo:              dynamo.NewAddressRepo(dynamoClient, cfg.DynamoTables.Addresses),
		OrderRepo:                dynamo.NewOrderRepo(dynamoClient, cfg.DynamoTables.Orders),
		ChatRepo:                 dynamo.NewChatRepo(dynamoClient, cfg.DynamoTables.ChatMessages, cfg.DynamoTables.ChatThreads),
		AdminNotificationRepo:    dynamo.NewAdminNotificationRepo(dynamoClient, cfg.DynamoTables.AdminNotifications),
		CustomerNotificationRepo: dynamo.NewCustomerNotificationRepo(dynamoClient, cfg.DynamoTables.CustomerNotifications),
		Cache:                    redisinfra.NewCache(redisClient),
		ObjectStore:              s3Store,
		Mailer:                   smtp.NewMailer(cfg),
		Publisher:                sns.NewPublisher(snsCfg, cfg.SNSAdminTopicARN),
		JWTProvider:              jwtProvider,
		HealthChecks: map[string]handler.Pinger{
			"redis": handler.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
			"dynamodb": handler.PingFunc(func(ctx context.Context) error {
				_, err := dynamoClient.DescribeTable(ctx, &dynamodb.DescribeTableInput{
					TableName: aws.String(cfg.DynamoTables.Customers),
				})
				return err
			}),
		},
		Logger: logger,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.AppPort, "env": cfg.AppEnv}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("forced shutdown")
	}
	if err := redisClient.Close(); err != nil {
		logger.WithError(err).Warn("close redis")
	}
	logger.Info("server stopped")
}
