package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"propertyhub/internal/cache"
	"propertyhub/internal/config"
	"propertyhub/internal/database"
	"propertyhub/internal/identity"
	"propertyhub/internal/log"
	"propertyhub/internal/queue"
	"propertyhub/internal/repository"
	"propertyhub/internal/service"
	"propertyhub/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.Component(log.New(cfg.Environment), "worker")

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	db, err := database.OpenGorm(dbPool, cfg.Postgres, log.Component(logger, "gorm"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open gorm")
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	users := repository.NewUserRepository(db)
	orgs := repository.NewOrganizationRepository(db)
	provider := identity.NewLocalProvider(db, cfg.Security.SessionSecret, cfg.Security.SessionTTL)
	publisher := queue.NewRedisPublisher(client, cfg.Queue.Stream)

	joinRequests := service.NewJoinRequestService(repository.NewJoinRequestRepository(db), users, orgs, provider, publisher, logger)
	properties := service.NewPropertyService(repository.NewResourceRepository(db), nil, logger)
	leases := service.NewLeaseService(repository.NewContractRepository(db), users, properties, logger)

	processor := tasks.NewProcessor(logger, joinRequests, leases)
	consumer := queue.NewConsumer(client, queue.ConsumerConfig{
		Stream:           cfg.Queue.Stream,
		Group:            cfg.Queue.Group,
		Name:             cfg.Queue.Consumer,
		ClaimInterval:    cfg.Queue.ClaimInterval,
		MaxDeliveries:    cfg.Queue.MaxDeliveries,
		DeadLetterStream: cfg.Queue.DeadLetterStream,
	}, logger, processor)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := consumer.Start(ctx); err != nil && err != context.Canceled {
			logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
	time.Sleep(500 * time.Millisecond)
}
