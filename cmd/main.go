package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gomodule/redigo/redis"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	auctionapp "github.com/cristianortiz/auctionhouse/internal/auction/application"
	auctiondomain "github.com/cristianortiz/auctionhouse/internal/auction/domain"
	rediscache "github.com/cristianortiz/auctionhouse/internal/auction/infra/cache/redis"
	auctionhttp "github.com/cristianortiz/auctionhouse/internal/auction/infra/http"
	"github.com/cristianortiz/auctionhouse/internal/auction/infra/mailer"
	auctionpg "github.com/cristianortiz/auctionhouse/internal/auction/infra/repository/postgres"
	auctionws "github.com/cristianortiz/auctionhouse/internal/auction/infra/websocket"
	notificationapp "github.com/cristianortiz/auctionhouse/internal/notification/application"
	notificationhttp "github.com/cristianortiz/auctionhouse/internal/notification/infra/http"
	notificationredis "github.com/cristianortiz/auctionhouse/internal/notification/infra/redis"
	"github.com/cristianortiz/auctionhouse/internal/shared/broadcast"
	"github.com/cristianortiz/auctionhouse/internal/shared/config"
	"github.com/cristianortiz/auctionhouse/internal/shared/db"
	"github.com/cristianortiz/auctionhouse/internal/shared/db/migrations"
	"github.com/cristianortiz/auctionhouse/internal/shared/httpserver"
	"github.com/cristianortiz/auctionhouse/internal/shared/logger"
	"github.com/cristianortiz/auctionhouse/internal/shared/redisclient"
	"github.com/cristianortiz/auctionhouse/internal/shared/validator"
	"github.com/cristianortiz/auctionhouse/internal/shared/websocket"
	userapp "github.com/cristianortiz/auctionhouse/internal/user/application"
	userhttp "github.com/cristianortiz/auctionhouse/internal/user/infra/http"
	userpg "github.com/cristianortiz/auctionhouse/internal/user/infra/repository/postgres"
)

func main() {
	skipMigrations := pflag.Bool("skip-migrations", false, "do not apply pending database migrations on boot")
	runScheduler := pflag.Bool("scheduler", true, "run the lifecycle scheduler in this instance")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger().Fatal("Invalid configuration", zap.Error(err))
	}
	logger.Configure(cfg.LogLevel, cfg.Env)
	log := logger.GetLogger()
	defer func() { _ = log.Sync() }()

	log.Info("Starting auctionhouse server...", zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *skipMigrations {
		log.Info("Skipping database migrations")
	} else {
		log.Info("Running database migrations...")
		if err := migrations.RunMigrations(cfg.DB.PostgresDSN()); err != nil {
			log.Fatal("Database migration failed", zap.Error(err))
		}
	}

	pool, err := db.GetPostgresDBPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}

	redisPool, err := redisclient.ConnectRedis(cfg.Redis.Addr, cfg.Redis.Password, redisclient.Param{
		PoolMultiplier: cfg.Redis.PoolMultiplier,
		Retry:          cfg.Redis.Retry,
	})
	if err != nil {
		log.Fatal("Redis connection failed", zap.Error(err))
	}

	// realtime: publish on redis and every instance relays to its own hub,
	// or deliver straight to the hub when this is the only instance
	hub := websocket.NewHub()
	var publisher auctiondomain.Broadcaster = broadcast.NewLocal(hub)
	var relay *broadcast.Relay
	if cfg.Broadcast == config.BroadcastRedis {
		publisher = broadcast.NewRedisPublisher(redisPool, cfg.Redis.EventsChannel)
		relay = broadcast.NewRelay(redisPool, cfg.Redis.EventsChannel, hub)
	}
	log.Info("Realtime broadcast configured", zap.String("mode", cfg.Broadcast))
	notifications := notificationredis.NewStore(redisPool, cfg.Notification.PerUserCap)
	events := notificationapp.NewNotifier(publisher, notifications)

	mail := mailer.New(mailer.LogSender{}, cfg.Mail.From, cfg.Mail.Workers, cfg.Mail.QueueLength)

	// user module
	userRepo := userpg.NewUserRepository(pool)
	userService := userapp.NewUserService(userRepo)

	// auction module
	auctionRepo := auctionpg.NewAuctionRepository(pool)
	bidRepo := auctionpg.NewBidRepository(pool)
	offerRepo := auctionpg.NewCounterOfferRepository(pool)
	cache := rediscache.NewStateCache(redisPool)
	locker := auctionapp.NewAuctionLocker(cache, auctionapp.LockConfig{
		TTL:           cfg.Bidding.LockTTL,
		WaitTimeout:   cfg.Bidding.LockWaitTimeout,
		RetryInterval: cfg.Bidding.LockRetryInterval,
	})

	placeBidUC := auctionapp.NewPlaceBidUseCase(auctionRepo, bidRepo, userRepo, pool, cache, locker, events, nil)
	lifecycle := auctionapp.NewLifecycleManager(auctionRepo, offerRepo, userRepo, pool, cache, locker,
		placeBidUC, events, mail, cfg.Scheduler.CounterOfferTTL, nil)
	auctionService := auctionapp.NewAuctionService(
		auctionapp.NewCreateAuctionUseCase(auctionRepo, userRepo, nil),
		auctionapp.NewGetAuctionUseCase(auctionRepo, bidRepo, userRepo, cache, placeBidUC),
		placeBidUC,
		auctionapp.NewDeleteBidUseCase(bidRepo, cache, locker, nil),
		lifecycle,
	)
	scheduler := auctionapp.NewScheduler(auctionRepo, offerRepo, lifecycle, auctionapp.SchedulerConfig{
		Tick:      cfg.Scheduler.Tick,
		BatchSize: cfg.Scheduler.BatchSize,
	}, nil)

	// http + ws
	server := httpserver.NewServer(
		httpserver.HealthCheck{Name: "postgres", Check: pool.Ping},
		httpserver.HealthCheck{Name: "redis", Check: redisPing(redisPool)},
		httpserver.HealthCheck{Name: "websocket", Report: func(ctx context.Context) (any, error) {
			return hub.Stats(ctx)
		}},
	)
	validate := validator.New()
	api := server.App().Group("/api")
	userhttp.NewUserHandler(userService, validate).RegisterRoutes(api)
	auctionhttp.NewAuctionHandler(auctionService, validate).RegisterRoutes(api)
	notificationhttp.NewNotificationHandler(notificationapp.NewNotificationService(notifications), validate).RegisterRoutes(api)

	wsHandler := auctionws.NewAuctionWSHandler(auctionService, hub)
	wsHandler.RegisterRoutes(ctx, server.App())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		wsHandler.ListenForMessages(gctx)
		return nil
	})
	if relay != nil {
		g.Go(func() error {
			return relay.Run(gctx)
		})
	}
	if *runScheduler {
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	}
	g.Go(func() error {
		return server.Start(gctx, cfg.HTTPAddr)
	})

	err = g.Wait()
	mail.Close()
	pool.Close()
	err = multierr.Append(err, redisPool.Close())
	if err != nil {
		log.Error("Server stopped with errors", zap.Error(err))
		return
	}
	log.Info("Server stopped")
}

func redisPing(p *redis.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		conn, err := p.GetContext(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()
		_, err = conn.Do("PING")
		return err
	}
}

