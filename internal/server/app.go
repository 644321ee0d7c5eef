// Package server wires the memorylocks components together and runs the
// HTTP API, the gRPC health endpoint and the rate limit sweepers until a
// shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/memorylocks/internal/logging"
	"github.com/dmitrijs2005/memorylocks/internal/milestone"
	"github.com/dmitrijs2005/memorylocks/internal/obfuscate"
	"github.com/dmitrijs2005/memorylocks/internal/ratelimit"
	"github.com/dmitrijs2005/memorylocks/internal/server/config"
	"github.com/dmitrijs2005/memorylocks/internal/server/metrics"
	"github.com/dmitrijs2005/memorylocks/internal/server/notify"
	"github.com/dmitrijs2005/memorylocks/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/memorylocks/internal/server/rest"
	"github.com/dmitrijs2005/memorylocks/internal/server/services"
	"github.com/dmitrijs2005/memorylocks/internal/server/storage"

	gs "github.com/dmitrijs2005/memorylocks/internal/server/grpc"
)

const (
	StorageProviderS3         = "s3"
	StorageProviderCloudinary = "cloudinary"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	limiters    *ratelimit.Set
	http        *rest.Server
	grpc        *gs.GRPCServer
	closers     []io.Closer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	codec, err := obfuscate.New(c.HashSalt, c.HashMinLength)
	if err != nil {
		return nil, fmt.Errorf("id codec error: %w", err)
	}

	store, err := newAssetStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	notifier, closers := newNotifier(c)
	m := metrics.New()
	rm := repomanager.NewPostgresRepositoryManager()

	lockService := services.NewLockService(db, rm, codec, milestone.NewTracker(c.Milestones), notifier, m, logger.With("service", "locks"))
	mediaService := services.NewMediaService(db, rm, store, m, logger.With("service", "media"))
	accountService := services.NewAccountService(db, rm, store, m, logger.With("service", "accounts"))
	albumService := services.NewAlbumService(codec, lockService, mediaService)

	limiters := ratelimit.NewSet(
		ratelimit.Policy{Name: ratelimit.PolicyRead, Window: c.RateLimitWindow, Max: c.RateLimitRead},
		ratelimit.Policy{Name: ratelimit.PolicyWrite, Window: c.RateLimitWindow, Max: c.RateLimitWrite},
		ratelimit.Policy{Name: ratelimit.PolicyBulk, Window: c.RateLimitWindow, Max: c.RateLimitBulk},
	)

	httpServer := rest.NewServer(rest.Options{
		APIKey:           c.APIKey,
		CORSAllowOrigins: c.CORSAllowOrigins,
		Locks:            lockService,
		Media:            mediaService,
		Accounts:         accountService,
		Albums:           albumService,
		DB:               db,
		Limiters:         limiters,
		Metrics:          m,
		Logger:           logger,
	})

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		limiters:    limiters,
		http:        httpServer,
		grpc:        gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db),
		closers:     append(closers, db),
	}, nil
}

func newAssetStore(ctx context.Context, c *config.Config) (storage.AssetStore, error) {
	switch c.StorageProvider {
	case StorageProviderS3:
		return storage.NewS3Store(ctx, storage.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	case StorageProviderCloudinary:
		return storage.NewCloudinaryStore(c.CloudinaryURL)
	case "":
		return storage.Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", c.StorageProvider)
	}
}

// newNotifier builds the configured milestone sinks. Closers release the
// sinks' connections on shutdown.
func newNotifier(c *config.Config) (notify.Notifier, []io.Closer) {
	var (
		sinks   notify.Multi
		closers []io.Closer
	)

	if c.KafkaBroker != "" && c.KafkaTopic != "" {
		k := notify.NewKafkaNotifier(notify.KafkaConfig{
			Broker:       c.KafkaBroker,
			Topic:        c.KafkaTopic,
			Username:     c.KafkaUsername,
			Password:     c.KafkaPassword,
			WriteTimeout: c.NotifyTimeout,
		})
		sinks = append(sinks, k)
		closers = append(closers, k)
	}
	if c.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookNotifier(c.WebhookURL, c.NotifyTimeout))
	}

	if len(sinks) == 0 {
		return notify.Nop{}, closers
	}
	return sinks, closers
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run migrates the schema and serves until a signal arrives or one of the
// servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		app.close(ctx)
		return fmt.Errorf("migration error: %w", err)
	}

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.limiters.Run(ctx, app.config.RateLimitSweepInterval)
	}()

	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx, app.config.EndpointAddrHTTP); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	go func() {
		defer wg.Done()
		if err := app.grpc.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	app.close(ctx)
	app.logger.Info(ctx, "App stopped")
	return nil
}

func (app *App) close(ctx context.Context) {
	var errs []error
	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}
}
