// Package rest exposes the memorylocks HTTP API over Fiber.
package rest

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/memorylocks/internal/logging"
	"github.com/dmitrijs2005/memorylocks/internal/ratelimit"
	"github.com/dmitrijs2005/memorylocks/internal/server/metrics"
	"github.com/dmitrijs2005/memorylocks/internal/server/models"
	"github.com/dmitrijs2005/memorylocks/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type LockService interface {
	Get(ctx context.Context, id int64) (*models.Lock, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Lock, error)
	Update(ctx context.Context, id int64, update models.LockUpdate) (*models.Lock, error)
	Rename(ctx context.Context, id int64, name string) (*models.Lock, error)
	ToggleSeal(ctx context.Context, id int64) (*models.Lock, error)
	UpgradeStorage(ctx context.Context, id int64) (*models.Lock, error)
	Connect(ctx context.Context, hashedLockID string, userID int64) (*models.Lock, error)
	RecordScan(ctx context.Context, id int64) (*services.ScanResult, error)
	BulkCreate(ctx context.Context, total int) (*services.BulkCreateResult, error)
	HashedID(id int64) string
}

type MediaService interface {
	Create(ctx context.Context, item models.NewMediaItem) (*models.MediaItem, error)
	ListByLock(ctx context.Context, lockID int64) ([]*models.MediaItem, error)
	Update(ctx context.Context, id int64, update models.MediaUpdate) (*models.MediaItem, error)
	Delete(ctx context.Context, id int64) (*models.MediaItem, error)
	BatchReorder(ctx context.Context, updates []models.OrderUpdate) (*models.BatchResult, error)
	UploadURL(ctx context.Context, lockID int64) (*services.UploadTarget, error)
}

type AccountService interface {
	Create(ctx context.Context, account models.NewAccount) (*models.Account, error)
	Get(ctx context.Context, id int64) (*models.Account, error)
	Update(ctx context.Context, id int64, update models.AccountUpdate) (*models.Account, error)
	ExistCheck(ctx context.Context, lookup services.AccountLookup) (*services.ExistResult, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error)
	FindByProvider(ctx context.Context, provider, providerID string) (*models.Account, error)
	LinkProvider(ctx context.Context, userID int64, provider, providerID string) (*models.Account, error)
	Delete(ctx context.Context, id int64, deleteMedia bool) (*services.DeleteResult, error)
}

type AlbumService interface {
	Get(ctx context.Context, identifier string) (*services.Album, error)
	Scan(ctx context.Context, identifier string) (*services.ScanResult, error)
}

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options carries the collaborators of a Server. Metrics and Limiters may be
// nil.
type Options struct {
	APIKey           string
	CORSAllowOrigins string

	Locks    LockService
	Media    MediaService
	Accounts AccountService
	Albums   AlbumService
	DB       Pinger

	Limiters *ratelimit.Set
	Metrics  *metrics.Metrics
	Logger   logging.Logger
}

type Server struct {
	app      *fiber.App
	apiKey   []byte
	locks    LockService
	media    MediaService
	accounts AccountService
	albums   AlbumService
	db       Pinger
	limiters *ratelimit.Set
	metrics  *metrics.Metrics
	logger   logging.Logger
	validate *validator.Validate
}

func NewServer(o Options) *Server {
	logger := o.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	limiters := o.Limiters
	if limiters == nil {
		limiters = ratelimit.NewSet()
	}

	s := &Server{
		apiKey:   []byte(o.APIKey),
		locks:    o.Locks,
		media:    o.Media,
		accounts: o.Accounts,
		albums:   o.Albums,
		db:       o.DB,
		limiters: limiters,
		metrics:  o.Metrics,
		logger:   logger.With("module", "http_server"),
		validate: newValidator(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "memorylocks",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(s.logger),
	})

	origins := o.CORSAllowOrigins
	if origins == "" {
		origins = "*"
	}

	s.app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	s.app.Use(s.logRequests)
	s.app.Use(fiberrecover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Content-Type, Accept, Authorization, X-API-Key",
		AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	read := s.limit(ratelimit.PolicyRead)
	write := s.limit(ratelimit.PolicyWrite)
	bulk := s.limit(ratelimit.PolicyBulk)

	s.app.Get("/health", s.health)
	if reg := s.metrics.Registry(); reg != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	album := s.app.Group("/album")
	album.Get("/:identifier", read, s.getAlbum)
	album.Post("/:identifier/scan", write, s.scanAlbum)

	locks := s.app.Group("/locks", s.requireAuth)
	locks.Get("/user/:userId", read, s.listLocksByUser)
	locks.Post("/connect", write, s.connectLock)
	locks.Patch("/name", write, s.renameLock)
	locks.Patch("/seal", write, s.toggleSeal)
	locks.Patch("/upgrade-storage", write, s.upgradeStorage)
	locks.Post("/create/:totalLocks", bulk, s.bulkCreateLocks)
	locks.Get("/:id", read, s.getLock)
	locks.Patch("/:id", write, s.updateLock)
	locks.Post("/:id/scan", write, s.scanLock)

	media := s.app.Group("/media-objects", s.requireAuth)
	media.Post("/", write, s.createMedia)
	media.Post("/batch-reorder", bulk, s.batchReorder)
	media.Post("/upload-url", write, s.uploadURL)
	media.Get("/lock/:lockId", read, s.listMedia)
	media.Patch("/:id", write, s.updateMedia)
	media.Delete("/:id", write, s.deleteMedia)

	users := s.app.Group("/users", s.requireAuth)
	users.Post("/create", write, s.createAccount)
	users.Post("/exist-check", read, s.existCheck)
	users.Post("/find-by-identifier", read, s.findByIdentifier)
	users.Post("/find-by-provider", read, s.findByProvider)
	users.Post("/link-provider", write, s.linkProvider)
	users.Get("/:userId", read, s.getAccount)
	users.Patch("/:userId", write, s.updateAccount)
	users.Delete("/:userId", write, s.deleteAccount)
}

// Run serves on address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, address string) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", address)
	return s.app.Listen(address)
}
