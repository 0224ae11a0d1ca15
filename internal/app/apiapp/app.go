package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ivankudzin/loveconnect/backend/internal/app/migrate"
	"github.com/ivankudzin/loveconnect/backend/internal/config"
	"github.com/ivankudzin/loveconnect/backend/internal/domain/model"
	"github.com/ivankudzin/loveconnect/backend/internal/infra/metrics"
	s3infra "github.com/ivankudzin/loveconnect/backend/internal/infra/s3"
	"github.com/ivankudzin/loveconnect/backend/internal/jobs/cleanup"
	pgrepo "github.com/ivankudzin/loveconnect/backend/internal/repo/postgres"
	redrepo "github.com/ivankudzin/loveconnect/backend/internal/repo/redis"
	authsvc "github.com/ivankudzin/loveconnect/backend/internal/services/auth"
	"github.com/ivankudzin/loveconnect/backend/internal/services/credentials"
	feedsvc "github.com/ivankudzin/loveconnect/backend/internal/services/feed"
	mediasvc "github.com/ivankudzin/loveconnect/backend/internal/services/media"
	ratesvc "github.com/ivankudzin/loveconnect/backend/internal/services/rate"
	swipesvc "github.com/ivankudzin/loveconnect/backend/internal/services/swipes"
	userssvc "github.com/ivankudzin/loveconnect/backend/internal/services/users"
)

const (
	loginRateScope = "login"
	swipeRateScope = "swipe"
)

type App struct {
	cfg            config.Config
	logger         *zap.Logger
	server         *http.Server
	postgres       *pgxpool.Pool
	redis          *goredis.Client
	s3             *minio.Client
	httpRouter     http.Handler
	cleanupJob     *cleanup.Job
	stopBackground context.CancelFunc
}

// userBackend is everything the HTTP surface needs from the users table.
type userBackend interface {
	userssvc.Store
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ListImageRefs(ctx context.Context) (map[string]struct{}, error)
}

// backends are the storage adapters the services run on. New fills them with
// Postgres, Redis and the configured media driver.
type backends struct {
	users     userBackend
	swipes    swipesvc.SwipeStore
	feed      feedsvc.Repository
	rateStore ratesvc.WindowStore
	storage   mediasvc.ObjectStorage
	// uploadsDir is non-empty for the local media driver.
	uploadsDir string
}

type assembled struct {
	router     http.Handler
	cleanupJob *cleanup.Job
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	if pool != nil && cfg.Postgres.AutoMigrate {
		runner, err := migrate.New(cfg.Postgres.DSN, log)
		if err == nil {
			err = runner.Up(ctx)
		}
		if err != nil {
			log.Warn("auto migration failed, continuing with current schema", zap.Error(err))
		}
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := redrepo.Ping(ctx, redisClient); err != nil {
		log.Warn("redis ping failed, rate limited routes will answer 503", zap.Error(err))
	}

	storage, uploadsDir, s3Client, err := newObjectStorage(ctx, cfg, log)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		_ = redisClient.Close()
		return nil, err
	}

	parts := assemble(cfg, log, metrics.New(), backends{
		users:      pgrepo.NewUserRepo(pool),
		swipes:     pgrepo.NewSwipeRepo(pool),
		feed:       pgrepo.NewFeedRepo(pool),
		rateStore:  redrepo.NewRateRepo(redisClient),
		storage:    storage,
		uploadsDir: uploadsDir,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      parts.router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		httpRouter: parts.router,
		cleanupJob: parts.cleanupJob,
	}, nil
}

func newObjectStorage(ctx context.Context, cfg config.Config, log *zap.Logger) (mediasvc.ObjectStorage, string, *minio.Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Media.Driver)) {
	case "s3":
		client, err := s3infra.NewClient(s3infra.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, "", nil, fmt.Errorf("init s3 client: %w", err)
		}
		storage := mediasvc.NewS3Storage(client, cfg.S3.Bucket)
		if err := storage.EnsureBucket(ctx); err != nil {
			log.Warn("s3 bucket check failed, uploads may fail until storage is reachable", zap.Error(err))
		}
		return storage, "", client, nil
	default:
		storage, err := mediasvc.NewLocalStorage(cfg.Media.LocalDir, cfg.Media.PublicBaseURL)
		if err != nil {
			return nil, "", nil, fmt.Errorf("init local media storage: %w", err)
		}
		return storage, storage.Root(), nil, nil
	}
}

// assemble wires services, handlers and background jobs on top of b.
func assemble(cfg config.Config, log *zap.Logger, m *metrics.Metrics, b backends) assembled {
	mediaService := mediasvc.NewService(b.storage, mediasvc.Config{
		MaxUploadBytes: cfg.Media.MaxUploadBytes,
		URLTTL:         cfg.Media.URLTTL,
	}, log)
	mediaService.OnStore(m.UploadResult)

	var (
		loginLimiter authsvc.RateLimiter
		swipeLimiter swipesvc.RateLimiter
	)
	if cfg.Limits.Enabled && b.rateStore != nil {
		login := ratesvc.NewLimiter(b.rateStore, loginRateScope, cfg.Limits.LoginPerMinute, cfg.Limits.LoginPer10Sec)
		login.OnReject(m.RateLimited)
		loginLimiter = login

		swipe := ratesvc.NewLimiter(b.rateStore, swipeRateScope, cfg.Limits.SwipesPerMinute, cfg.Limits.SwipesPer10Sec)
		swipe.OnReject(m.RateLimited)
		swipeLimiter = swipe
	}

	hasher := credentials.NewHasher(cfg.Auth.BcryptCost)
	authService := authsvc.NewService(authsvc.Dependencies{
		JWT:         authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Users:       b.users,
		Passwords:   hasher,
		RateLimiter: loginLimiter,
		Images:      mediaService,
		Logger:      log,
	})
	userService := userssvc.NewService(userssvc.Dependencies{
		Store:     b.users,
		Passwords: hasher,
		Images:    mediaService,
		Logger:    log,
	})
	feedService := feedsvc.NewService(b.feed, mediaService, feedsvc.Config{
		BatchSize: cfg.Feed.BatchSize,
	})
	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Store:       b.swipes,
		RateLimiter: swipeLimiter,
		Images:      mediaService,
		Recorder:    m,
		Logger:      log,
	}, swipesvc.Config{})

	r := chi.NewRouter()
	ApplyMiddlewares(r, log, m, cfg.CORS.AllowedOrigins)
	RegisterRoutes(r, Dependencies{
		AuthService:  authService,
		UserService:  userService,
		FeedService:  feedService,
		SwipeService: swipeService,
		MediaService: mediaService,
		Metrics:      m,
		UploadsDir:   b.uploadsDir,
		Logger:       log,
	})

	var job *cleanup.Job
	if cfg.Cleanup.Enabled {
		job = cleanup.NewOrphanImageJob(b.users, mediaService, cfg.Cleanup.Grace, cfg.Cleanup.Interval, log)
	}

	return assembled{router: r, cleanupJob: job}
}

func (a *App) Run() error {
	if a.cleanupJob != nil && a.postgres != nil {
		ctx, cancel := context.WithCancel(context.Background())
		a.stopBackground = cancel
		go a.cleanupJob.Loop(ctx)
	}

	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if a.stopBackground != nil {
		a.stopBackground()
	}
	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
