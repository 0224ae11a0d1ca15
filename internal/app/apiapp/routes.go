package apiapp

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/loveconnect/backend/internal/infra/metrics"
	authsvc "github.com/ivankudzin/loveconnect/backend/internal/services/auth"
	feedsvc "github.com/ivankudzin/loveconnect/backend/internal/services/feed"
	mediasvc "github.com/ivankudzin/loveconnect/backend/internal/services/media"
	swipesvc "github.com/ivankudzin/loveconnect/backend/internal/services/swipes"
	userssvc "github.com/ivankudzin/loveconnect/backend/internal/services/users"
	"github.com/ivankudzin/loveconnect/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService  *authsvc.Service
	UserService  *userssvc.Service
	FeedService  *feedsvc.Service
	SwipeService *swipesvc.Service
	MediaService *mediasvc.Service
	Metrics      *metrics.Metrics
	// UploadsDir is served at /uploads/* when profile images live on local disk.
	UploadsDir string
	Logger     *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	maxUpload := int64(0)
	if deps.MediaService != nil {
		maxUpload = deps.MediaService.MaxUploadBytes()
	}

	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.UserService, maxUpload, deps.Logger)
	profileHandler := handlers.NewProfileHandler(deps.UserService, maxUpload, deps.Logger)
	feedHandler := handlers.NewFeedHandler(deps.FeedService, deps.Logger)
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService, deps.Logger)
	matchesHandler := handlers.NewMatchesHandler(deps.SwipeService, deps.Logger)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	r.Handle("/metrics", deps.Metrics.Handler())

	if dir := strings.TrimSpace(deps.UploadsDir); dir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(filesOnly{root: http.Dir(dir)})))
	}

	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)

	r.With(authMW).Get("/profile", profileHandler.Get)
	r.With(authMW).Put("/profile/update", profileHandler.Update)
	r.With(authMW).Put("/profile/change-password", profileHandler.ChangePassword)

	r.Route("/users", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/profiles", feedHandler.Handle)
		r.Post("/swipe", swipeHandler.Handle)
		r.Get("/matches", matchesHandler.Matches)
		r.Get("/matches/{user_id}", matchesHandler.Status)
		r.Get("/likes", matchesHandler.Likes)
	})
}

// filesOnly hides directories so /uploads never renders an index.
type filesOnly struct {
	root http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
