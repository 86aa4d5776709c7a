package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"foa-chat/config"
	"foa-chat/web/handlers"
	"foa-chat/web/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultShutdownTimeout = 10 * time.Second

// Store is what the HTTP layer needs from the knowledge store.
type Store interface {
	handlers.Pinger
}

type Server struct {
	router    *gin.Engine
	responder handlers.Responder
	store     Store
	limiter   *middleware.ClientRateLimiter
	logger    *zap.Logger
	config    *config.Config
}

func NewServer(responder handlers.Responder, store Store, logger *zap.Logger, cfg *config.Config) (*Server, error) {
	// Set Gin mode based on environment
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	// Only listed proxies may set the client address through forwarding headers.
	if err := router.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		return nil, err
	}

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		// Add logger to context
		c.Set("logger", logger)
		c.Next()
	})
	router.Use(middleware.CORS(cfg.AllowedOrigins()))

	server := &Server{
		router:    router,
		responder: responder,
		store:     store,
		logger:    logger,
		config:    cfg,
	}

	if cfg.RateLimitRequestsPerMin > 0 {
		limiter, err := middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimitRequestsPerMin,
			BurstSize:         cfg.RateLimitBurstSize,
			MaxClients:        cfg.RateLimitMaxClients,
		}, logger)
		if err != nil {
			return nil, err
		}
		server.limiter = limiter
	}

	server.setupRoutes()
	return server, nil
}

func (s *Server) setupRoutes() {
	chatHandler := handlers.NewChatHandler(s.responder, s.logger)
	healthHandler := handlers.NewHealthHandler(s.store, s.logger)

	api := s.router.Group("/api")
	api.GET("/health", healthHandler.Health)

	chat := api.Group("/chat")
	if s.limiter != nil {
		chat.Use(middleware.RateLimitMiddleware(s.limiter))
	}
	chat.POST("/response", chatHandler.Respond)
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("Starting web server", zap.String("address", ln.Addr().String()))

	srv := &http.Server{
		Handler: s.router,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			s.logger.Error("Web server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down web server")
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
