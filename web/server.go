package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"recruit-assistant/analytics"
	"recruit-assistant/chat"
	"recruit-assistant/config"
	"recruit-assistant/web/handlers"
	"recruit-assistant/web/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	router  *gin.Engine
	chat    *chat.Service
	store   analytics.Store
	limiter *middleware.ClientRateLimiter
	logger  *zap.Logger
	config  *config.Config
}

func NewServer(chatService *chat.Service, store analytics.Store, logger *zap.Logger, config *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.HandleMethodNotAllowed = true

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS())

	server := &Server{
		router: router,
		chat:   chatService,
		store:  store,
		limiter: middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
			MessagesPerMinute: config.RateLimitMessagesPerMin,
			BurstSize:         config.RateLimitBurstSize,
		}, logger),
		logger: logger,
		config: config,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	chatHandler := handlers.NewChatHandler(s.chat, s.logger)
	analyticsHandler := handlers.NewAnalyticsHandler(s.store, s.config.AnalyticsRetention(), s.logger)
	rateLimit := middleware.RateLimitMiddleware(s.limiter, s.logger)

	// The widget has been deployed against both the bare and /api paths.
	for _, prefix := range []string{"", "/api"} {
		s.router.POST(prefix+"/chat", rateLimit, chatHandler.SendMessage)
		s.router.GET(prefix+"/analytics", analyticsHandler.GetAnalytics)
		s.router.DELETE(prefix+"/analytics", analyticsHandler.ClearAnalytics)
	}
	s.router.GET("/healthz", handlers.Health(s.chat.CacheStats))

	s.router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

// ServeHTTP lets the server be driven directly by tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))
	defer s.limiter.Stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Web server failed to start", zap.Error(err))
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
