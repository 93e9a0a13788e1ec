package server

import (
	"context"
	"net/http"

	"github.com/fsbridge/backend/internal/api/middleware"
	"github.com/fsbridge/backend/internal/bridge"
	"github.com/fsbridge/backend/internal/fs"
	"github.com/fsbridge/backend/internal/infrastructure/config"
	"github.com/fsbridge/backend/internal/infrastructure/monitoring"
	"github.com/fsbridge/backend/internal/rpc"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // transport-level auth is out of scope
	},
}

// Server exposes the bridge over a WebSocket endpoint, each client getting
// its own protocol connection and notification channel.
type Server struct {
	router   *gin.Engine
	registry *fs.Registry
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	httpSrv  *http.Server
}

// NewServer creates the HTTP server around a scheme registry.
func NewServer(cfg *config.Config, registry *fs.Registry, logger *zap.Logger, metrics *monitoring.Metrics) *Server {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(monitoring.Middleware(metrics))

	s := &Server{
		router:   router,
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}

	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/fs", s.handleFS)

	return s
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"schemes": s.registry.Schemes(),
	})
}

// handleFS upgrades a client to the filesystem protocol. Failures inside a
// connection are local to it; the server keeps serving other clients.
func (s *Server) handleFS(c *gin.Context) {
	wsConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	s.metrics.WSConnections.Inc()
	defer s.metrics.WSConnections.Dec()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	conn := rpc.NewConn(rpc.NewWSTransport(wsConn), s.logger, s.metrics)
	defer conn.Close()

	// watch subscriptions live as long as this client's connection
	br := bridge.New(ctx, s.registry, nil, s.logger, s.metrics)
	br.Register(conn)

	s.logger.Info("client connected", zap.String("remote", wsConn.RemoteAddr().String()))
	if err := conn.Serve(ctx); err != nil {
		s.logger.Warn("connection terminated", zap.Error(err))
		return
	}
	s.logger.Info("client disconnected", zap.String("remote", wsConn.RemoteAddr().String()))
}

// Run starts listening on addr and blocks until the server closes.
func (s *Server) Run(addr string) error {
	s.httpSrv = &http.Server{Addr: addr, Handler: s.router}
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close shuts the HTTP server down gracefully.
func (s *Server) Close(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
