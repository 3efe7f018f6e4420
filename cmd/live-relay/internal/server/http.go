package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/conf"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/data"
	"github.com/ankurMishraDev/GenX-AI/cmd/live-relay/internal/relay"
	"github.com/ankurMishraDev/GenX-AI/pkg/auth"
	"github.com/ankurMishraDev/GenX-AI/pkg/health"
	"github.com/ankurMishraDev/GenX-AI/pkg/middleware"
	"github.com/ankurMishraDev/GenX-AI/pkg/monitoring"
)

const wsPath = "/ws"

var _ transport.Server = (*HTTPServer)(nil)

// HTTPServer HTTP 与 websocket 入口
type HTTPServer struct {
	engine   *gin.Engine
	server   *http.Server
	relay    *relay.Service
	data     *data.Data
	health   *health.HealthChecker
	jwt      *auth.JWTManager // 未配置密钥时为 nil
	upgrader websocket.Upgrader
	conf     *conf.Server
	logger   log.Logger
	log      *log.Helper
}

// NewHTTPServer 创建 HTTP 服务器
func NewHTTPServer(c *conf.Server, ac *conf.Auth, d *data.Data, svc *relay.Service, logger log.Logger) *HTTPServer {
	if c.Mode != "" {
		gin.SetMode(c.Mode)
	}
	engine := gin.New()

	s := &HTTPServer{
		engine: engine,
		relay:  svc,
		data:   d,
		health: health.NewHealthChecker(),
		conf:   c,
		logger: logger,
		log:    log.NewHelper(log.With(logger, "module", "server")),
	}
	s.upgrader = websocket.Upgrader{
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// 非浏览器客户端不带 Origin
			return origin == "" || originAllowed(c.AllowedOrigins, origin)
		},
	}
	if ac.JWTSecret != "" {
		s.jwt = auth.NewJWTManager(ac.JWTSecret, ac.Issuer, 24*time.Hour)
	}

	s.health.Register(health.NewPingChecker("backend", true, d.PingBackend))
	if d.RedisEnabled() {
		s.health.Register(health.NewPingChecker("redis", false, d.PingRedis))
	}

	s.registerMiddleware()
	s.registerRoutes()

	s.server = &http.Server{
		Addr:              c.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// registerMiddleware 注册中间件
func (s *HTTPServer) registerMiddleware() {
	// 恢复中间件（必须最先）
	s.engine.Use(RecoveryMiddleware(s.logger))
	s.engine.Use(CORSMiddleware(s.conf.AllowedOrigins))
	s.engine.Use(otelgin.Middleware(conf.ServiceName))
	s.engine.Use(monitoring.GinMiddleware(conf.ServiceName))
	s.engine.Use(LoggingMiddleware(s.logger))
}

// registerRoutes 注册路由
func (s *HTTPServer) registerRoutes() {
	s.engine.GET("/", s.root)
	s.engine.GET("/health", s.liveness)
	s.engine.GET("/ready", s.readiness)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if s.conf.EnableDebug {
		s.engine.GET("/debug/sessions", s.debugSessions)
	}

	handlers := make([]gin.HandlerFunc, 0, 3)
	if limit := s.conf.HandshakeRateLimit; limit > 0 && s.data.RedisEnabled() {
		handlers = append(handlers, middleware.RateLimiterByIP(middleware.RateLimiterConfig{
			RedisClient: s.data.Redis(),
			MaxRequests: limit,
			Window:      time.Minute,
			KeyPrefix:   conf.ServiceName + ":handshake",
			Logger:      s.logger,
		}))
	}
	if s.jwt != nil {
		handlers = append(handlers, middleware.HandshakeAuth(s.jwt))
	}
	handlers = append(handlers, s.handleWebSocket)
	s.engine.GET(wsPath, handlers...)
}

// Handler 返回 http.Handler，便于测试
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Start 启动服务器，阻塞直到 Stop
func (s *HTTPServer) Start(ctx context.Context) error {
	s.log.Infof("listening on %s", s.conf.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 停止接收新连接，再取消所有会话并等待其总结完成
func (s *HTTPServer) Stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)

	reg := s.relay.Registry()
	if n := reg.CancelAll(); n > 0 {
		s.log.Infof("cancelled %d active sessions", n)
	}
	if !reg.Wait(ctx) {
		s.log.Warnf("%d sessions still running at shutdown deadline", reg.Count())
	}
	return err
}

func (s *HTTPServer) root(c *gin.Context) {
	Success(c, gin.H{
		"service":            conf.ServiceName,
		"active_connections": s.relay.Registry().Count(),
	})
}

// handleWebSocket 升级连接并运行会话，直到会话结束才返回
func (s *HTTPServer) handleWebSocket(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade 已写出错误响应
		s.log.WithContext(c.Request.Context()).Warnf("websocket upgrade failed: %v", err)
		return
	}
	s.relay.Serve(c.Request.Context(), ws, middleware.Subject(c))
}

func (s *HTTPServer) liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    health.StatusHealthy,
		"timestamp": time.Now().Unix(),
	})
}

func (s *HTTPServer) readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	results := s.health.Check(ctx)
	status := health.Aggregate(results)

	code := http.StatusOK
	if status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":       status,
		"timestamp":    time.Now().Unix(),
		"dependencies": results,
	})
}

func (s *HTTPServer) debugSessions(c *gin.Context) {
	sessions := s.relay.Registry().List()
	Success(c, gin.H{
		"active_connections": len(sessions),
		"sessions":           sessions,
	})
}
