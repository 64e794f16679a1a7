package server

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/handler"
)

// Server Fiber 서버 래퍼
type Server struct {
	app               *fiber.App
	cfg               *config.Config
	whiteboardHandler *handler.WhiteboardHandler
	healthHandler     *handler.HealthHandler
	boardHub          *handler.BoardEventHub
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, whiteboards *handler.WhiteboardHandler, health *handler.HealthHandler, hub *handler.BoardEventHub) *Server {
	bodyLimit := cfg.Server.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 16
	}
	app := fiber.New(fiber.Config{
		AppName:               "Whiteboard Backend",
		ServerHeader:          "Fiber",
		StrictRouting:         false,
		CaseSensitive:         true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		Prefork:               false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize:        16384,
		WriteBufferSize:       16384,
		BodyLimit:             bodyLimit * 1024 * 1024, // canvasData에 이미지 data URL 포함
		DisableStartupMessage: true,
	})

	return &Server{
		app:               app,
		cfg:               cfg,
		whiteboardHandler: whiteboards,
		healthHandler:     health,
		boardHub:          hub,
	}
}

// App 내부 Fiber 앱 (테스트용)
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Seoul",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORS.AllowOrigins,
		AllowHeaders: s.cfg.CORS.AllowHeaders,
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// Rate Limiter 설정 (쓰기 요청용)
	writeLimiter := limiter.New(limiter.Config{
		Max:        s.cfg.RateLimit.Max,
		Expiration: s.cfg.RateLimit.Expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() // IP 기반 제한
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	api := s.app.Group("/api")
	api.Get("/test-db", s.whiteboardHandler.TestDB)

	// Whiteboard 라우트 그룹
	boards := api.Group("/whiteboards")
	boards.Get("/", s.whiteboardHandler.ListWhiteboards)
	boards.Post("/", writeLimiter, s.whiteboardHandler.CreateWhiteboard)
	boards.Get("/:id", s.whiteboardHandler.GetWhiteboard)
	boards.Get("/:id/inspect", s.whiteboardHandler.InspectWhiteboard)
	boards.Put("/:id", writeLimiter, s.whiteboardHandler.UpdateWhiteboard)
	boards.Delete("/:id", writeLimiter, s.whiteboardHandler.DeleteWhiteboard)

	// WebSocket 업그레이드 체크 미들웨어
	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket 화이트보드 변경 알림 엔드포인트
	s.app.Get("/ws/whiteboards", websocket.New(s.boardHub.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	// Graceful Shutdown 설정
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Whiteboard backend starting on %s", s.cfg.Server.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost%s/ws/whiteboards", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
