package main

import (
	"context"
	"log"
	"time"

	"whiteboard-backend/internal/cache"
	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/database"
	"whiteboard-backend/internal/handler"
	"whiteboard-backend/internal/server"
	"whiteboard-backend/internal/service"
)

func main() {
	// 설정 로드
	cfg := config.Load()

	// 저장소 연결
	pool, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	defer pool.Close()

	// Ping 테스트
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = pool.Ping(ctx)
	cancel()
	if err != nil {
		log.Fatalf("❌ Database ping failed: %v", err)
	}
	log.Printf("✅ Database connected successfully (%s)", pool.Driver())

	// 목록 캐시 (REDIS_ADDR 미설정 시 비활성화)
	var listCache cache.ListCache = cache.NopCache{}
	var cachePinger handler.Pinger
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ListTTL)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, list cache disabled: %v", err)
		} else {
			defer rc.Close()
			listCache = rc
			cachePinger = handler.PingFunc(rc.Health)
			log.Printf("✅ Redis list cache enabled (%s)", cfg.Redis.Addr)
		}
	} else {
		log.Println("ℹ️ Redis not configured (list cache disabled)")
	}

	// 서비스/핸들러 구성
	hub := handler.NewBoardEventHub(cfg.WebSocket.WriteTimeout)
	svc := service.NewWhiteboardService(pool.Repository(), listCache, hub)

	srv := server.New(cfg,
		handler.NewWhiteboardHandler(svc),
		handler.NewHealthHandler(pool, cachePinger),
		hub,
	)
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// 서버 시작
	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
