package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 애플리케이션 전체 설정
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scene     SceneConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

// ServerConfig HTTP 서버 설정
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	BodyLimitMB  int
}

// DatabaseConfig 문서 저장소 설정
type DatabaseConfig struct {
	Driver   string // postgres | sqlite | mongo
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string

	SQLitePath string

	MongoURI      string
	MongoDatabase string
}

// RedisConfig Redis 설정 (Addr가 비어 있으면 목록 캐시 비활성화)
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	ListTTL  time.Duration
}

// SceneConfig 장면 로드/썸네일 설정
type SceneConfig struct {
	LoadTimeout     time.Duration
	ThumbnailWidth  int
	ThumbnailHeight int
}

// WebSocketConfig WebSocket 관련 설정
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	WriteTimeout    time.Duration
}

// CORSConfig CORS 설정
type CORSConfig struct {
	AllowOrigins string
	AllowHeaders string
}

// RateLimitConfig 쓰기 요청 제한
type RateLimitConfig struct {
	Max        int
	Expiration time.Duration
}

// Load 환경 변수에서 설정 로드
func Load() *Config {
	// .env 파일 로드 (없어도 에러 무시)
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv .env 없이 현재 환경 변수만으로 설정 구성
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         normalizePort(getEnv("PORT", ":8080")),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
			BodyLimitMB:  getInt("BODY_LIMIT_MB", 16),
		},
		Database: DatabaseConfig{
			Driver:        strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", ""),
			DBName:        getEnv("DB_NAME", "whiteboard"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			TimeZone:      getEnv("DB_TIMEZONE", "UTC"),
			SQLitePath:    getEnv("SQLITE_PATH", "whiteboard.db"),
			MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			MongoDatabase: getEnv("MONGODB_DATABASE", "whiteboard"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
			ListTTL:  getDuration("LIST_CACHE_TTL", 60*time.Second),
		},
		Scene: SceneConfig{
			LoadTimeout:     getDuration("SCENE_LOAD_TIMEOUT", 5*time.Second),
			ThumbnailWidth:  getInt("THUMBNAIL_WIDTH", 1200),
			ThumbnailHeight: getInt("THUMBNAIL_HEIGHT", 800),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getInt("WS_READ_BUFFER_SIZE", 4*1024),
			WriteBufferSize: getInt("WS_WRITE_BUFFER_SIZE", 4*1024),
			WriteTimeout:    getDuration("WS_WRITE_TIMEOUT", 5*time.Second),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
			AllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin, Content-Type, Accept"),
		},
		RateLimit: RateLimitConfig{
			Max:        getInt("RATE_LIMIT_MAX", 60),
			Expiration: getDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

// normalizePort "8080" 형태도 허용
func normalizePort(p string) string {
	if p != "" && !strings.Contains(p, ":") {
		return ":" + p
	}
	return p
}

// getEnv 환경 변수 조회 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt 정수형 환경 변수 조회
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getDuration 시간 환경 변수 조회
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// 숫자만 있으면 초로 간주
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
