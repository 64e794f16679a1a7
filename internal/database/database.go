package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/repository"
)

// 지원하는 저장소 드라이버
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Pool 프로세스 수명 동안 유지되는 저장소 연결
//
// Exactly one of gorm and mongo is set.
type Pool struct {
	driver string
	gorm   *gorm.DB
	mongo  *mongo.Client
	repo   repository.WhiteboardRepository
}

// Open 설정에 맞는 드라이버로 연결 수립 (main에서 한 번만 호출)
func Open(cfg config.DatabaseConfig) (*Pool, error) {
	switch cfg.Driver {
	case DriverPostgres, "":
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.TimeZone,
		)
		return openGorm(DriverPostgres, postgres.Open(dsn))
	case DriverSQLite:
		return openGorm(DriverSQLite, sqlite.Open(cfg.SQLitePath))
	case DriverMongo:
		return openMongo(cfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}
}

// OpenGorm 이미 열린 GORM 연결로 Pool 구성 (테스트, 도구용)
func OpenGorm(db *gorm.DB) (*Pool, error) {
	repo := repository.NewGormRepository(db)
	if err := repo.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return &Pool{driver: db.Dialector.Name(), gorm: db, repo: repo}, nil
}

func openGorm(driver string, dialector gorm.Dialector) (*Pool, error) {
	// GORM 로거 설정
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 커넥션 풀 설정
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if driver == DriverSQLite {
		// sqlite는 단일 writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	pool, err := OpenGorm(db)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	pool.driver = driver
	log.Printf("✅ Database connected (%s)", driver)
	return pool, nil
}

func openMongo(cfg config.DatabaseConfig) (*Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(100).
		SetMaxConnIdleTime(10*time.Minute))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	repo := repository.NewMongoRepository(client, cfg.MongoDatabase)
	if err := repo.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Printf("⚠️ Mongo index warning: %v", err)
	}

	log.Printf("✅ Database connected (mongo, db=%s)", cfg.MongoDatabase)
	return &Pool{driver: DriverMongo, mongo: client, repo: repo}, nil
}

// Driver 사용 중인 드라이버 이름
func (p *Pool) Driver() string { return p.driver }

// Repository 화이트보드 저장소
func (p *Pool) Repository() repository.WhiteboardRepository { return p.repo }

// Ping 데이터베이스 연결 테스트
func (p *Pool) Ping(ctx context.Context) error {
	return p.repo.Ping(ctx)
}

// Close 데이터베이스 연결 종료
func (p *Pool) Close() error {
	if p == nil {
		return nil
	}
	if p.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return p.mongo.Disconnect(ctx)
	}
	if p.gorm != nil {
		sqlDB, err := p.gorm.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
