package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"whiteboard-backend/internal/model"
)

// GormRepository PostgreSQL / SQLite 저장소
type GormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormRepository GormRepository 생성
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate 스키마 자동 생성
func (r *GormRepository) Migrate() error {
	return r.db.AutoMigrate(&model.Whiteboard{})
}

func (r *GormRepository) Create(ctx context.Context, w *model.Whiteboard) error {
	prepareCreate(w, r.now())
	if err := r.db.WithContext(ctx).Create(w).Error; err != nil {
		return fmt.Errorf("create whiteboard: %w", err)
	}
	return nil
}

func (r *GormRepository) FindByID(ctx context.Context, id string) (*model.Whiteboard, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	var w model.Whiteboard
	err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find whiteboard: %w", err)
	}
	return &w, nil
}

func (r *GormRepository) List(ctx context.Context, offset, limit int) ([]model.Whiteboard, error) {
	var rows []model.Whiteboard
	err := r.db.WithContext(ctx).
		Select("id", "name", "thumbnail", "created_at", "updated_at").
		Order("updated_at DESC").
		Order("id").
		Offset(clampOffset(offset)).
		Limit(clampLimit(limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list whiteboards: %w", err)
	}
	return rows, nil
}

func (r *GormRepository) Update(ctx context.Context, id string, patch model.WhiteboardPatch) (*model.Whiteboard, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	var w model.Whiteboard
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&w, "id = ?", id).Error; err != nil {
			return err
		}
		w.Name = patch.Name
		w.CanvasData = patch.CanvasData
		if patch.Thumbnail != nil {
			w.Thumbnail = *patch.Thumbnail
		}
		w.UpdatedAt = refreshedAt(w.CreatedAt, r.now())

		return tx.Model(&model.Whiteboard{}).Where("id = ?", id).Updates(map[string]any{
			"name":        w.Name,
			"canvas_data": w.CanvasData,
			"thumbnail":   w.Thumbnail,
			"updated_at":  w.UpdatedAt,
		}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update whiteboard: %w", err)
	}
	return &w, nil
}

func (r *GormRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res := r.db.WithContext(ctx).Delete(&model.Whiteboard{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete whiteboard: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Whiteboard{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count whiteboards: %w", err)
	}
	return n, nil
}

func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
