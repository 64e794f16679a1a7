package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"whiteboard-backend/internal/model"
)

// ErrNotFound 대상 화이트보드가 없음
var ErrNotFound = errors.New("whiteboard not found")

// WhiteboardRepository 화이트보드 문서 저장소
type WhiteboardRepository interface {
	// Create assigns ID and timestamps when they are empty.
	Create(ctx context.Context, w *model.Whiteboard) error
	FindByID(ctx context.Context, id string) (*model.Whiteboard, error)
	// List returns records without canvasData, most recently updated first,
	// skipping the first offset records.
	List(ctx context.Context, offset, limit int) ([]model.Whiteboard, error)
	// Update overwrites unconditionally and refreshes updatedAt.
	Update(ctx context.Context, id string, patch model.WhiteboardPatch) (*model.Whiteboard, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// validID 형식이 잘못된 ID는 조회하지 않고 NotFound 처리
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

// prepareCreate fills the generated fields of a new record.
func prepareCreate(w *model.Whiteboard, now time.Time) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if w.UpdatedAt.Before(w.CreatedAt) {
		w.UpdatedAt = w.CreatedAt
	}
}

// refreshedAt keeps updatedAt from going behind createdAt under clock skew.
func refreshedAt(createdAt, now time.Time) time.Time {
	if now.Before(createdAt) {
		return createdAt
	}
	return now
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > model.ListLimit {
		return model.ListLimit
	}
	return limit
}
