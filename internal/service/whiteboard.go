package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"unicode/utf8"

	"gorm.io/datatypes"

	"whiteboard-backend/internal/cache"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/repository"
	"whiteboard-backend/internal/scene"
)

// EventPublisher 화이트보드 변경 알림 발행
type EventPublisher interface {
	Publish(evt model.BoardEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(model.BoardEvent) {}

// SaveInput 생성/수정 요청 값
type SaveInput struct {
	Name       string
	CanvasData string
	Thumbnail  *string
}

// WhiteboardService 화이트보드 CRUD 비즈니스 로직
type WhiteboardService struct {
	repo    repository.WhiteboardRepository
	cache   cache.ListCache
	events  EventPublisher
	decoder *scene.Decoder
}

// NewWhiteboardService WhiteboardService 생성 (cache, events는 nil 허용)
func NewWhiteboardService(repo repository.WhiteboardRepository, c cache.ListCache, events EventPublisher) *WhiteboardService {
	if c == nil {
		c = cache.NopCache{}
	}
	if events == nil {
		events = nopPublisher{}
	}
	return &WhiteboardService{
		repo:    repo,
		cache:   c,
		events:  events,
		decoder: scene.NewDecoder(),
	}
}

// validate 이름/캔버스 데이터 검증 후 정규화된 이름 반환
func validate(in SaveInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.CanvasData) == "" {
		return "", &ValidationError{Message: MsgRequired}
	}
	if utf8.RuneCountInString(name) > model.NameMaxLength {
		return "", &ValidationError{Message: MsgNameTooLong}
	}
	if !json.Valid([]byte(in.CanvasData)) {
		return "", &ValidationError{Message: MsgInvalidJSON}
	}
	return name, nil
}

// Create 새 화이트보드 저장
func (s *WhiteboardService) Create(ctx context.Context, in SaveInput) (*model.WhiteboardSummary, error) {
	name, err := validate(in)
	if err != nil {
		return nil, err
	}

	w := &model.Whiteboard{Name: name, CanvasData: datatypes.JSON(in.CanvasData)}
	if in.Thumbnail != nil {
		w.Thumbnail = *in.Thumbnail
	}
	if err := s.repo.Create(ctx, w); err != nil {
		log.Printf("[Whiteboard] ❌ save failed: %v", err)
		return nil, &StoreError{Op: "save whiteboard", Err: err}
	}

	log.Printf("[Whiteboard] saved %s (%q, %d bytes)", w.ID, w.Name, len(w.CanvasData))
	summary := w.Summary(false)
	s.changed(ctx, model.BoardEventCreated, summary)
	return &summary, nil
}

// List 최근 수정 순 목록 (최대 50개, 썸네일 포함)
func (s *WhiteboardService) List(ctx context.Context) ([]model.WhiteboardSummary, error) {
	if list, ok := s.cache.Get(ctx); ok {
		return list, nil
	}

	// 조회 전에 세대를 읽어야 동시 쓰기 이후에 이전 목록이 캐시되지 않음
	gen, cacheable := s.cache.Generation(ctx)
	list, err := s.listPage(ctx, 0)
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.cache.Set(ctx, gen, list)
	}
	return list, nil
}

// ListPage offset 이후의 목록 (첫 페이지만 캐시 사용)
func (s *WhiteboardService) ListPage(ctx context.Context, offset int) ([]model.WhiteboardSummary, error) {
	if offset < 0 {
		return nil, &ValidationError{Message: MsgInvalidOffset}
	}
	if offset == 0 {
		return s.List(ctx)
	}
	return s.listPage(ctx, offset)
}

func (s *WhiteboardService) listPage(ctx context.Context, offset int) ([]model.WhiteboardSummary, error) {
	rows, err := s.repo.List(ctx, offset, model.ListLimit)
	if err != nil {
		log.Printf("[Whiteboard] ❌ list failed: %v", err)
		return nil, &StoreError{Op: "fetch whiteboards", Err: err}
	}
	list := make([]model.WhiteboardSummary, 0, len(rows))
	for i := range rows {
		list = append(list, rows[i].Summary(true))
	}
	return list, nil
}

// Get 단건 조회 (canvasData 포함)
func (s *WhiteboardService) Get(ctx context.Context, id string) (*model.WhiteboardRecord, error) {
	w, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := w.Record()
	return &rec, nil
}

// Update 무조건 덮어쓰기 (버전 충돌 검사 없음)
func (s *WhiteboardService) Update(ctx context.Context, id string, in SaveInput) (*model.WhiteboardSummary, error) {
	name, err := validate(in)
	if err != nil {
		return nil, err
	}

	w, err := s.repo.Update(ctx, id, model.WhiteboardPatch{
		Name:       name,
		CanvasData: datatypes.JSON(in.CanvasData),
		Thumbnail:  in.Thumbnail,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("[Whiteboard] ❌ update %s failed: %v", id, err)
		return nil, &StoreError{Op: "update whiteboard", Err: err}
	}

	summary := w.Summary(false)
	s.changed(ctx, model.BoardEventUpdated, summary)
	return &summary, nil
}

// Delete 삭제
func (s *WhiteboardService) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		log.Printf("[Whiteboard] ❌ delete %s failed: %v", id, err)
		return &StoreError{Op: "delete whiteboard", Err: err}
	}
	s.changed(ctx, model.BoardEventDeleted, model.BoardDeleted{ID: id})
	return nil
}

// Ping 저장소 연결 확인
func (s *WhiteboardService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *WhiteboardService) find(ctx context.Context, id string) (*model.Whiteboard, error) {
	w, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("[Whiteboard] ❌ fetch %s failed: %v", id, err)
		return nil, &StoreError{Op: "fetch whiteboard", Err: err}
	}
	return w, nil
}

func (s *WhiteboardService) changed(ctx context.Context, t model.BoardEventType, payload any) {
	s.cache.Invalidate(ctx)
	s.events.Publish(model.BoardEvent{Type: t, Payload: payload})
}
