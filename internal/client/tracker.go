package client

import (
	"context"
	"sync"

	"whiteboard-backend/internal/model"
)

// ListTracker 목록 응답 중 가장 최근에 요청한 것만 반영
//
// List calls may complete out of order; a response is applied only when no
// later-issued request has already been applied.
type ListTracker struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
	current []model.WhiteboardSummary
}

// Begin 새 요청 번호 발급
func (t *ListTracker) Begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.issued++
	return t.issued
}

// Apply seq가 이미 반영된 요청보다 새로우면 목록을 교체
func (t *ListTracker) Apply(seq uint64, list []model.WhiteboardSummary) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seq <= t.applied {
		return false
	}
	t.applied = seq
	t.current = list
	return true
}

// Current 마지막으로 반영된 목록
func (t *ListTracker) Current() []model.WhiteboardSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]model.WhiteboardSummary, len(t.current))
	copy(out, t.current)
	return out
}

// Refresh 목록을 조회하고 최신 응답일 때만 반영
func (t *ListTracker) Refresh(ctx context.Context, c *Client) (bool, error) {
	seq := t.Begin()
	list, err := c.List(ctx)
	if err != nil {
		return false, err
	}
	return t.Apply(seq, list), nil
}
