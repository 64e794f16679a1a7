package service

import (
	"whiteboard-backend/internal/repository"
)

// ErrNotFound 대상 화이트보드 없음 (repository.ErrNotFound와 동일)
var ErrNotFound = repository.ErrNotFound

// ValidationError 요청 값 오류 (저장소에 접근하지 않음)
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// StoreError 저장소/드라이버 오류
//
// Error returns a generic message; the driver error stays reachable via Unwrap.
type StoreError struct {
	Op  string // e.g. "save whiteboard"
	Err error
}

func (e *StoreError) Error() string { return "Failed to " + e.Op }
func (e *StoreError) Unwrap() error { return e.Err }

// 사용자에게 보여주는 검증 메시지
const (
	MsgRequired      = "Name and canvas data are required"
	MsgInvalidJSON   = "Canvas data must be valid JSON"
	MsgNameTooLong   = "Name must be at most 100 characters"
	MsgNotFound      = "Whiteboard not found"
	MsgUnparsable    = "Stored canvas data is not valid JSON"
	MsgInvalidOffset = "Offset must be a non-negative integer"
)
