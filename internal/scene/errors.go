package scene

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField 필수 속성 누락
	ErrMissingField = errors.New("missing required field")
	// ErrUnknownType 알 수 없는 타입 태그 (대체 생성자 없음)
	ErrUnknownType = errors.New("unknown object type")
	// ErrFreehandUnsupported 자유곡선은 수동 복원 경로에서 복원하지 않음
	ErrFreehandUnsupported = errors.New("freehand paths are not rebuilt by manual reconstruction")
	// ErrInvalidEntry objects 배열 항목이 객체가 아님
	ErrInvalidEntry = errors.New("object entry is not a JSON object")
	// ErrUnsupportedVersion 네이티브 로더가 처리하지 못하는 스키마 버전
	ErrUnsupportedVersion = errors.New("unsupported scene schema version")
	// ErrNonCanonicalTag 네이티브 로더는 정규 태그만 허용
	ErrNonCanonicalTag = errors.New("non-canonical type tag")
	// ErrNonFinite NaN/Inf 숫자 (JSON으로 직렬화할 수 없음)
	ErrNonFinite = errors.New("number is not finite")

	// ErrNotReady 매니저가 Ready 상태가 아님
	ErrNotReady = errors.New("scene manager is not ready")
	// ErrAlreadyAttached 이미 surface가 연결됨
	ErrAlreadyAttached = errors.New("drawing surface already attached")
	// ErrIndexOutOfRange 잘못된 z-index
	ErrIndexOutOfRange = errors.New("drawable index out of range")
	// ErrBulkLoadTimeout 벌크 로드 시간 초과
	ErrBulkLoadTimeout = errors.New("bulk load timed out")
)

// ParseError canvasData 최상위 JSON 파싱 실패
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse canvas data: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// SerializationError JSON/PNG 생성 실패
type SerializationError struct {
	Op  string
	Err error
}

func (e *SerializationError) Error() string { return fmt.Sprintf("serialize %s: %v", e.Op, e.Err) }
func (e *SerializationError) Unwrap() error { return e.Err }

// FieldError 개별 속성 오류
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("field %q: %v", e.Field, e.Err) }
func (e *FieldError) Unwrap() error { return e.Err }

// ReconstructionWarning 객체 하나의 복원 실패 (전체 로드는 계속 진행)
type ReconstructionWarning struct {
	Index int    `json:"index"`
	Tag   string `json:"tag"`
	Kind  Kind   `json:"-"`
	Err   error  `json:"-"`
}

func (w ReconstructionWarning) Error() string {
	tag := w.Tag
	if tag == "" {
		tag = "<none>"
	}
	return fmt.Sprintf("object %d (%s): %v", w.Index, tag, w.Err)
}

func (w ReconstructionWarning) Unwrap() error { return w.Err }
