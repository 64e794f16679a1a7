package model

import (
	"time"

	"gorm.io/datatypes"
)

// NameMaxLength 화이트보드 이름 최대 길이 (문자 수)
const NameMaxLength = 100

// ListLimit 목록 조회 최대 개수
const ListLimit = 50

// Whiteboard 저장된 화이트보드 문서
type Whiteboard struct {
	ID         string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string         `gorm:"type:varchar(100);not null" json:"name"`
	CanvasData datatypes.JSON `gorm:"not null" json:"-"`
	Thumbnail  string         `gorm:"type:text" json:"thumbnail,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime:false;not null" json:"createdAt"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime:false;not null;index" json:"updatedAt"`
}

func (Whiteboard) TableName() string {
	return "whiteboards"
}

// WhiteboardSummary 목록/저장 응답용 요약 (canvasData 제외)
type WhiteboardSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WhiteboardRecord 단건 조회 응답 (canvasData는 JSON 문자열로 내려감)
type WhiteboardRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CanvasData string    `json:"canvasData"`
	Thumbnail  string    `json:"thumbnail,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// WhiteboardPatch 수정 요청 (Thumbnail이 nil이면 기존 값 유지)
type WhiteboardPatch struct {
	Name       string
	CanvasData datatypes.JSON
	Thumbnail  *string
}

// Summary 요약 뷰 (withThumbnail=false면 썸네일 제외)
func (w *Whiteboard) Summary(withThumbnail bool) WhiteboardSummary {
	s := WhiteboardSummary{
		ID:        w.ID,
		Name:      w.Name,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
	if withThumbnail {
		s.Thumbnail = w.Thumbnail
	}
	return s
}

// Record 전체 뷰
func (w *Whiteboard) Record() WhiteboardRecord {
	return WhiteboardRecord{
		ID:         w.ID,
		Name:       w.Name,
		CanvasData: string(w.CanvasData),
		Thumbnail:  w.Thumbnail,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
}
