package model

// BoardEventType 화이트보드 변경 이벤트 타입
type BoardEventType string

const (
	BoardEventCreated BoardEventType = "whiteboard.created"
	BoardEventUpdated BoardEventType = "whiteboard.updated"
	BoardEventDeleted BoardEventType = "whiteboard.deleted"
)

// String 메서드
func (t BoardEventType) String() string {
	return string(t)
}

// BoardEvent 목록 갱신 알림 (장면 내용은 포함하지 않음)
type BoardEvent struct {
	Type    BoardEventType `json:"type"`
	Payload any            `json:"payload"`
}

// BoardDeleted 삭제 이벤트 페이로드
type BoardDeleted struct {
	ID string `json:"id"`
}
