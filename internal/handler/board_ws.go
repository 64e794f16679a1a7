package handler

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"whiteboard-backend/internal/model"
)

// BoardWSMessage 보드 이벤트 WebSocket 메시지
type BoardWSMessage struct {
	Type    string `json:"type"` // whiteboard.*, ping, pong
	Payload any    `json:"payload,omitempty"`
}

// boardConn serialises writes to one connection.
type boardConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (b *boardConn) write(msg []byte, timeout time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if timeout > 0 {
		_ = b.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return b.conn.WriteMessage(websocket.TextMessage, msg)
}

// BoardEventHub 목록 갱신용 화이트보드 변경 알림 허브
type BoardEventHub struct {
	clients      map[*websocket.Conn]*boardConn
	mu           sync.RWMutex
	writeTimeout time.Duration
}

// NewBoardEventHub BoardEventHub 생성
func NewBoardEventHub(writeTimeout time.Duration) *BoardEventHub {
	return &BoardEventHub{
		clients:      make(map[*websocket.Conn]*boardConn),
		writeTimeout: writeTimeout,
	}
}

// HandleWebSocket WebSocket 연결 처리
func (h *BoardEventHub) HandleWebSocket(c *websocket.Conn) {
	// 패닉 복구 - 서버 크래시 방지
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[BoardWS] 패닉 복구: %v", r)
		}
	}()

	bc := &boardConn{conn: c}
	h.mu.Lock()
	h.clients[c] = bc
	h.mu.Unlock()
	log.Printf("[BoardWS] 연결: %s", c.RemoteAddr())

	// 연결 해제 시 정리
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		c.Close()
		log.Printf("[BoardWS] 연결 해제: %s", c.RemoteAddr())
	}()

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			break
		}

		var msg BoardWSMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			continue
		}

		// ping 메시지에 pong 응답
		if msg.Type == "ping" {
			pongBytes, _ := json.Marshal(BoardWSMessage{Type: "pong"})
			if err := bc.write(pongBytes, h.writeTimeout); err != nil {
				break
			}
		}
	}
}

// Publish 연결된 모든 클라이언트에 이벤트 전송
func (h *BoardEventHub) Publish(evt model.BoardEvent) {
	msgBytes, err := json.Marshal(BoardWSMessage{Type: evt.Type.String(), Payload: evt.Payload})
	if err != nil {
		log.Printf("[BoardWS] 이벤트 직렬화 실패: %v", err)
		return
	}

	h.mu.RLock()
	targets := make([]*boardConn, 0, len(h.clients))
	for _, bc := range h.clients {
		targets = append(targets, bc)
	}
	h.mu.RUnlock()

	for _, bc := range targets {
		if err := bc.write(msgBytes, h.writeTimeout); err != nil {
			log.Printf("[BoardWS] 전송 실패: %v", err)
		}
	}
}

// ConnectedClients 연결된 클라이언트 수
func (h *BoardEventHub) ConnectedClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
