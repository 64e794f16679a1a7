package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/scene"
	"whiteboard-backend/internal/service"
)

// WhiteboardHandler 화이트보드 REST 핸들러
type WhiteboardHandler struct {
	svc *service.WhiteboardService
}

// NewWhiteboardHandler WhiteboardHandler 생성
func NewWhiteboardHandler(svc *service.WhiteboardService) *WhiteboardHandler {
	return &WhiteboardHandler{svc: svc}
}

// SaveWhiteboardRequest 생성/수정 요청 본문
//
// canvasData is normally a JSON-encoded string; an embedded object is accepted
// and stored as its compact encoding.
type SaveWhiteboardRequest struct {
	Name       string          `json:"name"`
	CanvasData json.RawMessage `json:"canvasData"`
	Thumbnail  *string         `json:"thumbnail"`
}

func (r *SaveWhiteboardRequest) input() service.SaveInput {
	return service.SaveInput{
		Name:       r.Name,
		CanvasData: canvasDataString(r.CanvasData),
		Thumbnail:  r.Thumbnail,
	}
}

// canvasDataString unwraps a JSON string; null or absent gives "".
func canvasDataString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// ListWhiteboards GET /api/whiteboards?offset=N
func (h *WhiteboardHandler) ListWhiteboards(c *fiber.Ctx) error {
	list, err := h.svc.ListPage(c.UserContext(), c.QueryInt("offset", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"whiteboards": list})
}

// CreateWhiteboard POST /api/whiteboards
func (h *WhiteboardHandler) CreateWhiteboard(c *fiber.Ctx) error {
	var req SaveWhiteboardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	summary, err := h.svc.Create(c.UserContext(), req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Whiteboard saved successfully",
		"whiteboard": summary,
	})
}

// GetWhiteboard GET /api/whiteboards/:id
func (h *WhiteboardHandler) GetWhiteboard(c *fiber.Ctx) error {
	rec, err := h.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"whiteboard": rec})
}

// UpdateWhiteboard PUT /api/whiteboards/:id
func (h *WhiteboardHandler) UpdateWhiteboard(c *fiber.Ctx) error {
	var req SaveWhiteboardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	summary, err := h.svc.Update(c.UserContext(), c.Params("id"), req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Whiteboard updated successfully",
		"whiteboard": summary,
	})
}

// DeleteWhiteboard DELETE /api/whiteboards/:id
func (h *WhiteboardHandler) DeleteWhiteboard(c *fiber.Ctx) error {
	if err := h.svc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Whiteboard deleted successfully"})
}

// InspectWhiteboard GET /api/whiteboards/:id/inspect
func (h *WhiteboardHandler) InspectWhiteboard(c *fiber.Ctx) error {
	in, err := h.svc.Inspect(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(in)
}

// TestDB GET /api/test-db
func (h *WhiteboardHandler) TestDB(c *fiber.Ctx) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if err := h.svc.Ping(c.UserContext()); err != nil {
		log.Printf("[Whiteboard] ❌ database connection test failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success":   false,
			"error":     "Database connection failed",
			"timestamp": now,
		})
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Database connection successful",
		"timestamp": now,
	})
}

// writeError 서비스 오류를 HTTP 상태로 변환
func writeError(c *fiber.Ctx, err error) error {
	var ve *service.ValidationError
	var se *service.StoreError
	var pe *scene.ParseError

	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Message})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": service.MsgNotFound})
	case errors.As(err, &pe):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": service.MsgUnparsable})
	case errors.As(err, &se):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": se.Error()})
	default:
		log.Printf("[Whiteboard] ❌ unexpected error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}
