package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"whiteboard-backend/internal/model"
)

// DefaultTimeout ctx에 deadline이 없을 때 요청 제한 시간
const DefaultTimeout = 30 * time.Second

// ErrNotFound 대상 화이트보드 없음 (404)
var ErrNotFound = errors.New("whiteboard not found")

// ValidationError 서버가 요청을 거부함 (400)
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// APIError 그 외 실패 응답
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("whiteboard api: HTTP %d", e.Status)
	}
	return fmt.Sprintf("whiteboard api: HTTP %d: %s", e.Status, e.Message)
}

// Client /whiteboards REST 계약 클라이언트
type Client struct {
	baseURL string
	timeout time.Duration
}

// Option Client 설정
type Option func(*Client)

// WithTimeout 기본 요청 제한 시간 지정
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// New Client 생성 (baseURL 예: http://localhost:8080/api)
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %q", u.Scheme)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type saveRequest struct {
	Name       string  `json:"name"`
	CanvasData string  `json:"canvasData"`
	Thumbnail  *string `json:"thumbnail,omitempty"`
}

type summaryResponse struct {
	Whiteboard model.WhiteboardSummary `json:"whiteboard"`
}

// Create 새 화이트보드 저장
func (c *Client) Create(ctx context.Context, name, canvasData string, thumbnail *string) (*model.WhiteboardSummary, error) {
	var out summaryResponse
	body := saveRequest{Name: name, CanvasData: canvasData, Thumbnail: thumbnail}
	if err := c.do(ctx, fiber.MethodPost, "/whiteboards", body, &out); err != nil {
		return nil, err
	}
	return &out.Whiteboard, nil
}

// List 최근 수정 순 목록 (최대 50개)
func (c *Client) List(ctx context.Context) ([]model.WhiteboardSummary, error) {
	return c.ListPage(ctx, 0)
}

// ListPage offset개를 건너뛴 다음 페이지 조회 (페이지 크기는 서버가 결정)
func (c *Client) ListPage(ctx context.Context, offset int) ([]model.WhiteboardSummary, error) {
	var out struct {
		Whiteboards []model.WhiteboardSummary `json:"whiteboards"`
	}
	path := "/whiteboards"
	if offset > 0 {
		path += "?offset=" + strconv.Itoa(offset)
	}
	if err := c.do(ctx, fiber.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Whiteboards == nil {
		out.Whiteboards = []model.WhiteboardSummary{}
	}
	return out.Whiteboards, nil
}

// Get canvasData를 포함한 전체 레코드 조회
func (c *Client) Get(ctx context.Context, id string) (*model.WhiteboardRecord, error) {
	var out struct {
		Whiteboard model.WhiteboardRecord `json:"whiteboard"`
	}
	if err := c.do(ctx, fiber.MethodGet, "/whiteboards/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Whiteboard, nil
}

// Update 무조건 덮어쓰기 (last write wins)
func (c *Client) Update(ctx context.Context, id, name, canvasData string, thumbnail *string) (*model.WhiteboardSummary, error) {
	var out summaryResponse
	body := saveRequest{Name: name, CanvasData: canvasData, Thumbnail: thumbnail}
	if err := c.do(ctx, fiber.MethodPut, "/whiteboards/"+url.PathEscape(id), body, &out); err != nil {
		return nil, err
	}
	return &out.Whiteboard, nil
}

// Delete 화이트보드 삭제
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, fiber.MethodDelete, "/whiteboards/"+url.PathEscape(id), nil, nil)
}

type result struct {
	status int
	body   []byte
	err    error
}

// do runs the request off the caller's goroutine so a cancelled ctx returns
// immediately; the late response is discarded.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}

	done := make(chan result, 1)
	go func() {
		done <- c.send(method, c.baseURL+path, in, timeout)
	}()

	var res result
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return res.err
	}
	return decodeResponse(res.status, res.body, out)
}

func (c *Client) send(method, uri string, in any, timeout time.Duration) result {
	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if in != nil {
		a.JSON(in)
	}
	a.Timeout(timeout)

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return result{err: fmt.Errorf("prepare %s %s: %w", method, uri, err)}
	}
	status, body, errs := a.Bytes()
	if len(errs) > 0 {
		return result{err: fmt.Errorf("%s %s: %w", method, uri, errors.Join(errs...))}
	}
	return result{status: status, body: body}
}

func decodeResponse(status int, body []byte, out any) error {
	switch {
	case status == fiber.StatusNotFound:
		return ErrNotFound
	case status == fiber.StatusBadRequest:
		return &ValidationError{Message: errorMessage(body)}
	case status < 200 || status >= 300:
		return &APIError{Status: status, Message: errorMessage(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
