package client

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/database"
	"whiteboard-backend/internal/handler"
	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/server"
	"whiteboard-backend/internal/service"
)

const emptyScene = `{"version":"1","objects":[]}`

// startServer runs the full HTTP stack over sqlite on a loopback port.
func startServer(t *testing.T) *Client {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	pool, err := database.OpenGorm(db)
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.FromEnv()
	cfg.RateLimit.Max = 1000
	svc := service.NewWhiteboardService(pool.Repository(), nil, nil)
	srv := server.New(cfg, handler.NewWhiteboardHandler(svc), handler.NewHealthHandler(pool, nil), handler.NewBoardEventHub(time.Second))
	srv.SetupRoutes()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = srv.App().Listener(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = pool.Close()
	})

	c, err := New("http://"+ln.Addr().String()+"/api/", WithTimeout(5*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestClientCRUD(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()

	thumb := "data:image/png;base64,AA=="
	s, err := c.Create(ctx, "plan", emptyScene, &thumb)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID == "" || s.Name != "plan" {
		t.Fatalf("summary = %+v", s)
	}

	rec, err := c.Get(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.CanvasData != emptyScene || rec.Thumbnail != thumb {
		t.Fatalf("record = %+v", rec)
	}

	next := `{"version":"1","objects":[{"type":"text","text":"hi"}]}`
	if _, err := c.Update(ctx, s.ID, "plan v2", next, nil); err != nil {
		t.Fatal(err)
	}
	rec, err = c.Get(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "plan v2" || rec.CanvasData != next {
		t.Fatalf("after update = %+v", rec)
	}
	if rec.Thumbnail != thumb {
		t.Errorf("thumbnail dropped on update without one: %q", rec.Thumbnail)
	}

	list, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != s.ID {
		t.Fatalf("list = %+v", list)
	}

	if err := c.Delete(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
	if err := c.Delete(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestClientValidationError(t *testing.T) {
	c := startServer(t)
	_, err := c.Create(context.Background(), "", emptyScene, nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if ve.Message != service.MsgRequired {
		t.Errorf("message = %q", ve.Message)
	}

	_, err = c.Update(context.Background(), "8f14e45f-ceea-4e7a-9c2b-1d3b7e5a0c11", "x", emptyScene, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update missing err = %v", err)
	}
}

func TestClientAPIError(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/api/whiteboards", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch whiteboards"})
	})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	c, err := New("http://" + ln.Addr().String() + "/api")
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.List(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != fiber.StatusInternalServerError || apiErr.Message != "Failed to fetch whiteboards" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestClientAbandonedCall(t *testing.T) {
	release := make(chan struct{})
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/api/whiteboards", func(c *fiber.Ctx) error {
		<-release
		return c.JSON(fiber.Map{"whiteboards": []any{}})
	})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() {
		close(release)
		_ = app.Shutdown()
	})

	c, err := New("http://" + ln.Addr().String() + "/api")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err = c.List(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("cancelled call took %v", time.Since(start))
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "://nope", "localhost:8080"} {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q) succeeded", raw)
		}
	}
}

func TestListTrackerIgnoresStaleResponse(t *testing.T) {
	var tr ListTracker
	older := tr.Begin()
	newer := tr.Begin()

	fresh := []model.WhiteboardSummary{{ID: "b"}, {ID: "a"}}
	stale := []model.WhiteboardSummary{{ID: "a"}}

	if !tr.Apply(newer, fresh) {
		t.Fatal("newer response rejected")
	}
	if tr.Apply(older, stale) {
		t.Fatal("stale response applied")
	}
	got := tr.Current()
	if len(got) != 2 || got[0].ID != "b" {
		t.Fatalf("Current = %+v", got)
	}
}

func TestListTrackerRefresh(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()
	if _, err := c.Create(ctx, "one", emptyScene, nil); err != nil {
		t.Fatal(err)
	}

	var tr ListTracker
	applied, err := tr.Refresh(ctx, c)
	if err != nil {
		t.Fatal(err)
	}
	if !applied || len(tr.Current()) != 1 {
		t.Fatalf("applied = %v, current = %+v", applied, tr.Current())
	}
}

func TestClientListPage(t *testing.T) {
	c := startServer(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		if _, err := c.Create(ctx, name, emptyScene, nil); err != nil {
			t.Fatal(err)
		}
	}

	first, err := c.ListPage(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	rest, err := c.ListPage(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 3 || len(rest) != 1 {
		t.Fatalf("pages = %d, %d", len(first), len(rest))
	}
	if rest[0].ID != first[2].ID {
		t.Errorf("offset page = %s, want %s", rest[0].ID, first[2].ID)
	}
}
