package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"whiteboard-backend/internal/model"
	"whiteboard-backend/internal/repository"
)

type recorder struct {
	mu     sync.Mutex
	events []model.BoardEvent
}

func (r *recorder) Publish(evt model.BoardEvent) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

// memCache counts invalidations and serves what was last stored.
type memCache struct {
	list        []model.WhiteboardSummary
	ok          bool
	gen         int64
	invalidated int
}

func (c *memCache) Get(context.Context) ([]model.WhiteboardSummary, bool) { return c.list, c.ok }
func (c *memCache) Generation(context.Context) (int64, bool)              { return c.gen, true }
func (c *memCache) Health(context.Context) error                          { return nil }
func (c *memCache) Close() error                                          { return nil }

func (c *memCache) Set(_ context.Context, gen int64, l []model.WhiteboardSummary) {
	if gen == c.gen {
		c.list, c.ok = l, true
	}
}

func (c *memCache) Invalidate(context.Context) {
	c.list, c.ok = nil, false
	c.gen++
	c.invalidated++
}

func newTestRepo(t *testing.T) *repository.GormRepository {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := repository.NewGormRepository(db)
	if err := repo.Migrate(); err != nil {
		t.Fatal(err)
	}
	return repo
}

func newTestService(t *testing.T) (*WhiteboardService, *memCache, *recorder) {
	t.Helper()
	c := &memCache{}
	ev := &recorder{}
	return NewWhiteboardService(newTestRepo(t), c, ev), c, ev
}

func TestCreateValidation(t *testing.T) {
	svc, _, ev := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SaveInput
		msg  string
	}{
		{"empty name", SaveInput{Name: "", CanvasData: "{}"}, MsgRequired},
		{"blank name", SaveInput{Name: "   ", CanvasData: "{}"}, MsgRequired},
		{"no canvas", SaveInput{Name: "a"}, MsgRequired},
		{"bad json", SaveInput{Name: "a", CanvasData: "{oops"}, MsgInvalidJSON},
		{"long name", SaveInput{Name: strings.Repeat("가", 101), CanvasData: "{}"}, MsgNameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Message != tt.msg {
				t.Fatalf("err = %v, want %q", err, tt.msg)
			}
		})
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 || len(ev.events) != 0 {
		t.Fatalf("validation failures touched the store: %d rows, %d events", len(list), len(ev.events))
	}
}

func TestCreateTrimsAndPublishes(t *testing.T) {
	svc, c, ev := newTestService(t)
	ctx := context.Background()
	thumb := "data:image/png;base64,AA=="

	sum, err := svc.Create(ctx, SaveInput{Name: "  plan  ", CanvasData: `{"objects":[]}`, Thumbnail: &thumb})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Name != "plan" || sum.ID == "" || sum.Thumbnail != "" {
		t.Fatalf("summary = %+v", sum)
	}
	if c.invalidated != 1 || len(ev.events) != 1 || ev.events[0].Type != model.BoardEventCreated {
		t.Fatalf("invalidated=%d events=%v", c.invalidated, ev.events)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Thumbnail != thumb {
		t.Fatalf("list = %+v", list)
	}
	if !c.ok {
		t.Fatal("list not cached")
	}
}

func TestListServedFromCache(t *testing.T) {
	svc, c, _ := newTestService(t)
	c.Set(context.Background(), 0, []model.WhiteboardSummary{{ID: "cached"}})
	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "cached" {
		t.Fatalf("list = %+v", list)
	}
}

func TestGetUpdateDelete(t *testing.T) {
	svc, _, ev := newTestService(t)
	ctx := context.Background()
	sum, err := svc.Create(ctx, SaveInput{Name: "a", CanvasData: `{"v":1}`})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Update(ctx, sum.ID, SaveInput{Name: "b", CanvasData: `{"v":2}`}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Update(ctx, sum.ID, SaveInput{Name: "c", CanvasData: `{"v":3}`}); err != nil {
		t.Fatal(err)
	}
	rec, err := svc.Get(ctx, sum.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "c" || rec.CanvasData != `{"v":3}` {
		t.Fatalf("last write did not win: %+v", rec)
	}

	if err := svc.Delete(ctx, sum.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, sum.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v", err)
	}
	last := ev.events[len(ev.events)-1]
	if last.Type != model.BoardEventDeleted || last.Payload.(model.BoardDeleted).ID != sum.ID {
		t.Fatalf("last event = %+v", last)
	}
}

func TestNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	id := "0b8f2f5e-8c1c-4b53-a3f0-5d0c1f1f2a11"
	if _, err := svc.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get = %v", err)
	}
	if _, err := svc.Update(ctx, id, SaveInput{Name: "x", CanvasData: "{}"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update = %v", err)
	}
	if err := svc.Delete(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete = %v", err)
	}
	// validation runs before the lookup
	var ve *ValidationError
	if _, err := svc.Update(ctx, id, SaveInput{Name: "", CanvasData: "{}"}); !errors.As(err, &ve) {
		t.Errorf("Update(empty name) = %v", err)
	}
}

func TestInspect(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	doc := `{"version":"1","background":"#fff","objects":[{"type":"Rect"},{"type":"Blob"},{"type":"text","text":"x"}]}`
	sum, err := svc.Create(ctx, SaveInput{Name: "i", CanvasData: doc})
	if err != nil {
		t.Fatal(err)
	}
	in, err := svc.Inspect(ctx, sum.ID)
	if err != nil {
		t.Fatal(err)
	}
	if in.Summary != "loaded 2 of 3 objects" || in.Version != "1" || in.Background != "#fff" {
		t.Fatalf("inspection = %+v", in)
	}
	if in.Objects["Rectangle"] != 1 || in.Objects["TextLabel"] != 1 {
		t.Fatalf("objects = %v", in.Objects)
	}
	if len(in.Warnings) != 1 || in.Warnings[0].Tag != "Blob" || in.Warnings[0].Index != 1 {
		t.Fatalf("warnings = %+v", in.Warnings)
	}
}

type brokenRepo struct{ repository.WhiteboardRepository }

var errDriver = errors.New("dial tcp: connection refused")

func (brokenRepo) Create(context.Context, *model.Whiteboard) error { return errDriver }
func (brokenRepo) List(context.Context, int, int) ([]model.Whiteboard, error) {
	return nil, errDriver
}

func TestStoreErrorsAreGeneric(t *testing.T) {
	svc := NewWhiteboardService(brokenRepo{}, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, SaveInput{Name: "a", CanvasData: "{}"})
	var se *StoreError
	if !errors.As(err, &se) || se.Error() != "Failed to save whiteboard" || !errors.Is(err, errDriver) {
		t.Fatalf("Create err = %v", err)
	}
	if _, err := svc.List(ctx); !errors.As(err, &se) || se.Error() != "Failed to fetch whiteboards" {
		t.Fatalf("List err = %v", err)
	}
}

// writeDuringList commits a write after the store was read but before the
// list reaches the cache.
type writeDuringList struct {
	repository.WhiteboardRepository
	write func()
}

func (r *writeDuringList) List(ctx context.Context, offset, limit int) ([]model.Whiteboard, error) {
	rows, err := r.WhiteboardRepository.List(ctx, offset, limit)
	if r.write != nil {
		w := r.write
		r.write = nil
		w()
	}
	return rows, err
}

func TestListNotCachedAcrossConcurrentWrite(t *testing.T) {
	repo := &writeDuringList{WhiteboardRepository: newTestRepo(t)}
	c := &memCache{}
	svc := NewWhiteboardService(repo, c, nil)
	ctx := context.Background()

	repo.write = func() {
		if _, err := svc.Create(ctx, SaveInput{Name: "late", CanvasData: "{}"}); err != nil {
			t.Error(err)
		}
	}
	first, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 0 {
		t.Fatalf("first list = %+v", first)
	}
	if c.ok {
		t.Fatal("list read before the write was cached")
	}

	second, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 1 || second[0].Name != "late" {
		t.Fatalf("second list = %+v", second)
	}
	if !c.ok {
		t.Fatal("fresh list not cached")
	}
}
