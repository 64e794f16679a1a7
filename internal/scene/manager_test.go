package scene

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSurface records calls and lets tests script the bulk loader.
type fakeSurface struct {
	items      []Drawable
	background string
	renders    int
	disposed   int
	rejectKind Kind
	bulk       func(ctx context.Context, data []byte) (*Scene, error)
}

func (f *fakeSurface) Add(d Drawable) error {
	if f.rejectKind != KindUnknown && d.Kind() == f.rejectKind {
		return errors.New("surface refused drawable")
	}
	f.items = append(f.items, d)
	return nil
}

func (f *fakeSurface) Remove(i int) error {
	f.items = append(f.items[:i], f.items[i+1:]...)
	return nil
}

func (f *fakeSurface) Clear() { f.items = nil }

func (f *fakeSurface) SetBackground(c string) { f.background = c }

func (f *fakeSurface) Render() error {
	f.renders++
	return nil
}

func (f *fakeSurface) Dispose() error {
	f.disposed++
	return nil
}

func (f *fakeSurface) ToDataURL(string) (string, error) {
	return "data:image/png;base64,AA==", nil
}

func (f *fakeSurface) LoadFromJSON(ctx context.Context, data []byte) (*Scene, error) {
	if f.bulk != nil {
		return f.bulk(ctx, data)
	}
	return ParseStrict(data)
}

func readyManager(t *testing.T, opts ...ManagerOption) (*Manager, *fakeSurface) {
	t.Helper()
	s := &fakeSurface{}
	m := NewManager(opts...)
	if err := m.Attach(s); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return m, s
}

func TestManagerStateMachine(t *testing.T) {
	m := NewManager()
	if m.State() != StateUninitialized {
		t.Fatalf("state = %s", m.State())
	}
	if err := m.Add(Rectangle{}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Add before attach: %v", err)
	}
	if m.Thumbnail() != "" {
		t.Fatal("thumbnail before attach should be empty")
	}

	s := &fakeSurface{}
	if err := m.Attach(s); err != nil {
		t.Fatal(err)
	}
	if err := m.Attach(&fakeSurface{}); !errors.Is(err, ErrAlreadyAttached) {
		t.Fatalf("second attach: %v", err)
	}
	if err := m.Add(Rectangle{Width: 1}); err != nil {
		t.Fatal(err)
	}

	if err := m.Dispose(); err != nil {
		t.Fatal(err)
	}
	if err := m.Dispose(); err != nil {
		t.Fatalf("second Dispose: %v", err)
	}
	if s.disposed != 1 {
		t.Fatalf("surface disposed %d times", s.disposed)
	}
	if m.State() != StateDisposed {
		t.Fatalf("state = %s", m.State())
	}
	for name, err := range map[string]error{
		"Add":           m.Add(Rectangle{}),
		"Clear":         m.Clear(),
		"Remove":        m.Remove(0),
		"SetBackground": m.SetBackground("#000"),
		"Attach":        m.Attach(&fakeSurface{}),
	} {
		if !errors.Is(err, ErrNotReady) {
			t.Errorf("%s after dispose: %v", name, err)
		}
	}
	if _, err := m.Load(context.Background(), []byte(`{}`)); !errors.Is(err, ErrNotReady) {
		t.Errorf("Load after dispose: %v", err)
	}
}

func TestManagerAddRemoveClear(t *testing.T) {
	m, s := readyManager(t)
	a := Rectangle{Width: 1}
	b := TextLabel{Text: "b"}
	c := Connector{X2: 1}
	for _, d := range []Drawable{a, b, c} {
		if err := m.Add(d); err != nil {
			t.Fatal(err)
		}
	}
	if m.Count() != 3 || len(s.items) != 3 {
		t.Fatalf("count = %d, surface = %d", m.Count(), len(s.items))
	}

	all := m.All()
	all[0] = nil
	if m.All()[0] == nil {
		t.Fatal("All must return a copy")
	}

	if err := m.Remove(1); err != nil {
		t.Fatal(err)
	}
	if got := m.All(); got[0] != Drawable(a) || got[1] != Drawable(c) {
		t.Fatalf("after remove: %#v", got)
	}
	if err := m.Remove(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Remove(5): %v", err)
	}

	if err := m.SetBackground("#123456"); err != nil {
		t.Fatal(err)
	}
	if err := m.Clear(); err != nil {
		t.Fatal(err)
	}
	if m.Count() != 0 || m.Background() != DefaultBackground || s.background != DefaultBackground {
		t.Fatalf("clear left count=%d bg=%q", m.Count(), m.Background())
	}
}

func TestManagerSerializeAndThumbnail(t *testing.T) {
	m, _ := readyManager(t)
	data, err := m.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"version":"1","background":"#ffffff","objects":[]}` {
		t.Fatalf("Serialize = %s", data)
	}
	if got := m.Thumbnail(); got == "" {
		t.Fatal("expected thumbnail")
	}
}

func TestManagerLoadBulkPath(t *testing.T) {
	var c Counter
	m, s := readyManager(t, WithManagerObserver(&c))
	doc := `{"version":"1","background":"#eeeeee","objects":[{"type":"rect"},{"type":"path","points":[{"x":0,"y":0}]}]}`

	res, err := m.Load(context.Background(), []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != LoadPathBulk || res.SuccessCount != 2 || res.FailCount != 0 {
		t.Fatalf("result = %+v", res)
	}
	if m.Count() != 2 || len(s.items) != 2 || m.Background() != "#eeeeee" {
		t.Fatalf("scene not installed: count=%d bg=%q", m.Count(), m.Background())
	}
	if len(c.Finished) != 1 || c.Finished[0] != LoadPathBulk {
		t.Fatalf("observer finished = %v", c.Finished)
	}
}

func TestManagerLoadFallsBackOnBulkError(t *testing.T) {
	m, _ := readyManager(t)
	// legacy tag: strict loader refuses, manual path accepts
	doc := `{"objects":[{"type":"Rect"},{"type":"Blob"},{"type":"path","points":[]}]}`

	res, err := m.Load(context.Background(), []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != LoadPathManual || res.BulkErr == nil {
		t.Fatalf("expected manual path, got %+v", res)
	}
	if res.SuccessCount != 1 || res.FailCount != 2 {
		t.Fatalf("counts = %d/%d", res.SuccessCount, res.FailCount)
	}
	if m.Background() != DefaultBackground {
		t.Fatalf("background = %q", m.Background())
	}
}

func TestManagerLoadFallsBackOnTimeout(t *testing.T) {
	m, s := readyManager(t, WithLoadTimeout(20*time.Millisecond))
	s.bulk = func(ctx context.Context, _ []byte) (*Scene, error) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return &Scene{}, nil
	}

	res, err := m.Load(context.Background(), []byte(`{"version":"1","objects":[{"type":"circle"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != LoadPathManual || !errors.Is(res.BulkErr, ErrBulkLoadTimeout) {
		t.Fatalf("result = %+v", res)
	}
	if m.Count() != 1 {
		t.Fatalf("count = %d", m.Count())
	}
}

func TestManagerLoadParseErrorKeepsScene(t *testing.T) {
	m, _ := readyManager(t)
	if err := m.Add(Rectangle{Width: 3}); err != nil {
		t.Fatal(err)
	}
	_, err := m.Load(context.Background(), []byte(`not json`))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want ParseError, got %v", err)
	}
	if m.Count() != 1 {
		t.Fatalf("scene changed: count=%d", m.Count())
	}
}

func TestManagerLoadCancelled(t *testing.T) {
	m, s := readyManager(t)
	s.bulk = func(ctx context.Context, _ []byte) (*Scene, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Load(ctx, []byte(`{}`)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestManagerLoadSurfaceRefusal(t *testing.T) {
	m, s := readyManager(t)
	s.rejectKind = KindImage
	doc := `{"version":"1","objects":[{"type":"rect"},{"type":"image","src":"data:image/png;base64,AA=="}]}`
	res, err := m.Load(context.Background(), []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if res.SuccessCount != 1 || res.FailCount != 1 || m.Count() != 1 {
		t.Fatalf("counts = %d/%d, manager %d", res.SuccessCount, res.FailCount, m.Count())
	}
	if res.Summary() != "loaded 1 of 2 objects" {
		t.Fatalf("summary = %q", res.Summary())
	}
}

func TestManagerRefusalKeepsSourceIndex(t *testing.T) {
	m, s := readyManager(t)
	s.rejectKind = KindImage
	// old version forces the manual path; object 0 has no constructor
	doc := `{"version":"0","objects":[{"type":"hexagon"},{"type":"rect"},{"type":"image","src":"data:image/png;base64,AA=="}]}`
	res, err := m.Load(context.Background(), []byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if res.Path != LoadPathManual {
		t.Fatalf("path = %s", res.Path)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	if res.Warnings[0].Index != 0 || res.Warnings[1].Index != 2 {
		t.Fatalf("warning indexes = %d, %d", res.Warnings[0].Index, res.Warnings[1].Index)
	}
}

func TestManagerAddRejectsUnreloadable(t *testing.T) {
	m, s := readyManager(t)
	for _, d := range []Drawable{
		TextLabel{Text: "   ", FontSize: 12},
		Image{ScaleX: 1, ScaleY: 1},
	} {
		if err := m.Add(d); !errors.Is(err, ErrMissingField) {
			t.Errorf("Add(%s) = %v", d.Kind(), err)
		}
	}
	if m.Count() != 0 || len(s.items) != 0 {
		t.Fatalf("rejected drawables reached the scene: %d/%d", m.Count(), len(s.items))
	}

	if err := m.Add(TextLabel{Text: "ok", FontSize: 12}); err != nil {
		t.Fatal(err)
	}
}
