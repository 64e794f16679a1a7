package scene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DefaultLoadTimeout 벌크 로드 제한 시간
const DefaultLoadTimeout = 5 * time.Second

// State 매니저 상태
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// LoadResult 장면 로드 결과
type LoadResult struct {
	*Result
	Path LoadPath
	// BulkErr is why the bulk path was abandoned (nil when it succeeded).
	BulkErr error
}

// Manager 메모리 상의 장면을 관리 (단일 액터, 고루틴 안전하지 않음)
type Manager struct {
	state       State
	surface     Surface
	drawables   []Drawable
	background  string
	loadTimeout time.Duration
	decoder     *Decoder
	observer    Observer
}

// ManagerOption Manager 설정
type ManagerOption func(*Manager)

// WithLoadTimeout 벌크 로드 제한 시간 지정
func WithLoadTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.loadTimeout = d
		}
	}
}

// WithDecoder 수동 복원 경로에서 사용할 Decoder 지정
func WithDecoder(d *Decoder) ManagerOption {
	return func(m *Manager) {
		if d != nil {
			m.decoder = d
		}
	}
}

// WithManagerObserver 로드 완료 이벤트를 받을 Observer 지정
func WithManagerObserver(o Observer) ManagerOption {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// NewManager Manager 생성 (Attach 전까지 Uninitialized)
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		background:  DefaultBackground,
		loadTimeout: DefaultLoadTimeout,
		observer:    NopObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.decoder == nil {
		m.decoder = NewDecoder(WithObserver(m.observer))
	}
	return m
}

// State 현재 상태
func (m *Manager) State() State { return m.state }

// Attach 드로잉 표면 연결 (Uninitialized → Ready)
func (m *Manager) Attach(s Surface) error {
	if s == nil {
		return errors.New("attach: nil surface")
	}
	switch m.state {
	case StateReady:
		return ErrAlreadyAttached
	case StateDisposed:
		return fmt.Errorf("attach: %w (%s)", ErrNotReady, m.state)
	}
	m.surface = s
	m.state = StateReady
	s.SetBackground(m.background)
	return s.Render()
}

func (m *Manager) ready() error {
	if m.state != StateReady {
		return fmt.Errorf("%w (%s)", ErrNotReady, m.state)
	}
	return nil
}

// Add 맨 위 z-order에 추가하고 다시 그림
func (m *Manager) Add(d Drawable) error {
	if err := m.ready(); err != nil {
		return err
	}
	if d == nil {
		return errors.New("add: nil drawable")
	}
	if err := Validate(d); err != nil {
		return fmt.Errorf("add %s: %w", d.Kind(), err)
	}
	if err := m.surface.Add(d); err != nil {
		return err
	}
	m.drawables = append(m.drawables, d)
	return m.surface.Render()
}

// Remove z-index 위치의 객체 제거
func (m *Manager) Remove(index int) error {
	if err := m.ready(); err != nil {
		return err
	}
	if index < 0 || index >= len(m.drawables) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	if err := m.surface.Remove(index); err != nil {
		return err
	}
	m.drawables = append(m.drawables[:index], m.drawables[index+1:]...)
	return m.surface.Render()
}

// Clear 모든 객체 제거 및 배경 초기화
func (m *Manager) Clear() error {
	if err := m.ready(); err != nil {
		return err
	}
	m.drawables = nil
	m.background = DefaultBackground
	m.surface.Clear()
	m.surface.SetBackground(m.background)
	return m.surface.Render()
}

// SetBackground 배경색 변경
func (m *Manager) SetBackground(color string) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.background = color
	m.surface.SetBackground(color)
	return m.surface.Render()
}

// All 현재 객체 목록 (복사본)
func (m *Manager) All() []Drawable {
	out := make([]Drawable, len(m.drawables))
	copy(out, m.drawables)
	return out
}

// Count 객체 수
func (m *Manager) Count() int { return len(m.drawables) }

// Background 현재 배경색
func (m *Manager) Background() string { return m.background }

// Snapshot 현재 상태를 Scene으로 반환
func (m *Manager) Snapshot() *Scene {
	return &Scene{Background: m.background, Drawables: m.All()}
}

// Serialize 현재 장면을 JSON으로 직렬화
func (m *Manager) Serialize() ([]byte, error) {
	return Encode(m.Snapshot())
}

// Thumbnail PNG data URL 생성 (실패 시 빈 문자열)
func (m *Manager) Thumbnail() string {
	if m.state != StateReady {
		return ""
	}
	url, err := m.surface.ToDataURL("image/png")
	if err != nil {
		return ""
	}
	return url
}

// Load canvasData를 불러와 현재 장면을 교체
//
// The bulk loader of the surface is tried once under the load timeout. On
// error or timeout the document goes through the Decoder instead. A
// document that is not JSON at all fails with *ParseError and leaves the
// current scene untouched.
func (m *Manager) Load(ctx context.Context, data []byte) (*LoadResult, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &ParseError{Err: err}
	}

	loaded, bulkErr := m.bulkLoad(ctx, data)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var lr *LoadResult
	if bulkErr == nil {
		lr = &LoadResult{
			Result: &Result{Scene: loaded, SuccessCount: len(loaded.Drawables)},
			Path:   LoadPathBulk,
		}
	} else {
		res, err := m.decoder.Decode(data)
		if err != nil {
			return nil, err
		}
		lr = &LoadResult{Result: res, Path: LoadPathManual, BulkErr: bulkErr}
	}

	renderErr := m.install(lr.Result)
	m.observer.LoadFinished(lr.Path, lr.SuccessCount, lr.FailCount)
	return lr, renderErr
}

type bulkOutcome struct {
	scene *Scene
	err   error
}

func (m *Manager) bulkLoad(ctx context.Context, data []byte) (*Scene, error) {
	tctx, cancel := context.WithTimeout(ctx, m.loadTimeout)
	defer cancel()

	// buffered so an abandoned loader can still finish and exit
	done := make(chan bulkOutcome, 1)
	go func() {
		s, err := m.surface.LoadFromJSON(tctx, data)
		done <- bulkOutcome{scene: s, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		if out.scene == nil {
			return nil, errors.New("bulk load returned no scene")
		}
		return out.scene, nil
	case <-tctx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrBulkLoadTimeout
	}
}

// install replaces the scene on the surface, rendering once at the end.
// Drawables the surface refuses become warnings.
func (m *Manager) install(res *Result) error {
	bg := res.Scene.Background
	if bg == "" {
		bg = DefaultBackground
	}
	m.surface.Clear()
	m.surface.SetBackground(bg)
	m.background = bg

	kept := make([]Drawable, 0, len(res.Scene.Drawables))
	var sources []int
	for i, d := range res.Scene.Drawables {
		src := res.sourceIndex(i)
		if err := m.surface.Add(d); err != nil {
			w := ReconstructionWarning{Index: src, Tag: CanonicalTag(d.Kind()), Kind: d.Kind(), Err: err}
			res.Warnings = append(res.Warnings, w)
			res.SuccessCount--
			res.FailCount++
			m.observer.ObjectFailed(w)
			continue
		}
		kept = append(kept, d)
		sources = append(sources, src)
	}
	res.Scene.Drawables = kept
	res.sources = sources
	m.drawables = append([]Drawable(nil), kept...)
	return m.surface.Render()
}

// Dispose 표면 자원 해제 (여러 번 호출해도 안전)
func (m *Manager) Dispose() error {
	if m.state == StateDisposed {
		return nil
	}
	m.state = StateDisposed
	m.drawables = nil
	if m.surface == nil {
		return nil
	}
	s := m.surface
	m.surface = nil
	return s.Dispose()
}
