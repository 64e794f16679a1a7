package canvas

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/goregular"

	"whiteboard-backend/internal/scene"
)

// 기본 썸네일 크기
const (
	DefaultWidth  = 1200
	DefaultHeight = 800
)

var (
	// ErrDisposed 이미 해제된 surface
	ErrDisposed = errors.New("canvas surface disposed")
	// ErrUnsupportedFormat ToDataURL이 지원하지 않는 포맷
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

var fontSource = sync.OnceValues(func() (*text.FontSource, error) {
	return text.NewFontSource(goregular.TTF)
})

// item is one drawable on the surface plus its decoded bitmap, if any.
type item struct {
	d   scene.Drawable
	img *gg.ImageBuf
}

// Surface gogpu/gg 소프트웨어 래스터라이저 기반 드로잉 표면
type Surface struct {
	dc         *gg.Context
	font       *text.FontSource
	faces      map[float64]text.Face
	items      []item
	background string
	disposed   bool
}

var _ scene.Surface = (*Surface)(nil)

// New width x height 크기의 Surface 생성
func New(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("canvas: invalid size %dx%d", width, height)
	}
	src, err := fontSource()
	if err != nil {
		return nil, fmt.Errorf("canvas: load font: %w", err)
	}
	return &Surface{
		dc:         gg.NewContext(width, height),
		font:       src,
		faces:      make(map[float64]text.Face),
		background: scene.DefaultBackground,
	}, nil
}

// Size 픽셀 크기
func (s *Surface) Size() (int, int) {
	return s.dc.Width(), s.dc.Height()
}

// Len 표면에 올라간 객체 수
func (s *Surface) Len() int { return len(s.items) }

// Add 객체 추가 (이미지는 이 시점에 디코딩)
func (s *Surface) Add(d scene.Drawable) error {
	if s.disposed {
		return ErrDisposed
	}
	it := item{d: d}
	if img, ok := d.(scene.Image); ok {
		buf, err := decodeDataURL(img.Src)
		if err != nil {
			return fmt.Errorf("image source: %w", err)
		}
		it.img = buf
	}
	s.items = append(s.items, it)
	return nil
}

// Remove index 위치의 객체 제거
func (s *Surface) Remove(index int) error {
	if s.disposed {
		return ErrDisposed
	}
	if index < 0 || index >= len(s.items) {
		return fmt.Errorf("%w: %d", scene.ErrIndexOutOfRange, index)
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	return nil
}

// Clear 모든 객체 제거
func (s *Surface) Clear() { s.items = nil }

// SetBackground 배경색 지정
func (s *Surface) SetBackground(color string) { s.background = color }

// LoadFromJSON 네이티브 로더로 문서 파싱 (현재 스키마만 지원)
func (s *Surface) LoadFromJSON(ctx context.Context, data []byte) (*scene.Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scene.ParseStrict(data)
}

// Render 배경과 모든 객체를 다시 그림
func (s *Surface) Render() error {
	if s.disposed {
		return ErrDisposed
	}
	if c, ok := parseColor(s.background); ok {
		s.dc.ClearWithColor(c)
	} else {
		s.dc.ClearWithColor(gg.White)
	}

	var errs []error
	for i, it := range s.items {
		if err := s.draw(it); err != nil {
			errs = append(errs, fmt.Errorf("draw %d (%s): %w", i, it.d.Kind(), err))
		}
	}
	return errors.Join(errs...)
}

// ToDataURL 현재 렌더링 결과를 data URL로 인코딩
func (s *Surface) ToDataURL(format string) (string, error) {
	if s.disposed {
		return "", ErrDisposed
	}
	var buf bytes.Buffer
	var mime string
	switch strings.ToLower(format) {
	case "", "png", "image/png":
		mime = "image/png"
		if err := s.dc.EncodePNG(&buf); err != nil {
			return "", &scene.SerializationError{Op: "png", Err: err}
		}
	case "jpeg", "jpg", "image/jpeg":
		mime = "image/jpeg"
		if err := s.dc.EncodeJPEG(&buf, 90); err != nil {
			return "", &scene.SerializationError{Op: "jpeg", Err: err}
		}
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// EncodePNG 현재 렌더링 결과를 PNG로 기록
func (s *Surface) EncodePNG(w io.Writer) error {
	if s.disposed {
		return ErrDisposed
	}
	return s.dc.EncodePNG(w)
}

// Dispose 래스터 컨텍스트 해제 (멱등)
func (s *Surface) Dispose() error {
	if s.disposed {
		return nil
	}
	s.disposed = true
	s.items = nil
	s.faces = nil
	return s.dc.Close()
}

func (s *Surface) face(size float64) text.Face {
	if f, ok := s.faces[size]; ok {
		return f
	}
	f := s.font.Face(size)
	s.faces[size] = f
	return f
}

// decodeDataURL accepts "data:image/...;base64,..." or bare base64.
func decodeDataURL(src string) (*gg.ImageBuf, error) {
	payload := src
	if strings.HasPrefix(src, "data:") {
		comma := strings.IndexByte(src, ',')
		if comma < 0 {
			return nil, errors.New("malformed data URL")
		}
		if !strings.HasSuffix(src[:comma], ";base64") {
			return nil, errors.New("data URL is not base64 encoded")
		}
		payload = src[comma+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return gg.ImageBufFromImage(img), nil
}
