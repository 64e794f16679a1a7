package scene

import (
	"encoding/json"
	"fmt"
)

// Result 역직렬화 결과
type Result struct {
	Scene        *Scene
	SuccessCount int
	FailCount    int
	Warnings     []ReconstructionWarning

	// sources[i] is the objects index Scene.Drawables[i] was rebuilt from.
	sources []int
}

// sourceIndex 복원된 i번째 객체의 원본 objects 인덱스
func (r *Result) sourceIndex(i int) int {
	if i < len(r.sources) {
		return r.sources[i]
	}
	return i
}

// Total 원본 문서의 객체 수
func (r *Result) Total() int {
	return r.SuccessCount + r.FailCount
}

// Partial 일부 객체가 복원되지 않았는지 여부
func (r *Result) Partial() bool {
	return r.FailCount > 0
}

// Summary 사용자에게 보여줄 요약 ("loaded 7 of 9 objects")
func (r *Result) Summary() string {
	return fmt.Sprintf("loaded %d of %d objects", r.SuccessCount, r.Total())
}

// Decoder 과거/현재 포맷을 모두 허용하는 수동 복원기
type Decoder struct {
	observer  Observer
	fallbacks map[string]Constructor
}

// DecoderOption Decoder 설정
type DecoderOption func(*Decoder)

// WithObserver 관측 훅 지정
func WithObserver(o Observer) DecoderOption {
	return func(d *Decoder) {
		if o != nil {
			d.observer = o
		}
	}
}

// WithFallback 알 수 없는 태그에 대한 대체 생성자 등록
func WithFallback(tag string, c Constructor) DecoderOption {
	return func(d *Decoder) {
		d.fallbacks[tag] = c
	}
}

// NewDecoder Decoder 생성
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		observer:  NopObserver{},
		fallbacks: make(map[string]Constructor),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode canvasData 문서를 장면으로 복원
//
// Only a top-level JSON syntax error fails the call. Anything else degrades:
// a non-object document or a missing objects array gives an empty scene, and
// a bad entry is skipped and recorded as a warning.
func (d *Decoder) Decode(data []byte) (*Result, error) {
	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &ParseError{Err: err}
	}

	res := &Result{Scene: &Scene{}}

	root, ok := top.(map[string]any)
	if !ok {
		return res, nil
	}
	if bg, ok := root["background"].(string); ok && bg != "" {
		res.Scene.Background = bg
	}
	entries, ok := root["objects"].([]any)
	if !ok {
		return res, nil
	}

	res.Scene.Drawables = make([]Drawable, 0, len(entries))
	for i, entry := range entries {
		drawable, warn := d.decodeEntry(i, entry)
		if warn != nil {
			res.FailCount++
			res.Warnings = append(res.Warnings, *warn)
			d.observer.ObjectFailed(*warn)
			continue
		}
		res.SuccessCount++
		res.Scene.Drawables = append(res.Scene.Drawables, drawable)
		res.sources = append(res.sources, i)
		d.observer.ObjectLoaded(i, drawable.Kind())
	}
	return res, nil
}

func (d *Decoder) decodeEntry(index int, entry any) (Drawable, *ReconstructionWarning) {
	props, ok := entry.(map[string]any)
	if !ok {
		return nil, &ReconstructionWarning{Index: index, Err: ErrInvalidEntry}
	}
	raw := Normalize(index, props)
	fail := func(err error) (Drawable, *ReconstructionWarning) {
		return nil, &ReconstructionWarning{Index: index, Tag: raw.Tag, Kind: raw.Kind, Err: err}
	}

	switch raw.Kind {
	case KindUnknown:
		c, ok := d.fallbacks[raw.Tag]
		if !ok {
			return fail(fmt.Errorf("%w %q", ErrUnknownType, raw.Tag))
		}
		drawable, err := c(raw)
		if err != nil {
			return fail(err)
		}
		if drawable == nil {
			return fail(fmt.Errorf("%w %q: fallback constructor returned nothing", ErrUnknownType, raw.Tag))
		}
		return drawable, nil
	case KindFreehand:
		return fail(ErrFreehandUnsupported)
	}

	drawable, err := builtin[raw.Kind](raw.Props)
	if err != nil {
		return fail(err)
	}
	for _, key := range raw.Props.unknownKeys(raw.Kind) {
		d.observer.UnknownField(index, raw.Kind, key)
	}
	return drawable, nil
}

// Normalize 원본 레코드의 태그를 해석하여 RawObject로 변환
//
// The property bag is kept as-is; unknown tags are never dropped here.
func Normalize(index int, props map[string]any) RawObject {
	p := Props(props)
	tag := resolveTag(p)
	return RawObject{Index: index, Tag: tag, Kind: NormalizeTag(tag), Props: p}
}

// Build 정규 타입의 기본 생성자로 Drawable 생성 (기본값 적용)
func Build(raw RawObject) (Drawable, error) {
	c, ok := builtin[raw.Kind]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownType, raw.Tag)
	}
	return c(raw.Props)
}

// Decode 기본 Decoder로 역직렬화
func Decode(data []byte) (*Result, error) {
	return NewDecoder().Decode(data)
}
