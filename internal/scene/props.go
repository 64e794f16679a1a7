package scene

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Props 직렬화된 객체 하나의 속성 맵
type Props map[string]any

// RawObject 정규화 직후의 객체 레코드 (원본 태그와 속성을 그대로 보존)
type RawObject struct {
	Index int
	Tag   string
	Kind  Kind
	Props Props
}

// present reports whether key exists with a non-null value.
func (p Props) present(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// Float 숫자 속성 조회 (없으면 def). "10" 같은 문자열 숫자도 허용
func (p Props) Float(key string, def float64) (float64, error) {
	if !p.present(key) {
		return def, nil
	}
	f, err := toFinite(p[key])
	if err != nil {
		return 0, &FieldError{Field: key, Err: err}
	}
	return f, nil
}

// toFinite 숫자 변환 ("NaN", "Inf" 같은 값은 거부)
func toFinite(v any) (float64, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrNonFinite, v)
	}
	return f, nil
}

// String 문자열 속성 조회 (없으면 def)
func (p Props) String(key, def string) (string, error) {
	if !p.present(key) {
		return def, nil
	}
	switch p[key].(type) {
	case map[string]any, []any:
		return "", &FieldError{Field: key, Err: fmt.Errorf("expected string, got %T", p[key])}
	}
	s, err := cast.ToStringE(p[key])
	if err != nil {
		return "", &FieldError{Field: key, Err: err}
	}
	return s, nil
}

// RequiredString 필수 문자열 속성 (공백만 있으면 누락으로 간주)
func (p Props) RequiredString(key string) (string, error) {
	s, err := p.String(key, "")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", &FieldError{Field: key, Err: ErrMissingField}
	}
	return s, nil
}

// firstPresent returns the first key that holds a value.
func (p Props) firstPresent(keys ...string) string {
	for _, k := range keys {
		if p.present(k) {
			return k
		}
	}
	return ""
}

// unknownKeys lists keys that the kind does not model, sorted for stable output.
func (p Props) unknownKeys(k Kind) []string {
	known := knownFields[k]
	var out []string
	for key := range p {
		if _, ok := known[key]; ok {
			continue
		}
		if _, ok := tagFields[key]; ok {
			continue
		}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

var tagFields = map[string]struct{}{"type": {}, "objType": {}}

func fieldSet(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// knownFields is the explicit field table per variant.
var knownFields = map[Kind]map[string]struct{}{
	KindRectangle: fieldSet("left", "top", "width", "height", "fill", "stroke", "strokeWidth"),
	KindEllipse:   fieldSet("left", "top", "radius", "fill", "stroke", "strokeWidth"),
	KindText:      fieldSet("left", "top", "text", "fontSize", "fill", "fontFamily"),
	KindImage:     fieldSet("left", "top", "scaleX", "scaleY", "src", "sourceBase64"),
	KindChart:     fieldSet("left", "top", "width", "height", "series", "data", "chartType", "fill", "stroke"),
	KindConnector: fieldSet("x1", "y1", "x2", "y2", "left", "top", "width", "height", "stroke", "strokeWidth"),
	KindFreehand:  fieldSet("points", "stroke", "strokeWidth"),
}

// Default property values, applied when a key is absent or null.
// A present zero is kept as zero.
const (
	DefaultBackground = "#ffffff"

	DefaultFill        = "transparent"
	DefaultStroke      = "#000000"
	DefaultStrokeWidth = 2

	DefaultRectLeft   = 100
	DefaultRectTop    = 100
	DefaultRectWidth  = 100
	DefaultRectHeight = 100

	DefaultEllipseLeft   = 200
	DefaultEllipseTop    = 200
	DefaultEllipseRadius = 50

	DefaultTextLeft   = 100
	DefaultTextTop    = 100
	DefaultFontSize   = 20
	DefaultTextFill   = "#000000"
	DefaultFontFamily = "Arial"

	DefaultImageLeft  = 50
	DefaultImageTop   = 50
	DefaultImageScale = 0.5

	DefaultChartLeft   = 100
	DefaultChartTop    = 100
	DefaultChartWidth  = 200
	DefaultChartHeight = 150
	DefaultChartType   = "bar"
	DefaultChartFill   = "#4299e1"
	DefaultChartStroke = "#2b6cb0"

	DefaultConnectorSpan = 100

	DefaultPathStrokeWidth = 1
)

// DefaultChartSeries 차트 데이터가 없을 때 사용하는 샘플 시리즈
func DefaultChartSeries() []ChartPoint {
	return []ChartPoint{
		{Label: "A", Value: 30},
		{Label: "B", Value: 80},
		{Label: "C", Value: 45},
		{Label: "D", Value: 60},
	}
}
