package scene

import (
	"fmt"

	"github.com/spf13/cast"
)

// Constructor 속성 맵으로부터 Drawable 생성
type Constructor func(raw RawObject) (Drawable, error)

// builtin holds the constructor for each canonical kind.
var builtin = map[Kind]func(Props) (Drawable, error){
	KindRectangle: newRectangle,
	KindEllipse:   newEllipse,
	KindText:      newTextLabel,
	KindImage:     newImage,
	KindChart:     newChart,
	KindConnector: newConnector,
	KindFreehand:  newFreehandPath,
}

// floatReader reads several fields in one pass and keeps the first error.
type floatReader struct {
	p   Props
	err error
}

func (r *floatReader) get(key string, def float64) float64 {
	if r.err != nil {
		return 0
	}
	v, err := r.p.Float(key, def)
	r.err = err
	return v
}

func (r *floatReader) str(key, def string) string {
	if r.err != nil {
		return ""
	}
	v, err := r.p.String(key, def)
	r.err = err
	return v
}

func newRectangle(p Props) (Drawable, error) {
	r := floatReader{p: p}
	d := Rectangle{
		Left:        r.get("left", DefaultRectLeft),
		Top:         r.get("top", DefaultRectTop),
		Width:       r.get("width", DefaultRectWidth),
		Height:      r.get("height", DefaultRectHeight),
		Fill:        r.str("fill", DefaultFill),
		Stroke:      r.str("stroke", DefaultStroke),
		StrokeWidth: r.get("strokeWidth", DefaultStrokeWidth),
	}
	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}

func newEllipse(p Props) (Drawable, error) {
	r := floatReader{p: p}
	d := Ellipse{
		Left:        r.get("left", DefaultEllipseLeft),
		Top:         r.get("top", DefaultEllipseTop),
		Radius:      r.get("radius", DefaultEllipseRadius),
		Fill:        r.str("fill", DefaultFill),
		Stroke:      r.str("stroke", DefaultStroke),
		StrokeWidth: r.get("strokeWidth", DefaultStrokeWidth),
	}
	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}

func newTextLabel(p Props) (Drawable, error) {
	text, err := p.RequiredString("text")
	if err != nil {
		return nil, err
	}
	r := floatReader{p: p}
	d := TextLabel{
		Left:       r.get("left", DefaultTextLeft),
		Top:        r.get("top", DefaultTextTop),
		Text:       text,
		FontSize:   r.get("fontSize", DefaultFontSize),
		Fill:       r.str("fill", DefaultTextFill),
		FontFamily: r.str("fontFamily", DefaultFontFamily),
	}
	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}

func newImage(p Props) (Drawable, error) {
	key := p.firstPresent("src", "sourceBase64")
	if key == "" {
		return nil, &FieldError{Field: "src", Err: ErrMissingField}
	}
	src, err := p.RequiredString(key)
	if err != nil {
		return nil, err
	}
	r := floatReader{p: p}
	d := Image{
		Left:   r.get("left", DefaultImageLeft),
		Top:    r.get("top", DefaultImageTop),
		ScaleX: r.get("scaleX", DefaultImageScale),
		ScaleY: r.get("scaleY", DefaultImageScale),
		Src:    src,
	}
	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}

func newChart(p Props) (Drawable, error) {
	series := DefaultChartSeries()
	if key := p.firstPresent("series", "data"); key != "" {
		s, err := parseSeries(p[key])
		if err != nil {
			return nil, &FieldError{Field: key, Err: err}
		}
		series = s
	}
	r := floatReader{p: p}
	d := Chart{
		Left:      r.get("left", DefaultChartLeft),
		Top:       r.get("top", DefaultChartTop),
		Width:     r.get("width", DefaultChartWidth),
		Height:    r.get("height", DefaultChartHeight),
		Series:    series,
		ChartType: r.str("chartType", DefaultChartType),
		Fill:      r.str("fill", DefaultChartFill),
		Stroke:    r.str("stroke", DefaultChartStroke),
	}
	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}

func parseSeries(v any) ([]ChartPoint, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	out := make([]ChartPoint, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("series[%d]: expected object, got %T", i, item)
		}
		value, err := toFinite(m["value"])
		if err != nil {
			return nil, fmt.Errorf("series[%d].value: %w", i, err)
		}
		out = append(out, ChartPoint{Label: cast.ToString(m["label"]), Value: value})
	}
	return out, nil
}

// newConnector accepts either explicit endpoints or a left/top/width/height box.
func newConnector(p Props) (Drawable, error) {
	r := floatReader{p: p}
	left := r.get("left", 0)
	top := r.get("top", 0)
	width := r.get("width", DefaultConnectorSpan)
	height := r.get("height", DefaultConnectorSpan)
	d := Connector{
		X1:          r.get("x1", left),
		Y1:          r.get("y1", top),
		X2:          r.get("x2", left+width),
		Y2:          r.get("y2", top+height),
		Stroke:      r.str("stroke", DefaultStroke),
		StrokeWidth: r.get("strokeWidth", DefaultStrokeWidth),
	}
	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}

func newFreehandPath(p Props) (Drawable, error) {
	if !p.present("points") {
		return nil, &FieldError{Field: "points", Err: ErrMissingField}
	}
	items, ok := p["points"].([]any)
	if !ok {
		return nil, &FieldError{Field: "points", Err: fmt.Errorf("expected array, got %T", p["points"])}
	}
	points := make([]Point, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &FieldError{Field: "points", Err: fmt.Errorf("points[%d]: expected object", i)}
		}
		if m["x"] == nil || m["y"] == nil {
			return nil, &FieldError{Field: "points", Err: fmt.Errorf("points[%d]: %w", i, ErrMissingField)}
		}
		x, errX := toFinite(m["x"])
		y, errY := toFinite(m["y"])
		if errX != nil || errY != nil {
			return nil, &FieldError{Field: "points", Err: fmt.Errorf("points[%d]: invalid coordinate", i)}
		}
		points = append(points, Point{X: x, Y: y})
	}
	r := floatReader{p: p}
	d := FreehandPath{
		Points:      points,
		Stroke:      r.str("stroke", DefaultStroke),
		StrokeWidth: r.get("strokeWidth", DefaultPathStrokeWidth),
	}
	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}
