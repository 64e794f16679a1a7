package scene

import "encoding/json"

// Kind 정규화된 도형 타입
type Kind int

const (
	KindUnknown Kind = iota
	KindRectangle
	KindEllipse
	KindText
	KindImage
	KindChart
	KindConnector
	KindFreehand
)

// String 진단용 이름
func (k Kind) String() string {
	switch k {
	case KindRectangle:
		return "Rectangle"
	case KindEllipse:
		return "Ellipse"
	case KindText:
		return "TextLabel"
	case KindImage:
		return "Image"
	case KindChart:
		return "Chart"
	case KindConnector:
		return "Connector"
	case KindFreehand:
		return "FreehandPath"
	default:
		return "Unknown"
	}
}

// Drawable 캔버스에 올라가는 하나의 요소
//
// The set is closed: only the types in this file implement it.
type Drawable interface {
	Kind() Kind
	drawable()
}

// Point 자유곡선 좌표
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ChartPoint 차트 데이터 항목
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Rectangle 사각형
type Rectangle struct {
	Left        float64 `json:"left"`
	Top         float64 `json:"top"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// Ellipse 원 (left/top은 외접 사각형의 좌상단)
type Ellipse struct {
	Left        float64 `json:"left"`
	Top         float64 `json:"top"`
	Radius      float64 `json:"radius"`
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// TextLabel 텍스트
type TextLabel struct {
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Text       string  `json:"text"`
	FontSize   float64 `json:"fontSize"`
	Fill       string  `json:"fill"`
	FontFamily string  `json:"fontFamily"`
}

// Image base64 data URL 이미지
type Image struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	ScaleX float64 `json:"scaleX"`
	ScaleY float64 `json:"scaleY"`
	Src    string  `json:"src"`
}

// Chart 막대/선 차트
type Chart struct {
	Left      float64      `json:"left"`
	Top       float64      `json:"top"`
	Width     float64      `json:"width"`
	Height    float64      `json:"height"`
	Series    []ChartPoint `json:"series"`
	ChartType string       `json:"chartType"`
	Fill      string       `json:"fill"`
	Stroke    string       `json:"stroke"`
}

// Connector 두 점을 잇는 선
type Connector struct {
	X1          float64 `json:"x1"`
	Y1          float64 `json:"y1"`
	X2          float64 `json:"x2"`
	Y2          float64 `json:"y2"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// FreehandPath 자유 드로잉 획
type FreehandPath struct {
	Points      []Point `json:"points"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

func (Rectangle) Kind() Kind    { return KindRectangle }
func (Ellipse) Kind() Kind      { return KindEllipse }
func (TextLabel) Kind() Kind    { return KindText }
func (Image) Kind() Kind        { return KindImage }
func (Chart) Kind() Kind        { return KindChart }
func (Connector) Kind() Kind    { return KindConnector }
func (FreehandPath) Kind() Kind { return KindFreehand }

func (Rectangle) drawable()    {}
func (Ellipse) drawable()      {}
func (TextLabel) drawable()    {}
func (Image) drawable()        {}
func (Chart) drawable()        {}
func (Connector) drawable()    {}
func (FreehandPath) drawable() {}

// The MarshalJSON methods prepend the canonical "type" tag to the flat property set.

func (r Rectangle) MarshalJSON() ([]byte, error) {
	type plain Rectangle
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TagRect, plain(r)})
}

func (e Ellipse) MarshalJSON() ([]byte, error) {
	type plain Ellipse
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TagCircle, plain(e)})
}

func (t TextLabel) MarshalJSON() ([]byte, error) {
	type plain TextLabel
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TagText, plain(t)})
}

func (i Image) MarshalJSON() ([]byte, error) {
	type plain Image
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TagImage, plain(i)})
}

func (c Chart) MarshalJSON() ([]byte, error) {
	type plain Chart
	p := plain(c)
	if p.Series == nil {
		p.Series = []ChartPoint{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TagChart, p})
}

func (c Connector) MarshalJSON() ([]byte, error) {
	type plain Connector
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TagLine, plain(c)})
}

func (f FreehandPath) MarshalJSON() ([]byte, error) {
	type plain FreehandPath
	p := plain(f)
	if p.Points == nil {
		p.Points = []Point{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TagPath, p})
}

// Scene 배경 + 순서가 있는 도형 목록 (삽입 순서 = z-order)
type Scene struct {
	Background string
	Drawables  []Drawable
}

// Len 도형 개수
func (s *Scene) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Drawables)
}
