package scene

// 직렬화 시 사용하는 정규 태그
const (
	TagRect   = "rect"
	TagCircle = "circle"
	TagText   = "text"
	TagImage  = "image"
	TagChart  = "chart"
	TagLine   = "line"
	TagPath   = "path"
)

// tagTable maps every spelling seen in historical saves to a canonical kind.
// Lookups are case-sensitive; spellings not listed here are Unknown.
var tagTable = map[string]Kind{
	// Rectangle
	"rect":      KindRectangle,
	"Rect":      KindRectangle,
	"XShape":    KindRectangle,
	"rectangle": KindRectangle,

	// Ellipse
	"circle":  KindEllipse,
	"Circle":  KindEllipse,
	"ellipse": KindEllipse,

	// TextLabel
	"text":    KindText,
	"Text":    KindText,
	"i-text":  KindText,
	"IText":   KindText,
	"XText":   KindText,
	"textbox": KindText,

	// Image
	"image":  KindImage,
	"Image":  KindImage,
	"XImage": KindImage,

	// Chart
	"chart":  KindChart,
	"Chart":  KindChart,
	"XChart": KindChart,

	// Connector
	"line":       KindConnector,
	"Line":       KindConnector,
	"connector":  KindConnector,
	"xconnector": KindConnector,
	"XConnector": KindConnector,
	"XPath":      KindConnector,

	// FreehandPath
	"path":     KindFreehand,
	"freehand": KindFreehand,
}

// NormalizeTag 과거 태그 표기를 정규 타입으로 변환
func NormalizeTag(raw string) Kind {
	if k, ok := tagTable[raw]; ok {
		return k
	}
	return KindUnknown
}

// CanonicalTag 정규 타입의 직렬화 태그 ("" for KindUnknown)
func CanonicalTag(k Kind) string {
	switch k {
	case KindRectangle:
		return TagRect
	case KindEllipse:
		return TagCircle
	case KindText:
		return TagText
	case KindImage:
		return TagImage
	case KindChart:
		return TagChart
	case KindConnector:
		return TagLine
	case KindFreehand:
		return TagPath
	default:
		return ""
	}
}

// resolveTag picks the tag of a raw record: objType wins over type.
func resolveTag(p Props) string {
	if s, ok := p["objType"].(string); ok && s != "" {
		return s
	}
	if s, ok := p["type"].(string); ok {
		return s
	}
	return ""
}
