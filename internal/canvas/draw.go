package canvas

import (
	"errors"
	"strings"

	"github.com/gogpu/gg"

	"whiteboard-backend/internal/scene"
)

// named colours that appear in older saves
var namedColors = map[string]gg.RGBA{
	"black": gg.Black,
	"white": gg.White,
	"red":   gg.Hex("#ff0000"),
	"green": gg.Hex("#008000"),
	"blue":  gg.Hex("#0000ff"),
	"gray":  gg.Hex("#808080"),
	"grey":  gg.Hex("#808080"),
}

// parseColor returns false for colours that paint nothing.
func parseColor(c string) (gg.RGBA, bool) {
	c = strings.TrimSpace(c)
	switch strings.ToLower(c) {
	case "", "transparent", "none":
		return gg.RGBA{}, false
	}
	if strings.HasPrefix(c, "#") {
		return gg.Hex(c), true
	}
	col, ok := namedColors[strings.ToLower(c)]
	return col, ok
}

func (s *Surface) draw(it item) error {
	switch d := it.d.(type) {
	case scene.Rectangle:
		s.dc.DrawRectangle(d.Left, d.Top, d.Width, d.Height)
		return s.paintPath(d.Fill, d.Stroke, d.StrokeWidth)
	case scene.Ellipse:
		s.dc.DrawCircle(d.Left+d.Radius, d.Top+d.Radius, d.Radius)
		return s.paintPath(d.Fill, d.Stroke, d.StrokeWidth)
	case scene.TextLabel:
		return s.drawText(d)
	case scene.Image:
		return s.drawImage(d, it.img)
	case scene.Chart:
		return s.drawChart(d)
	case scene.Connector:
		s.dc.DrawLine(d.X1, d.Y1, d.X2, d.Y2)
		return s.paintPath("", d.Stroke, d.StrokeWidth)
	case scene.FreehandPath:
		if len(d.Points) == 0 {
			return nil
		}
		s.dc.MoveTo(d.Points[0].X, d.Points[0].Y)
		for _, p := range d.Points[1:] {
			s.dc.LineTo(p.X, p.Y)
		}
		return s.paintPath("", d.Stroke, d.StrokeWidth)
	default:
		return errors.New("no renderer for drawable")
	}
}

// paintPath fills then strokes the current path and always consumes it.
// Fill and stroke share one brush in gg, so the brush is swapped in between.
func (s *Surface) paintPath(fill, stroke string, width float64) error {
	fc, doFill := parseColor(fill)
	sc, doStroke := parseColor(stroke)
	doStroke = doStroke && width > 0

	if doFill {
		s.dc.SetFillBrush(gg.Solid(fc))
		var err error
		if doStroke {
			err = s.dc.FillPreserve()
		} else {
			err = s.dc.Fill()
		}
		if err != nil {
			s.dc.ClearPath()
			return err
		}
	}
	if doStroke {
		s.dc.SetStrokeBrush(gg.Solid(sc))
		s.dc.SetLineWidth(width)
		return s.dc.Stroke()
	}
	s.dc.ClearPath()
	return nil
}

func (s *Surface) drawText(t scene.TextLabel) error {
	c, ok := parseColor(t.Fill)
	if !ok || t.FontSize <= 0 {
		return nil
	}
	s.dc.SetFont(s.face(t.FontSize))
	s.dc.SetFillBrush(gg.Solid(c))
	// top is the box edge; gg draws at the baseline
	for i, line := range strings.Split(t.Text, "\n") {
		s.dc.DrawString(line, t.Left, t.Top+t.FontSize*(float64(i)+1))
	}
	return nil
}

func (s *Surface) drawImage(img scene.Image, buf *gg.ImageBuf) error {
	if buf == nil {
		return errors.New("image not decoded")
	}
	w, h := buf.Bounds()
	s.dc.DrawImageEx(buf, gg.DrawImageOptions{
		X:         img.Left,
		Y:         img.Top,
		DstWidth:  float64(w) * img.ScaleX,
		DstHeight: float64(h) * img.ScaleY,
	})
	return nil
}

// drawChart draws the series inside the chart box as bars or as a polyline.
func (s *Surface) drawChart(c scene.Chart) error {
	s.dc.DrawRectangle(c.Left, c.Top, c.Width, c.Height)
	if err := s.paintPath("", c.Stroke, 1); err != nil {
		return err
	}
	if len(c.Series) == 0 {
		return nil
	}

	maxValue := 0.0
	for _, p := range c.Series {
		maxValue = max(maxValue, p.Value)
	}
	if maxValue <= 0 {
		return nil
	}

	slot := c.Width / float64(len(c.Series))
	scaleY := c.Height / maxValue
	bottom := c.Top + c.Height

	if c.ChartType == "line" {
		for i, p := range c.Series {
			x := c.Left + slot*(float64(i)+0.5)
			y := bottom - max(p.Value, 0)*scaleY
			if i == 0 {
				s.dc.MoveTo(x, y)
			} else {
				s.dc.LineTo(x, y)
			}
		}
		return s.paintPath("", c.Fill, 2)
	}

	for i, p := range c.Series {
		h := max(p.Value, 0) * scaleY
		s.dc.DrawRectangle(c.Left+slot*float64(i)+slot*0.1, bottom-h, slot*0.8, h)
		if err := s.paintPath(c.Fill, c.Stroke, 1); err != nil {
			return err
		}
	}
	return nil
}
