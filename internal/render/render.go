// Package render draws a story record onto a fixed-size PNG card.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/runnerr0/storycard/internal/story"
)

// Canvas and layout constants, in pixels.
const (
	Width  = 800
	Height = 400

	Margin      = 40
	DividerEndX = 760
	StartY      = 30

	headerAdvance      = 50
	dividerThickness   = 2
	dividerAdvance     = 30
	rowAdvance         = 40
	labelGap           = 5
	sectionGap         = 10
	headingAdvance     = 30
	bulletIndent       = 20
	bulletAdvance      = 25
	placeholderAdvance = 30
	doneGap            = 15
)

// Placeholder is drawn when a story has no acceptance criteria.
const Placeholder = "• (No criteria defined)"

var (
	Accent   = color.RGBA{R: 0x00, G: 0x52, B: 0xa5, A: 0xff}
	Black    = color.RGBA{A: 0xff}
	DarkGray = color.RGBA{R: 50, G: 50, B: 50, A: 0xff}
	White    = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// Options configures a Renderer.
type Options struct {
	// FontPath is tried before SystemFonts.
	FontPath string
	// SystemFonts overrides DefaultSystemFonts when non-nil.
	SystemFonts []string
	TitleSize   float64
	BodySize    float64
}

// Renderer draws story cards. It is safe for concurrent use.
type Renderer struct {
	typeface  typeface
	titleSize float64
	bodySize  float64
}

// New selects a typeface according to opts. Unusable font files are logged
// and skipped; New always returns a working renderer.
func New(opts Options, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	system := opts.SystemFonts
	if system == nil {
		system = DefaultSystemFonts
	}
	candidates := append([]string{opts.FontPath}, system...)

	tf, skipped := loadTypeface(candidates)
	for _, err := range skipped {
		logger.Warn("skipping font", zap.Error(err))
	}
	logger.Debug("selected card font", zap.String("font", tf.name))

	r := &Renderer{typeface: tf, titleSize: opts.TitleSize, bodySize: opts.BodySize}
	if r.titleSize <= 0 {
		r.titleSize = 24
	}
	if r.bodySize <= 0 {
		r.bodySize = 18
	}
	return r
}

// FontName describes the selected typeface.
func (r *Renderer) FontName() string {
	return r.typeface.name
}

// Line is a single drawn text run. X and Y are the top-left of its line box.
type Line struct {
	Text string
	X, Y int
}

// Row is an inline "label value" pair.
type Row struct {
	Label, Value   string
	LabelX, ValueX int
	Y              int
}

// Layout records where each element of a card was drawn.
type Layout struct {
	Header           Line
	DividerY         int
	As, Want, SoThat Row
	CriteriaHeadingY int
	Bullets          []Line
	Placeholder      bool
	DoneWhen         Row
	// EndY is the cursor after the last row; anything past Height is clipped.
	EndY int
}

// canvas tracks the drawing state of a single render.
type canvas struct {
	img   *image.RGBA
	title font.Face
	body  font.Face
}

// Render draws rec onto a new white canvas.
func (r *Renderer) Render(rec story.Record) (*image.RGBA, Layout, error) {
	title, err := r.typeface.face(r.titleSize)
	if err != nil {
		return nil, Layout{}, fmt.Errorf("load title face: %w", err)
	}
	defer title.Close()
	body, err := r.typeface.face(r.bodySize)
	if err != nil {
		return nil, Layout{}, fmt.Errorf("load body face: %w", err)
	}
	defer body.Close()

	c := &canvas{
		img:   image.NewRGBA(image.Rect(0, 0, Width, Height)),
		title: title,
		body:  body,
	}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(White), image.Point{}, draw.Src)

	var l Layout
	y := StartY

	l.Header = c.text(c.title, Margin, y, fmt.Sprintf("%s    %s", rec.Name, rec.ID), Black)
	y += headerAdvance

	c.divider(y)
	l.DividerY = y
	y += dividerAdvance

	l.As, y = c.inline("As: ", rec.Actor, y)
	l.Want, y = c.inline("I want: ", rec.Action, y)
	l.SoThat, y = c.inline("So that: ", rec.Achievement, y)
	y += sectionGap

	c.text(c.body, Margin, y, "Acceptance criteria:", Accent)
	l.CriteriaHeadingY = y
	y += headingAdvance

	lines := story.CriteriaLines(rec.Criteria)
	if len(lines) == 0 {
		l.Bullets = append(l.Bullets, c.text(c.body, Margin+bulletIndent, y, Placeholder, DarkGray))
		l.Placeholder = true
		y += placeholderAdvance
	} else {
		for _, line := range lines {
			l.Bullets = append(l.Bullets, c.text(c.body, Margin+bulletIndent, y, "• "+line, Black))
			y += bulletAdvance
		}
	}
	y += doneGap

	l.DoneWhen, y = c.inline("Done when: ", rec.DoneWhen, y)
	l.EndY = y

	return c.img, l, nil
}

// text draws s with its line box's top-left corner at (x, y).
func (c *canvas) text(face font.Face, x, y int, s string, col color.Color) Line {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
	return Line{Text: s, X: x, Y: y}
}

// inline draws label in the accent colour and value right after it, and
// returns the cursor for the next row.
func (c *canvas) inline(label, value string, y int) (Row, int) {
	c.text(c.body, Margin, y, label, Accent)
	valueX := Margin + font.MeasureString(c.body, label).Ceil() + labelGap
	c.text(c.body, valueX, y, value, Black)
	return Row{Label: label, Value: value, LabelX: Margin, ValueX: valueX, Y: y}, y + rowAdvance
}

func (c *canvas) divider(y int) {
	rect := image.Rect(Margin, y, DividerEndX+1, y+dividerThickness)
	draw.Draw(c.img, rect, image.NewUniform(Accent), image.Point{}, draw.Src)
}

// LabelWidth reports the pixel width of s in the body face.
func (r *Renderer) LabelWidth(s string) (int, error) {
	face, err := r.typeface.face(r.bodySize)
	if err != nil {
		return 0, err
	}
	defer face.Close()
	return font.MeasureString(face, s).Ceil(), nil
}

// Encode writes img as PNG.
func Encode(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
