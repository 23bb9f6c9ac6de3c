package render

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultSystemFonts are tried, in order, when no font path is configured.
var DefaultSystemFonts = []string{
	"arial.ttf",
	"/usr/share/fonts/truetype/msttcorefonts/Arial.ttf",
	"/Library/Fonts/Arial.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	`C:\Windows\Fonts\arial.ttf`,
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
}

// EmbeddedFontName identifies the bundled Go Regular typeface.
const EmbeddedFontName = "Go Regular (embedded)"

// BitmapFontName identifies the last-resort 7x13 bitmap face.
const BitmapFontName = "basicfont 7x13"

// typeface is a parsed scalable font, or the fixed bitmap face when font is nil.
// A parsed opentype.Font may be shared between goroutines; faces may not.
type typeface struct {
	name string
	font *opentype.Font
}

// face returns a new face at size pixels. Callers close it when done.
func (t typeface) face(size float64) (font.Face, error) {
	if t.font == nil {
		return basicfont.Face7x13, nil
	}
	return opentype.NewFace(t.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// loadTypeface picks the first usable font among candidates, then the
// embedded Go font, then the bitmap face. Paths that fail to load are
// returned in skipped for logging.
func loadTypeface(candidates []string) (tf typeface, skipped []error) {
	for _, path := range candidates {
		if path == "" {
			continue
		}
		f, err := parseFontFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				skipped = append(skipped, err)
			}
			continue
		}
		return typeface{name: path, font: f}, skipped
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		skipped = append(skipped, fmt.Errorf("parse embedded font: %w", err))
		return typeface{name: BitmapFontName}, skipped
	}
	return typeface{name: EmbeddedFontName, font: f}, skipped
}

func parseFontFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}
