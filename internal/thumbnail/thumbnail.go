package thumbnail

import (
	"fmt"
	"image/color"
	"log"
	"path/filepath"

	"github.com/fogleman/gg"

	"github.com/konkon034034/jinsei-soudan/internal/config"
)

// Generator renders the video thumbnail: title text with a black
// outline over the background image, or over a solid dark canvas when
// no background exists.
type Generator struct {
	cfg *config.Config
}

// New creates a thumbnail Generator.
func New(cfg *config.Config) *Generator {
	return &Generator{cfg: cfg}
}

// Render draws the thumbnail into outputDir/thumbnail.jpg. A missing
// or unreadable background degrades to the solid canvas; only a font
// or encode failure is returned, and the caller treats even that as
// non-fatal (the platform keeps its auto thumbnail).
func (g *Generator) Render(title, backgroundPath, outputDir string) (string, error) {
	w, h := g.cfg.Thumbnail.Width, g.cfg.Thumbnail.Height
	dc := gg.NewContext(w, h)

	dc.SetRGB(0.12, 0.12, 0.12)
	dc.Clear()

	if backgroundPath != "" {
		if img, err := gg.LoadImage(backgroundPath); err != nil {
			log.Printf("[thumbnail] ⚠️  Background %s unreadable: %v — solid canvas", backgroundPath, err)
		} else {
			bounds := img.Bounds()
			scale := float64(w) / float64(bounds.Dx())
			if s := float64(h) / float64(bounds.Dy()); s > scale {
				scale = s
			}
			dc.Push()
			dc.Scale(scale, scale)
			dc.DrawImage(img, 0, 0)
			dc.Pop()
			// Darken so the title stays readable.
			dc.SetRGBA(0, 0, 0, 0.35)
			dc.DrawRectangle(0, 0, float64(w), float64(h))
			dc.Fill()
		}
	}

	if g.cfg.Thumbnail.FontPath != "" {
		if err := dc.LoadFontFace(g.cfg.Thumbnail.FontPath, g.cfg.Thumbnail.FontSize); err != nil {
			return "", fmt.Errorf("load font %s: %w", g.cfg.Thumbnail.FontPath, err)
		}
	}

	drawOutlinedText(dc, title, float64(w)/2, float64(h)/2, float64(w)*0.9)

	outFile := filepath.Join(outputDir, "thumbnail.jpg")
	if err := gg.SaveJPG(outFile, dc.Image(), 90); err != nil {
		return "", fmt.Errorf("save thumbnail: %w", err)
	}
	log.Printf("[thumbnail] ✅ %s", outFile)
	return outFile, nil
}

// drawOutlinedText draws white text with a black outline, wrapped and
// centered on (x, y).
func drawOutlinedText(dc *gg.Context, text string, x, y, width float64) {
	const offset = 4.0
	dc.SetColor(color.Black)
	for _, dx := range []float64{-offset, 0, offset} {
		for _, dy := range []float64{-offset, 0, offset} {
			if dx == 0 && dy == 0 {
				continue
			}
			dc.DrawStringWrapped(text, x+dx, y+dy, 0.5, 0.5, width, 1.4, gg.AlignCenter)
		}
	}
	dc.SetColor(color.White)
	dc.DrawStringWrapped(text, x, y, 0.5, 0.5, width, 1.4, gg.AlignCenter)
}
