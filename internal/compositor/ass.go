package compositor

import (
	"fmt"
	"os"
	"strings"

	"github.com/konkon034034/jinsei-soudan/internal/config"
)

// writeASS renders the caption clips into an ASS subtitle file that
// ffmpeg burns into the video. BorderStyle 3 draws the semi-transparent
// box behind each caption; the box grows to fit the wrapped text plus
// padding, horizontally centered.
func writeASS(cfg *config.Config, captions []CaptionClip, path string) error {
	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	sb.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&sb, "PlayResX: %d\n", cfg.Video.Width)
	fmt.Fprintf(&sb, "PlayResY: %d\n", cfg.Video.Height)
	sb.WriteString("WrapStyle: 2\n\n")

	// ASS alignment: 2 = bottom center, 5 = middle center.
	alignment := 2
	marginV := cfg.Captions.MarginBottom
	if cfg.Captions.Position == "center" {
		alignment = 5
		marginV = 0
	}

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&sb, "Style: Caption,%s,%d,&H00FFFFFF,&H00FFFFFF,&H00000000,%s,0,0,3,%d,2,%d,60,60,%d,1\n\n",
		cfg.Captions.Font,
		cfg.Captions.FontSize,
		assBackColour(cfg.Captions.BoxColor, cfg.Captions.BoxAlpha),
		cfg.Captions.OutlineWidth,
		alignment,
		marginV,
	)

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, c := range captions {
		text := make([]string, len(c.Lines))
		for i, line := range c.Lines {
			text[i] = escapeASS(line)
		}
		fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Caption,,0,0,0,,%s\n",
			assTime(c.Start), assTime(c.End), strings.Join(text, "\\N"))
	}

	return os.WriteFile(path, []byte(sb.String()), 0644)
}

// assBackColour converts an RRGGBB hex string and 0-255 opacity into
// ASS &HAABBGGRR form (ASS alpha is inverted: 00 opaque, FF clear).
func assBackColour(rgb string, alpha int) string {
	rgb = strings.TrimPrefix(strings.TrimPrefix(rgb, "#"), "0x")
	if len(rgb) != 6 {
		rgb = "000000"
	}
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 255 {
		alpha = 255
	}
	r, g, b := rgb[0:2], rgb[2:4], rgb[4:6]
	return fmt.Sprintf("&H%02X%s%s%s", 255-alpha, b, g, r)
}

// assTime formats seconds as H:MM:SS.CC.
func assTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	cs := int(sec*100 + 0.5)
	h := cs / 360000
	m := cs % 360000 / 6000
	s := cs % 6000 / 100
	c := cs % 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, c)
}

// escapeASS strips characters that would start an ASS override tag.
func escapeASS(s string) string {
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.ReplaceAll(s, "\n", " ")
}
