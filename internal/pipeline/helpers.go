package pipeline

import (
	"regexp"
	"strings"

	"github.com/konkon034034/jinsei-soudan/internal/assets"
	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/thumbnail"
)

var speakerLine = regexp.MustCompile(`^(.+?)[：:]`)

// consulterNameFromScript recovers the consulter's display name from
// stored 名前：セリフ dialogue: the first speaker that is not the
// advisor. Falls back to a fresh random name when the text has no
// recognizable speaker tags.
func consulterNameFromScript(text, advisorName string) string {
	for _, raw := range strings.Split(text, "\n") {
		m := speakerLine.FindStringSubmatch(strings.TrimSpace(raw))
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name != "" && name != advisorName {
			return name
		}
	}
	return config.PickConsulterName()
}

// firstLine returns the first non-empty line, clamped for use as a
// theme/title seed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r := []rune(line)
		if len(r) > 40 {
			return string(r[:40])
		}
		return line
	}
	return ""
}

// thumbnailFor renders the thumbnail over the run's background asset.
func thumbnailFor(cfg *config.Config, title string, bundle *assets.Bundle, runDir string) (string, error) {
	bg := ""
	if bundle != nil {
		bg = bundle.BackgroundPath
	}
	return thumbnail.New(cfg).Render(title, bg, runDir)
}
