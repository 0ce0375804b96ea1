package script

import (
	"fmt"
	"regexp"
	"strings"
)

// ParseDialogue converts 名前：セリフ text into ordered lines. A line
// that does not start with a known speaker name continues the previous
// speaker's utterance. Names accept both full-width and ASCII colons.
func ParseDialogue(text, consulterName, advisorName string) ([]Line, error) {
	pattern := regexp.MustCompile(fmt.Sprintf(
		`^(%s|%s)[：:](.*)$`,
		regexp.QuoteMeta(consulterName),
		regexp.QuoteMeta(advisorName),
	))

	var lines []Line
	var current *Line
	var parts []string

	flush := func() {
		if current != nil && len(parts) > 0 {
			current.Text = strings.TrimSpace(strings.Join(parts, ""))
			if current.Text != "" {
				current.Index = len(lines)
				lines = append(lines, *current)
			}
		}
		current = nil
		parts = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		m := pattern.FindStringSubmatch(raw)
		if m != nil {
			flush()
			sp := SpeakerConsulter
			if m[1] == advisorName {
				sp = SpeakerAdvisor
			}
			current = &Line{Speaker: sp}
			parts = []string{strings.TrimSpace(m[2])}
			continue
		}

		if current != nil {
			parts = append(parts, raw)
		}
	}
	flush()

	if len(lines) == 0 {
		return nil, fmt.Errorf("no dialogue lines found for speakers %q / %q", consulterName, advisorName)
	}
	return lines, nil
}
