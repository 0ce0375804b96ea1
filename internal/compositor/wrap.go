package compositor

import "strings"

// Wrap breaks caption text into lines of at most maxChars runes.
//
// Spaced text wraps greedily: words accumulate into a line until the
// next word would push it past maxChars, then a new line starts. A
// single word longer than maxChars is hard-broken rather than dropped,
// so no line ever exceeds the box width and no word is ever lost.
// Text without spaces (the usual case for Japanese dialogue) is
// chunked by rune count.
func Wrap(text string, maxChars int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		return []string{text}
	}

	if !strings.Contains(text, " ") {
		return chunkRunes(text, maxChars)
	}

	var lines []string
	var current []rune
	for _, word := range strings.Fields(text) {
		w := []rune(word)

		if len(w) > maxChars {
			if len(current) > 0 {
				lines = append(lines, string(current))
				current = nil
			}
			pieces := chunkRunes(word, maxChars)
			lines = append(lines, pieces[:len(pieces)-1]...)
			current = []rune(pieces[len(pieces)-1])
			continue
		}

		if len(current) == 0 {
			current = w
			continue
		}
		if len(current)+1+len(w) > maxChars {
			lines = append(lines, string(current))
			current = w
			continue
		}
		current = append(current, ' ')
		current = append(current, w...)
	}
	if len(current) > 0 {
		lines = append(lines, string(current))
	}
	return lines
}

func chunkRunes(text string, maxChars int) []string {
	runes := []rune(text)
	var lines []string
	for len(runes) > maxChars {
		lines = append(lines, string(runes[:maxChars]))
		runes = runes[maxChars:]
	}
	return append(lines, string(runes))
}
