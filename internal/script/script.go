package script

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Speaker identifies one of the two fixed dialogue personas.
type Speaker string

const (
	// SpeakerConsulter is the person bringing the problem.
	SpeakerConsulter Speaker = "consulter"
	// SpeakerAdvisor is the persona answering it.
	SpeakerAdvisor Speaker = "advisor"
)

// Line is one turn of dialogue. Lines are ordered by Index and never
// mutated after generation.
type Line struct {
	Index   int     `json:"index"`
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Script is a full turn-based dialogue for one video.
type Script struct {
	Theme         string `json:"theme"`
	ConsulterName string `json:"consulter_name"`
	AdvisorName   string `json:"advisor_name"`
	Lines         []Line `json:"lines"`
	CharCount     int    `json:"char_count"`
}

// DisplayName maps a speaker role to the name shown in captions and
// in the sheet.
func (s *Script) DisplayName(sp Speaker) string {
	if sp == SpeakerAdvisor {
		return s.AdvisorName
	}
	return s.ConsulterName
}

// Dialogue renders the script back into 名前：セリフ text, the format
// stored in the sheet and reviewed in Slack.
func (s *Script) Dialogue() string {
	var sb strings.Builder
	for _, line := range s.Lines {
		sb.WriteString(fmt.Sprintf("%s：%s\n", s.DisplayName(line.Speaker), line.Text))
	}
	return sb.String()
}

// Preview returns the first n lines of dialogue for notifications.
func (s *Script) Preview(n int) string {
	var sb strings.Builder
	for i, line := range s.Lines {
		if i >= n {
			break
		}
		sb.WriteString(fmt.Sprintf("%s：%s\n", s.DisplayName(line.Speaker), line.Text))
	}
	return sb.String()
}

func countChars(lines []Line) int {
	total := 0
	for _, l := range lines {
		total += utf8.RuneCountInString(l.Text)
	}
	return total
}
