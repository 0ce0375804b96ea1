package pipeline

import (
	"strings"
	"testing"
)

func TestConsulterNameFromScript(t *testing.T) {
	text := "幸子：夫のことで悩んでいます。\nマダム・ミレーヌ：ゆっくりお話しください。\n幸子：ありがとうございます。"

	got := consulterNameFromScript(text, "マダム・ミレーヌ")
	if got != "幸子" {
		t.Errorf("got %q, want 幸子", got)
	}
}

func TestConsulterNameSkipsAdvisorFirst(t *testing.T) {
	text := "マダム・ミレーヌ：ようこそ。\n正夫：相談があります。"

	got := consulterNameFromScript(text, "マダム・ミレーヌ")
	if got != "正夫" {
		t.Errorf("got %q, want 正夫", got)
	}
}

func TestConsulterNameFallsBackToRandom(t *testing.T) {
	got := consulterNameFromScript("ただのテキストです。話者タグはありません。", "マダム・ミレーヌ")
	if got == "" {
		t.Error("fallback name is empty")
	}
	if got == "マダム・ミレーヌ" {
		t.Error("fallback picked the advisor name")
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "夫が定年後ずっと家にいます\n二行目", "夫が定年後ずっと家にいます"},
		{"skips leading blanks", "\n\n  相談です  \n", "相談です"},
		{"empty", "\n  \n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstLine(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	long := strings.Repeat("あ", 60)
	if got := firstLine(long); len([]rune(got)) != 40 {
		t.Errorf("long line clamped to %d runes, want 40", len([]rune(got)))
	}
}
