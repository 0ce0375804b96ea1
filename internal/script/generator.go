package script

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/llm"
)

const generatorSystemPrompt = `あなたはシニア向け相談動画の台本作家です。
相談者が悩みを打ち明け、回答者が共感しながら具体的で実践的なアドバイスをする、
二人のトーク形式の台本を書いてください。最後は前向きなメッセージで締めること。`

// Request carries everything the generator needs for one script.
type Request struct {
	Theme         string
	Summary       string
	ConsulterInfo string
	ConsulterName string
	AdvisorName   string
	PromptMemo    string
}

// Generator produces dialogue scripts from collected material.
type Generator struct {
	cfg *config.Config
	llm llm.Completer
}

// New creates a script Generator.
func New(cfg *config.Config, client llm.Completer) *Generator {
	return &Generator{cfg: cfg, llm: client}
}

// scriptJSON is the shape requested from the model.
type scriptJSON struct {
	Lines []lineJSON `json:"lines"`
}

type lineJSON struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Run generates the full script. The model is asked for JSON lines;
// if the payload does not decode, the raw text is re-parsed as plain
// 名前：セリフ dialogue before giving up.
func (g *Generator) Run(ctx context.Context, req Request) (*Script, error) {
	log.Printf("[script] Generating dialogue (theme: %q)...", truncate(req.Theme, 40))

	raw, err := g.llm.Complete(ctx, generatorSystemPrompt, buildScriptPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("script generation: %w", err)
	}

	lines, err := g.decodeLines(raw, req)
	if err != nil {
		return nil, err
	}

	s := &Script{
		Theme:         req.Theme,
		ConsulterName: req.ConsulterName,
		AdvisorName:   req.AdvisorName,
		Lines:         lines,
		CharCount:     countChars(lines),
	}

	log.Printf("[script] ✅ Script ready: %d lines, %d chars", len(s.Lines), s.CharCount)
	return s, nil
}

func (g *Generator) decodeLines(raw string, req Request) ([]Line, error) {
	var decoded scriptJSON
	if err := llm.DecodeJSON(raw, &decoded); err == nil && len(decoded.Lines) > 0 {
		lines := make([]Line, 0, len(decoded.Lines))
		for _, l := range decoded.Lines {
			text := strings.TrimSpace(l.Text)
			if text == "" {
				continue
			}
			sp, ok := matchSpeaker(l.Speaker, req)
			if !ok {
				log.Printf("[script] ⚠️  Unknown speaker %q — skipping line", l.Speaker)
				continue
			}
			lines = append(lines, Line{Index: len(lines), Speaker: sp, Text: text})
		}
		if len(lines) > 0 {
			return lines, nil
		}
	}

	// Plain-text fallback: the model sometimes ignores the JSON
	// instruction and writes 名前：セリフ lines directly.
	log.Println("[script] ⚠️  JSON decode failed — parsing as plain dialogue")
	lines, err := ParseDialogue(llm.StripFence(raw), req.ConsulterName, req.AdvisorName)
	if err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return lines, nil
}

func matchSpeaker(name string, req Request) (Speaker, bool) {
	switch strings.TrimSpace(name) {
	case req.ConsulterName, string(SpeakerConsulter):
		return SpeakerConsulter, true
	case req.AdvisorName, string(SpeakerAdvisor):
		return SpeakerAdvisor, true
	}
	return "", false
}

func buildScriptPrompt(req Request) string {
	var sb strings.Builder
	sb.WriteString("以下の人生相談をもとに、二人のトーク動画の台本を作成してください。\n\n")
	sb.WriteString("【キャラクター設定】\n")
	sb.WriteString(fmt.Sprintf("- %s: 相談者。%s。不安げに悩みを打ち明ける。\n", req.ConsulterName, orDefault(req.ConsulterInfo, "中高年")))
	sb.WriteString(fmt.Sprintf("- %s: 回答者。冷静に寄り添いながらアドバイスする。\n\n", req.AdvisorName))
	sb.WriteString("【相談内容】\n")
	sb.WriteString(req.Summary + "\n\n")
	if req.PromptMemo != "" {
		sb.WriteString("【追加指示】\n" + req.PromptMemo + "\n\n")
	}
	sb.WriteString("【出力形式】\n")
	sb.WriteString("- 約10〜15分（4000〜6000文字程度）の対話形式\n")
	sb.WriteString("- 相談者が悩みを話し、回答者が共感しながらアドバイス\n")
	sb.WriteString("- 具体的かつ実践的なアドバイスを含める\n\n")
	sb.WriteString("以下のJSONスキーマに従ったJSONのみを出力してください。前置きや説明は不要です。\n")
	sb.WriteString("speaker には \"" + req.ConsulterName + "\" または \"" + req.AdvisorName + "\" を入れてください。\n\n")
	sb.WriteString(llm.SchemaJSON[scriptJSON]())
	return sb.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
