package metadata

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/llm"
)

const systemPrompt = `あなたはシニア向けYouTubeチャンネルのSEO担当です。
視聴者は50〜70代。煽りすぎず、悩みに共感するタイトルと説明文を書いてください。
出力は指定されたJSONのみ。前置きや説明は不要です。`

// Payload is the upload metadata for one video.
type Payload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Generator derives the upload metadata and the first comment from
// the collected consultation text.
type Generator struct {
	cfg *config.Config
	llm llm.Completer
}

// New creates a metadata Generator.
func New(cfg *config.Config, client llm.Completer) *Generator {
	return &Generator{cfg: cfg, llm: client}
}

// Run generates the metadata payload. A model or decode failure never
// propagates: the documented static fallback is substituted so the
// Publisher step is never blocked by this stage.
func (g *Generator) Run(ctx context.Context, theme, summary string) *Payload {
	log.Println("[metadata] Generating title/description/tags...")

	raw, err := g.llm.Complete(ctx, systemPrompt, g.buildPrompt(theme, summary))
	if err != nil {
		log.Printf("[metadata] ⚠️  Generation failed: %v — using fallback payload", err)
		return g.Fallback(theme)
	}

	payload, err := Decode(raw, g.cfg.Metadata.TitleMaxChars)
	if err != nil {
		log.Printf("[metadata] ⚠️  %v — using fallback payload", err)
		return g.Fallback(theme)
	}

	log.Printf("[metadata] ✅ Title: %q (%d tags)", payload.Title, len(payload.Tags))
	return payload
}

// Decode parses a model response into a Payload, tolerating a
// markdown code fence around the JSON. The title is truncated to
// titleMax runes.
func Decode(raw string, titleMax int) (*Payload, error) {
	var p Payload
	if err := llm.DecodeJSON(raw, &p); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if p.Title == "" {
		return nil, fmt.Errorf("decode metadata: empty title")
	}
	p.Title = truncateRunes(p.Title, titleMax)
	return &p, nil
}

// Fallback is the static payload used whenever generation or decoding
// fails.
func (g *Generator) Fallback(theme string) *Payload {
	title := strings.TrimSpace(theme)
	if title == "" {
		title = "人生相談"
	}
	return &Payload{
		Title:       truncateRunes("【人生相談】"+title, g.cfg.Metadata.TitleMaxChars),
		Description: "今回の人生相談をお届けします。\nご意見・ご感想はコメント欄へお寄せください。",
		Tags:        []string{"人生相談", "悩み相談", "シニア", "夫婦", "人間関係"},
	}
}

// Comment generates the pinned first comment. Failures return "" and
// are logged only; the comment is never required.
func (g *Generator) Comment(ctx context.Context, payload *Payload) string {
	raw, err := g.llm.Complete(ctx, systemPrompt, fmt.Sprintf(
		"次の動画に投稿する、視聴者への問いかけを含む最初のコメントを100文字以内で書いてください。コメント本文のみを出力してください。\n\nタイトル: %s\n説明: %s",
		payload.Title, payload.Description))
	if err != nil {
		log.Printf("[metadata] ⚠️  Comment generation failed: %v — skipping", err)
		return ""
	}
	return strings.TrimSpace(llm.StripFence(raw))
}

func (g *Generator) buildPrompt(theme, summary string) string {
	var sb strings.Builder
	sb.WriteString("以下の人生相談動画のメタデータを作成してください。\n\n")
	sb.WriteString("【テーマ】\n" + theme + "\n\n")
	sb.WriteString("【相談内容】\n" + summary + "\n\n")
	sb.WriteString("【条件】\n")
	fmt.Fprintf(&sb, "- title は%d文字以内。悩みのキーワードを先頭に\n", g.cfg.Metadata.TitleMaxChars)
	sb.WriteString("- description は300〜500文字。チャンネル登録の呼びかけを含める\n")
	fmt.Fprintf(&sb, "- tags は%d個\n\n", g.cfg.Metadata.TagsCount)
	sb.WriteString("以下のJSONスキーマに従ったJSONのみを出力してください。\n\n")
	sb.WriteString(llm.SchemaJSON[Payload]())
	return sb.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
