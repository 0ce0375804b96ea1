package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/vartanbeno/go-reddit/v2/reddit"

	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/llm"
)

// Material is one collected consultation: the raw text the script
// generator works from, plus source identifiers for deduplication.
type Material struct {
	Theme     string `json:"theme"`
	Summary   string `json:"summary"`
	SourceID  string `json:"source_id"`
	SourceURL string `json:"source_url"`
}

// Collector gathers consultation material. Reddit advice posts are
// the primary raw source; when Reddit yields nothing usable the LLM's
// own search produces a consultation instead.
type Collector struct {
	cfg  *config.Config
	llm  llm.Completer
	used map[string]bool
}

// New creates a Collector. The used-source log under paths.logs keeps
// repeated runs from remaking the same consultation.
func New(cfg *config.Config, client llm.Completer) *Collector {
	return &Collector{
		cfg:  cfg,
		llm:  client,
		used: loadUsedSources(usedLogPath(cfg)),
	}
}

// Run picks one fresh consultation and records its source as used.
func (c *Collector) Run(ctx context.Context) (*Material, error) {
	log.Println("[collect] Searching for consultation material...")

	material, err := c.fromReddit(ctx)
	if err != nil {
		log.Printf("[collect] ⚠️  Reddit source unavailable: %v — falling back to LLM search", err)
		material, err = c.fromLLM(ctx)
		if err != nil {
			return nil, fmt.Errorf("collect material: %w", err)
		}
	}

	c.markUsed(material.SourceID)
	log.Printf("[collect] ✅ Selected: %q", material.Theme)
	return material, nil
}

// fromReddit pulls hot posts from the configured advice subreddits
// and localizes the first unused post of sufficient length into a
// Japanese consultation.
func (c *Collector) fromReddit(ctx context.Context) (*Material, error) {
	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, fmt.Errorf("reddit client: %w", err)
	}

	for _, sub := range c.cfg.Collector.Subreddits {
		posts, _, err := client.Subreddit.HotPosts(ctx, sub, &reddit.ListOptions{
			Limit: c.cfg.Collector.RedditPostLimit,
		})
		if err != nil {
			log.Printf("[collect] ⚠️  r/%s: %v", sub, err)
			continue
		}

		for _, post := range posts {
			if c.used[post.FullID] {
				continue
			}
			if utf8.RuneCountInString(post.Body) < c.cfg.Collector.MinPostLength {
				continue
			}

			summary, err := c.localize(ctx, post.Title, post.Body)
			if err != nil {
				log.Printf("[collect] ⚠️  Localize failed for %s: %v", post.FullID, err)
				continue
			}
			return &Material{
				Theme:     summary.Theme,
				Summary:   summary.Summary,
				SourceID:  post.FullID,
				SourceURL: "https://www.reddit.com" + post.Permalink,
			}, nil
		}
	}
	return nil, fmt.Errorf("no unused post of %d+ chars in %v", c.cfg.Collector.MinPostLength, c.cfg.Collector.Subreddits)
}

// summaryJSON is the shape requested from the model for both the
// localization and the pure-LLM paths.
type summaryJSON struct {
	Theme   string `json:"theme"`
	Summary string `json:"summary"`
}

// localize rewrites a foreign advice post as a Japanese consultation
// suited to the channel's audience.
func (c *Collector) localize(ctx context.Context, title, body string) (*summaryJSON, error) {
	prompt := fmt.Sprintf(`以下の海外の相談投稿を、日本のシニア向け人生相談として自然に書き直してください。
固有名詞は日本の文脈に置き換え、相談者の年齢・家族構成を補ってください。

【投稿タイトル】
%s

【投稿本文】
%s

以下のJSONスキーマに従ったJSONのみを出力してください。
theme は相談の要点を30文字以内で、summary は相談本文を400〜800文字で。

%s`, title, body, llm.SchemaJSON[summaryJSON]())

	return c.complete(ctx, prompt)
}

// fromLLM asks the model (tool-assisted search included, when the
// endpoint supports it) to produce one consultation outright.
func (c *Collector) fromLLM(ctx context.Context) (*Material, error) {
	prompt := fmt.Sprintf(`日本のシニア世代が共感する、リアルな人生相談をひとつ作成してください。
夫婦関係・親子関係・お金・健康・近所付き合いのいずれかのテーマで、
実際の新聞の人生相談欄にあるような具体性を持たせてください。

以下のJSONスキーマに従ったJSONのみを出力してください。
theme は相談の要点を30文字以内で、summary は相談本文を400〜800文字で。

%s`, llm.SchemaJSON[summaryJSON]())

	s, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &Material{Theme: s.Theme, Summary: s.Summary, SourceID: "llm:" + hashText(s.Summary)}, nil
}

func (c *Collector) complete(ctx context.Context, prompt string) (*summaryJSON, error) {
	raw, err := c.llm.Complete(ctx, "あなたは人生相談コンテンツの編集者です。", prompt)
	if err != nil {
		return nil, err
	}
	var s summaryJSON
	if err := llm.DecodeJSON(raw, &s); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if strings.TrimSpace(s.Summary) == "" {
		return nil, fmt.Errorf("model returned empty summary")
	}
	return &s, nil
}

// --- used-source log ---

func usedLogPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.Logs, "used_sources.json")
}

func loadUsedSources(path string) map[string]bool {
	used := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return used
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return used
	}
	for _, id := range ids {
		used[id] = true
	}
	return used
}

func (c *Collector) markUsed(id string) {
	if id == "" {
		return
	}
	c.used[id] = true
	ids := make([]string, 0, len(c.used))
	for k := range c.used {
		ids = append(ids, k)
	}
	data, _ := json.MarshalIndent(ids, "", "  ")
	path := usedLogPath(c.cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("[collect] ⚠️  Could not save used-source log: %v", err)
	}
}

// hashText gives a stable short ID for LLM-originated material.
func hashText(s string) string {
	var h uint64 = 1469598103934665603
	for _, b := range []byte(s) {
		h ^= uint64(b)
		h *= 1099511628211
	}
	return fmt.Sprintf("%016x", h)
}
