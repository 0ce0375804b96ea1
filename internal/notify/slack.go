package notify

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/slack-go/slack"

	"github.com/konkon034034/jinsei-soudan/internal/config"
)

// Notifier posts pipeline updates to Slack. It prefers the bot token
// (threads, richer blocks) and falls back to the incoming webhook.
// All notifications are best-effort: Slack being down never fails a
// run.
type Notifier struct {
	cfg        *config.Config
	client     *slack.Client
	webhookURL string
}

// New builds a Notifier from config. Returns a disabled Notifier when
// slack.enabled is false or no credential is configured.
func New(cfg *config.Config) *Notifier {
	n := &Notifier{cfg: cfg}
	if !cfg.Slack.Enabled {
		return n
	}
	if token := os.Getenv(cfg.Slack.BotTokenEnv); token != "" {
		n.client = slack.New(token)
	}
	n.webhookURL = os.Getenv(cfg.Slack.WebhookURLEnv)
	if n.client == nil && n.webhookURL == "" {
		log.Println("[slack] No credential configured — notifications disabled")
	}
	return n
}

// ScriptApproval posts the generated script with approve / revise /
// reject buttons for one sheet row.
func (n *Notifier) ScriptApproval(row int, channelName, theme, preview string) {
	blocks := approvalBlocks(row, channelName, theme, preview)
	n.post(fmt.Sprintf("台本生成完了（行 %d）", row), blocks)
}

// RunComplete announces a published video.
func (n *Notifier) RunComplete(row int, title, watchURL string) {
	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("✅ *動画を公開しました*（行 %d）\n*%s*\n%s", row, title, watchURL), false, false),
			nil, nil),
	}
	n.post("動画を公開しました", blocks)
}

// RunFailed announces a failed run with the error message.
func (n *Notifier) RunFailed(row int, runErr error) {
	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("❌ *動画生成に失敗しました*（行 %d）\n```%v```", row, runErr), false, false),
			nil, nil),
	}
	n.post("動画生成に失敗しました", blocks)
}

// approvalBlocks builds the Block Kit approval message. The block ID
// carries the row so follow-up webhooks can locate the original
// message.
func approvalBlocks(row int, channelName, theme, preview string) []slack.Block {
	header := slack.NewHeaderBlock(
		slack.NewTextBlockObject(slack.PlainTextType, "📝 台本の承認をお願いします", false, false))

	body := fmt.Sprintf("*チャンネル:* %s\n*テーマ:* %s\n\n```%s```",
		channelName, theme, clampPreview(preview, 2500))
	section := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, body, false, false), nil, nil)

	approve := slack.NewButtonBlockElement(ActionIDApprove, KindApprove.Value(row),
		slack.NewTextBlockObject(slack.PlainTextType, "✅ 承認", false, false))
	approve.Style = slack.StylePrimary
	revise := slack.NewButtonBlockElement(ActionIDRevise, KindRevise.Value(row),
		slack.NewTextBlockObject(slack.PlainTextType, "✏️ 修正", false, false))
	reject := slack.NewButtonBlockElement(ActionIDReject, KindReject.Value(row),
		slack.NewTextBlockObject(slack.PlainTextType, "🗑 ボツ", false, false))
	reject.Style = slack.StyleDanger

	buttons := slack.NewActionBlock(fmt.Sprintf("script_approval_%d", row), approve, revise, reject)

	return []slack.Block{header, section, buttons}
}

// post delivers blocks via the bot token or webhook. Errors are
// logged only.
func (n *Notifier) post(fallbackText string, blocks []slack.Block) {
	if n.client != nil {
		_, _, err := n.client.PostMessage(n.cfg.Slack.Channel,
			slack.MsgOptionText(fallbackText, false),
			slack.MsgOptionBlocks(blocks...))
		if err == nil {
			return
		}
		log.Printf("[slack] ⚠️  Bot post failed: %v — trying webhook", err)
	}
	if n.webhookURL != "" {
		msg := &slack.WebhookMessage{
			Text:   fallbackText,
			Blocks: &slack.Blocks{BlockSet: blocks},
		}
		if err := slack.PostWebhook(n.webhookURL, msg); err != nil {
			log.Printf("[slack] ⚠️  Webhook post failed: %v", err)
		}
	}
}

func clampPreview(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max]) + "\n…"
}
