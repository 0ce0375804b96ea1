package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DefaultChannel string                   `yaml:"default_channel"`
	Channels       map[string]ChannelConfig `yaml:"channels"`
	Collector      CollectorConfig          `yaml:"collector"`
	LLM            LLMConfig                `yaml:"llm"`
	Speech         SpeechConfig             `yaml:"speech"`
	Timing         TimingConfig             `yaml:"timing"`
	Video          VideoConfig              `yaml:"video"`
	Captions       CaptionsConfig           `yaml:"captions"`
	Assets         AssetsConfig             `yaml:"assets"`
	Metadata       MetadataConfig           `yaml:"metadata"`
	Upload         UploadConfig             `yaml:"upload"`
	Sheet          SheetConfig              `yaml:"sheet"`
	Slack          SlackConfig              `yaml:"slack"`
	Drive          DriveConfig              `yaml:"drive"`
	Thumbnail      ThumbnailConfig          `yaml:"thumbnail"`
	Server         ServerConfig             `yaml:"server"`
	Watch          WatchConfig              `yaml:"watch"`
	Paths          PathsConfig              `yaml:"paths"`
}

// ChannelConfig holds one channel's personas, voices and upload identity.
type ChannelConfig struct {
	Name            string       `yaml:"name"`
	SheetName       string       `yaml:"sheet_name"`
	AdvisorName     string       `yaml:"advisor_name"`
	AdvisorVoice    VoiceProfile `yaml:"advisor_voice"`
	ConsulterVoice  VoiceProfile `yaml:"consulter_voice"`
	YouTubeTokenEnv string       `yaml:"youtube_token_env"`
}

// VoiceProfile is a fixed speaker-to-voice mapping entry.
type VoiceProfile struct {
	Name         string  `yaml:"name"`
	SpeakingRate float64 `yaml:"speaking_rate"`
	Pitch        float64 `yaml:"pitch"`
}

type CollectorConfig struct {
	Subreddits     []string `yaml:"subreddits"`
	RedditPostLimit int     `yaml:"reddit_post_limit"`
	MinPostLength  int      `yaml:"min_post_length"`
}

type LLMConfig struct {
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type SpeechConfig struct {
	LanguageCode     string `yaml:"language_code"`
	OutputFormat     string `yaml:"output_format"`
	SampleRate       int    `yaml:"sample_rate"`
	BatchSize        int    `yaml:"batch_size"`
	RateLimitSleepMS int    `yaml:"rate_limit_sleep_ms"`
}

type TimingConfig struct {
	Mode           string  `yaml:"mode"` // measured | estimated
	PerCharSeconds float64 `yaml:"per_char_seconds"`
	FixedOverhead  float64 `yaml:"fixed_overhead"`
	InterLineGap   float64 `yaml:"inter_line_gap"`
}

type VideoConfig struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	FPS             int     `yaml:"fps"`
	BackgroundColor string  `yaml:"background_color"`
	CharX           int     `yaml:"char_x"`
	CharY           int     `yaml:"char_y"`
	CharHeight      int     `yaml:"char_height"`
	BGMVolume       float64 `yaml:"bgm_volume"`
}

type CaptionsConfig struct {
	Font            string `yaml:"font"`
	FontSize        int    `yaml:"font_size"`
	MaxCharsPerLine int    `yaml:"max_chars_per_line"`
	MarginBottom    int    `yaml:"margin_bottom"`
	Position        string `yaml:"position"` // bottom | center
	BoxColor        string `yaml:"box_color"`
	BoxAlpha        int    `yaml:"box_alpha"`
	OutlineWidth    int    `yaml:"outline_width"`
}

type AssetsConfig struct {
	BackgroundFileID string   `yaml:"background_file_id"`
	CharacterFileIDs []string `yaml:"character_file_ids"`
	BGMFileID        string   `yaml:"bgm_file_id"`
	BackgroundLocal  string   `yaml:"background_local"`
	CharacterLocals  []string `yaml:"character_locals"`
	BGMLocal         string   `yaml:"bgm_local"`
	GenerateBackground bool   `yaml:"generate_background"`
	BackgroundPrompt string   `yaml:"background_prompt"`
}

type MetadataConfig struct {
	TitleMaxChars     int    `yaml:"title_max_chars"`
	TagsCount         int    `yaml:"tags_count"`
	YouTubeCategoryID string `yaml:"youtube_category_id"`
}

type UploadConfig struct {
	Visibility      string `yaml:"visibility"`
	MadeForKids     bool   `yaml:"made_for_kids"`
	NotifySubscribers bool `yaml:"notify_subscribers"`
	DefaultLanguage string `yaml:"default_language"`
	PostComment     bool   `yaml:"post_comment"`
	DriveFolderID   string `yaml:"drive_folder_id"`
}

type SheetConfig struct {
	SpreadsheetIDEnv string `yaml:"spreadsheet_id_env"`
	HeaderRows       int    `yaml:"header_rows"`
}

type SlackConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Channel        string `yaml:"channel"`
	BotTokenEnv    string `yaml:"bot_token_env"`
	WebhookURLEnv  string `yaml:"webhook_url_env"`
	SigningSecretEnv string `yaml:"signing_secret_env"`
}

type DriveConfig struct {
	CredentialsEnv string `yaml:"credentials_env"`
}

type ThumbnailConfig struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	FontPath string `yaml:"font_path"`
	FontSize float64 `yaml:"font_size"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type WatchConfig struct {
	ScriptCron  string `yaml:"script_cron"`
	ProduceCron string `yaml:"produce_cron"`
}

type PathsConfig struct {
	Output string `yaml:"output"`
	Logs   string `yaml:"logs"`
	Assets string `yaml:"assets"`
}

// Default returns the built-in configuration. Load overlays a YAML file
// on top of these values, so omitted keys keep their defaults.
func Default() *Config {
	return &Config{
		DefaultChannel: "jinsei",
		Channels: map[string]ChannelConfig{
			"jinsei": {
				Name:            "人生相談",
				SheetName:       "人生相談",
				AdvisorName:     "マダム・ミレーヌ",
				AdvisorVoice:    VoiceProfile{Name: "ja-JP-Wavenet-A", SpeakingRate: 0.9, Pitch: -2.0},
				ConsulterVoice:  VoiceProfile{Name: "ja-JP-Neural2-B", SpeakingRate: 1.1, Pitch: 2.0},
				YouTubeTokenEnv: "YOUTUBE_REFRESH_TOKEN_1",
			},
			"denwa": {
				Name:            "電話相談",
				SheetName:       "電話相談",
				AdvisorName:     "ヴェルヴェーヌ",
				AdvisorVoice:    VoiceProfile{Name: "ja-JP-Wavenet-A", SpeakingRate: 0.95, Pitch: 0},
				ConsulterVoice:  VoiceProfile{Name: "ja-JP-Neural2-B", SpeakingRate: 1.1, Pitch: 2.0},
				YouTubeTokenEnv: "YOUTUBE_REFRESH_TOKEN_2",
			},
			"ningen": {
				Name:            "人間関係相談",
				SheetName:       "人間関係相談",
				AdvisorName:     "加東先生",
				AdvisorVoice:    VoiceProfile{Name: "ja-JP-Wavenet-C", SpeakingRate: 0.85, Pitch: -4.0},
				ConsulterVoice:  VoiceProfile{Name: "ja-JP-Neural2-B", SpeakingRate: 1.1, Pitch: 2.0},
				YouTubeTokenEnv: "YOUTUBE_REFRESH_TOKEN_3",
			},
		},
		Collector: CollectorConfig{
			Subreddits:      []string{"Advice", "relationship_advice"},
			RedditPostLimit: 25,
			MinPostLength:   300,
		},
		LLM: LLMConfig{
			Model:       "gemini-2.5-flash",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta/openai/",
			APIKeyEnv:   "GEMINI_API_KEY",
			Temperature: 0.7,
			MaxTokens:   8192,
		},
		Speech: SpeechConfig{
			LanguageCode:     "ja-JP",
			OutputFormat:     "MP3",
			SampleRate:       24000,
			BatchSize:        15,
			RateLimitSleepMS: 500,
		},
		Timing: TimingConfig{
			Mode:           "measured",
			PerCharSeconds: 0.2,
			FixedOverhead:  0.5,
			InterLineGap:   0.5,
		},
		Video: VideoConfig{
			Width:           1920,
			Height:          1080,
			FPS:             30,
			BackgroundColor: "0x1E1E1E",
			CharX:           50,
			CharY:           100,
			CharHeight:      400,
			BGMVolume:       0.2,
		},
		Captions: CaptionsConfig{
			Font:            "Hiragino Maru Gothic ProN",
			FontSize:        52,
			MaxCharsPerLine: 26,
			MarginBottom:    80,
			Position:        "bottom",
			BoxColor:        "B8860B",
			BoxAlpha:        240,
			OutlineWidth:    4,
		},
		Metadata: MetadataConfig{
			TitleMaxChars:     100,
			TagsCount:         15,
			YouTubeCategoryID: "24",
		},
		Upload: UploadConfig{
			Visibility:      "public",
			DefaultLanguage: "ja",
			PostComment:     true,
		},
		Sheet: SheetConfig{
			SpreadsheetIDEnv: "SPREADSHEET_ID",
			HeaderRows:       1,
		},
		Slack: SlackConfig{
			Channel:          "#動画生成",
			BotTokenEnv:      "SLACK_BOT_TOKEN",
			WebhookURLEnv:    "SLACK_WEBHOOK_URL",
			SigningSecretEnv: "SLACK_SIGNING_SECRET",
		},
		Drive: DriveConfig{
			CredentialsEnv: "GOOGLE_CREDENTIALS_JSON",
		},
		Thumbnail: ThumbnailConfig{
			Width:    1280,
			Height:   720,
			FontSize: 96,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Watch: WatchConfig{
			ScriptCron:  "0 7 * * *",
			ProduceCron: "0 19 * * *",
		},
		Paths: PathsConfig{
			Output: "output",
			Logs:   "logs",
			Assets: "assets",
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a run cannot proceed without.
func (c *Config) Validate() error {
	if len(c.Channels) == 0 {
		return fmt.Errorf("no channels configured")
	}
	if _, ok := c.Channels[c.DefaultChannel]; !ok {
		return fmt.Errorf("default_channel %q is not in channels", c.DefaultChannel)
	}
	for key, ch := range c.Channels {
		if ch.AdvisorName == "" {
			return fmt.Errorf("channel %q: advisor_name is required", key)
		}
		if ch.AdvisorVoice.Name == "" || ch.ConsulterVoice.Name == "" {
			return fmt.Errorf("channel %q: both voice profiles are required", key)
		}
	}
	if c.Timing.Mode != "measured" && c.Timing.Mode != "estimated" {
		return fmt.Errorf("timing.mode must be measured or estimated, got %q", c.Timing.Mode)
	}
	if c.Timing.PerCharSeconds <= 0 || c.Timing.InterLineGap < 0 {
		return fmt.Errorf("timing constants must be positive")
	}
	if c.Captions.MaxCharsPerLine <= 0 {
		return fmt.Errorf("captions.max_chars_per_line must be positive")
	}
	return nil
}

// Channel resolves a channel key, falling back to the default channel
// when key is empty.
func (c *Config) Channel(key string) (ChannelConfig, error) {
	if key == "" {
		key = c.DefaultChannel
	}
	ch, ok := c.Channels[key]
	if !ok {
		return ChannelConfig{}, fmt.Errorf("unknown channel %q", key)
	}
	return ch, nil
}
