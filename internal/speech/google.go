package speech

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"

	"github.com/konkon034034/jinsei-soudan/internal/config"
)

// Synthesizer converts one line of text into raw audio bytes using a
// fixed voice profile. Satisfied by GoogleSynthesizer and test fakes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice config.VoiceProfile) ([]byte, error)
}

// GoogleSynthesizer calls the Cloud Text-to-Speech REST API.
type GoogleSynthesizer struct {
	svc *texttospeech.Service
	cfg *config.Config
}

// NewGoogle builds a GoogleSynthesizer using the service-account JSON
// in the env var named by drive.credentials_env (the same credential
// covers Sheets, Drive and TTS).
func NewGoogle(ctx context.Context, cfg *config.Config) (*GoogleSynthesizer, error) {
	creds := os.Getenv(cfg.Drive.CredentialsEnv)
	if creds == "" {
		return nil, fmt.Errorf("%s not set", cfg.Drive.CredentialsEnv)
	}
	svc, err := texttospeech.NewService(ctx, option.WithCredentialsJSON([]byte(creds)))
	if err != nil {
		return nil, fmt.Errorf("texttospeech service: %w", err)
	}
	return &GoogleSynthesizer{svc: svc, cfg: cfg}, nil
}

// Synthesize requests MP3 audio for one line. Voice name, speaking
// rate and pitch come from the static per-speaker profile.
func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string, voice config.VoiceProfile) ([]byte, error) {
	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: g.cfg.Speech.LanguageCode,
			Name:         voice.Name,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding:   g.cfg.Speech.OutputFormat,
			SpeakingRate:    voice.SpeakingRate,
			Pitch:           voice.Pitch,
			SampleRateHertz: int64(g.cfg.Speech.SampleRate),
		},
	}

	resp, err := g.svc.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio content: %w", err)
	}
	return audio, nil
}
