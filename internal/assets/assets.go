package assets

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/script"
)

// Downloader fetches a file by provider ID into a local path.
// Satisfied by drive.Service and test fakes.
type Downloader interface {
	Download(ctx context.Context, fileID, destPath string) error
}

// Bundle holds the resolved local paths for one run's optional
// assets. An empty path means the asset is absent and the compositor
// substitutes its documented default (solid background, narration-only
// audio, overlay omitted).
type Bundle struct {
	BackgroundPath string
	CharacterPaths map[script.Speaker]string
	BGMPath        string
}

// Resolver locates run assets: local files first, then Drive
// downloads. Every asset is optional; a failed download degrades to
// the default instead of failing the run.
type Resolver struct {
	cfg *config.Config
	dl  Downloader
}

// New creates a Resolver. dl may be nil when Drive is not configured.
func New(cfg *config.Config, dl Downloader) *Resolver {
	return &Resolver{cfg: cfg, dl: dl}
}

// Resolve builds the asset bundle for one run. cacheDir holds
// downloaded files across runs so repeated videos do not re-fetch the
// same background.
func (r *Resolver) Resolve(ctx context.Context, cacheDir string) *Bundle {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Printf("[assets] ⚠️  Could not create cache dir: %v — using defaults for everything", err)
		return &Bundle{CharacterPaths: map[script.Speaker]string{}}
	}

	b := &Bundle{CharacterPaths: map[script.Speaker]string{}}

	b.BackgroundPath = r.resolveOne(ctx, "background",
		r.cfg.Assets.BackgroundLocal, r.cfg.Assets.BackgroundFileID,
		filepath.Join(cacheDir, "background.png"))
	if b.BackgroundPath == "" && r.cfg.Assets.GenerateBackground {
		genPath := filepath.Join(cacheDir, "background_generated.jpg")
		if _, err := os.Stat(genPath); err != nil {
			if err := r.generateBackground(ctx, genPath); err != nil {
				log.Printf("[assets] ⚠️  Background generation failed: %v — using solid color", err)
				genPath = ""
			}
		}
		b.BackgroundPath = genPath
	}
	b.BGMPath = r.resolveOne(ctx, "bgm",
		r.cfg.Assets.BGMLocal, r.cfg.Assets.BGMFileID,
		filepath.Join(cacheDir, "bgm.mp3"))

	// Character art order is fixed: consulter first, advisor second.
	speakers := []script.Speaker{script.SpeakerConsulter, script.SpeakerAdvisor}
	for i, sp := range speakers {
		local, fileID := "", ""
		if i < len(r.cfg.Assets.CharacterLocals) {
			local = r.cfg.Assets.CharacterLocals[i]
		}
		if i < len(r.cfg.Assets.CharacterFileIDs) {
			fileID = r.cfg.Assets.CharacterFileIDs[i]
		}
		path := r.resolveOne(ctx, string(sp), local, fileID,
			filepath.Join(cacheDir, string(sp)+".png"))
		if path != "" {
			b.CharacterPaths[sp] = path
		}
	}
	return b
}

// resolveOne returns a usable local path or "" when the asset
// degrades to its default.
func (r *Resolver) resolveOne(ctx context.Context, name, local, fileID, cachePath string) string {
	if local != "" {
		if _, err := os.Stat(local); err == nil {
			return local
		}
		log.Printf("[assets] ⚠️  Local %s %q not found", name, local)
	}

	if fileID == "" || r.dl == nil {
		if local == "" {
			log.Printf("[assets] No %s configured — using default", name)
		}
		return ""
	}

	if _, err := os.Stat(cachePath); err == nil {
		return cachePath
	}
	if err := r.dl.Download(ctx, fileID, cachePath); err != nil {
		log.Printf("[assets] ⚠️  Download of %s failed: %v — using default", name, err)
		return ""
	}
	log.Printf("[assets] ✅ Downloaded %s → %s", name, cachePath)
	return cachePath
}
