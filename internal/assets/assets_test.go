package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/script"
)

type fakeDownloader struct {
	failIDs map[string]bool
	fetched []string
}

func (f *fakeDownloader) Download(_ context.Context, fileID, destPath string) error {
	f.fetched = append(f.fetched, fileID)
	if f.failIDs[fileID] {
		return errors.New("download failed")
	}
	return os.WriteFile(destPath, []byte("data"), 0644)
}

func baseConfig() *config.Config {
	cfg := config.Default()
	cfg.Assets = config.AssetsConfig{}
	return cfg
}

func TestResolveDownloadFailureDegrades(t *testing.T) {
	cfg := baseConfig()
	cfg.Assets.BackgroundFileID = "bg-id"
	cfg.Assets.BGMFileID = "bgm-id"
	cfg.Assets.CharacterFileIDs = []string{"cons-id", "adv-id"}
	dl := &fakeDownloader{failIDs: map[string]bool{"bg-id": true, "bgm-id": true, "cons-id": true}}

	b := New(cfg, dl).Resolve(context.Background(), t.TempDir())

	if b.BackgroundPath != "" {
		t.Errorf("background = %q, want default (empty)", b.BackgroundPath)
	}
	if b.BGMPath != "" {
		t.Errorf("bgm = %q, want default (empty)", b.BGMPath)
	}
	if _, ok := b.CharacterPaths[script.SpeakerConsulter]; ok {
		t.Error("failed consulter art should be omitted")
	}
	if _, ok := b.CharacterPaths[script.SpeakerAdvisor]; !ok {
		t.Error("advisor art downloaded fine and should be present")
	}
}

func TestResolveLocalTakesPriority(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "bg.png")
	if err := os.WriteFile(local, []byte("img"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig()
	cfg.Assets.BackgroundLocal = local
	cfg.Assets.BackgroundFileID = "bg-id"
	dl := &fakeDownloader{}

	b := New(cfg, dl).Resolve(context.Background(), t.TempDir())

	if b.BackgroundPath != local {
		t.Errorf("background = %q, want local %q", b.BackgroundPath, local)
	}
	for _, id := range dl.fetched {
		if id == "bg-id" {
			t.Error("background was downloaded despite local file")
		}
	}
}

func TestResolveCachedDownloadReused(t *testing.T) {
	cacheDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(cacheDir, "bgm.mp3"), []byte("cached"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := baseConfig()
	cfg.Assets.BGMFileID = "bgm-id"
	dl := &fakeDownloader{}

	b := New(cfg, dl).Resolve(context.Background(), cacheDir)

	if b.BGMPath == "" {
		t.Fatal("cached bgm not used")
	}
	if len(dl.fetched) != 0 {
		t.Errorf("re-downloaded %v despite cache", dl.fetched)
	}
}

func TestResolveNoDownloaderNoAssets(t *testing.T) {
	cfg := baseConfig()
	cfg.Assets.BackgroundFileID = "bg-id"

	b := New(cfg, nil).Resolve(context.Background(), t.TempDir())

	if b.BackgroundPath != "" || b.BGMPath != "" || len(b.CharacterPaths) != 0 {
		t.Errorf("bundle %+v, want all defaults with no downloader", b)
	}
}
