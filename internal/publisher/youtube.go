package publisher

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/metadata"
)

// Uploader publishes the rendered video to YouTube via Data API v3.
type Uploader struct {
	cfg *config.Config
	ch  config.ChannelConfig
}

// New creates an Uploader for one channel.
func New(cfg *config.Config, ch config.ChannelConfig) *Uploader {
	return &Uploader{cfg: cfg, ch: ch}
}

// Result is what persists after a successful upload.
type Result struct {
	VideoID  string `json:"video_id"`
	WatchURL string `json:"watch_url"`
}

// Run uploads the video with its metadata, then sets the thumbnail
// and posts the first comment. Only the video upload itself is fatal;
// thumbnail and comment failures are logged and dropped.
func (u *Uploader) Run(ctx context.Context, videoFile, thumbnailFile string, payload *metadata.Payload, comment string) (*Result, error) {
	log.Println("[upload] Authenticating with YouTube API...")

	client, err := u.oauthClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("youtube auth: %w", err)
	}
	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                payload.Title,
			Description:          payload.Description,
			Tags:                 payload.Tags,
			CategoryId:           u.cfg.Metadata.YouTubeCategoryID,
			DefaultLanguage:      u.cfg.Upload.DefaultLanguage,
			DefaultAudioLanguage: u.cfg.Upload.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           u.cfg.Upload.Visibility,
			SelfDeclaredMadeForKids: u.cfg.Upload.MadeForKids,
		},
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return nil, fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	fi, _ := f.Stat()
	log.Printf("[upload] Uploading %q (%.1f MB)...", payload.Title, float64(fi.Size())/1024/1024)

	// Resumable upload in 8MB chunks so a dropped connection retries
	// the chunk, not the whole file.
	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.NotifySubscribers(u.cfg.Upload.NotifySubscribers)
	call.Media(f, googleapi.ChunkSize(8*1024*1024))

	uploaded, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("youtube upload: %w", err)
	}

	result := &Result{
		VideoID:  uploaded.Id,
		WatchURL: fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id),
	}
	log.Printf("[upload] ✅ Uploaded: %s", result.WatchURL)

	u.setThumbnail(ctx, svc, result.VideoID, thumbnailFile)
	u.postComment(svc, result.VideoID, comment)

	return result, nil
}

// setThumbnail is non-fatal: a failure is logged and the video keeps
// its auto-generated thumbnail.
func (u *Uploader) setThumbnail(ctx context.Context, svc *youtube.Service, videoID, thumbnailFile string) {
	if thumbnailFile == "" {
		return
	}
	f, err := os.Open(thumbnailFile)
	if err != nil {
		log.Printf("[upload] ⚠️  Open thumbnail: %v — keeping auto thumbnail", err)
		return
	}
	defer f.Close()

	if _, err := svc.Thumbnails.Set(videoID).Media(f).Context(ctx).Do(); err != nil {
		log.Printf("[upload] ⚠️  Thumbnail upload failed: %v — keeping auto thumbnail", err)
		return
	}
	log.Println("[upload] ✅ Thumbnail set")
}

// postComment posts the generated first comment. Non-fatal.
func (u *Uploader) postComment(svc *youtube.Service, videoID, comment string) {
	if comment == "" || !u.cfg.Upload.PostComment {
		return
	}
	thread := &youtube.CommentThread{
		Snippet: &youtube.CommentThreadSnippet{
			VideoId: videoID,
			TopLevelComment: &youtube.Comment{
				Snippet: &youtube.CommentSnippet{TextOriginal: comment},
			},
		},
	}
	if _, err := svc.CommentThreads.Insert([]string{"snippet"}, thread).Do(); err != nil {
		log.Printf("[upload] ⚠️  First comment failed: %v — skipping", err)
		return
	}
	log.Println("[upload] ✅ First comment posted")
}

// oauthClient builds an HTTP client from the channel's refresh token.
// The token expiry is backdated to force an immediate refresh.
func (u *Uploader) oauthClient(ctx context.Context) (*http.Client, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv(u.ch.YouTubeTokenEnv)

	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or %s not set", u.ch.YouTubeTokenEnv)
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeForceSslScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token)), nil
}
