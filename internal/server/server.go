package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/slack-go/slack"

	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/notify"
	"github.com/konkon034034/jinsei-soudan/internal/sheet"
)

// StatusUpdater is the slice of the sheet store the server needs.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, row int, status string) error
}

// Server receives Slack interaction callbacks and routes the button
// decisions back into the workflow sheet.
type Server struct {
	cfg           *config.Config
	store         StatusUpdater
	signingSecret string
}

// New creates a Server for one channel's sheet store.
func New(cfg *config.Config, store StatusUpdater) (*Server, error) {
	secret := os.Getenv(cfg.Slack.SigningSecretEnv)
	if secret == "" {
		return nil, fmt.Errorf("%s not set", cfg.Slack.SigningSecretEnv)
	}
	return &Server{cfg: cfg, store: store, signingSecret: secret}, nil
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/slack/interactions", s.handleInteraction)
	return r
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	log.Printf("[server] Listening on %s", s.cfg.Server.Addr)
	return s.Router().Run(s.cfg.Server.Addr)
}

// handleInteraction verifies the Slack signature, parses the button
// action, and moves the sheet row to the decided status.
func (s *Server) handleInteraction(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "read body")
		return
	}

	if err := s.verifySignature(c.Request.Header, body); err != nil {
		log.Printf("[server] ⚠️  Rejected interaction: %v", err)
		c.String(http.StatusUnauthorized, "bad signature")
		return
	}

	// Slack sends the interaction as a form with a payload field.
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	payload := c.PostForm("payload")
	if payload == "" {
		c.String(http.StatusBadRequest, "missing payload")
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &callback); err != nil {
		c.String(http.StatusBadRequest, "malformed payload")
		return
	}

	for _, ba := range callback.ActionCallback.BlockActions {
		action, err := notify.ParseAction(ba.ActionID, ba.Value)
		if err != nil {
			log.Printf("[server] ⚠️  Ignoring action: %v", err)
			continue
		}
		if err := s.apply(c.Request.Context(), action); err != nil {
			log.Printf("[server] ❌ Row %d update failed: %v", action.Row, err)
			c.String(http.StatusInternalServerError, "sheet update failed")
			return
		}
	}
	c.Status(http.StatusOK)
}

// apply maps a decision onto the sheet's status machine.
func (s *Server) apply(ctx context.Context, action notify.Action) error {
	var status string
	switch action.Kind {
	case notify.KindApprove:
		status = sheet.StatusApprovedScript
	case notify.KindRevise:
		status = sheet.StatusReviseScript
	case notify.KindReject:
		status = sheet.StatusRejected
	default:
		return fmt.Errorf("unhandled action kind %q", action.Kind)
	}
	log.Printf("[server] Row %d: %s → %s", action.Row, action.Kind, status)
	return s.store.UpdateStatus(ctx, action.Row, status)
}

// verifySignature checks the request against the Slack signing secret.
func (s *Server) verifySignature(header http.Header, body []byte) error {
	verifier, err := slack.NewSecretsVerifier(header, s.signingSecret)
	if err != nil {
		return err
	}
	if _, err := verifier.Write(body); err != nil {
		return err
	}
	return verifier.Ensure()
}
