package server

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/konkon034034/jinsei-soudan/internal/config"
	"github.com/konkon034034/jinsei-soudan/internal/notify"
	"github.com/konkon034034/jinsei-soudan/internal/sheet"
)

type fakeStore struct {
	rows     []int
	statuses []string
	err      error
}

func (f *fakeStore) UpdateStatus(_ context.Context, row int, status string) error {
	f.rows = append(f.rows, row)
	f.statuses = append(f.statuses, status)
	return f.err
}

const testSecret = "8f742231b10e8888abcd99yyyzzz85a5"

func testServer(store StatusUpdater) *Server {
	gin.SetMode(gin.TestMode)
	return &Server{cfg: config.Default(), store: store, signingSecret: testSecret}
}

// sign produces the v0 Slack signature headers for a body.
func sign(req *http.Request, body string) {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte("v0:" + ts + ":" + body))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
}

func interactionBody(actionID, value string) string {
	payload := map[string]any{
		"type": "block_actions",
		"actions": []map[string]any{
			{"action_id": actionID, "block_id": "decision", "value": value, "type": "button"},
		},
	}
	data, _ := json.Marshal(payload)
	form := url.Values{}
	form.Set("payload", string(data))
	return form.Encode()
}

func postInteraction(t *testing.T, s *Server, body string, signed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/slack/interactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signed {
		sign(req, body)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestInteractionApproveUpdatesSheet(t *testing.T) {
	store := &fakeStore{}
	s := testServer(store)

	body := interactionBody(notify.ActionIDApprove, notify.KindApprove.Value(12))
	w := postInteraction(t, s, body, true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	if len(store.rows) != 1 || store.rows[0] != 12 {
		t.Fatalf("updated rows %v, want [12]", store.rows)
	}
	if store.statuses[0] != sheet.StatusApprovedScript {
		t.Errorf("status = %q, want %q", store.statuses[0], sheet.StatusApprovedScript)
	}
}

func TestInteractionRejectAndRevise(t *testing.T) {
	tests := []struct {
		actionID string
		value    string
		want     string
	}{
		{notify.ActionIDRevise, notify.KindRevise.Value(5), sheet.StatusReviseScript},
		{notify.ActionIDReject, notify.KindReject.Value(6), sheet.StatusRejected},
	}
	for _, tt := range tests {
		store := &fakeStore{}
		s := testServer(store)
		w := postInteraction(t, s, interactionBody(tt.actionID, tt.value), true)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tt.actionID, w.Code)
		}
		if len(store.statuses) != 1 || store.statuses[0] != tt.want {
			t.Errorf("%s: statuses = %v, want [%s]", tt.actionID, store.statuses, tt.want)
		}
	}
}

func TestInteractionUnsignedRejected(t *testing.T) {
	store := &fakeStore{}
	s := testServer(store)

	body := interactionBody(notify.ActionIDApprove, notify.KindApprove.Value(12))
	w := postInteraction(t, s, body, false)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if len(store.rows) != 0 {
		t.Errorf("sheet was updated despite bad signature: %v", store.rows)
	}
}

func TestInteractionMalformedActionIgnored(t *testing.T) {
	store := &fakeStore{}
	s := testServer(store)

	// Unknown action ID: logged and skipped, not an error response.
	body := interactionBody("nuke_channel", `{"action":"nuke","row":2}`)
	w := postInteraction(t, s, body, true)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(store.rows) != 0 {
		t.Errorf("sheet was updated for malformed action: %v", store.rows)
	}
}

func TestHealthz(t *testing.T) {
	s := testServer(&fakeStore{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
