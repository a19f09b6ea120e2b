package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kengpt/kengpt/pkg/chat"
)

func TestSubmitChat_RoundTrip(t *testing.T) {
	sessionID := uuid.NewString()
	var seenPath, seenContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.Path
		seenContentType = r.Header.Get("Content-Type")

		var req chat.Message
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Role != chat.RoleUser {
			t.Fatalf("expected user role, got %q", req.Role)
		}
		if req.Profile == nil || req.Profile.Botname != "KenGPT" {
			t.Fatalf("expected profile in request, got %+v", req.Profile)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chat.Message{
			Role:           chat.RoleAssistant,
			Contents:       []chat.Content{{Format: chat.FormatText, Content: "Hello!"}},
			Thoughts:       []string{"user greeted me"},
			Timestamp:      time.Now().UnixMilli(),
			SessionID:      sessionID,
			ModelSignature: "test-model",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0)
	req := chat.NewRequest("Hello", chat.DefaultProfile(), nil, "")
	resp, err := client.SubmitChat(context.Background(), req)
	if err != nil {
		t.Fatalf("SubmitChat: %v", err)
	}

	if seenPath != "/api/chat" {
		t.Errorf("expected /api/chat path, got %q", seenPath)
	}
	if seenContentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", seenContentType)
	}
	if resp.Text() != "Hello!" {
		t.Errorf("response text = %q", resp.Text())
	}
	if resp.SessionID != sessionID {
		t.Errorf("session id = %q, want %q", resp.SessionID, sessionID)
	}
	if !resp.HasThoughts() {
		t.Errorf("expected thoughts on response")
	}
}

func TestSubmitChat_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0)
	_, err := client.SubmitChat(context.Background(), chat.NewRequest("hi", chat.DefaultProfile(), nil, ""))
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should carry the status, got %v", err)
	}
}

// TestSubmitChat_RejectsNonAssistantReply verifies a malformed reply role
// does not pass through as a valid response.
func TestSubmitChat_RejectsNonAssistantReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chat.Message{Role: chat.RoleUser})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0)
	_, err := client.SubmitChat(context.Background(), chat.NewRequest("hi", chat.DefaultProfile(), nil, ""))
	if err == nil {
		t.Fatal("expected error for user-role reply")
	}
}

func TestListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/models" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]string{"deepseek-r1:7b", "llama3:8b"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0)
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 2 || models[0] != "deepseek-r1:7b" {
		t.Errorf("models = %v", models)
	}
}

func TestSystemStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/system" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(chat.System{Status: chat.StatusStandby, Model: "deepseek-r1:7b"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0)
	system, err := client.SystemStatus(context.Background())
	if err != nil {
		t.Fatalf("SystemStatus: %v", err)
	}
	if system.Status != chat.StatusStandby || system.Model != "deepseek-r1:7b" {
		t.Errorf("system = %+v", system)
	}
}

func TestSpeak_SanitizesText(t *testing.T) {
	var seenText string
	audio := []byte{0xFF, 0xFB, 0x90, 0x00} // MP3 frame header bytes
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		seenText = payload["text"]
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0)
	got, err := client.Speak(context.Background(), "Hello, world! 🎉")
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if seenText != "Hello world " {
		t.Errorf("sanitized text = %q", seenText)
	}
	if string(got) != string(audio) {
		t.Errorf("audio bytes mismatch")
	}
}

func TestSanitizeSpeech(t *testing.T) {
	cases := []struct{ in, want string }{
		{"plain words", "plain words"},
		{"with, punctuation!", "with punctuation"},
		{"emoji 🎉 gone", "emoji  gone"},
		{"keep 123 digits", "keep 123 digits"},
	}
	for _, tc := range cases {
		if got := SanitizeSpeech(tc.in); got != tc.want {
			t.Errorf("SanitizeSpeech(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
