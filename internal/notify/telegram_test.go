package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTelegramSend(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	sender := NewTelegramSender("bot-token", "chat-42")
	sender.baseURL = srv.URL

	if err := sender.Send(context.Background(), "Run Complete", "3 suggestions"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotPath != "/botbot-token/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotPayload["chat_id"] != "chat-42" {
		t.Errorf("chat_id = %q", gotPayload["chat_id"])
	}
	if gotPayload["text"] != "*Run Complete*\n3 suggestions" {
		t.Errorf("text = %q", gotPayload["text"])
	}
	if gotPayload["parse_mode"] != "Markdown" {
		t.Errorf("parse_mode = %q", gotPayload["parse_mode"])
	}
}

func TestTelegramSendClipsLongMessages(t *testing.T) {
	var gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		gotText = payload["text"]
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	sender := NewTelegramSender("tok", "chat")
	sender.baseURL = srv.URL

	long := strings.Repeat("x", telegramMessageBudget+500)
	if err := sender.Send(context.Background(), "Title", long); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(gotText) != telegramMessageBudget {
		t.Errorf("len(text) = %d, want %d", len(gotText), telegramMessageBudget)
	}
}

func TestTelegramSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false,"description":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	sender := NewTelegramSender("tok", "chat")
	sender.baseURL = srv.URL

	err := sender.Send(context.Background(), "Title", "body")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error = %v", err)
	}
}
