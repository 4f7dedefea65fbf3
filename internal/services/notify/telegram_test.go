package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
)

func messengerFor(serverURL string) *TelegramMessenger {
	return NewTelegramMessenger(&common.TelegramConfig{
		Enabled:     true,
		Token:       "test-token",
		APIBaseURL:  serverURL,
		SendTimeout: "5s",
		RatePerSec:  1000,
	}, common.GetLogger())
}

func TestSendMessage(t *testing.T) {
	var gotPath, gotChatID, gotText string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Error(err)
		}
		gotChatID = r.FormValue("chat_id")
		gotText = r.FormValue("text")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	messenger := messengerFor(server.URL)
	if err := messenger.SendMessage(context.Background(), "123", "Resultados 2T25"); err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}

	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotChatID != "123" || gotText != "Resultados 2T25" {
		t.Errorf("form = %q / %q", gotChatID, gotText)
	}
}

func TestSendDocument(t *testing.T) {
	var gotFilename string
	var gotContent []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("document")
		if err != nil {
			t.Error(err)
			http.Error(w, "bad upload", http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		buf := make([]byte, header.Size)
		file.Read(buf)
		gotContent = buf
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	messenger := messengerFor(server.URL)
	err := messenger.SendDocument(context.Background(), "123", "relatorio.pdf", []byte("%PDF fake"), "Relatório 2T25")
	if err != nil {
		t.Fatalf("SendDocument error: %v", err)
	}

	if gotFilename != "relatorio.pdf" {
		t.Errorf("filename = %q", gotFilename)
	}
	if string(gotContent) != "%PDF fake" {
		t.Errorf("content = %q", gotContent)
	}
}

func TestSendMessageErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"server error", http.StatusInternalServerError, true},
		{"rate limited", http.StatusTooManyRequests, true},
		{"bad request", http.StatusBadRequest, false},
		{"forbidden", http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			err := messengerFor(server.URL).SendMessage(context.Background(), "123", "text")
			if err == nil {
				t.Fatal("expected error")
			}
			if models.IsTransient(err) != tt.transient {
				t.Errorf("IsTransient = %v, want %v", models.IsTransient(err), tt.transient)
			}
		})
	}
}
