package notify_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"detailhub/internal/notify"
)

func TestWebhookProviderPostsJSON(t *testing.T) {
	var got map[string]string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := notify.New("webhook", srv.URL, "tok")
	if err := p.Send(context.Background(), "Low stock", "Foam shampoo: 2 L left", "manager"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if auth != "Bearer tok" {
		t.Fatalf("missing bearer token, got %q", auth)
	}
	if got["subject"] != "Low stock" || got["recipient"] != "manager" {
		t.Fatalf("unexpected payload: %v", got)
	}
}

func TestWebhookProviderReportsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := notify.New("webhook", srv.URL, "").Send(context.Background(), "s", "m", "r"); err == nil {
		t.Fatal("want error on 502")
	}
}

func TestWebhookWithoutURLFallsBackToLog(t *testing.T) {
	if err := notify.New("webhook", "", "").Send(context.Background(), "s", "m", "r"); err != nil {
		t.Fatalf("log fallback should not fail: %v", err)
	}
}
