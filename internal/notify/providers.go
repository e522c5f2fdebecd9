package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"
)

// Provider delivers a short operational message to staff.
type Provider interface {
	Send(ctx context.Context, subject, message, recipient string) error
}

// New picks a provider by kind. A webhook without a URL falls back to the
// log provider.
func New(kind, url, token string) Provider {
	switch kind {
	case "", "log":
		return logProvider{}
	case "noop":
		return noopProvider{}
	case "webhook":
		if url == "" {
			return logProvider{}
		}
		return webhookProvider{url: url, token: token, client: &http.Client{Timeout: 5 * time.Second}}
	default:
		if strings.HasPrefix(kind, "http://") || strings.HasPrefix(kind, "https://") {
			return webhookProvider{url: kind, token: token, client: &http.Client{Timeout: 5 * time.Second}}
		}
		return logProvider{}
	}
}

type logProvider struct{}

func (logProvider) Send(ctx context.Context, subject, message, recipient string) error {
	log.Printf("[notify] to=%s subject=%q\n%s", recipient, subject, message)
	return nil
}

type noopProvider struct{}

func (noopProvider) Send(ctx context.Context, subject, message, recipient string) error { return nil }

type webhookProvider struct {
	url    string
	token  string
	client *http.Client
}

func (p webhookProvider) Send(ctx context.Context, subject, message, recipient string) error {
	body, err := json.Marshal(map[string]string{
		"recipient": recipient,
		"subject":   subject,
		"message":   message,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("notification webhook rejected request")
	}
	return nil
}
