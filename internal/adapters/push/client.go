package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"lumebackend/internal/domain"
)

// message is the request body accepted by the push gateway.
type message struct {
	To       string            `json:"to"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
	Sender   string            `json:"sender,omitempty"`
	Priority string            `json:"priority,omitempty"`
}

// gatewayResponse is the per-send outcome returned by the gateway.
type gatewayResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type httpSender struct {
	client  *http.Client
	baseURL string
}

// NewHTTPSender returns a PushSender that posts to an Expo-style push gateway.
func NewHTTPSender(client *http.Client, baseURL string) domain.PushSender {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpSender{client: client, baseURL: baseURL}
}

func (s *httpSender) Send(ctx context.Context, token, title string, payload map[string]string, appName, body string) error {
	msg := message{
		To:       token,
		Title:    title,
		Body:     body,
		Data:     payload,
		Sender:   appName,
		Priority: "high",
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v2/push/send", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach push gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push gateway returned status: %d", resp.StatusCode)
	}

	var result gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode push gateway response: %w", err)
	}
	if result.Status != "ok" {
		return fmt.Errorf("push rejected by gateway: %s", result.Message)
	}
	return nil
}
